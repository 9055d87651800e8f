// Package store provides session.Store implementations: an in-memory map for
// tests and single-process use, plus Redis, MongoDB, and PostgreSQL backends.
package store

import (
	"context"
	"fmt"
	"sync"

	kverrors "github.com/carecost/carecost/errors"
	"github.com/carecost/carecost/session"
)

// InMemoryStore keeps session records in a map. Safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*session.Record)}
}

func (s *InMemoryStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: session record must have an ID", kverrors.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", kverrors.ErrNotFound, id)
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}
