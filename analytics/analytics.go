// Package analytics records one row of query metrics per estimation run.
// Recording is fire and forget: a dead analytics backend costs metrics,
// never answers.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/carecost/carecost/pkg/logging"
)

// Query is the per-run metrics row.
type Query struct {
	SessionID      string    `json:"session_id"`
	Symptoms       string    `json:"symptoms"`
	CareNeeded     string    `json:"care_needed"`
	ZipCode        string    `json:"zip_code"`
	Insurance      string    `json:"insurance"`
	ProvidersFound int       `json:"providers_found"`
	Confidence     float64   `json:"confidence"`
	FinalScore     int       `json:"final_score"`
	UsedDefaults   bool      `json:"used_defaults"`
	Urgency        string    `json:"urgency"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recorder persists query rows.
type Recorder interface {
	Record(ctx context.Context, q *Query) error
}

// Reporter wraps a Recorder so recording failures are logged and swallowed.
type Reporter struct {
	recorder Recorder
	logger   *slog.Logger
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReporterLogger overrides the reporter logger.
func WithReporterLogger(logger *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter creates a reporter. A nil recorder disables recording.
func NewReporter(recorder Recorder, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		recorder: recorder,
		logger:   logging.WithComponent("analytics"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report records one query row. CreatedAt is stamped here when unset.
func (r *Reporter) Report(ctx context.Context, q *Query) {
	if r.recorder == nil || q == nil {
		return
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if err := r.recorder.Record(ctx, q); err != nil {
		r.logger.Warn("failed to record query analytics", "session_id", q.SessionID, "error", err)
	}
}

// InMemoryRecorder keeps rows in memory, for development and tests.
type InMemoryRecorder struct {
	mu      sync.Mutex
	queries []Query
}

// NewInMemoryRecorder creates an empty in-memory recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

func (r *InMemoryRecorder) Record(ctx context.Context, q *Query) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, *q)
	return nil
}

// Queries returns a copy of everything recorded so far.
func (r *InMemoryRecorder) Queries() []Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Query, len(r.queries))
	copy(out, r.queries)
	return out
}
