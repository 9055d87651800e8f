// Package session remembers a user's plan details, postal code, and recent
// searches across requests, keyed by an opaque session ID the client keeps.
package session

import (
	"context"
	"time"

	"github.com/carecost/carecost/estimate"
)

// Record is everything remembered about one session.
type Record struct {
	ID             string                `json:"id"`
	InsuranceInput string                `json:"insurance_input"`
	Plan           *estimate.PlanDetails `json:"plan_details,omitempty"`
	// CareHistory holds the last searches, most recent last, deduplicated.
	CareHistory []string  `json:"care_history"`
	ZipCode     string    `json:"zip_code"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// maxCareHistory bounds how many past searches a record keeps.
const maxCareHistory = 10

// RememberCare appends a search to the care history, skipping duplicates and
// trimming to the most recent entries.
func (r *Record) RememberCare(care string) {
	if care == "" {
		return
	}
	for _, existing := range r.CareHistory {
		if existing == care {
			return
		}
	}
	r.CareHistory = append(r.CareHistory, care)
	if len(r.CareHistory) > maxCareHistory {
		r.CareHistory = r.CareHistory[len(r.CareHistory)-maxCareHistory:]
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Plan = r.Plan.Clone()
	clone.CareHistory = append([]string(nil), r.CareHistory...)
	return &clone
}

// Store persists session records. Implementations must return
// errors.ErrNotFound from Load when the ID is unknown.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}
