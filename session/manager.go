package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carecost/carecost/estimate"
	"github.com/carecost/carecost/pkg/logging"
)

// UserContext is what a returning session contributes to a new request:
// saved inputs that fill gaps the caller left, plus a greeting for the
// presentation layer.
type UserContext struct {
	IsReturning    bool                  `json:"is_returning"`
	InsuranceInput string                `json:"insurance_input"`
	Plan           *estimate.PlanDetails `json:"plan_details,omitempty"`
	ZipCode        string                `json:"zip_code"`
	CareHistory    []string              `json:"care_history"`
	Greeting       string                `json:"greeting"`
}

// Manager wraps a Store with the load-context and save-run operations the
// estimate flow needs. Persistence failures never propagate: a dead store
// costs continuity, not answers.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		logger: logging.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the manager logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Returning loads saved context for a session ID. An unknown or unloadable
// session is a first visit, not an error.
func (m *Manager) Returning(ctx context.Context, id string) *UserContext {
	if m.store == nil || id == "" {
		return &UserContext{}
	}

	record, err := m.store.Load(ctx, id)
	if err != nil || record == nil {
		return &UserContext{}
	}

	greeting := "Welcome back."
	if record.Plan != nil && record.Plan.PlanName != "" {
		greeting = fmt.Sprintf("Welcome back. Using your %s plan.", record.Plan.PlanName)
	}

	return &UserContext{
		IsReturning:    true,
		InsuranceInput: record.InsuranceInput,
		Plan:           record.Plan.Clone(),
		ZipCode:        record.ZipCode,
		CareHistory:    append([]string(nil), record.CareHistory...),
		Greeting:       greeting,
	}
}

// SaveRun records the inputs and extracted plan of a completed run so the
// next request can reuse them. Failures are logged and swallowed.
func (m *Manager) SaveRun(ctx context.Context, id, insuranceInput, careNeeded, zipCode string, plan *estimate.PlanDetails) {
	if m.store == nil || id == "" {
		return
	}

	record, err := m.store.Load(ctx, id)
	if err != nil || record == nil {
		record = &Record{ID: id}
	}

	record.InsuranceInput = insuranceInput
	record.ZipCode = zipCode
	if plan != nil {
		record.Plan = plan.Clone()
	}
	record.RememberCare(careNeeded)
	record.UpdatedAt = time.Now().UTC()

	if err := m.store.Save(ctx, record); err != nil {
		m.logger.Warn("failed to save session", "session_id", id, "error", err)
	}
}

// Clear deletes all saved data for a session.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}
