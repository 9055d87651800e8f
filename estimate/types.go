// Package estimate implements the cost-estimation pipeline: input
// classification, plan extraction, severity assessment, provider lookup,
// network checks, the deterministic cost model, and the quality-gated
// critique loop that refines the generated answer.
package estimate

import "strings"

// Severity is a 4-level classification of condition complexity. It is used
// only to scale the estimated cost.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Multiplier returns the cost multiplier for the severity level. Unknown
// values map to the moderate baseline.
func (s Severity) Multiplier() float64 {
	switch s {
	case SeverityMild:
		return 0.7
	case SeverityModerate:
		return 1.0
	case SeveritySevere:
		return 1.6
	case SeverityCritical:
		return 2.5
	default:
		return 1.0
	}
}

// ParseSeverity normalizes free text into a Severity, defaulting to moderate.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild
	case SeveritySevere:
		return SeveritySevere
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityModerate
	}
}

// Urgency describes how soon the care is needed.
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencySoon    Urgency = "soon"
	UrgencyRoutine Urgency = "routine"
)

// ParseUrgency normalizes free text into an Urgency, defaulting to routine.
func ParseUrgency(s string) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(s))) {
	case UrgencyUrgent:
		return UrgencyUrgent
	case UrgencySoon:
		return UrgencySoon
	default:
		return UrgencyRoutine
	}
}

// NetworkStatus is whether a provider is contracted with the active plan.
type NetworkStatus string

const (
	NetworkIn NetworkStatus = "in-network"
	NetworkOut NetworkStatus = "out-of-network"
	// NetworkBaseline marks providers under baseline government coverage,
	// which has no network concept.
	NetworkBaseline NetworkStatus = "accepts-baseline-coverage"
	NetworkUnknown  NetworkStatus = "unknown"
)

// Covered reports whether the status counts as covered when picking the
// cheapest covered option for the final answer.
func (n NetworkStatus) Covered() bool {
	return n == NetworkIn || n == NetworkBaseline
}

// PlanType is the coarse plan classification used for display.
type PlanType string

const (
	PlanOriginalMedicare   PlanType = "Original Medicare"
	PlanMedicareAdvantage  PlanType = "Medicare Advantage"
	PlanMedicareSupplement PlanType = "Medicare Supplement"
	PlanPartD              PlanType = "Part D"
	PlanUnknown            PlanType = "unknown"
)

// PlanDetails describes the active insurance plan for one run.
type PlanDetails struct {
	PlanName         string   `json:"plan_name"`
	PlanType         PlanType `json:"plan_type"`
	InsuranceCompany string   `json:"insurance_company"`
	Deductible       float64  `json:"deductible"`
	// OutOfPocketMax is nil for plans with no annual cap.
	OutOfPocketMax   *float64 `json:"out_of_pocket_max"`
	CopayPrimaryCare float64  `json:"copay_primary_care"`
	CopaySpecialist  float64  `json:"copay_specialist"`
	Coinsurance      float64  `json:"coinsurance"`
	// IsDefault marks that no real plan was supplied and benchmark values
	// were substituted.
	IsDefault bool `json:"is_default"`
}

// Clone returns a deep copy.
func (p *PlanDetails) Clone() *PlanDetails {
	if p == nil {
		return nil
	}
	clone := *p
	if p.OutOfPocketMax != nil {
		v := *p.OutOfPocketMax
		clone.OutOfPocketMax = &v
	}
	return &clone
}

// DefaultPlan returns the baseline government coverage used when no real
// plan is supplied. Values are the standard Part B benchmarks: $240 annual
// deductible, 20% coinsurance, no out-of-pocket maximum.
func DefaultPlan() *PlanDetails {
	return &PlanDetails{
		PlanName:         "Original Medicare (Part A/B)",
		PlanType:         PlanOriginalMedicare,
		InsuranceCompany: "Medicare",
		Deductible:       240,
		OutOfPocketMax:   nil,
		CopayPrimaryCare: 0,
		CopaySpecialist:  0,
		Coinsurance:      20,
		IsDefault:        true,
	}
}

// Provider is one healthcare facility with its network status and the
// patient's estimated cost there. A zero cost means "not yet computed".
type Provider struct {
	Name          string        `json:"name"`
	Address       string        `json:"address"`
	Phone         string        `json:"phone"`
	NPI           string        `json:"npi"`
	NetworkStatus NetworkStatus `json:"network_status"`
	EstimatedCost float64       `json:"estimated_cost"`
}
