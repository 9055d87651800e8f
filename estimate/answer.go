package estimate

import "math"

// ScoreRecord is one critique iteration's quality scores. Sub-scores are
// integers 0-100; the composite is always recomputed from them.
type ScoreRecord struct {
	Iteration    int `json:"iteration"`
	Completeness int `json:"completeness"`
	Accuracy     int `json:"accuracy"`
	Clarity      int `json:"clarity"`
	Safety       int `json:"safety"`
	Composite    int `json:"composite"`
}

// CompositeOf returns the rounded mean of the four sub-scores.
func CompositeOf(completeness, accuracy, clarity, safety int) int {
	return int(math.Round(float64(completeness+accuracy+clarity+safety) / 4))
}

// Answer is the final artifact of one pipeline run. Prose fields may be
// replaced by the critique loop; structured fields (providers, plan,
// alternatives, flags) are set once by the pipeline and carried unchanged
// across rewrites.
type Answer struct {
	Headline               string  `json:"headline"`
	Explanation            string  `json:"explanation"`
	SpokenSummary          string  `json:"spoken_summary"`
	NextStep               string  `json:"next_step"`
	InNetworkCost          float64 `json:"in_network_cost"`
	OutOfNetworkCost       float64 `json:"out_of_network_cost"`
	AlternativeCost        float64 `json:"alternative_cost"`
	AlternativeDescription string  `json:"alternative_description"`
	Confidence             float64 `json:"confidence"`

	Providers    []Provider   `json:"providers"`
	PlanDetails  *PlanDetails `json:"plan_details"`
	Alternatives string       `json:"alternatives"`
	UsedDefaults bool         `json:"used_defaults"`

	SymptomReason string  `json:"symptom_reason,omitempty"`
	Urgency       Urgency `json:"urgency,omitempty"`

	ScoreHistory []ScoreRecord `json:"score_history"`
	FinalScore   int           `json:"final_score"`
	Iterations   int           `json:"iterations"`

	Error string `json:"error,omitempty"`
}

// CopyStructured carries the structured fields from src onto a. Used after a
// rewrite so only prose fields can change.
func (a *Answer) CopyStructured(src *Answer) {
	a.Providers = src.Providers
	a.PlanDetails = src.PlanDetails
	a.Alternatives = src.Alternatives
	a.UsedDefaults = src.UsedDefaults
	a.SymptomReason = src.SymptomReason
	a.Urgency = src.Urgency
}
