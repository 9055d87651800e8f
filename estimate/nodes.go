package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/carecost/carecost/llm"
)

// Node names, also the keys of the routing table exposed by Routes().
const (
	nodeCheckInputs      = "check-inputs"
	nodeInsuranceRoute   = "insurance-route"
	nodeExtractPlan      = "extract-plan"
	nodeUseDefaults      = "use-defaults"
	nodeMapSymptoms      = "map-symptoms"
	nodeAssessSeverity   = "assess-severity"
	nodeFindProviders    = "find-providers"
	nodeCheckNetwork     = "check-network"
	nodeEstimateCost     = "estimate-cost"
	nodeFindAlternatives = "find-alternatives"
	nodeGenerateAnswer   = "generate-answer"
)

// noInsuranceSignals are inputs that explicitly decline to provide insurance.
var noInsuranceSignals = map[string]struct{}{
	"none": {}, "no": {}, "skip": {}, "n/a": {}, "na": {}, "unknown": {}, "": {},
}

// safeCall runs an external call and substitutes a fallback on failure. Every
// node that talks to a collaborator goes through this, so fail-soft behavior
// is uniform: a dead dependency degrades the answer, it never aborts the run.
func safeCall[T any](logger *slog.Logger, node string, fallback T, fn func() (T, error)) T {
	value, err := fn()
	if err != nil {
		logger.Warn("external call failed, using fallback", "node", node, "error", err)
		return fallback
	}
	return value
}

// checkInputs classifies whether the supplied insurance text is meaningful.
// This boolean is the sole routing decision in the pipeline.
func (p *Pipeline) checkInputs(ctx context.Context, s State) (State, error) {
	raw := strings.TrimSpace(s.InsuranceInput)
	_, declined := noInsuranceSignals[strings.ToLower(raw)]
	s.HasInsurance = len(raw) > 5 && !declined
	return s, nil
}

// routeInsurance picks the branch after check-inputs.
func (p *Pipeline) routeInsurance(ctx context.Context, s State) (string, error) {
	if s.HasInsurance {
		return nodeExtractPlan, nil
	}
	return nodeUseDefaults, nil
}

// extractPlan parses real plan details out of the insurance input. Runs only
// on the has-insurance branch.
func (p *Pipeline) extractPlan(ctx context.Context, s State) (State, error) {
	raw := safeCall(p.logger, nodeExtractPlan, "", func() (string, error) {
		return p.planExtractor.Extract(ctx, s.Medium, s.InsuranceInput, s.FilePath)
	})

	var oopMax *float64
	if v := ExtractAmount(raw, "Out-of-Pocket Max:"); v > 0 {
		oopMax = &v
	}

	s.Plan = &PlanDetails{
		PlanName:         ExtractText(raw, "Plan Name:"),
		PlanType:         parsePlanType(ExtractText(raw, "Plan Type:")),
		InsuranceCompany: ExtractText(raw, "Insurance Company:"),
		Deductible:       ExtractAmount(raw, "Deductible:"),
		OutOfPocketMax:   oopMax,
		CopaySpecialist:  ExtractAmount(raw, "Copay Specialist:"),
		CopayPrimaryCare: ExtractAmount(raw, "Copay Primary Care:"),
		Coinsurance:      ExtractPercent(raw, "Coinsurance:"),
		IsDefault:        false,
	}
	if s.Plan.PlanName == "" {
		s.Plan.PlanName = strings.TrimSpace(s.InsuranceInput)
	}
	return s, nil
}

func parsePlanType(s string) PlanType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "original medicare":
		return PlanOriginalMedicare
	case "medicare advantage":
		return PlanMedicareAdvantage
	case "medicare supplement":
		return PlanMedicareSupplement
	case "part d":
		return PlanPartD
	default:
		return PlanUnknown
	}
}

// useDefaults substitutes the baseline benchmark plan. Runs only on the
// no-insurance branch; the final answer explains that real plan details
// would improve accuracy.
func (p *Pipeline) useDefaults(ctx context.Context, s State) (State, error) {
	s.Plan = DefaultPlan()
	return s, nil
}

type symptomResult struct {
	Procedure string `json:"procedure"`
	Reason    string `json:"reason"`
	Urgency   string `json:"urgency"`
}

// mapSymptoms translates a free-text care description into a normalized
// procedure name. If the model call fails, the input is treated as already
// being the procedure name.
func (p *Pipeline) mapSymptoms(ctx context.Context, s State) (State, error) {
	fallback := symptomResult{Procedure: s.CareNeeded, Urgency: string(UrgencyRoutine)}
	mapped := safeCall(p.logger, nodeMapSymptoms, fallback, func() (symptomResult, error) {
		out, err := llm.Invoke(ctx, p.client, symptomMappingPrompt, "Care needed:\n"+s.CareNeeded)
		if err != nil {
			return symptomResult{}, err
		}
		decoded, err := llm.DecodeJSON[symptomResult](out)
		if err != nil {
			return symptomResult{}, err
		}
		return *decoded, nil
	})

	s.Procedure = strings.TrimSpace(mapped.Procedure)
	if s.Procedure == "" {
		s.Procedure = s.CareNeeded
	}
	s.SymptomReason = mapped.Reason
	s.Urgency = ParseUrgency(mapped.Urgency)
	return s, nil
}

type severityResult struct {
	Severity string `json:"severity"`
}

// assessSeverity reads optional medical-history text and classifies condition
// complexity, which scales the cost estimate. No history means moderate.
func (p *Pipeline) assessSeverity(ctx context.Context, s State) (State, error) {
	history := strings.TrimSpace(s.MedicalHistory)
	if history == "" {
		s.Severity = SeverityModerate
		return s, nil
	}

	result := safeCall(p.logger, nodeAssessSeverity, severityResult{}, func() (severityResult, error) {
		out, err := llm.Invoke(ctx, p.client, severityPrompt, "Medical history:\n"+history)
		if err != nil {
			return severityResult{}, err
		}
		decoded, err := llm.DecodeJSON[severityResult](out)
		if err != nil {
			return severityResult{}, err
		}
		return *decoded, nil
	})

	s.Severity = ParseSeverity(result.Severity)
	return s, nil
}

// Keyword to specialty rules, first match wins. Body-part and condition
// keywords sit above imaging modalities so "knee MRI" resolves to orthopedics
// rather than radiology.
var specialtyRules = []struct {
	keyword   string
	specialty string
}{
	{"heart", "cardiology"},
	{"cardiac", "cardiology"},
	{"orthopedic", "orthopedics"},
	{"knee", "orthopedics"},
	{"hip", "orthopedics"},
	{"colonoscopy", "gastroenterology"},
	{"endoscopy", "gastroenterology"},
	{"mental", "psychiatry"},
	{"therapy", "physical therapy"},
	{"surgery", "surgery"},
	{"mri", "radiology"},
	{"ct scan", "radiology"},
	{"x-ray", "radiology"},
	{"ultrasound", "radiology"},
}

const genericSpecialty = "hospital"

// specialtyFor maps a procedure name onto a directory specialty.
func specialtyFor(procedure string) string {
	lower := strings.ToLower(procedure)
	for _, rule := range specialtyRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.specialty
		}
	}
	return genericSpecialty
}

const providerSearchLimit = 8

// findProviders queries the directory for organizations matching the
// procedure's specialty. An empty specialty match retries once with the
// generic category; lookup failure yields an empty list, never an error.
func (p *Pipeline) findProviders(ctx context.Context, s State) (State, error) {
	specialty := specialtyFor(s.Procedure)

	orgs := safeCall(p.logger, nodeFindProviders, []Provider(nil), func() ([]Provider, error) {
		found, err := p.directory.Search(ctx, s.ZipCode, specialty, providerSearchLimit)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 && specialty != genericSpecialty {
			found, err = p.directory.Search(ctx, s.ZipCode, genericSpecialty, providerSearchLimit)
			if err != nil {
				return nil, err
			}
		}
		providers := make([]Provider, 0, len(found))
		for _, org := range found {
			if org.Name == "" {
				continue
			}
			providers = append(providers, Provider{
				Name:          org.Name,
				Address:       org.Address,
				Phone:         org.Phone,
				NPI:           org.NPI,
				NetworkStatus: NetworkUnknown,
			})
		}
		return providers, nil
	})

	s.Candidates = orgs
	return s, nil
}

const networkCheckLimit = 4

// checkNetwork resolves network status for at most the first four candidate
// providers. Under the default baseline plan there is no network to check:
// every provider gets the fixed baseline status.
func (p *Pipeline) checkNetwork(ctx context.Context, s State) (State, error) {
	planName := ""
	isDefault := false
	if s.Plan != nil {
		planName = s.Plan.PlanName
		isDefault = s.Plan.IsDefault
	}

	limit := networkCheckLimit
	if len(s.Candidates) < limit {
		limit = len(s.Candidates)
	}

	networked := make([]Provider, 0, limit)
	for _, candidate := range s.Candidates[:limit] {
		if candidate.Name == "" {
			continue
		}
		provider := candidate

		if isDefault {
			provider.NetworkStatus = NetworkBaseline
		} else {
			name := candidate.Name
			answer := safeCall(p.logger, nodeCheckNetwork, "", func() (string, error) {
				return p.networkChecker.Check(ctx, name, planName, s.ZipCode)
			})
			provider.NetworkStatus = ClassifyNetworkStatus(answer)
		}
		networked = append(networked, provider)
	}

	s.Networked = networked
	return s, nil
}

// estimateCost runs the cost model once per provider and sorts cheapest
// first. A zero cost means "not computed" and sorts last, not first.
func (p *Pipeline) estimateCost(ctx context.Context, s State) (State, error) {
	planName := "Original Medicare"
	if s.Plan != nil && s.Plan.PlanName != "" {
		planName = s.Plan.PlanName
	}

	costed := make([]Provider, 0, len(s.Networked))
	for _, provider := range s.Networked {
		result := EstimateCost(s.Procedure, planName, provider.NetworkStatus, s.Severity, false)
		provider.EstimatedCost = result.PatientCost
		costed = append(costed, provider)
	}

	sortProvidersByCost(costed)

	s.Costed = costed
	return s, nil
}

// sortProvidersByCost orders providers cheapest first, stably. A zero cost
// means "not computed" and sorts last, not first.
func sortProvidersByCost(providers []Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		return sortableCost(providers[i].EstimatedCost) < sortableCost(providers[j].EstimatedCost)
	})
}

func sortableCost(c float64) float64 {
	if c == 0 {
		return math.Inf(1)
	}
	return c
}

// fallbackCurrentCost seeds the alternatives search when no providers were
// found.
const fallbackCurrentCost = 500.0

// findAlternatives always gives the user at least one lower-cost option.
func (p *Pipeline) findAlternatives(ctx context.Context, s State) (State, error) {
	cheapest := fallbackCurrentCost
	if len(s.Costed) > 0 && s.Costed[0].EstimatedCost > 0 {
		cheapest = s.Costed[0].EstimatedCost
	}

	s.Alternatives = safeCall(p.logger, nodeFindAlternatives, "No alternatives found.", func() (string, error) {
		return p.alternatives.Find(ctx, s.Procedure, s.ZipCode, cheapest)
	})
	return s, nil
}

// answerContextMaxTokens bounds the synthesis context. Provider JSON plus
// scraped alternative text can grow without limit otherwise.
const answerContextMaxTokens = 6000

type answerJSON struct {
	Headline               string  `json:"headline"`
	Explanation            string  `json:"explanation"`
	InNetworkCost          float64 `json:"in_network_cost"`
	OutOfNetworkCost       float64 `json:"out_of_network_cost"`
	AlternativeCost        float64 `json:"alternative_cost"`
	AlternativeDescription string  `json:"alternative_description"`
	Confidence             float64 `json:"confidence"`
	SpokenSummary          string  `json:"spoken_summary"`
	NextStep               string  `json:"next_step"`
}

// generateAnswer synthesizes everything into the final answer. Structured
// fields are always reattached from state, never derived from model text.
func (p *Pipeline) generateAnswer(ctx context.Context, s State) (State, error) {
	userContext := p.answerContext(s)

	raw := safeCall(p.logger, nodeGenerateAnswer, "", func() (string, error) {
		return llm.Invoke(ctx, p.client, answerPrompt, userContext)
	})

	answer := &Answer{}
	if decoded, err := llm.DecodeJSON[answerJSON](raw); err == nil {
		answer.Headline = decoded.Headline
		answer.Explanation = decoded.Explanation
		answer.InNetworkCost = decoded.InNetworkCost
		answer.OutOfNetworkCost = decoded.OutOfNetworkCost
		answer.AlternativeCost = decoded.AlternativeCost
		answer.AlternativeDescription = decoded.AlternativeDescription
		answer.Confidence = decoded.Confidence
		answer.SpokenSummary = decoded.SpokenSummary
		answer.NextStep = decoded.NextStep
	} else {
		answer.SpokenSummary = raw
		answer.Headline = fmt.Sprintf("Cost estimate for %s", s.Procedure)
		answer.Confidence = 0.75
	}

	answer.Providers = s.Costed
	if answer.Providers == nil {
		answer.Providers = []Provider{}
	}
	answer.PlanDetails = s.Plan
	answer.Alternatives = s.Alternatives
	answer.UsedDefaults = s.Plan != nil && s.Plan.IsDefault
	answer.SymptomReason = s.SymptomReason
	answer.Urgency = s.Urgency

	s.Answer = answer
	return s, nil
}

func (p *Pipeline) answerContext(s State) string {
	planName := "Original Medicare"
	planType := "unknown"
	deductible := "unknown"
	oopMax := "no limit"
	isDefault := false
	if s.Plan != nil {
		if s.Plan.PlanName != "" {
			planName = s.Plan.PlanName
		}
		planType = string(s.Plan.PlanType)
		deductible = fmt.Sprintf("$%.0f", s.Plan.Deductible)
		if s.Plan.OutOfPocketMax != nil {
			oopMax = fmt.Sprintf("$%.0f", *s.Plan.OutOfPocketMax)
		}
		isDefault = s.Plan.IsDefault
	}

	var cheapestCovered, cheapestOut string
	for _, provider := range s.Costed {
		if cheapestCovered == "" && provider.NetworkStatus.Covered() {
			cheapestCovered = fmt.Sprintf("%s: $%.0f", provider.Name, provider.EstimatedCost)
		}
		if cheapestOut == "" && provider.NetworkStatus == NetworkOut {
			cheapestOut = fmt.Sprintf("%s: $%.0f", provider.Name, provider.EstimatedCost)
		}
	}
	if cheapestCovered == "" {
		cheapestCovered = "None found"
	}
	if cheapestOut == "" {
		cheapestOut = "None found"
	}

	allOptions, err := json.MarshalIndent(s.Costed, "", "  ")
	if err != nil {
		allOptions = []byte("[]")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Patient needs: %s\n", s.Procedure)
	if s.SymptomReason != "" {
		fmt.Fprintf(&sb, "Symptom reason: %s\n", s.SymptomReason)
	}
	fmt.Fprintf(&sb, "Urgency: %s\n", s.Urgency)
	fmt.Fprintf(&sb, "Insurance plan: %s\n", planName)
	fmt.Fprintf(&sb, "Plan type: %s\n", planType)
	fmt.Fprintf(&sb, "Deductible: %s\n", deductible)
	fmt.Fprintf(&sb, "Out-of-pocket max: %s\n", oopMax)
	fmt.Fprintf(&sb, "Using default values: %t\n\n", isDefault)
	fmt.Fprintf(&sb, "CHEAPEST COVERED OPTION:\n%s\n\n", cheapestCovered)
	fmt.Fprintf(&sb, "CHEAPEST OUT-OF-NETWORK:\n%s\n\n", cheapestOut)
	fmt.Fprintf(&sb, "ALL OPTIONS:\n%s\n\n", allOptions)
	fmt.Fprintf(&sb, "CHEAPER ALTERNATIVES:\n%s\n", s.Alternatives)
	if isDefault {
		sb.WriteString(`
IMPORTANT: end your spoken_summary with:
"These estimates use standard Medicare rates. For a more accurate cost
based on your specific plan, share your insurance details and I can
recalculate with your actual deductibles and copays."
`)
	}
	out := sb.String()
	if p.budget != nil {
		out = p.budget.Trim(out, answerContextMaxTokens)
	}
	return out
}
