package estimate

// State is the record threaded through every node of one pipeline run. Input
// fields are set once at run start; each progressive field is written by
// exactly one node and read only by later nodes. The pipeline owns the state
// exclusively, so no locking is needed; concurrent runs each get their own.
type State struct {
	// Inputs, immutable for the run.
	InsuranceInput string
	Medium         InputMedium
	CareNeeded     string
	ZipCode        string
	FilePath       string
	MedicalHistory string

	// Progressive fields, in node order.
	HasInsurance  bool
	Plan          *PlanDetails
	Procedure     string
	SymptomReason string
	Urgency       Urgency
	Severity      Severity
	Candidates    []Provider // from find-providers, network status unknown
	Networked     []Provider // from check-network, at most 4 entries
	Costed        []Provider // from estimate-cost, sorted cheapest first
	Alternatives  string

	// Terminal field.
	Answer *Answer
}

// Request carries the caller's inputs for one run, after any session
// overrides have been applied.
type Request struct {
	CareNeeded     string
	ZipCode        string
	InsuranceInput string
	Medium         InputMedium
	FilePath       string
	MedicalHistory string
}

func (r *Request) initialState() State {
	medium := r.Medium
	if medium == "" {
		medium = MediumText
	}
	return State{
		InsuranceInput: r.InsuranceInput,
		Medium:         medium,
		CareNeeded:     r.CareNeeded,
		ZipCode:        r.ZipCode,
		FilePath:       r.FilePath,
		MedicalHistory: r.MedicalHistory,
	}
}
