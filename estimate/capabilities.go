package estimate

import "context"

// InputMedium is how the insurance description was supplied.
type InputMedium string

const (
	MediumText     InputMedium = "text"
	MediumImage    InputMedium = "image"
	MediumDocument InputMedium = "document"
)

// PlanExtractor turns an insurance description into a labeled text block
// ("Plan Name: ...", "Deductible: ..."). The output is model prose and is
// never assumed well-formed; callers parse it with the field extractors.
type PlanExtractor interface {
	Extract(ctx context.Context, medium InputMedium, text, filePath string) (string, error)
}

// NetworkChecker determines whether a provider is contracted with a plan.
// The answer is free text classified by signal-phrase presence.
type NetworkChecker interface {
	Check(ctx context.Context, providerName, planName, postalCode string) (string, error)
}

// AlternativesFinder searches for lower-cost options for the same care.
type AlternativesFinder interface {
	Find(ctx context.Context, procedure, postalCode string, currentCost float64) (string, error)
}
