package estimate

import (
	"context"
	"fmt"

	"github.com/carecost/carecost/llm"
)

// LLMPlanExtractor extracts plan details from insurance text with a model
// call. Image and document input is expected to arrive pre-transcribed as
// text; the medium is passed along so the model knows how noisy the input
// may be.
type LLMPlanExtractor struct {
	client llm.Client
}

// NewLLMPlanExtractor creates a plan extractor backed by the given model.
func NewLLMPlanExtractor(client llm.Client) *LLMPlanExtractor {
	return &LLMPlanExtractor{client: client}
}

func (e *LLMPlanExtractor) Extract(ctx context.Context, medium InputMedium, text, filePath string) (string, error) {
	user := fmt.Sprintf("Input medium: %s\nInsurance information:\n%s", medium, text)
	out, err := llm.Invoke(ctx, e.client, planExtractionPrompt, user)
	if err != nil {
		return "", fmt.Errorf("plan extraction failed: %w", err)
	}
	return out, nil
}
