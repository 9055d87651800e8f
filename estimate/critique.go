package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/pkg/logging"
)

const (
	// maxCritiqueIterations bounds the refinement loop; with it the loop
	// makes at most 3 scoring calls and 2 rewrite calls per run.
	maxCritiqueIterations = 3

	// scoreThreshold is the composite score at which an answer is accepted
	// without further rewriting.
	scoreThreshold = 80

	// neutralScore is substituted on every dimension when scoring fails.
	// It sits below the threshold, so a failed scoring call always forces
	// a rewrite rather than silently accepting the answer.
	neutralScore = 70
)

// Critic scores candidate answers on four quality dimensions and rewrites
// them until they pass the quality gate or iterations run out.
type Critic struct {
	client llm.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewCritic creates a critic backed by the given model.
func NewCritic(client llm.Client, opts ...CriticOption) *Critic {
	c := &Critic{
		client: client,
		logger: logging.WithComponent("critique"),
		tracer: otel.Tracer("carecost/estimate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CriticOption configures a Critic.
type CriticOption func(*Critic)

// WithCriticLogger overrides the critic logger.
func WithCriticLogger(logger *slog.Logger) CriticOption {
	return func(c *Critic) {
		c.logger = logger
	}
}

// critiqueScores is one scoring pass over a candidate answer.
type critiqueScores struct {
	Completeness int
	Accuracy     int
	Clarity      int
	Safety       int
	Composite    int
	NeedsRewrite bool
	Weakest      string
	Instructions string
}

// The model scores on a 0.0-1.0 scale per dimension. Missing dimensions
// default to 0.7, and the verdict fields are optional.
type rawCritique struct {
	Completeness        *float64 `json:"completeness"`
	Accuracy            *float64 `json:"accuracy"`
	Clarity             *float64 `json:"clarity"`
	Safety              *float64 `json:"safety"`
	WeakestDimension    string   `json:"weakest_dimension"`
	RewriteInstructions string   `json:"rewrite_instructions"`
}

func rescale(v *float64) int {
	if v == nil {
		return 70
	}
	return int(math.Round(*v * 100))
}

// Score evaluates the answer on completeness, accuracy, clarity, and safety.
// A failed or unparseable scoring call returns the neutral score set with a
// forced rewrite.
func (c *Critic) Score(ctx context.Context, answer *Answer, careNeeded string, hasInsurance bool) critiqueScores {
	prompt := c.scoringPrompt(answer, careNeeded, hasInsurance)

	raw, err := llm.Invoke(ctx, c.client, critiquePrompt, prompt)
	if err == nil {
		if decoded, derr := llm.DecodeJSON[rawCritique](raw); derr == nil {
			completeness := rescale(decoded.Completeness)
			accuracy := rescale(decoded.Accuracy)
			clarity := rescale(decoded.Clarity)
			safety := rescale(decoded.Safety)
			composite := CompositeOf(completeness, accuracy, clarity, safety)

			weakest := decoded.WeakestDimension
			if weakest == "" {
				weakest = "clarity"
			}
			return critiqueScores{
				Completeness: completeness,
				Accuracy:     accuracy,
				Clarity:      clarity,
				Safety:       safety,
				Composite:    composite,
				NeedsRewrite: composite < scoreThreshold,
				Weakest:      weakest,
				Instructions: decoded.RewriteInstructions,
			}
		} else {
			err = derr
		}
	}

	c.logger.Warn("scoring failed, using neutral scores", "error", err)
	return critiqueScores{
		Completeness: neutralScore,
		Accuracy:     neutralScore,
		Clarity:      neutralScore,
		Safety:       neutralScore,
		Composite:    neutralScore,
		NeedsRewrite: true,
		Weakest:      "unknown",
		Instructions: fmt.Sprintf("Scoring failed: %v. Rewrite for clarity and completeness.", err),
	}
}

func (c *Critic) scoringPrompt(answer *Answer, careNeeded string, hasInsurance bool) string {
	inNetwork, outNetwork := 0, 0
	for _, p := range answer.Providers {
		switch p.NetworkStatus {
		case NetworkIn:
			inNetwork++
		case NetworkOut:
			outNetwork++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "ADDITIONAL CONTEXT:\n")
	fmt.Fprintf(&sb, "- User asked about: %s\n", careNeeded)
	fmt.Fprintf(&sb, "- Insurance info provided: %t\n", hasInsurance)
	fmt.Fprintf(&sb, "- Default benchmark values used: %t\n\n", answer.UsedDefaults)
	fmt.Fprintf(&sb, "ANSWER TO SCORE:\n")
	fmt.Fprintf(&sb, "HEADLINE: %s\n\n", answer.Headline)
	fmt.Fprintf(&sb, "SPOKEN SUMMARY: %s\n\n", answer.SpokenSummary)
	fmt.Fprintf(&sb, "NEXT STEP: %s\n\n", answer.NextStep)
	fmt.Fprintf(&sb, "STRUCTURED DATA:\n")
	fmt.Fprintf(&sb, "- Providers found: %d\n", len(answer.Providers))
	fmt.Fprintf(&sb, "- In-network providers: %d\n", inNetwork)
	fmt.Fprintf(&sb, "- Out-of-network providers: %d\n", outNetwork)
	fmt.Fprintf(&sb, "- In-network cost: $%.0f\n", answer.InNetworkCost)
	fmt.Fprintf(&sb, "- Out-of-network cost: $%.0f\n", answer.OutOfNetworkCost)
	fmt.Fprintf(&sb, "- Alternative cost: $%.0f\n", answer.AlternativeCost)
	fmt.Fprintf(&sb, "- Alternative description: %s\n", answer.AlternativeDescription)
	fmt.Fprintf(&sb, "- Confidence stated: %.2f\n\n", answer.Confidence)
	sb.WriteString(`SCORING NOTES:
- If default benchmark values were used, the answer MUST mention this
  limitation to score full marks on safety
- If no out-of-network provider was found, do not penalize accuracy
  for missing out-of-network cost
- The next_step must be specific and actionable, not generic
- Costs must be stated as estimates, not guarantees

Return valid JSON only. No markdown fences. No explanation.`)
	return sb.String()
}

// Rewrite asks the model to improve the answer using the critique scores.
// Only prose fields change: structured data is carried over from the
// previous candidate. A failed rewrite returns the previous candidate
// unchanged.
func (c *Critic) Rewrite(ctx context.Context, answer *Answer, scores critiqueScores, iteration int) *Answer {
	instructions := scores.Instructions
	if instructions == "" {
		instructions = "Improve clarity and completeness."
	}

	var sb strings.Builder
	sb.WriteString("You are rewriting a healthcare cost estimate response to improve its quality.\n\n")
	sb.WriteString("PREVIOUS ANSWER TO IMPROVE:\n")
	fmt.Fprintf(&sb, "Headline:       %s\n", answer.Headline)
	fmt.Fprintf(&sb, "Spoken summary: %s\n", answer.SpokenSummary)
	fmt.Fprintf(&sb, "Next step:      %s\n", answer.NextStep)
	fmt.Fprintf(&sb, "In-network cost:     $%.0f\n", answer.InNetworkCost)
	fmt.Fprintf(&sb, "Out-of-network cost: $%.0f\n", answer.OutOfNetworkCost)
	fmt.Fprintf(&sb, "Alternative cost:    $%.0f\n", answer.AlternativeCost)
	fmt.Fprintf(&sb, "Alternative:         %s\n", answer.AlternativeDescription)
	fmt.Fprintf(&sb, "Used defaults:       %t\n\n", answer.UsedDefaults)
	fmt.Fprintf(&sb, "QUALITY SCORES FROM REVIEW:\n")
	fmt.Fprintf(&sb, "Completeness: %d/100\n", scores.Completeness)
	fmt.Fprintf(&sb, "Accuracy:     %d/100\n", scores.Accuracy)
	fmt.Fprintf(&sb, "Clarity:      %d/100\n", scores.Clarity)
	fmt.Fprintf(&sb, "Safety:       %d/100\n", scores.Safety)
	fmt.Fprintf(&sb, "Composite:    %d/100\n\n", scores.Composite)
	fmt.Fprintf(&sb, "WEAKEST DIMENSION: %s\n", scores.Weakest)
	fmt.Fprintf(&sb, "SPECIFIC INSTRUCTIONS: %s\n\n", instructions)
	fmt.Fprintf(&sb, "THIS IS REWRITE ATTEMPT %d of %d.\n\n", iteration, maxCritiqueIterations)
	sb.WriteString(`REWRITE RULES:
- Focus on fixing the weakest dimension specifically
- Keep what was already scoring well
- spoken_summary must be under 120 words and written in plain
  conversational English, it will be read aloud
- Always state costs as estimates, not guarantees
- Always end with one specific, actionable next step
- If defaults were used, mention that real plan details would improve accuracy
- Do not use medical jargon without explaining it

Return the same JSON structure as before.
Return valid JSON only. No markdown fences. No explanation.

Required JSON fields:
headline, explanation, in_network_cost, out_of_network_cost,
alternative_cost, alternative_description, confidence,
spoken_summary, next_step`)

	raw, err := llm.Invoke(ctx, c.client, answerPrompt, sb.String())
	if err != nil {
		c.logger.Warn("rewrite failed, keeping previous answer", "error", err)
		return answer
	}
	decoded, err := llm.DecodeJSON[answerJSON](raw)
	if err != nil {
		c.logger.Warn("rewrite returned malformed JSON, keeping previous answer", "error", err)
		return answer
	}

	rewritten := &Answer{
		Headline:               decoded.Headline,
		Explanation:            decoded.Explanation,
		InNetworkCost:          decoded.InNetworkCost,
		OutOfNetworkCost:       decoded.OutOfNetworkCost,
		AlternativeCost:        decoded.AlternativeCost,
		AlternativeDescription: decoded.AlternativeDescription,
		Confidence:             decoded.Confidence,
		SpokenSummary:          decoded.SpokenSummary,
		NextStep:               decoded.NextStep,
	}
	rewritten.CopyStructured(answer)
	return rewritten
}

// Refine runs the full critique loop: score, track the best candidate, and
// rewrite until the threshold is met or iterations run out. The best-scoring
// candidate is returned with the full ordered score history attached, even
// if a later iteration scored lower.
func (c *Critic) Refine(ctx context.Context, answer *Answer, careNeeded string, hasInsurance bool) *Answer {
	ctx, span := c.tracer.Start(ctx, "critique.refine")
	defer span.End()

	var history []ScoreRecord
	current := answer
	best := answer
	bestScore := 0

	for iteration := 1; iteration <= maxCritiqueIterations; iteration++ {
		scores := c.Score(ctx, current, careNeeded, hasInsurance)

		history = append(history, ScoreRecord{
			Iteration:    iteration,
			Completeness: scores.Completeness,
			Accuracy:     scores.Accuracy,
			Clarity:      scores.Clarity,
			Safety:       scores.Safety,
			Composite:    scores.Composite,
		})

		c.logger.Info("critique iteration",
			"iteration", iteration,
			"completeness", scores.Completeness,
			"accuracy", scores.Accuracy,
			"clarity", scores.Clarity,
			"safety", scores.Safety,
			"composite", scores.Composite)

		if scores.Composite > bestScore {
			bestScore = scores.Composite
			best = current
		}

		if !scores.NeedsRewrite {
			c.logger.Info("quality threshold met", "composite", scores.Composite)
			break
		}
		if iteration == maxCritiqueIterations {
			c.logger.Info("max iterations reached", "best_score", bestScore)
			break
		}

		current = c.Rewrite(ctx, current, scores, iteration)
	}

	span.SetAttributes(
		attribute.Int("final_score", bestScore),
		attribute.Int("iterations", len(history)),
	)

	best.ScoreHistory = history
	best.FinalScore = bestScore
	best.Iterations = len(history)
	return best
}
