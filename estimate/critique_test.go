package estimate

import (
	"context"
	"strings"
	"testing"

	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/message"
)

// fakeClient returns canned responses, dispatching on the system prompt so
// scoring and rewrite calls can be told apart.
type fakeClient struct {
	respond func(system, user string) (string, error)
	calls   int
}

func (f *fakeClient) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.calls++
	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case message.RoleSystem:
			system = m.Content
		case message.RoleUser:
			user = m.Content
		}
	}
	text, err := f.respond(system, user)
	if err != nil {
		return nil, err
	}
	return &llm.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, text),
	}, nil
}

func isScoringCall(system string) bool {
	return strings.Contains(system, "quality reviewer")
}

func sampleAnswer() *Answer {
	return &Answer{
		Headline:      "Your knee MRI will cost about $375",
		SpokenSummary: "With your plan a knee MRI costs around $375 in network.",
		NextStep:      "Call Brooklyn Orthopedic Group to confirm the price.",
		InNetworkCost: 375,
		Confidence:    0.9,
		Providers: []Provider{
			{Name: "Brooklyn Orthopedic Group", NetworkStatus: NetworkIn, EstimatedCost: 375},
		},
		PlanDetails:  &PlanDetails{PlanName: "Humana Gold Plus HMO"},
		Alternatives: "Freestanding imaging center nearby.",
		UsedDefaults: false,
	}
}

func TestRefineStopsAtThreshold(t *testing.T) {
	client := &fakeClient{respond: func(system, user string) (string, error) {
		if !isScoringCall(system) {
			t.Fatal("unexpected rewrite call for a passing answer")
		}
		return `{"completeness": 0.9, "accuracy": 0.85, "clarity": 0.9, "safety": 0.88}`, nil
	}}
	critic := NewCritic(client)

	answer := sampleAnswer()
	best := critic.Refine(context.Background(), answer, "knee MRI", true)

	if len(best.ScoreHistory) != 1 {
		t.Fatalf("ScoreHistory has %d records, want 1", len(best.ScoreHistory))
	}
	rec := best.ScoreHistory[0]
	wantComposite := CompositeOf(90, 85, 90, 88) // 88
	if rec.Composite != wantComposite {
		t.Errorf("Composite = %d, want %d", rec.Composite, wantComposite)
	}
	if best.FinalScore != wantComposite {
		t.Errorf("FinalScore = %d, want %d", best.FinalScore, wantComposite)
	}
	if best.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", best.Iterations)
	}
	if best.Headline != answer.Headline {
		t.Errorf("best answer changed despite passing score")
	}
}

func TestRefineScoringFailureForcesRewrite(t *testing.T) {
	rewrites := 0
	client := &fakeClient{respond: func(system, user string) (string, error) {
		if isScoringCall(system) {
			return "not json at all", nil
		}
		rewrites++
		return `{"headline": "rewritten", "spoken_summary": "better text", "next_step": "call", "confidence": 0.8}`, nil
	}}
	critic := NewCritic(client)

	best := critic.Refine(context.Background(), sampleAnswer(), "knee MRI", true)

	if len(best.ScoreHistory) != maxCritiqueIterations {
		t.Fatalf("ScoreHistory has %d records, want %d", len(best.ScoreHistory), maxCritiqueIterations)
	}
	for _, rec := range best.ScoreHistory {
		if rec.Completeness != neutralScore || rec.Composite != neutralScore {
			t.Errorf("record %d = %+v, want all neutral %d", rec.Iteration, rec, neutralScore)
		}
	}
	if rewrites != maxCritiqueIterations-1 {
		t.Errorf("rewrite calls = %d, want %d", rewrites, maxCritiqueIterations-1)
	}
	if best.FinalScore != neutralScore {
		t.Errorf("FinalScore = %d, want %d", best.FinalScore, neutralScore)
	}
}

func TestRefineKeepsBestCandidate(t *testing.T) {
	// Scores decline across iterations: 75, 62, 68. The first candidate
	// stays the best even though it was rewritten twice.
	scoreResponses := []string{
		`{"completeness": 0.75, "accuracy": 0.75, "clarity": 0.75, "safety": 0.75, "weakest_dimension": "clarity", "rewrite_instructions": "simplify"}`,
		`{"completeness": 0.62, "accuracy": 0.62, "clarity": 0.62, "safety": 0.62}`,
		`{"completeness": 0.68, "accuracy": 0.68, "clarity": 0.68, "safety": 0.68}`,
	}
	scoreCall := 0
	client := &fakeClient{respond: func(system, user string) (string, error) {
		if isScoringCall(system) {
			resp := scoreResponses[scoreCall]
			scoreCall++
			return resp, nil
		}
		return `{"headline": "worse rewrite", "spoken_summary": "worse", "next_step": "n", "confidence": 0.5}`, nil
	}}
	critic := NewCritic(client)

	original := sampleAnswer()
	best := critic.Refine(context.Background(), original, "knee MRI", true)

	if best.Headline != original.Headline {
		t.Errorf("best Headline = %q, want the original candidate", best.Headline)
	}
	if best.FinalScore != 75 {
		t.Errorf("FinalScore = %d, want 75", best.FinalScore)
	}
	if best.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", best.Iterations)
	}
	for _, rec := range best.ScoreHistory {
		if rec.Composite > best.FinalScore {
			t.Errorf("history composite %d exceeds FinalScore %d", rec.Composite, best.FinalScore)
		}
	}
}

func TestRewritePreservesStructuredFields(t *testing.T) {
	client := &fakeClient{respond: func(system, user string) (string, error) {
		return `{"headline": "new headline", "explanation": "why", "spoken_summary": "new summary", "next_step": "new step", "in_network_cost": 350, "confidence": 0.85}`, nil
	}}
	critic := NewCritic(client)

	original := sampleAnswer()
	scores := critiqueScores{
		Completeness: 70, Accuracy: 70, Clarity: 70, Safety: 70,
		Composite: 70, NeedsRewrite: true, Weakest: "clarity",
	}
	rewritten := critic.Rewrite(context.Background(), original, scores, 1)

	if rewritten.Headline != "new headline" || rewritten.SpokenSummary != "new summary" {
		t.Errorf("prose fields not replaced: %+v", rewritten)
	}
	if len(rewritten.Providers) != 1 || rewritten.Providers[0].Name != "Brooklyn Orthopedic Group" {
		t.Errorf("Providers not carried over: %+v", rewritten.Providers)
	}
	if rewritten.PlanDetails != original.PlanDetails {
		t.Errorf("PlanDetails not carried over")
	}
	if rewritten.Alternatives != original.Alternatives {
		t.Errorf("Alternatives not carried over")
	}
	if rewritten.UsedDefaults != original.UsedDefaults {
		t.Errorf("UsedDefaults not carried over")
	}
}

func TestRewriteFailureReturnsOriginal(t *testing.T) {
	client := &fakeClient{respond: func(system, user string) (string, error) {
		return "definitely not json", nil
	}}
	critic := NewCritic(client)

	original := sampleAnswer()
	scores := critiqueScores{Composite: 70, NeedsRewrite: true}
	if got := critic.Rewrite(context.Background(), original, scores, 1); got != original {
		t.Errorf("Rewrite should return the unmodified previous answer on failure")
	}
}

func TestScoreRescalesAndComputesComposite(t *testing.T) {
	client := &fakeClient{respond: func(system, user string) (string, error) {
		return "```json\n{\"completeness\": 0.8, \"accuracy\": 0.9, \"clarity\": 0.7, \"safety\": 0.6}\n```", nil
	}}
	critic := NewCritic(client)

	scores := critic.Score(context.Background(), sampleAnswer(), "knee MRI", true)
	if scores.Completeness != 80 || scores.Accuracy != 90 || scores.Clarity != 70 || scores.Safety != 60 {
		t.Errorf("sub-scores = %+v, want 80/90/70/60", scores)
	}
	if want := CompositeOf(80, 90, 70, 60); scores.Composite != want {
		t.Errorf("Composite = %d, want %d", scores.Composite, want)
	}
	if !scores.NeedsRewrite {
		t.Errorf("composite %d below threshold should need rewrite", scores.Composite)
	}
}

func TestCompositeOf(t *testing.T) {
	tests := []struct {
		c, a, cl, s int
		want        int
	}{
		{80, 80, 80, 80, 80},
		{90, 85, 90, 88, 88},
		{70, 70, 70, 71, 70}, // 70.25 rounds down
		{0, 0, 0, 0, 0},
		{100, 100, 100, 100, 100},
	}
	for _, tt := range tests {
		if got := CompositeOf(tt.c, tt.a, tt.cl, tt.s); got != tt.want {
			t.Errorf("CompositeOf(%d,%d,%d,%d) = %d, want %d", tt.c, tt.a, tt.cl, tt.s, got, tt.want)
		}
	}
}
