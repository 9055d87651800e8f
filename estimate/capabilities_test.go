package estimate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/carecost/carecost/search"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestClassifyNetworkStatus(t *testing.T) {
	tests := []struct {
		name string
		text string
		want NetworkStatus
	}{
		{"in network", "Network Status: in-network\nConfidence: 80%", NetworkIn},
		{"out of network", "Network Status: out-of-network", NetworkOut},
		{"out wins over embedded in", "out-of-network, not an in-network provider", NetworkOut},
		{"baseline text is unknown", "this provider accepts standard coverage", NetworkUnknown},
		{"empty", "", NetworkUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyNetworkStatus(tt.text); got != tt.want {
				t.Errorf("ClassifyNetworkStatus(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSearchNetworkCheckerSignals(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Content: "City Hospital is an in-network participating provider for this plan."},
		{Content: "Confirmed in network for most plan tiers."},
	}}
	checker := NewSearchNetworkChecker(searcher)

	text, err := checker.Check(context.Background(), "City Hospital", "Aetna Silver PPO", "11201")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if ClassifyNetworkStatus(text) != NetworkIn {
		t.Errorf("expected in-network classification, got:\n%s", text)
	}
	if !strings.Contains(searcher.queries[0], "City Hospital") || !strings.Contains(searcher.queries[0], "Aetna Silver PPO") {
		t.Errorf("query missing provider or plan: %q", searcher.queries[0])
	}
}

func TestSearchNetworkCheckerNoSignalsIsUnknown(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Content: "General information about hospital billing."},
	}}
	checker := NewSearchNetworkChecker(searcher)

	text, err := checker.Check(context.Background(), "City Hospital", "Aetna", "11201")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if ClassifyNetworkStatus(text) != NetworkUnknown {
		t.Errorf("expected unknown classification, got:\n%s", text)
	}
	if !strings.Contains(text, "Confidence: 40%") {
		t.Errorf("expected low confidence on no signals, got:\n%s", text)
	}
}

func TestSearchNetworkCheckerPropagatesError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search down")}
	checker := NewSearchNetworkChecker(searcher)

	if _, err := checker.Check(context.Background(), "City Hospital", "Aetna", "11201"); err == nil {
		t.Fatal("expected error when search fails")
	}
}

func TestAlternativesFinderKnownOptions(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Imaging deals", Content: "Compare MRI prices at local centers."},
	}}
	finder := NewSearchAlternativesFinder(searcher)

	text, err := finder.Find(context.Background(), "knee MRI", "11201", 375)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !strings.Contains(text, "Freestanding Imaging Center") {
		t.Errorf("expected imaging alternative, got:\n%s", text)
	}
	if !strings.Contains(text, "$150") {
		t.Errorf("expected 40%% savings of $375 ($150), got:\n%s", text)
	}
	if !strings.Contains(text, "Imaging deals") {
		t.Errorf("expected search result title, got:\n%s", text)
	}
}

func TestAlternativesFinderStripsMarkup(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Page", Content: "<html><body><script>x()</script><p>Outpatient imaging is cheaper</p></body></html>"},
	}}
	finder := NewSearchAlternativesFinder(searcher)

	text, err := finder.Find(context.Background(), "blood test", "11201", 100)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if strings.Contains(text, "<p>") || strings.Contains(text, "script") {
		t.Errorf("markup should be stripped, got:\n%s", text)
	}
	if !strings.Contains(text, "Outpatient imaging is cheaper") {
		t.Errorf("expected readable text preserved, got:\n%s", text)
	}
}

func TestAlternativesFinderTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte content long enough to force truncation.
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Clinic", Content: strings.Repeat("é", 300)},
	}}
	finder := NewSearchAlternativesFinder(searcher)

	text, err := finder.Find(context.Background(), "blood test", "11201", 100)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !utf8.ValidString(text) {
		t.Error("truncation split a multi-byte rune")
	}
	if strings.Count(text, "é") != 200 {
		t.Errorf("kept %d runes of content, want 200", strings.Count(text, "é"))
	}
}

func TestAlternativesFinderFallback(t *testing.T) {
	searcher := &fakeSearcher{}
	finder := NewSearchAlternativesFinder(searcher)

	text, err := finder.Find(context.Background(), "rare procedure", "11201", 1000)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !strings.Contains(text, "member services") {
		t.Errorf("expected member services fallback, got:\n%s", text)
	}
}
