package estimate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/carecost/carecost/search"
)

// Network status is decided by counting signal phrases in search results
// rather than trusting a single keyword: directory pages are messy, and the
// balance of signals is more robust than any one hit.
var (
	inNetworkSignals  = []string{"in-network", "in network", "participating", "contracted provider"}
	outNetworkSignals = []string{"out-of-network", "out of network", "non-participating", "not contracted"}
)

// SearchNetworkChecker checks a provider's network status by searching the
// insurer's live provider directory.
type SearchNetworkChecker struct {
	searcher search.Searcher
}

// NewSearchNetworkChecker creates a network checker backed by web search.
func NewSearchNetworkChecker(searcher search.Searcher) *SearchNetworkChecker {
	return &SearchNetworkChecker{searcher: searcher}
}

func (c *SearchNetworkChecker) Check(ctx context.Context, providerName, planName, postalCode string) (string, error) {
	query := fmt.Sprintf("%q %q in-network provider directory %s", providerName, planName, postalCode)
	results, err := c.searcher.Search(ctx, query, 3)
	if err != nil {
		return "", fmt.Errorf("network status search failed: %w", err)
	}

	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Content)
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	inScore := countSignals(text, inNetworkSignals)
	outScore := countSignals(text, outNetworkSignals)

	var status string
	var confidence float64
	switch {
	case inScore > outScore:
		status = string(NetworkIn)
		confidence = math.Min(0.95, 0.65+float64(inScore)*0.05)
	case outScore > inScore:
		status = string(NetworkOut)
		confidence = math.Min(0.95, 0.65+float64(outScore)*0.05)
	default:
		status = string(NetworkUnknown)
		confidence = 0.40
	}

	return fmt.Sprintf(
		"Provider: %s\nPlan: %s\nNetwork Status: %s\nConfidence: %d%%\nNote: Always verify with your insurer before scheduling.",
		providerName, planName, status, int(math.Round(confidence*100)),
	), nil
}

func countSignals(text string, signals []string) int {
	total := 0
	for _, s := range signals {
		total += strings.Count(text, s)
	}
	return total
}

// ClassifyNetworkStatus maps a checker's free-text answer onto a
// NetworkStatus by substring presence. Unknown is the least-information
// outcome, not a confirmation of out-of-network.
func ClassifyNetworkStatus(text string) NetworkStatus {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, string(NetworkOut)):
		return NetworkOut
	case strings.Contains(lower, string(NetworkIn)):
		return NetworkIn
	default:
		return NetworkUnknown
	}
}
