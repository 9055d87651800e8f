package estimate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/carecost/carecost/search"
)

// SearchAlternativesFinder finds cheaper options for the same care by
// combining live search results with procedure-specific known alternatives,
// so the user always gets at least one lower-cost option.
type SearchAlternativesFinder struct {
	searcher search.Searcher
}

// NewSearchAlternativesFinder creates an alternatives finder backed by web
// search.
func NewSearchAlternativesFinder(searcher search.Searcher) *SearchAlternativesFinder {
	return &SearchAlternativesFinder{searcher: searcher}
}

func (f *SearchAlternativesFinder) Find(ctx context.Context, procedure, postalCode string, currentCost float64) (string, error) {
	query := fmt.Sprintf("cheaper alternative to %s near %s covered outpatient lower cost", procedure, postalCode)
	results, err := f.searcher.Search(ctx, query, 3)
	if err != nil {
		return "", fmt.Errorf("alternatives search failed: %w", err)
	}

	var alternatives []string
	for i, r := range results {
		if i >= 2 {
			break
		}
		content := r.Content
		// Some search backends return raw page markup as content.
		if strings.Contains(content, "</") || strings.Contains(content, "/>") {
			if text, err := search.ReadablePage(content); err == nil && text != "" {
				content = text
			}
		}
		content = truncateRunes(content, 200)
		title := r.Title
		if title == "" {
			title = "Option"
		}
		alternatives = append(alternatives, fmt.Sprintf("- %s: %s", title, content))
	}

	procedureLower := strings.ToLower(procedure)

	if containsAny(procedureLower, "mri", "ct scan", "x-ray") {
		savings := currentCost * 0.40
		alternatives = append(alternatives, fmt.Sprintf(
			"- Freestanding Imaging Center: Typically saves $%.0f vs hospital-based imaging. Same equipment and quality.",
			savings,
		))
	}
	if strings.Contains(procedureLower, "colonoscopy") {
		alternatives = append(alternatives,
			"- Ambulatory Surgery Center (ASC): Most plans cover colonoscopies at ASCs at the same rate as hospitals but facility fees are lower.")
	}
	if strings.Contains(procedureLower, "primary care") || strings.Contains(procedureLower, "visit") {
		alternatives = append(alternatives,
			"- Telehealth visit: Many plans cover telehealth at $0 copay. Available same-day for routine consultations.")
	}

	if len(alternatives) == 0 {
		alternatives = append(alternatives,
			"- Contact your plan's member services to ask about lower-cost in-network alternatives for this procedure.")
	}

	return fmt.Sprintf(
		"Alternatives for %s near %s:\n\n%s\n\nTip: Ask your doctor if any of these alternatives are clinically appropriate for your situation.",
		procedure, postalCode, strings.Join(alternatives, "\n\n"),
	), nil
}

// truncateRunes cuts s to at most n runes, never splitting a multi-byte
// character. Scraped search content is arbitrary UTF-8.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
