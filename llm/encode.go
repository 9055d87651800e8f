package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON tries to unmarshal the raw model output into T after stripping fences.
func DecodeJSON[T any](raw string) (*T, error) {
	clean := SanitizeJSON(raw)
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return &out, nil
}

// SanitizeJSON removes a leading ``` or ```json fence and its closing fence.
// Models wrap structured output in markdown fences often enough that every
// structural parse goes through this first.
func SanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
