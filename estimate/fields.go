package estimate

import (
	"regexp"
	"strconv"
	"strings"
)

// Upstream capability output is newline-delimited "Label: value" text
// generated by a model, so none of these extractors ever fail: malformed
// input degrades to a stated default.

var (
	amountPattern  = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)
	percentPattern = regexp.MustCompile(`([\d.]+)%`)
)

// ExtractAmount finds the first line containing label (case-insensitive) and
// returns the first decimal number on it, tolerating a currency symbol and
// thousands separators. Returns 0 when nothing matches.
func ExtractAmount(text, label string) float64 {
	line, ok := matchLine(text, label)
	if !ok {
		return 0
	}
	m := amountPattern.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ExtractPercent finds the first line containing label and returns the number
// immediately followed by a percent sign. Returns 20 when nothing matches, a
// neutral coinsurance default.
func ExtractPercent(text, label string) float64 {
	line, ok := matchLine(text, label)
	if !ok {
		return 20.0
	}
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 20.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 20.0
	}
	return v
}

// ExtractText returns the value after the first colon on the matching line,
// trimmed. The literal answers "None" and "Not found" count as absent.
func ExtractText(text, label string) string {
	line, ok := matchLine(text, label)
	if !ok {
		return ""
	}
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	value := strings.TrimSpace(line[idx+1:])
	if value == "None" || value == "Not found" {
		return ""
	}
	return value
}

func matchLine(text, label string) (string, bool) {
	needle := strings.ToLower(label)
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			return line, true
		}
	}
	return "", false
}
