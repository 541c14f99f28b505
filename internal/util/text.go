package util

import (
	"strings"
	"unicode"
)

// Digits keeps only decimal digits of input, in order. An empty result means
// the identifier is absent.
func Digits(input string) string {
	out := strings.Builder{}
	for _, r := range input {
		if unicode.IsDigit(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// UnwrapMarkdownLink turns "[name](url)" into "name". Other input is
// returned trimmed.
func UnwrapMarkdownLink(input string) string {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "[") || !strings.Contains(s, "](") {
		return s
	}
	end := strings.Index(s, "]")
	if end <= 1 {
		return s
	}
	return s[1:end]
}

func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
