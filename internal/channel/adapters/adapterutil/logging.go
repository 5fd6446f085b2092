// Package adapterutil provides shared utilities for channel adapters.
package adapterutil

import (
	"strings"
	"unicode/utf8"
)

// SummarizeText returns a truncated preview of the text, limited to 120 characters.
func SummarizeText(text string) string {
	value := strings.TrimSpace(text)
	if value == "" {
		return ""
	}
	return Truncate(value, 120)
}

// Truncate shortens text to at most limit runes, marking the cut with "...".
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit <= 3 {
		return string([]rune(text)[:limit])
	}
	return string([]rune(text)[:limit-3]) + "..."
}

// AttachmentNames lists attachment file names for log lines.
func AttachmentNames(names []string) string {
	return SummarizeText(strings.Join(names, ", "))
}
