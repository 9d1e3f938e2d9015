package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// TrimMessage preserves case (chat messages are stored verbatim) but
// strips surrounding whitespace.
func TrimMessage(input string) string {
	return strings.TrimSpace(input)
}
