package utils

import "strings"

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// TrimWhitespace removes leading and trailing whitespace.
func (s *StringHelper) TrimWhitespace(str string) string {
	return strings.TrimSpace(str)
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString truncates string to max length in runes, appending "..." when cut.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	r := []rune(str)
	if len(r) <= maxLength {
		return str
	}

	return string(r[:maxLength]) + "..."
}

// TruncateRunes cuts str to at most n runes without a marker.
func (s *StringHelper) TruncateRunes(str string, n int) string {
	if n <= 0 {
		return ""
	}

	r := []rune(str)
	if len(r) <= n {
		return str
	}

	return string(r[:n])
}
