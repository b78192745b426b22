// utils/validation.go
package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var scriptTag = regexp.MustCompile(`<script[^>]*>.*?</script>`)

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	// Trim spaces
	input = strings.TrimSpace(input)

	// Remove any potential script tags
	input = scriptTag.ReplaceAllString(input, "")

	// HTML escape
	input = html.EscapeString(input)

	// Remove control characters
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// IsBlank reports whether s has no visible characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
