package agent

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`  +`)

// Sanitize strips the filler artifacts the upstream occasionally leaks into
// responses ("undefined" tokens from its JS side) and collapses repeated
// spaces. Sanitizing an already-clean string returns it unchanged.
func Sanitize(text string) string {
	result := strings.TrimSpace(text)

	for strings.HasSuffix(result, "undefined") {
		result = strings.TrimSpace(strings.TrimSuffix(result, "undefined"))
	}
	for strings.HasPrefix(result, "undefined") {
		result = strings.TrimSpace(strings.TrimPrefix(result, "undefined"))
	}

	result = multiSpace.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
