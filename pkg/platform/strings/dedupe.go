// Package strings provides small string-slice helpers for configuration
// parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace, drops empties and removes duplicates from
// a slice, preserving first-seen order. Broker and host lists from the
// environment pass through here.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
