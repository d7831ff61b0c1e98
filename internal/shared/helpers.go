// Package shared provides small helpers used by several depresolve
// packages.
package shared

import (
	"fmt"
	"strings"
	"time"
)

// ParseTimeFlexible accepts RFC3339 timestamps, plain dates, and a few
// log-style layouts. Unparseable or empty input yields the zero time.
func ParseTimeFlexible(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05",
		time.DateOnly,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// GroupPath turns a dotted module group into a URL or directory path,
// e.g. "org.example" becomes "org/example".
func GroupPath(group string) string {
	return strings.ReplaceAll(strings.TrimSpace(group), ".", "/")
}
