// validation.go - Input validation for path segments and summary payloads.
package server

import (
	"fmt"
	"regexp"
)

// Gitea org/repo names: alphanumeric plus dot, dash, underscore. Also keeps
// the names safe for use inside object keys.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,99}$`)

func validName(s string) bool {
	return nameRegex.MatchString(s)
}

// validateSummary sanity-checks a decoded report. gcov output is trusted in
// shape but CI pipelines have been known to post garbage after a broken run.
func validateSummary(c CoverageSummary) error {
	sections := []struct {
		name string
		cov  Coverage
	}{
		{"branch", c.Branch},
		{"function", c.Function},
		{"line", c.Line},
	}

	for _, s := range sections {
		if s.cov.Covered < 0 || s.cov.Total < 0 {
			return fmt.Errorf("%s counts must be non-negative", s.name)
		}
		if s.cov.Covered > s.cov.Total {
			return fmt.Errorf("%s covered exceeds total", s.name)
		}
		if s.cov.Percent < 0 || s.cov.Percent > 100 {
			return fmt.Errorf("%s percent out of range", s.name)
		}
	}
	return nil
}

// clampLimit bounds a user-supplied history page size.
// Zero or negative falls back to the default of 50; the cap avoids
// accidentally streaming a repo's entire history.
func clampLimit(n int) int {
	if n <= 0 {
		return 50
	}
	if n > 500 {
		return 500
	}
	return n
}
