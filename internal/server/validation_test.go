package server

import (
	"strings"
	"testing"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "gateway", true},
		{"with dash", "my-repo", true},
		{"with dot", "repo.v2", true},
		{"with underscore", "my_repo", true},
		{"single char", "a", true},
		{"digits", "2048", true},
		{"empty", "", false},
		{"leading dot", ".hidden", false},
		{"leading dash", "-repo", false},
		{"slash", "org/repo", false},
		{"space", "my repo", false},
		{"path traversal", "..", false},
		{"too long", strings.Repeat("a", 101), false},
		{"max length", strings.Repeat("a", 100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validName(tt.input); got != tt.valid {
				t.Errorf("validName(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestValidateSummary(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*CoverageSummary)
		shouldError bool
	}{
		{"valid", func(c *CoverageSummary) {}, false},
		{"negative covered", func(c *CoverageSummary) { c.Branch.Covered = -1 }, true},
		{"negative total", func(c *CoverageSummary) { c.Line.Total = -5 }, true},
		{"covered exceeds total", func(c *CoverageSummary) { c.Function.Covered = 100 }, true},
		{"percent over 100", func(c *CoverageSummary) { c.Line.Percent = 100.5 }, true},
		{"percent negative", func(c *CoverageSummary) { c.Branch.Percent = -0.1 }, true},
		{"all zero", func(c *CoverageSummary) { *c = CoverageSummary{} }, false},
		{"full coverage", func(c *CoverageSummary) {
			c.Line = Coverage{Covered: 100, Total: 100, Percent: 100}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestSummary()
			tt.mutate(&c)

			err := validateSummary(c)
			if tt.shouldError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 50},
		{-10, 50},
		{1, 1},
		{50, 50},
		{500, 500},
		{501, 500},
		{100000, 500},
	}

	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
