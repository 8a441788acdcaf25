package server

import (
	"strings"
	"testing"
)

func TestBadgeColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, badgeColorRed},
		{49.9, badgeColorRed},
		{50, badgeColorYellow},
		{74.9, badgeColorYellow},
		{75, badgeColorGreen},
		{100, badgeColorGreen},
	}

	for _, tt := range tests {
		if got := badgeColor(tt.percent); got != tt.want {
			t.Errorf("badgeColor(%.1f) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestRenderBadge(t *testing.T) {
	svg := renderBadge("coverage", "85.0%", badgeColorGreen)

	if !strings.HasPrefix(svg, "<svg") {
		t.Errorf("Expected SVG document, got %s", svg)
	}
	for _, want := range []string{"coverage", "85.0%", badgeColorGreen, "aria-label"} {
		if !strings.Contains(svg, want) {
			t.Errorf("Expected badge to contain %q", want)
		}
	}
}
