// badge.go - SVG coverage badges for embedding in repository READMEs.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// Badge colors follow the usual shields.io bands.
const (
	badgeColorRed    = "#e05d44"
	badgeColorYellow = "#dfb317"
	badgeColorGreen  = "#4c1"
	badgeColorGrey   = "#9f9f9f"
)

func badgeColor(percent float64) string {
	switch {
	case percent < 50:
		return badgeColorRed
	case percent < 75:
		return badgeColorYellow
	default:
		return badgeColorGreen
	}
}

// renderBadge produces a flat two-segment SVG badge. Widths are fixed; the
// value segment fits anything up to "100.0%".
func renderBadge(label, value, color string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="136" height="20" role="img" aria-label="%[1]s: %[2]s">`+
		`<rect width="70" height="20" fill="#555"/>`+
		`<rect x="70" width="66" height="20" fill="%[3]s"/>`+
		`<g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">`+
		`<text x="35" y="14">%[1]s</text>`+
		`<text x="103" y="14">%[2]s</text>`+
		`</g></svg>`, label, value, color)
}

// badgeHandler handles GET /{org}/{repo}/badge.svg. Repositories without any
// recorded summary get a grey "unknown" badge rather than a 404 so READMEs
// never show a broken image.
func (s *Server) badgeHandler(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if !validName(org) || !validName(repo) {
		http.Error(w, "bad org or repo name", http.StatusBadRequest)
		return
	}

	value := "unknown"
	color := badgeColorGrey

	rec, err := latestSummary(r.Context(), s.db, org, repo)
	switch {
	case err == nil:
		value = fmt.Sprintf("%.1f%%", rec.Coverage.Line.Percent)
		color = badgeColor(rec.Coverage.Line.Percent)
	case errors.Is(err, errNoSummary):
		// keep the "unknown" badge
	default:
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=badge_query org=%s repo=%s err=%v", rid, org, repo, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	getMetrics().recordBadge()
	w.Header().Set("Content-Type", "image/svg+xml")
	// Badges are embedded in READMEs; stale caches defeat the purpose.
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(renderBadge("coverage", value, color)))
}
