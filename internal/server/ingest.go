package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

const defaultRegressionThreshold = 1.0

// regressionDetected reports whether line coverage dropped below the previous
// summary by more than threshold percentage points. A drop equal to the
// threshold is not a regression, and the first summary for a repo never is.
// A zero threshold means "unset" and falls back to the default.
func regressionDetected(havePrev bool, prevPercent, currentPercent, threshold float64) bool {
	if !havePrev {
		return false
	}
	if threshold == 0 {
		threshold = defaultRegressionThreshold
	}
	return prevPercent-currentPercent > threshold
}

// ingestSummaryHandler handles POST /{org}/{repo}/summary. The body is a
// GCOV summary report (flat prefixed JSON); one immutable row is appended to
// the summary table. CI posts here after every pipeline run.
func (s *Server) ingestSummaryHandler(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if !validName(org) || !validName(repo) {
		http.Error(w, "bad org or repo name", http.StatusBadRequest)
		return
	}

	// Summary reports are tiny; anything bigger is not a summary.
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var payload CoverageSummary
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if errors.Is(err, errSummaryIncomplete) {
			http.Error(w, "summary is missing required fields", http.StatusBadRequest)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := validateSummary(payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Fetch the previous summary before inserting so regressions can be
	// detected without a second query ordering dance.
	var prevPercent float64
	havePrev := false
	if prev, err := latestSummary(r.Context(), s.db, org, repo); err == nil {
		prevPercent = prev.Coverage.Line.Percent
		havePrev = true
	}

	if err := insertSummary(r.Context(), s.db, org, repo, payload); err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=summary_insert org=%s repo=%s err=%v", rid, org, repo, err)
		getMetrics().recordIngestError()
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	getMetrics().recordIngest()

	if s.cfg.Webhooks != nil {
		s.cfg.Webhooks.Dispatch(WebhookEventSummaryRecorded, map[string]any{
			"org":          org,
			"repo":         repo,
			"line_percent": payload.Line.Percent,
		})

		if regressionDetected(havePrev, prevPercent, payload.Line.Percent, s.cfg.RegressionThreshold) {
			s.cfg.Webhooks.Dispatch(WebhookEventCoverageRegressed, map[string]any{
				"org":              org,
				"repo":             repo,
				"line_percent":     payload.Line.Percent,
				"previous_percent": prevPercent,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
}
