package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
)

// latestSummaryHandler handles GET /{org}/{repo}/summary and returns the most
// recently recorded summary for the repository.
func (s *Server) latestSummaryHandler(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if !validName(org) || !validName(repo) {
		http.Error(w, "bad org or repo name", http.StatusBadRequest)
		return
	}

	rec, err := latestSummary(r.Context(), s.db, org, repo)
	if err != nil {
		if errors.Is(err, errNoSummary) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=latest_summary org=%s repo=%s err=%v", rid, org, repo, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	getMetrics().recordQuery()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

// historyHandler handles GET /{org}/{repo}/history?limit=N, newest first.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if !validName(org) || !validName(repo) {
		http.Error(w, "bad org or repo name", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	limit = clampLimit(limit)

	recs, err := summaryHistory(r.Context(), s.db, org, repo, limit)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=summary_history org=%s repo=%s err=%v", rid, org, repo, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []SummaryRecord{}
	}

	getMetrics().recordQuery()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}

// apiSummariesHandler handles GET /api/summaries: the dashboard dataset as
// JSON, the newest summary per repository across all organisations.
func (s *Server) apiSummariesHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := latestPerRepo(r.Context(), s.db)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=api_summaries err=%v", rid, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []SummaryRecord{}
	}

	getMetrics().recordQuery()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}
