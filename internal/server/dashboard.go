package server

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"sort"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/base.html"))

// orgView groups a board organisation's repositories for the template.
type orgView struct {
	Name  string
	Repos []repoView
}

type repoView struct {
	Name     string
	Coverage float64
}

// dashboardHandler handles GET / and renders the HTML board: every
// organisation with its repositories and their latest line coverage.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := latestPerRepo(r.Context(), s.db)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=dashboard_query err=%v", rid, err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	byOrg := make(map[string][]repoView)
	for _, rec := range recs {
		byOrg[rec.Org] = append(byOrg[rec.Org], repoView{
			Name:     rec.Repo,
			Coverage: rec.Coverage.Line.Percent,
		})
	}

	orgs := make([]orgView, 0, len(byOrg))
	for name, repos := range byOrg {
		sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
		orgs = append(orgs, orgView{Name: name, Repos: repos})
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, map[string]any{"Orgs": orgs}); err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=dashboard_render err=%v", rid, err)
	}
	getMetrics().recordDashboardRender()
}
