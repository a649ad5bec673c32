package api

import (
	"embed"
	"io/fs"
	"net/http"
)

// staticFS holds the dashboard page and the simulation report template.
//
//go:embed static/*
var staticFS embed.FS

// dashboardHandler serves the stats page. The page polls /stats and
// /leaderboard from the browser.
type dashboardHandler struct {
	pages fs.FS
}

func newDashboardHandler() *dashboardHandler {
	pages, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return &dashboardHandler{pages: pages}
}

// HandleDashboard handles GET /dashboard.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.pages, "dashboard.html")
}
