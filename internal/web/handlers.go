package web

import (
	"bytes"
	"net/http"

	"github.com/JonMunkholm/agedist/internal/logging"
	"github.com/JonMunkholm/agedist/internal/web/templates"
)

// handleIndex runs the import and renders the resulting distribution.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := s.pipeline.Run(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Render to a buffer so a template failure can still become a 500.
	var buf bytes.Buffer
	if err := templates.DistributionPage(report.Distribution).Render(ctx, &buf); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(ctx).Warn("write response", "error", err)
	}
}

// handleDistribution returns the distribution over already persisted rows.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := s.pipeline.Distribution(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dist)
}

// handleImport runs the import and returns the run report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.pipeline.Run(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
