package api

import (
	"net/http"
	"strconv"
)

// handleListFailedJobs returns terminally failed jobs retained by the queue.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListFailedJobs(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.ParseInt(l, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, err := s.failedJobs.ListFailed(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing failed jobs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list failed jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}
