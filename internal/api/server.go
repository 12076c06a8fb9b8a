// Package api implements the REST surface: in-app notification CRUD consumed
// by the frontend notification bell, a debug event emitter standing in for
// the upstream auth module, and read-only failed-job inspection.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopworks/mailroom/internal/eventbus"
	"github.com/shopworks/mailroom/internal/queue"
	"github.com/shopworks/mailroom/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// FailedJobLister exposes the queue's retained failed jobs for inspection.
type FailedJobLister interface {
	ListFailed(ctx context.Context, limit int64) ([]queue.FailedJob, error)
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	bus             eventbus.Bus
	failedJobs      FailedJobLister
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(notificationSvc service.NotificationService, bus eventbus.Bus, failedJobs FailedJobLister, logger *slog.Logger) *Server {
	return &Server{
		notificationSvc: notificationSvc,
		bus:             bus,
		failedJobs:      failedJobs,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// In-app notifications (notification bell UI)
	r.Get("/notifications", s.handleListNotifications)
	r.Post("/notifications", s.handleCreateNotification)
	r.Patch("/notifications/{id}/read", s.handleMarkNotificationRead)
	r.Delete("/notifications/{id}", s.handleDeleteNotification)

	// Domain event emission (stand-in for the upstream auth module)
	r.Post("/events", s.handleEmitEvent)

	// Dead-letter inspection
	r.Get("/jobs/failed", s.handleListFailedJobs)
}

// userID extracts the authenticated user from the request. Authentication
// itself is an upstream concern; the gateway forwards the identity in a
// header.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
