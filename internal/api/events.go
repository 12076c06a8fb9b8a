package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopworks/mailroom/internal/eventbus"
)

// handleEmitEvent publishes a catalog event on the bus. The payload is
// validated against the event catalog before publishing; delivery itself is
// fire-and-forget, so the response only confirms acceptance.
func (s *Server) handleEmitEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	if err := eventbus.ValidatePayload(req.Type, req.Payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.bus.Publish(req.Type, req.Payload)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
