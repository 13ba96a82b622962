package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zsiec/timecode/pkg/version"
)

// Response represents the health check response.
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]*Check `json:"checks,omitempty"`
}

// Handler handles health check HTTP endpoints.
type Handler struct {
	manager   *Manager
	startTime time.Time
}

// NewHandler creates a new health check handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager:   manager,
		startTime: time.Now(),
	}
}

// HandleHealth runs every checker and reports the combined status.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.manager.RunChecks(ctx)
	status := h.manager.GetOverallStatus()

	response := Response{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version.Version,
		Uptime:    h.uptime().String(),
		Checks:    checks,
	}

	h.writeJSON(w, statusCode(status), response)
}

// HandleReady reports the status of the last check run without running
// the checkers.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	status := h.manager.GetOverallStatus()

	response := struct {
		Status    Status    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    status,
		Timestamp: time.Now(),
	}

	h.writeJSON(w, statusCode(status), response)
}

// HandleLive handles the /live endpoint.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{
		Status:    "alive",
		Timestamp: time.Now(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) uptime() time.Duration {
	return time.Since(h.startTime).Round(time.Second)
}

// statusCode maps a status to its HTTP code. Degraded still serves.
func statusCode(s Status) int {
	if s == StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.manager.logger.WithError(err).Error("Failed to encode health response")
	}
}
