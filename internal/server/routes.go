package server

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/zsiec/timecode/pkg/version"
)

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.writeJSON(w, r, http.StatusOK, version.GetInfo())
}

// handleDebugInfo reports listener and runtime details.
func (s *Server) handleDebugInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"protocols": map[string]bool{
			"http11": true,
			"http3":  s.config.EnableHTTP3,
		},
		"ports": map[string]int{
			"http":  s.config.HTTPPort,
			"http3": s.config.HTTP3Port,
		},
		"rate_limited": s.limiter != nil,
		"goroutines":   runtime.NumGoroutine(),
		"version":      version.GetInfo().Short(),
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("Failed to encode response")
	}
}
