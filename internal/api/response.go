package api

import (
	"encoding/json"
	"net/http"

	"github.com/zsiec/timecode/internal/markers"
	"github.com/zsiec/timecode/pkg/timecode"
)

// timecodeResponse describes a timecode with its display components.
type timecodeResponse struct {
	Timecode  string `json:"timecode"`
	Frame     int64  `json:"frame"`
	Rate      int    `json:"rate"`
	DropFrame bool   `json:"drop_frame"`
	Hours     int64  `json:"hours"`
	Minutes   int64  `json:"minutes"`
	Seconds   int64  `json:"seconds"`
	Frames    int64  `json:"frames"`
}

func newTimecodeResponse(tc timecode.Timecode) timecodeResponse {
	return timecodeResponse{
		Timecode:  tc.String(),
		Frame:     tc.FrameNumber(),
		Rate:      tc.Rate(),
		DropFrame: tc.DropFrame(),
		Hours:     tc.Hours(),
		Minutes:   tc.Minutes(),
		Seconds:   tc.Seconds(),
		Frames:    tc.Frames(),
	}
}

type compareResponse struct {
	Compatible bool  `json:"compatible"`
	Order      int   `json:"order"`
	Equal      *bool `json:"equal,omitempty"`
}

type sortResponse struct {
	Timecodes []timecodeResponse `json:"timecodes"`
}

type markerResponse struct {
	*markers.Marker
	Timecode timecodeResponse `json:"timecode"`
}

func newMarkerResponse(m *markers.Marker) markerResponse {
	return markerResponse{Marker: m, Timecode: newTimecodeResponse(m.Timecode)}
}

type markerListResponse struct {
	Timeline string           `json:"timeline"`
	Markers  []markerResponse `json:"markers"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Failed to encode response")
	}
}
