// Package api serves the timecode HTTP API under /api/v1.
package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/timecode/internal/clock"
	"github.com/zsiec/timecode/internal/config"
	"github.com/zsiec/timecode/internal/errors"
	"github.com/zsiec/timecode/internal/logger"
	"github.com/zsiec/timecode/internal/markers"
	"github.com/zsiec/timecode/internal/metrics"
	"github.com/zsiec/timecode/pkg/timecode"
)

// Handler serves timecode conversions, arithmetic and timeline markers.
type Handler struct {
	store        markers.Store
	defaults     Defaults
	logger       *logrus.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler creates an API handler. Requests without a rate use cfg.
func NewHandler(store markers.Store, cfg *config.TimecodeConfig, log *logrus.Logger) *Handler {
	d := Defaults{Rate: timecode.DefaultRate, ClockRate: clock.DefaultClockRate}
	if cfg != nil {
		if cfg.DefaultRate > 0 {
			d.Rate = cfg.DefaultRate
		}
		d.DropFrame = cfg.DefaultDropFrame
		if cfg.ClockRate > 0 {
			d.ClockRate = cfg.ClockRate
		}
	}
	return &Handler{
		store:        store,
		defaults:     d,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

// RegisterRoutes mounts the API on r under /api/v1.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/timecodes/parse", h.handleParse).Methods(http.MethodPost)
	api.HandleFunc("/timecodes/frames/{frame}", h.handleFromFrames).Methods(http.MethodGet)
	api.HandleFunc("/timecodes/add", h.handleAdd).Methods(http.MethodPost)
	api.HandleFunc("/timecodes/subtract", h.handleSubtract).Methods(http.MethodPost)
	api.HandleFunc("/timecodes/compare", h.handleCompare).Methods(http.MethodPost)
	api.HandleFunc("/timecodes/sort", h.handleSort).Methods(http.MethodPost)

	api.HandleFunc("/timelines/{timeline}/markers", h.handleAddMarker).Methods(http.MethodPost)
	api.HandleFunc("/timelines/{timeline}/markers", h.handleListMarkers).Methods(http.MethodGet)
	api.HandleFunc("/timelines/{timeline}/markers/{id}", h.handleGetMarker).Methods(http.MethodGet)
	api.HandleFunc("/timelines/{timeline}/markers/{id}", h.handleDeleteMarker).Methods(http.MethodDelete)

	api.HandleFunc("/clock/rtp", h.handleClockRTP).Methods(http.MethodPost)
}

// fail records the failed operation and writes the error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	metrics.RecordOperation(op, err)
	h.errorHandler.HandleError(w, r, apiError(err))
}

// apiError maps marker store and clock errors to API errors. Other errors
// pass through.
func apiError(err error) error {
	switch {
	case stderrors.Is(err, markers.ErrMarkerNotFound):
		return errors.NewNotFoundError("marker").WithCode("MARKER_NOT_FOUND")
	case stderrors.Is(err, markers.ErrTimelineFull):
		return errors.NewConflictError(err.Error()).WithCode("TIMELINE_FULL")
	case stderrors.Is(err, markers.ErrMarkerExists):
		return errors.NewConflictError(err.Error()).WithCode("MARKER_EXISTS")
	case stderrors.Is(err, markers.ErrInvalidMarker):
		return errors.NewValidationError(err.Error()).WithCode("INVALID_MARKER")
	case stderrors.Is(err, clock.ErrInvalidClock):
		return errors.NewValidationError(err.Error()).WithCode("INVALID_CLOCK_RATE")
	}
	return err
}

type parseRequest struct {
	Text string `json:"text"`
	rateOptions
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	const op = "parse"

	var req parseRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}
	fps, drop := req.resolve(h.defaults)

	tc, err := timecode.Parse(req.Text, fps, drop)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, newTimecodeResponse(tc))
}

func (h *Handler) handleFromFrames(w http.ResponseWriter, r *http.Request) {
	const op = "frames"

	frame, err := strconv.ParseInt(mux.Vars(r)["frame"], 10, 64)
	if err != nil {
		h.fail(w, r, op, errors.NewValidationError("frame must be an integer"))
		return
	}

	var opts rateOptions
	q := r.URL.Query()
	if s := q.Get("rate"); s != "" {
		fps, err := strconv.ParseFloat(s, 64)
		if err != nil {
			h.fail(w, r, op, errors.NewValidationError("rate must be a number"))
			return
		}
		opts.Rate = &fps
	}
	if s := q.Get("drop_frame"); s != "" {
		drop, err := strconv.ParseBool(s)
		if err != nil {
			h.fail(w, r, op, errors.NewValidationError("drop_frame must be a boolean"))
			return
		}
		opts.DropFrame = &drop
	}
	fps, drop := opts.resolve(h.defaults)

	tc, err := timecode.New(frame, fps, drop)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, newTimecodeResponse(tc))
}

type pairRequest struct {
	A timecodeInput `json:"a"`
	B timecodeInput `json:"b"`
	rateOptions
}

func (h *Handler) decodePair(r *http.Request) (timecode.Timecode, timecode.Timecode, error) {
	var req pairRequest
	if err := decode(r, &req); err != nil {
		return timecode.Timecode{}, timecode.Timecode{}, err
	}
	fps, drop := req.resolve(h.defaults)

	a, err := req.A.build(fps, drop)
	if err != nil {
		return a, a, fmt.Errorf("a: %w", err)
	}
	b, err := req.B.build(fps, drop)
	if err != nil {
		return a, b, fmt.Errorf("b: %w", err)
	}
	return a, b, nil
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	h.arithmetic(w, r, "add", timecode.Timecode.Add)
}

func (h *Handler) handleSubtract(w http.ResponseWriter, r *http.Request) {
	h.arithmetic(w, r, "subtract", timecode.Timecode.Sub)
}

func (h *Handler) arithmetic(w http.ResponseWriter, r *http.Request, op string, fn func(timecode.Timecode, timecode.Timecode) (timecode.Timecode, error)) {
	a, b, err := h.decodePair(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	result, err := fn(a, b)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, newTimecodeResponse(result))
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "compare"

	a, b, err := h.decodePair(r)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	resp := compareResponse{
		Compatible: a.Compatible(b),
		Order:      timecode.Compare(a, b),
	}
	if eq, err := a.Equal(b); err == nil {
		resp.Equal = &eq
	}

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, resp)
}

type sortRequest struct {
	Timecodes []timecodeInput `json:"timecodes"`
	rateOptions
}

func (h *Handler) handleSort(w http.ResponseWriter, r *http.Request) {
	const op = "sort"

	var req sortRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}
	fps, drop := req.resolve(h.defaults)

	set := timecode.NewSet()
	for i, in := range req.Timecodes {
		tc, err := in.build(fps, drop)
		if err != nil {
			h.fail(w, r, op, fmt.Errorf("timecodes[%d]: %w", i, err))
			return
		}
		set.Insert(tc)
	}
	metrics.RecordBatch(op, len(req.Timecodes))

	resp := sortResponse{Timecodes: make([]timecodeResponse, 0, set.Len())}
	set.Range(func(tc timecode.Timecode) bool {
		resp.Timecodes = append(resp.Timecodes, newTimecodeResponse(tc))
		return true
	})

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, resp)
}

type addMarkerRequest struct {
	Name     string        `json:"name"`
	Timecode timecodeInput `json:"timecode"`
	rateOptions
}

func (h *Handler) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	const op = "marker_add"
	timeline := mux.Vars(r)["timeline"]

	var req addMarkerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}
	fps, drop := req.resolve(h.defaults)

	tc, err := req.Timecode.build(fps, drop)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	m, err := markers.NewMarker(timeline, req.Name, tc)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if err := h.store.Add(r.Context(), m); err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	metrics.RecordMarker("add")
	entry := logger.WithTimeline(logger.FromContext(r.Context()), timeline)
	logger.WithTimecode(entry, tc).WithField("marker_id", m.ID).Info("Marker added")

	w.Header().Set("Location", r.URL.Path+"/"+m.ID)
	h.writeJSON(w, r, http.StatusCreated, newMarkerResponse(m))
}

func (h *Handler) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	const op = "marker_list"
	timeline := mux.Vars(r)["timeline"]

	list, err := h.store.List(r.Context(), timeline)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	resp := markerListResponse{Timeline: timeline, Markers: make([]markerResponse, 0, len(list))}
	for _, m := range list {
		resp.Markers = append(resp.Markers, newMarkerResponse(m))
	}

	metrics.RecordOperation(op, nil)
	metrics.RecordMarker("list")
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) handleGetMarker(w http.ResponseWriter, r *http.Request) {
	const op = "marker_get"
	vars := mux.Vars(r)

	m, err := h.store.Get(r.Context(), vars["timeline"], vars["id"])
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	metrics.RecordMarker("get")
	h.writeJSON(w, r, http.StatusOK, newMarkerResponse(m))
}

func (h *Handler) handleDeleteMarker(w http.ResponseWriter, r *http.Request) {
	const op = "marker_delete"
	vars := mux.Vars(r)

	if err := h.store.Delete(r.Context(), vars["timeline"], vars["id"]); err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	metrics.RecordMarker("delete")
	logger.WithTimeline(logger.FromContext(r.Context()), vars["timeline"]).
		WithField("marker_id", vars["id"]).
		Info("Marker deleted")
	w.WriteHeader(http.StatusNoContent)
}

type clockRequest struct {
	Packet       []byte  `json:"packet"`
	SenderReport []byte  `json:"sender_report,omitempty"`
	ClockRate    uint32  `json:"clock_rate,omitempty"`
	Origin       *uint32 `json:"origin,omitempty"`
	rateOptions
}

type clockResponse struct {
	timecodeResponse
	RTPTimestamp uint32 `json:"rtp_timestamp"`
	Anchored     bool   `json:"anchored"`
}

// handleClockRTP derives the timecode of an RTP packet. With a sender
// report the result is time of day; otherwise it counts from origin, which
// defaults to timestamp zero.
func (h *Handler) handleClockRTP(w http.ResponseWriter, r *http.Request) {
	const op = "clock_rtp"

	var req clockRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}
	if len(req.Packet) == 0 {
		h.fail(w, r, op, errors.NewValidationError("packet is required"))
		return
	}
	fps, drop := req.resolve(h.defaults)
	clockRate := req.ClockRate
	if clockRate == 0 {
		clockRate = h.defaults.ClockRate
	}

	mapper, err := clock.NewMapper(clockRate, fps, drop)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	mapper.SetLogger(logger.NewLogrusAdapter(logger.FromContext(r.Context())))

	anchored := false
	if len(req.SenderReport) > 0 {
		sr, err := clock.ParseSenderReport(req.SenderReport)
		if err != nil {
			h.fail(w, r, op, errors.NewValidationError(err.Error()))
			return
		}
		mapper.Anchor(sr)
		anchored = true
	} else {
		var origin uint32
		if req.Origin != nil {
			origin = *req.Origin
		}
		mapper.Ticks(origin)
	}

	ts, tc, err := packetTimecode(mapper, req.Packet)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	metrics.RecordOperation(op, nil)
	h.writeJSON(w, r, http.StatusOK, clockResponse{
		timecodeResponse: newTimecodeResponse(tc),
		RTPTimestamp:     ts,
		Anchored:         anchored,
	})
}

func packetTimecode(m *clock.Mapper, raw []byte) (uint32, timecode.Timecode, error) {
	ts, err := clock.PacketTimestamp(raw)
	if err != nil {
		return 0, timecode.Timecode{}, errors.NewValidationError(err.Error())
	}
	tc, err := m.Timecode(ts)
	return ts, tc, err
}
