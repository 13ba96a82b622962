package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timecode/internal/clock"
	"github.com/zsiec/timecode/internal/config"
	"github.com/zsiec/timecode/internal/errors"
	"github.com/zsiec/timecode/internal/markers"
)

func setupRouter(t *testing.T, cfg *config.TimecodeConfig) (*mux.Router, markers.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := markers.NewMemoryStore(2)
	router := mux.NewRouter()
	NewHandler(store, cfg, logger).RegisterRoutes(router)
	return router, store
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestParse(t *testing.T) {
	router, _ := setupRouter(t, nil)

	tests := []struct {
		name     string
		body     string
		status   int
		want     string
		wantCode string
	}{
		{"default rate", `{"text":"01:00:00:00"}`, http.StatusOK, "01:00:00:00", ""},
		{"explicit rate", `{"text":"10:00","rate":25}`, http.StatusOK, "00:00:10:00", ""},
		{"drop frame", `{"text":"00:00:01;00","rate":29.97,"drop_frame":true}`, http.StatusOK, "00:00:01;00", ""},
		{"malformed", `{"text":"ab:cd"}`, http.StatusBadRequest, "", errors.CodeMalformedTimecode},
		{"negative", `{"text":"-00:00:01:00"}`, http.StatusBadRequest, "", errors.CodeNegativeTimecode},
		{"bad drop rate", `{"text":"1","rate":24,"drop_frame":true}`, http.StatusBadRequest, "", errors.CodeInvalidDropFrameRate},
		{"bad rate", `{"text":"1","rate":0}`, http.StatusBadRequest, "", errors.CodeInvalidRate},
		{"unknown field", `{"text":"1","fps":24}`, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/timecodes/parse", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status == http.StatusOK {
				assert.Equal(t, tt.want, decodeBody[timecodeResponse](t, rec).Timecode)
				return
			}
			resp := decodeBody[errors.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestParse_ConfigDefaults(t *testing.T) {
	router, _ := setupRouter(t, &config.TimecodeConfig{DefaultRate: 29.97, DefaultDropFrame: true})

	rec := do(t, router, http.MethodPost, "/api/v1/timecodes/parse", `{"text":"00:01:00:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[timecodeResponse](t, rec)
	assert.Equal(t, 30, resp.Rate)
	assert.True(t, resp.DropFrame)
	assert.Equal(t, int64(1800), resp.Frame)
	assert.Equal(t, "00:01:00;00", resp.Timecode)
}

func TestFromFrames(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/timecodes/frames/86400", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[timecodeResponse](t, rec)
	assert.Equal(t, "01:00:00:00", resp.Timecode)
	assert.Equal(t, int64(1), resp.Hours)

	rec = do(t, router, http.MethodGet, "/api/v1/timecodes/frames/89356?rate=24", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[timecodeResponse](t, rec)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{resp.Hours, resp.Minutes, resp.Seconds, resp.Frames})

	rec = do(t, router, http.MethodGet, "/api/v1/timecodes/frames/60?rate=30&drop_frame=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "00:00:02;00", decodeBody[timecodeResponse](t, rec).Timecode)

	for _, path := range []string{
		"/api/v1/timecodes/frames/abc",
		"/api/v1/timecodes/frames/1?rate=fast",
		"/api/v1/timecodes/frames/1?drop_frame=maybe",
		"/api/v1/timecodes/frames/-1",
	} {
		rec := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestArithmetic(t *testing.T) {
	router, _ := setupRouter(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		want   string
		code   string
	}{
		{"add frames", "/api/v1/timecodes/add", `{"a":{"frame":100},"b":{"frame":50}}`, http.StatusOK, "00:00:06:06", ""},
		{"add strings", "/api/v1/timecodes/add", `{"a":"04:03:02:23","b":{"frame":1}}`, http.StatusOK, "04:03:03:00", ""},
		{"subtract", "/api/v1/timecodes/subtract", `{"a":"00:00:02:00","b":"00:00:01:00","rate":25}`, http.StatusOK, "00:00:01:00", ""},
		{"negative result", "/api/v1/timecodes/subtract", `{"a":{"frame":1},"b":{"frame":2}}`, http.StatusBadRequest, "", errors.CodeNegativeTimecode},
		{"incompatible", "/api/v1/timecodes/add", `{"a":{"frame":1,"rate":24},"b":{"frame":1,"rate":25}}`, http.StatusConflict, "", errors.CodeIncompatibleRates},
		{"missing operand", "/api/v1/timecodes/add", `{"a":"1"}`, http.StatusBadRequest, "", errors.CodeMalformedTimecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.want, decodeBody[timecodeResponse](t, rec).Timecode)
				return
			}
			assert.Equal(t, tt.code, decodeBody[errors.ErrorResponse](t, rec).Error.Code)
		})
	}
}

func TestCompare(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/timecodes/compare", `{"a":"10","b":"20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[compareResponse](t, rec)
	assert.True(t, resp.Compatible)
	assert.Equal(t, -1, resp.Order)
	require.NotNil(t, resp.Equal)
	assert.False(t, *resp.Equal)

	rec = do(t, router, http.MethodPost, "/api/v1/timecodes/compare", `{"a":{"frame":5},"b":{"frame":5}}`)
	resp = decodeBody[compareResponse](t, rec)
	assert.Equal(t, 0, resp.Order)
	require.NotNil(t, resp.Equal)
	assert.True(t, *resp.Equal)

	rec = do(t, router, http.MethodPost, "/api/v1/timecodes/compare",
		`{"a":{"frame":100,"rate":30},"b":{"frame":5,"rate":30,"drop_frame":true}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[compareResponse](t, rec)
	assert.False(t, resp.Compatible)
	assert.Equal(t, -1, resp.Order)
	assert.Nil(t, resp.Equal)
	assert.NotContains(t, rec.Body.String(), "equal")
}

func TestSort(t *testing.T) {
	router, _ := setupRouter(t, nil)

	body := `{"timecodes":[
		{"frame":120600,"rate":30},
		"01:00:00:00",
		{"frame":86400},
		"00:00:00:01",
		{"frame":5,"rate":30}
	]}`
	rec := do(t, router, http.MethodPost, "/api/v1/timecodes/sort", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[sortResponse](t, rec)
	var got []string
	for _, tc := range resp.Timecodes {
		got = append(got, tc.Timecode)
	}
	assert.Equal(t, []string{"00:00:00:01", "01:00:00:00", "00:00:00:05", "01:07:00:00"}, got)

	rec = do(t, router, http.MethodPost, "/api/v1/timecodes/sort", `{"timecodes":["1","x"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "timecodes[1]")

	rec = do(t, router, http.MethodPost, "/api/v1/timecodes/sort", `{"timecodes":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[sortResponse](t, rec).Timecodes)
}

func TestMarkers(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/timelines/reel-1/markers", `{"name":"end","timecode":"00:10:00:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	end := decodeBody[markers.Marker](t, rec)
	assert.NotEmpty(t, end.ID)
	assert.Equal(t, "/api/v1/timelines/reel-1/markers/"+end.ID, rec.Header().Get("Location"))

	rec = do(t, router, http.MethodPost, "/api/v1/timelines/reel-1/markers", `{"name":"start","timecode":{"frame":0}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/timelines/reel-1/markers", `{"name":"third","timecode":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TIMELINE_FULL", decodeBody[errors.ErrorResponse](t, rec).Error.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/timelines/reel-1/markers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Timeline string           `json:"timeline"`
		Markers  []markers.Marker `json:"markers"`
	}](t, rec)
	assert.Equal(t, "reel-1", list.Timeline)
	require.Len(t, list.Markers, 2)
	assert.Equal(t, "start", list.Markers[0].Name)
	assert.Equal(t, "end", list.Markers[1].Name)
	assert.Equal(t, int64(14400), list.Markers[1].Timecode.FrameNumber())

	rec = do(t, router, http.MethodGet, "/api/v1/timelines/reel-1/markers/"+end.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "end", decodeBody[markers.Marker](t, rec).Name)

	rec = do(t, router, http.MethodDelete, "/api/v1/timelines/reel-1/markers/"+end.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/timelines/reel-1/markers/"+end.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MARKER_NOT_FOUND", decodeBody[errors.ErrorResponse](t, rec).Error.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/timelines/reel-1/markers/"+end.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkers_Invalid(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/timelines/reel/markers", `{"name":"","timecode":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_MARKER", decodeBody[errors.ErrorResponse](t, rec).Error.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/timelines/reel/markers", `{"name":"x","timecode":"zz"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeMalformedTimecode, decodeBody[errors.ErrorResponse](t, rec).Error.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/timelines/reel/markers", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func rtpPacket(t *testing.T, ts uint32) string {
	t.Helper()
	pkt := &rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: 7, Timestamp: ts, SSRC: 42},
		Payload: []byte{0xde, 0xad},
	}
	b, err := pkt.Marshal()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(b)
}

func TestClockRTP(t *testing.T) {
	router, _ := setupRouter(t, nil)

	t.Run("from zero", func(t *testing.T) {
		body := `{"packet":"` + rtpPacket(t, 90000*61) + `","rate":25}`
		rec := do(t, router, http.MethodPost, "/api/v1/clock/rtp", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[clockResponse](t, rec)
		assert.Equal(t, "00:01:01:00", resp.Timecode)
		assert.Equal(t, uint32(90000*61), resp.RTPTimestamp)
		assert.False(t, resp.Anchored)
	})

	t.Run("from origin", func(t *testing.T) {
		body := `{"packet":"` + rtpPacket(t, 1000+3600) + `","origin":1000,"rate":25}`
		rec := do(t, router, http.MethodPost, "/api/v1/clock/rtp", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "00:00:00:01", decodeBody[clockResponse](t, rec).Timecode)
	})

	t.Run("anchored", func(t *testing.T) {
		sr := &rtcp.SenderReport{
			SSRC:    42,
			NTPTime: clock.NTPTime(time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)),
			RTPTime: 500,
		}
		raw, err := sr.Marshal()
		require.NoError(t, err)

		body := `{"packet":"` + rtpPacket(t, 500+90000) + `","sender_report":"` +
			base64.StdEncoding.EncodeToString(raw) + `","rate":25}`
		rec := do(t, router, http.MethodPost, "/api/v1/clock/rtp", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[clockResponse](t, rec)
		assert.Equal(t, "13:00:01:00", resp.Timecode)
		assert.True(t, resp.Anchored)
	})

	t.Run("errors", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"packet":"AAAA"}`,
			`{"packet":"` + rtpPacket(t, 1) + `","sender_report":"AAAA"}`,
			`{"packet":"` + rtpPacket(t, 1) + `","rate":-5}`,
			`{"packet":"` + rtpPacket(t, 1) + `","rate":60,"clock_rate":50}`,
		} {
			rec := do(t, router, http.MethodPost, "/api/v1/clock/rtp", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}
