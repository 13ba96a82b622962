package errors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timecode/pkg/timecode"
)

func newTestHandler() *ErrorHandler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewErrorHandler(logger)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	_, errParse := timecode.Parse("1:2:3:4:5", 24, false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   ErrorType
		wantCode   string
	}{
		{
			name:       "app error",
			err:        NewNotFoundError("marker"),
			wantStatus: http.StatusNotFound,
			wantType:   ErrorTypeNotFound,
		},
		{
			name:       "timecode error",
			err:        errParse,
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeValidation,
			wantCode:   CodeMalformedTimecode,
		},
		{
			name:       "plain error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeInternal,
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/timecodes", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decode(t, rec)
			assert.Equal(t, tt.wantType, resp.Error.Type)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.TraceID)
		})
	}
}

func TestHandleError_HidesInternalCause(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn"))

	resp := decode(t, rec)
	assert.NotContains(t, resp.Error.Message, "secret")
}

func TestHandleNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleNotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", decode(t, rec).Error.Message)

	rec = httptest.NewRecorder()
	h.HandleMethodNotAllowed(rec, httptest.NewRequest(http.MethodPut, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := newTestHandler()
	handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrorTypeInternal, decode(t, rec).Error.Type)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logrus.ErrorLevel, logLevel(http.StatusInternalServerError))
	assert.Equal(t, logrus.ErrorLevel, logLevel(http.StatusServiceUnavailable))
	assert.Equal(t, logrus.DebugLevel, logLevel(http.StatusTooManyRequests))
	assert.Equal(t, logrus.WarnLevel, logLevel(http.StatusConflict))
	assert.Equal(t, logrus.WarnLevel, logLevel(http.StatusBadRequest))
}
