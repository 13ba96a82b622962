package errors

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the trace ID echoed in error bodies.
const RequestIDHeader = "X-Request-ID"

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	TraceID string       `json:"trace_id,omitempty"`
}

// ErrorDetails contains the error details.
type ErrorDetails struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler turns errors into logged JSON responses.
type ErrorHandler struct {
	logger *logrus.Logger
}

func NewErrorHandler(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// classify resolves err to the AppError sent to the client. Timecode
// failures keep their message; anything unknown becomes an opaque 500.
func classify(err error) *AppError {
	if appErr, ok := GetAppError(err); ok {
		return appErr
	}
	if appErr := FromTimecode(err); appErr != nil {
		return appErr
	}
	return WrapInternalError(err, "An unexpected error occurred")
}

// logLevel picks the level a response with status is logged at.
func logLevel(status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status == http.StatusTooManyRequests:
		return logrus.DebugLevel
	default:
		return logrus.WarnLevel
	}
}

func (h *ErrorHandler) requestEntry(r *http.Request) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"trace_id":  r.Header.Get(RequestIDHeader),
		"method":    r.Method,
		"path":      r.URL.Path,
		"remote_ip": r.RemoteAddr,
	})
}

// HandleError logs err and writes the matching error response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := classify(err)

	entry := h.requestEntry(r).WithFields(logrus.Fields{
		"error_type": appErr.Type,
		"error_code": appErr.Code,
		"status":     appErr.HTTPStatus,
	})
	entry.Log(logLevel(appErr.HTTPStatus), appErr.Error())

	h.writeJSON(w, appErr.HTTPStatus, ErrorResponse{
		Error: ErrorDetails{
			Type:    appErr.Type,
			Message: appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		},
		TraceID: r.Header.Get(RequestIDHeader),
	})
}

func (h *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, NewNotFoundError("endpoint"))
}

func (h *ErrorHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, New(ErrorTypeValidation, "Method not allowed", http.StatusMethodNotAllowed))
}

// HandlePanic logs a recovered panic and answers with an internal error.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.requestEntry(r).WithField("panic", recovered).Error("Panic recovered in HTTP handler")
	h.HandleError(w, r, NewInternalError("An unexpected error occurred"))
}

func (h *ErrorHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode error response")
	}
}

// Middleware recovers panics raised further down the chain.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				h.HandlePanic(w, r, recovered)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
