package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zsiec/timecode/pkg/timecode"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeInternal    ErrorType = "INTERNAL_ERROR"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeServiceDown ErrorType = "SERVICE_DOWN"
)

// Codes reported for timecode failures.
const (
	CodeInvalidRate          = "INVALID_RATE"
	CodeNegativeTimecode     = "NEGATIVE_TIMECODE"
	CodeInvalidDropFrameRate = "INVALID_DROP_FRAME_RATE"
	CodeMalformedTimecode    = "MALFORMED_TIMECODE"
	CodeIncompatibleRates    = "INCOMPATIBLE_RATES"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError)
}

func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message, http.StatusInternalServerError)
}

func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message, http.StatusConflict)
}

func NewRateLimitError(message string) *AppError {
	return New(ErrorTypeRateLimit, message, http.StatusTooManyRequests)
}

func NewServiceDownError(service string) *AppError {
	return New(ErrorTypeServiceDown, fmt.Sprintf("%s service is currently unavailable", service), http.StatusServiceUnavailable)
}

// FromTimecode classifies an error returned by the timecode package. It
// returns nil when err carries none of the package's sentinels.
func FromTimecode(err error) *AppError {
	var (
		code   string
		status = http.StatusBadRequest
		typ    = ErrorTypeValidation
	)
	switch {
	case errors.Is(err, timecode.ErrIncompatibleRates):
		code, status, typ = CodeIncompatibleRates, http.StatusConflict, ErrorTypeConflict
	case errors.Is(err, timecode.ErrInvalidRate):
		code = CodeInvalidRate
	case errors.Is(err, timecode.ErrNegativeTimecode):
		code = CodeNegativeTimecode
	case errors.Is(err, timecode.ErrInvalidDropFrameRate):
		code = CodeInvalidDropFrameRate
	case errors.Is(err, timecode.ErrMalformedTimecode):
		code = CodeMalformedTimecode
	default:
		return nil
	}
	appErr := Wrap(err, typ, err.Error(), status).WithCode(code)

	var pe *timecode.ParseError
	if errors.As(err, &pe) {
		appErr.WithDetails(map[string]interface{}{"input": pe.Input})
	}
	return appErr
}

// IsAppError checks if an error is, or wraps, an AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
