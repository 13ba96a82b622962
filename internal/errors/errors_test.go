package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/timecode/pkg/timecode"
)

func TestAppError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ErrorTypeValidation, "bad input", http.StatusBadRequest)
		assert.Equal(t, "VALIDATION_ERROR: bad input", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause, ErrorTypeInternal, "failed", http.StatusInternalServerError)
		assert.Equal(t, "INTERNAL_ERROR: failed (caused by: boom)", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("details and code", func(t *testing.T) {
		err := NewValidationError("bad").
			WithCode("X").
			WithDetails(map[string]interface{}{"field": "rate"})
		assert.Equal(t, "X", err.Code)
		assert.Equal(t, "rate", err.Details["field"])
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
		msg    string
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest, "bad"},
		{"not found", NewNotFoundError("marker"), ErrorTypeNotFound, http.StatusNotFound, "marker not found"},
		{"internal", NewInternalError("oops"), ErrorTypeInternal, http.StatusInternalServerError, "oops"},
		{"conflict", NewConflictError("taken"), ErrorTypeConflict, http.StatusConflict, "taken"},
		{"rate limit", NewRateLimitError("slow down"), ErrorTypeRateLimit, http.StatusTooManyRequests, "slow down"},
		{"service down", NewServiceDownError("redis"), ErrorTypeServiceDown, http.StatusServiceUnavailable, "redis service is currently unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.msg, tt.err.Message)
		})
	}
}

func TestFromTimecode(t *testing.T) {
	_, errRate := timecode.New(0, -1, false)
	_, errNeg := timecode.New(-5, 24, false)
	_, errDrop := timecode.New(0, 24, true)
	_, errParse := timecode.Parse("ab:cd", 24, false)
	_, errAdd := timecode.MustNew(1, 24, false).Add(timecode.MustNew(1, 25, false))

	tests := []struct {
		name   string
		err    error
		code   string
		status int
		typ    ErrorType
	}{
		{"invalid rate", errRate, CodeInvalidRate, http.StatusBadRequest, ErrorTypeValidation},
		{"negative", errNeg, CodeNegativeTimecode, http.StatusBadRequest, ErrorTypeValidation},
		{"drop frame rate", errDrop, CodeInvalidDropFrameRate, http.StatusBadRequest, ErrorTypeValidation},
		{"malformed", errParse, CodeMalformedTimecode, http.StatusBadRequest, ErrorTypeValidation},
		{"incompatible", errAdd, CodeIncompatibleRates, http.StatusConflict, ErrorTypeConflict},
		{"wrapped", fmt.Errorf("request: %w", errNeg), CodeNegativeTimecode, http.StatusBadRequest, ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			appErr := FromTimecode(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.Equal(t, tt.typ, appErr.Type)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	t.Run("unrelated error", func(t *testing.T) {
		assert.Nil(t, FromTimecode(errors.New("other")))
	})
}

func TestGetAppError(t *testing.T) {
	appErr := NewNotFoundError("marker")

	got, ok := GetAppError(appErr)
	assert.True(t, ok)
	assert.Same(t, appErr, got)

	got, ok = GetAppError(fmt.Errorf("lookup: %w", appErr))
	assert.True(t, ok)
	assert.Same(t, appErr, got)

	_, ok = GetAppError(errors.New("plain"))
	assert.False(t, ok)

	assert.True(t, IsAppError(appErr))
	assert.False(t, IsAppError(errors.New("plain")))
	assert.False(t, IsAppError(nil))
}

func TestFromTimecode_ParseInput(t *testing.T) {
	_, err := timecode.Parse("01:xx:00:00", 24, false)

	appErr := FromTimecode(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "01:xx:00:00", appErr.Details["input"])

	_, err = timecode.New(-1, 24, false)
	assert.Nil(t, FromTimecode(err).Details)
}
