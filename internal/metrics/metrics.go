package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zsiec/timecode/pkg/timecode"
)

// Operation results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// Timecode operations
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timecode_operations_total",
		Help: "Total timecode operations by result",
	}, []string{"operation", "result"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timecode_errors_total",
		Help: "Total failed timecode operations by error kind",
	}, []string{"operation", "kind"})

	batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timecode_batch_size",
		Help:    "Number of timecodes handled by batch operations",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
	}, []string{"operation"})

	// Marker store
	markersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timecode_markers_total",
		Help: "Total marker store operations",
	}, []string{"operation"})

	// Media clock
	clockWrapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timecode_clock_wraps_total",
		Help: "Total 32-bit media timestamp wraps observed",
	})
)

// RecordOperation counts one operation with its outcome. A non-nil err is
// also counted by kind.
func RecordOperation(operation string, err error) {
	if err != nil {
		operationsTotal.WithLabelValues(operation, ResultError).Inc()
		RecordError(operation, err)
		return
	}
	operationsTotal.WithLabelValues(operation, ResultSuccess).Inc()
}

// RecordError counts a failed operation under the kind of err.
func RecordError(operation string, err error) {
	errorsTotal.WithLabelValues(operation, ErrorKind(err)).Inc()
}

// RecordBatch observes the size of a batch operation.
func RecordBatch(operation string, n int) {
	batchSize.WithLabelValues(operation).Observe(float64(n))
}

// RecordMarker counts a marker store operation.
func RecordMarker(operation string) {
	markersTotal.WithLabelValues(operation).Inc()
}

// RecordClockWrap counts a media timestamp wrap.
func RecordClockWrap() {
	clockWrapsTotal.Inc()
}

// ErrorKind maps err to a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, timecode.ErrInvalidRate):
		return "invalid_rate"
	case errors.Is(err, timecode.ErrNegativeTimecode):
		return "negative_timecode"
	case errors.Is(err, timecode.ErrInvalidDropFrameRate):
		return "invalid_drop_frame_rate"
	case errors.Is(err, timecode.ErrMalformedTimecode):
		return "malformed_timecode"
	case errors.Is(err, timecode.ErrIncompatibleRates):
		return "incompatible_rates"
	default:
		return "other"
	}
}
