package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/timecode/internal/config"
	"github.com/zsiec/timecode/pkg/timecode"
	"github.com/zsiec/timecode/pkg/version"
)

// Logger is the structured logging surface handed to service components.
type Logger interface {
	WithFields(fields map[string]interface{}) Logger
	WithField(key string, value interface{}) Logger
	WithError(err error) Logger
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// LogrusAdapter wraps logrus.Entry to implement Logger
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter creates a new LogrusAdapter
func NewLogrusAdapter(entry *logrus.Entry) Logger {
	return &LogrusAdapter{entry: entry}
}

func (l *LogrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &LogrusAdapter{entry: l.entry.WithFields(fields)}
}

func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return &LogrusAdapter{entry: l.entry.WithField(key, value)}
}

func (l *LogrusAdapter) WithError(err error) Logger {
	return &LogrusAdapter{entry: l.entry.WithError(err)}
}

func (l *LogrusAdapter) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusAdapter) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusAdapter) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusAdapter) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *LogrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusAdapter) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusAdapter) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// New creates a new configured logger instance.
func New(cfg *config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		// File output with rotation
		dir := filepath.Dir(cfg.Output)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   true,
		})
	}

	logger.AddHook(defaultFields{
		"service": "timecode",
		"version": version.GetInfo().Short(),
	})

	return logger, nil
}

// defaultFields stamps every entry with fixed fields.
type defaultFields logrus.Fields

func (d defaultFields) Levels() []logrus.Level { return logrus.AllLevels }

func (d defaultFields) Fire(e *logrus.Entry) error {
	for k, v := range d {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

// WithComponent creates a logger entry with component field.
func WithComponent(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// WithTimeline scopes entry to a marker timeline.
func WithTimeline(entry *logrus.Entry, timeline string) *logrus.Entry {
	return entry.WithField("timeline", timeline)
}

// WithTimecode adds the fields describing tc to entry.
func WithTimecode(entry *logrus.Entry, tc timecode.Timecode) *logrus.Entry {
	return entry.WithFields(logrus.Fields{
		"timecode":   tc.String(),
		"frame":      tc.FrameNumber(),
		"rate":       tc.Rate(),
		"drop_frame": tc.DropFrame(),
	})
}

// Fields is a type alias for logrus.Fields for convenience
type Fields = logrus.Fields

// Entry is a type alias for logrus.Entry
type Entry = logrus.Entry
