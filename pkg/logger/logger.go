package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=../../internal/domain/mocks/mock_logger.go -package=mocks github.com/callmaker24/segmentation/pkg/logger Logger

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewLogger returns an info level logger writing JSON lines to stdout
func NewLogger() Logger {
	return NewLoggerWithLevel("info")
}

// NewLoggerWithLevel returns a stdout logger filtered at the given level.
// Unknown levels fall back to info.
func NewLoggerWithLevel(level string) Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter returns a logger writing to w
func NewLoggerWithWriter(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &zerologLogger{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

func (l *zerologLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zerologLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLogger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *zerologLogger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return &zerologLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

// WithFields returns a child logger; the receiver is left untouched
func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &zerologLogger{
		logger: ctx.Logger(),
	}
}
