package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	moduleKey  = internKey("module")
	traceIDKey = internKey("trace_id")
)

// NewSlogLogger creates a standalone Logger writing text records to w.
// A nil writer means stdout, a nil timezone means UTC. Mostly used in tests:
//
//	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = os.Stdout
	}
	if tz == nil {
		tz = time.UTC
	}
	slogLevel := parseLogLevel(string(level))
	return &moduleLogger{
		logger: slog.New(newTextHandler(w, slogLevel, tz)),
		level:  slogLevel,
	}
}

// newTextHandler builds the console handler. Timestamps are dropped, levels are
// padded to a fixed width and the custom TRACE level gets its own label.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				lvl, ok := a.Value.Any().(slog.Level)
				if !ok {
					return a
				}
				label := lvl.String()
				if lvl <= traceLevelValue {
					label = "TRACE"
				}
				return slog.String(slog.LevelKey, padLevel(label))
			}
			if t, ok := a.Value.Any().(time.Time); ok {
				return slog.String(a.Key, t.In(tz).Format(time.RFC3339))
			}
			return a
		},
	})
}

func padLevel(label string) string {
	if len(label) >= maxLevelWidth {
		return label
	}
	return label + strings.Repeat(" ", maxLevelWidth-len(label))
}

// discardHandler is used when a logger must exist but output is unwanted.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return &moduleLogger{
		logger: slog.New(discardHandler{}),
		level:  slog.LevelError + 1,
	}
}
