// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// Components receive a Logger through their constructors and scope it with
// Module:
//
//	central, err := logger.NewCentralLogger(&settings.Logging)
//	if err != nil {
//	    return err
//	}
//	defer central.Close()
//
//	ingestLog := central.Module("ingest")
//	ingestLog.Info("package loaded",
//	    logger.String("locator", id.Locator),
//	    logger.Int64("package_id", int64(pkgID)))
//
// Sub-modules are joined with a dot, so central.Module("datastore").Module("sqlite")
// logs with module="datastore.sqlite".
//
// Trace ids placed on a context with WithTraceID are picked up by WithContext:
//
//	ctx = logger.WithTraceID(ctx, loadID)
//	log.WithContext(ctx).Debug("normalizing")
//
// Tests use NewSlogLogger with a buffer or io.Discard.
//
// Console output is human-readable text without timestamps; file output is
// JSON with RFC3339 timestamps. All implementations are safe for concurrent use.
package logger

import (
	"context"
	"log/slog"
	"time"
	"unique"
)

// Module names used by the application. Sub-modules such as
// "datastore.sqlite" are routed and leveled by their first segment.
const (
	ModuleCLI        = "cli"
	ModuleIngest     = "ingest"
	ModuleDatastore  = "datastore"
	ModuleDefinition = "definition"
	ModuleAPI        = "api"
	ModuleMetrics    = "metrics"
	ModuleTelemetry  = "telemetry"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field.
// Keys are interned using unique.Make() so repeated keys share one allocation.
type Field struct {
	Key   string
	Value any
}

// internKey returns an interned version of the key string.
func internKey(key string) string {
	return unique.Make(key).Value()
}

var errorKey = internKey("error")

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	// Leveled logging methods
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Context-aware logging
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)
}

// String creates a string field.
//
//	log.Info("definition read", logger.String("path", path))
func String(key, value string) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int creates an integer field for counts and sizes.
func Int(key string, value int) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int64 creates a 64-bit integer field.
func Int64(key string, value int64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Uint64 creates an unsigned 64-bit integer field.
func Uint64(key string, value uint64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Error creates an error field. The key is always "error"; a nil error logs a nil value.
//
//	if err := loader.Unload(ctx, id); err != nil {
//	    log.Error("unload failed", logger.Error(err), logger.Uint64("package_id", uint64(id)))
//	}
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field rendered as a string such as "1.5s".
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value.String()}
}

// attr converts the field for slog. Durations are already strings.
func (f Field) attr() slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint64:
		return slog.Uint64(f.Key, v)
	default:
		return slog.Any(f.Key, v)
	}
}
