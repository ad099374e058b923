package logger

import (
	"context"

	"github.com/google/uuid"
)

// traceIDLength keeps ids short enough to read in console output.
const traceIDLength = 8

type traceKey struct{}

// NewTraceID returns a fresh id for one package load or one API request.
func NewTraceID() string {
	return uuid.NewString()[:traceIDLength]
}

// WithTraceID returns a copy of ctx carrying id. Loggers derived with
// WithContext(ctx) add it as the trace_id field, and so do the SQL
// statements gorm runs with ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the id carried by ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
