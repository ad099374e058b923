package logger

import (
	"context"
	"log/slog"
	"slices"

	"github.com/tphakala/zclstore/internal/errors"
)

// fanoutHandler hands each record to every output that accepts its level,
// so an info-level log file next to a debug console only gets info and up.
type fanoutHandler []slog.Handler

// fanout combines the outputs of one route. A single output is returned as is.
func fanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return fanoutHandler(handlers)
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

// Handle writes a clone of the record to each enabled output and joins the errors.
//
//nolint:gocritic // slog.Handler requires the record by value
func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanoutHandler) each(apply func(slog.Handler) slog.Handler) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = apply(h)
	}
	return out
}
