// Package logging configures the slog handler used by the podgen CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"
)

type Options struct {
	// Tool identifies the emitting binary, e.g. "podgen".
	Tool string
	// Version is the tool version stamp.
	Version string

	Attrs []slog.Attr
}

// LogHandler is a slog.JSONHandler that stamps every record with the tool
// identity and the source position of the log call.
type LogHandler struct {
	opts Options
	*slog.JSONHandler
}

var _ slog.Handler = (*LogHandler)(nil)

func NewLogHandler(w io.Writer, opts Options, level slog.Leveler) *LogHandler {
	h := &LogHandler{
		opts: opts,
		JSONHandler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && a.Key == slog.TimeKey {
					a.Value = slog.StringValue(a.Value.Time().Format(time.DateTime))
				}
				return a
			},
		}),
	}

	if opts.Tool != "" {
		h.opts.Attrs = append(h.opts.Attrs, slog.String("tool", opts.Tool))
	}
	if opts.Version != "" {
		h.opts.Attrs = append(h.opts.Attrs, slog.String("version", opts.Version))
	}

	return h
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.JSONHandler.Enabled(ctx, level)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.opts.Attrs = append(c.opts.Attrs[:len(c.opts.Attrs):len(c.opts.Attrs)], attrs...)
	return &c
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := h.opts.Attrs
	fs := runtime.CallersFrames([]uintptr{r.PC})
	if fs != nil {
		f, _ := fs.Next()
		attrs = append(attrs[:len(attrs):len(attrs)],
			slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", f.File, f.Line)))
	}
	if len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.JSONHandler.Handle(ctx, r)
}
