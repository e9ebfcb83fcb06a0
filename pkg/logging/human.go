package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// humanHandler renders records as aligned columns for interactive reading:
//
//	2025-03-01T09:12:45.120Z  INFO   upstream        request completed  status=200 durationMs=42
//
// The component attribute owns a dedicated column; remaining attributes are
// appended as key=value pairs in emission order.
type humanHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	out    io.Writer
	attrs  []slog.Attr
	groups []string
}

func newHumanHandler(out io.Writer, opts *slog.HandlerOptions) *humanHandler {
	h := &humanHandler{out: out, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *humanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *humanHandler) Handle(_ context.Context, r slog.Record) error {
	component := ""
	rest := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	collect := func(a slog.Attr) {
		a = h.rewrite(a)
		if a.Equal(slog.Attr{}) {
			return
		}
		if a.Key == "component" && component == "" {
			component = a.Value.String()
			return
		}
		rest = append(rest, a)
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	msg := r.Message
	if rep := h.opts.ReplaceAttr; rep != nil {
		if a := rep(nil, slog.String(slog.MessageKey, msg)); !a.Equal(slog.Attr{}) {
			msg = a.Value.String()
		}
	}

	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "  %-5s  %-14s  %s", levelName(r.Level), component, msg)
	for _, a := range rest {
		fmt.Fprintf(&b, "  %s=%v", a.Key, a.Value)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *humanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *humanHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// rewrite applies the ReplaceAttr hook and qualifies grouped keys with a
// dotted prefix.
func (h *humanHandler) rewrite(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if rep := h.opts.ReplaceAttr; rep != nil {
		a = rep(h.groups, a)
	}
	if len(h.groups) > 0 && a.Key != "" {
		a.Key = strings.Join(h.groups, ".") + "." + a.Key
	}
	return a
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
