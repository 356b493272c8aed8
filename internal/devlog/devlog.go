// Package devlog provides a human-oriented slog handler for development
// servers: lowercase colored level tags on TTYs, plain text otherwise.
package devlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type fder interface {
	Fd() uintptr
}

// Options configures a Handler.
type Options struct {
	// Level is the minimum record level that will be logged. Defaults to
	// slog.LevelInfo.
	Level slog.Leveler

	// ForceColor enables colored output even when the destination is not
	// a terminal.
	ForceColor bool
}

// Handler writes records as single "level: message key=value" lines.
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	out    io.Writer
	colors bool

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*Handler)(nil)

// New builds a Handler writing to out. Color is enabled when out is a
// terminal or Options.ForceColor is set.
func New(out io.Writer, opts *Options) *Handler {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Level == nil {
		o.Level = slog.LevelInfo
	}

	colors := o.ForceColor
	if !colors {
		if f, ok := out.(fder); ok {
			colors = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}

	return &Handler{
		opts:   o,
		mu:     &sync.Mutex{},
		out:    out,
		colors: colors,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(h.levelTag(r.Level))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	// Stored attrs were group-qualified when captured in WithAttrs.
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, prefix, a)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, prefixAttr(strings.Join(h.groups, "."), a))
	}
	return h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		opts:   h.opts,
		mu:     h.mu,
		out:    h.out,
		colors: h.colors,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *Handler) levelTag(level slog.Level) string {
	tag := strings.ToLower(level.String()) + ":"
	if !h.colors {
		return tag
	}

	var c *color.Color
	switch {
	case level >= slog.LevelError:
		c = color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		c = color.New(color.FgYellow, color.Bold)
	case level >= slog.LevelInfo:
		c = color.New(color.FgGreen, color.Bold)
	default:
		c = color.New(color.FgBlue, color.Bold)
	}
	c.EnableColor()

	return c.Sprint(tag)
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := a.Key
		if prefix != "" {
			groupPrefix = prefix + "." + a.Key
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, groupPrefix, ga)
		}
		return
	}

	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	fmt.Fprintf(sb, " %s=%v", key, a.Value)
}

func prefixAttr(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	a.Key = prefix + "." + a.Key
	return a
}
