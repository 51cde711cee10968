package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// Sections which are logged below warning level unless changed with SetSections
var DefaultSections = []string{
	"frontend",
	"collect",
	"solve",
	"check",
	"package",
}

var (
	currentLevel = new(slog.LevelVar)

	sectionsMu sync.RWMutex
	sections   = slices.Clone(DefaultSections)
)

func init() {
	currentLevel.Set(slog.LevelWarn)
}

// SetLevel changes the level of DefaultLogger and every logger derived from it
func SetLevel(l slog.Level) {
	currentLevel.Set(l)
}

// SetSections replaces the sections whose records are kept below warning level.
// A record belongs to a section when its "section" attribute starts with it.
func SetSections(names ...string) {
	sectionsMu.Lock()
	defer sectionsMu.Unlock()
	sections = slices.Clone(names)
}

func sectionEnabled(v slog.Value) bool {
	sectionsMu.RLock()
	defer sectionsMu.RUnlock()
	name := v.String()
	return slices.ContainsFunc(sections, func(s string) bool { return strings.HasPrefix(name, s) })
}

var LoggerOpts = &slog.HandlerOptions{
	AddSource: true,
	Level:     currentLevel,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.Attr{}
		}
		return a
	},
}

// DefaultLogger writes to stderr so that diagnostics on stdout stay machine-readable
var DefaultLogger = NewLogger(os.Stderr)

// NewLogger returns a logger which drops records below warning level unless they belong
// to an enabled section
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(&sectionHandler{underlying: slog.NewTextHandler(w, LoggerOpts)})
}

var _ slog.Handler = &sectionHandler{}

type sectionHandler struct {
	underlying slog.Handler
	// section is the value of a "section" attribute added through WithAttrs, if any
	section *slog.Value
}

func (h *sectionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.underlying.Enabled(ctx, level)
}

func (h *sectionHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return h.underlying.Handle(ctx, record)
	}
	if h.section != nil && sectionEnabled(*h.section) {
		return h.underlying.Handle(ctx, record)
	}
	keep := false
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "section" {
			keep = sectionEnabled(attr.Value)
			return false
		}
		return true
	})
	if !keep {
		return nil
	}
	return h.underlying.Handle(ctx, record)
}

func (h *sectionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	section := h.section
	for _, attr := range attrs {
		if attr.Key == "section" {
			v := attr.Value
			section = &v
		}
	}
	return &sectionHandler{underlying: h.underlying.WithAttrs(attrs), section: section}
}

func (h *sectionHandler) WithGroup(name string) slog.Handler {
	return &sectionHandler{underlying: h.underlying.WithGroup(name), section: h.section}
}
