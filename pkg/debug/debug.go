// Package debug provides leveled logger setup and category-based debug
// logging for soiree.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): SOIREE_DEBUG env or logging.debug config
//   - Levels (HOW MUCH detail): SOIREE_LOG_LEVEL env or logging.level config
//
// Usage:
//
//	debug.Log(debug.Backend, "request", "url", url)
//	if debug.Enabled(debug.Mapping) { /* expensive formatting */ }
//
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Categories.
const (
	Backend    = "backend"
	Submission = "submission"
	Mapping    = "mapping"
	Transport  = "transport"
	Storage    = "storage"
	All        = "all"
)

// LevelTrace is below slog.LevelDebug. At TRACE, full request and
// response bodies are logged.
const LevelTrace = slog.LevelDebug - 4

var categories atomic.Pointer[map[string]bool]

func init() {
	m := map[string]bool{}
	categories.Store(&m)
}

// Options configures Setup.
type Options struct {
	Level      string // TRACE, DEBUG, INFO, WARN or ERROR
	Format     string // "text" or "json"
	Categories string // comma-separated, e.g. "backend,mapping"
}

// Setup enables the given categories and installs a default slog logger
// writing to w. The installed logger is returned.
func Setup(w io.Writer, opts Options) *slog.Logger {
	SetCategories(opts.Categories)

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// SetCategories replaces the enabled categories.
func SetCategories(s string) {
	m := parseCategories(s)
	categories.Store(&m)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m[All] || m[category]
}

// Log emits a debug message for the given category. It is a no-op when the
// category is disabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
func Trace(category string, msg string, args ...any) {
	if !TraceEnabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceEnabled reports whether TRACE level is active for the category.
func TraceEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(context.Background(), LevelTrace)
}

// ParseLevel converts a level string to a slog.Level. Unknown values map
// to INFO.
func ParseLevel(s string) slog.Level {
	level, _ := LookupLevel(s)
	return level
}

// LookupLevel is ParseLevel that also reports whether s was recognized.
func LookupLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Truncate returns s cut to maxLen bytes, with "..." appended if it was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
