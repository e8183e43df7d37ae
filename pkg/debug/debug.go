// Package debug provides category-based debug logging for tasktrack.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): logging.debug in config or TASKTRACK_DEBUG
//   - Levels (HOW MUCH detail): logging.level in config or TASKTRACK_LOG_LEVEL
//
// Usage:
//
//	debug.Log(ctx, logger, "ratelimit", "attempt admitted", "client", key)
//	if debug.Enabled("auth") { /* expensive formatting */ }
//
// Categories: auth, ratelimit, tasks, storage, all.
// Levels: error, warn, info, debug, trace.
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// EnvCategories overrides the configured categories when set.
const EnvCategories = "TASKTRACK_DEBUG"

var categories atomic.Pointer[map[string]bool]

func init() {
	Configure("")
}

// Configure sets the enabled categories from a comma-separated list.
// TASKTRACK_DEBUG takes precedence over list.
func Configure(list string) {
	if env := os.Getenv(EnvCategories); env != "" {
		list = env
	}
	m := parseCategories(list)
	categories.Store(&m)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m["all"] || m[category]
}

// Log emits a debug message tagged with category when the category is
// enabled. A nil logger uses slog.Default().
func Log(ctx context.Context, logger *slog.Logger, category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(ctx, slog.LevelDebug, msg, append([]any{"debug", category}, args...)...)
}

// Trace is Log at LevelTrace.
func Trace(ctx context.Context, logger *slog.Logger, category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(ctx, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level name to a slog.Level. It accepts trace in
// addition to the slog level names, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Categories returns the enabled categories, sorted.
func Categories() []string {
	m := *categories.Load()
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
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
