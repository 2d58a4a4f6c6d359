// Package debug provides category-based debug logging for mistral-bridge.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via MISTRAL_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via MISTRAL_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log(debug.Providers, "request", "method", "POST", "url", url)
//	if debug.Enabled(debug.Streaming) { /* expensive formatting */ }
//
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Debug categories.
const (
	Providers   = "providers"   // HTTP requests to the Mistral API
	Streaming   = "streaming"   // raw chunks and mapped events
	Credentials = "credentials" // key lookup and credential stores
	Config      = "config"
	Tools       = "tools" // MCP connections and tool calls
	Engine      = "engine"
	All         = "all"
)

var known = map[string]bool{
	Providers: true, Streaming: true, Credentials: true,
	Config: true, Tools: true, Engine: true, All: true,
}

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, full untruncated request bodies and raw stream chunks are logged.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

// output receives slog records and Raw text. Tests swap it.
var output io.Writer = os.Stderr

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	categories = parseCategories(os.Getenv("MISTRAL_DEBUG"))
}

// Init configures the debug system. Called at startup with values
// from config and/or environment. Environment overrides config.
func Init(configCategories string, configLevel string) {
	cats := os.Getenv("MISTRAL_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("MISTRAL_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})))

	if unknown := Unknown(); len(unknown) > 0 {
		slog.Warn("ignoring unknown debug categories", "categories", strings.Join(unknown, ","))
	}
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories[All] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when MISTRAL_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text without any slog formatting.
// Only emitted when category is enabled AND level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(output, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the sorted list of enabled categories.
func Categories() []string {
	return slices.Sorted(maps.Keys(categories))
}

// Unknown returns the enabled categories that no package logs under.
func Unknown() []string {
	var out []string
	for _, c := range Categories() {
		if !known[c] {
			out = append(out, c)
		}
	}
	return out
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated. It never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// RedactKey masks a secret for logging, keeping only the last four
// characters of keys long enough to make that safe.
func RedactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 12 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
