// ABOUTME: Component-scoped logging over log/slog
// ABOUTME: Per-component levels configurable via the MDNS_PEER_LOG env var
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// EnvVar names the environment variable holding the level filter.
// Format: "component=level,component=level" with an optional bare level
// token that sets the default, e.g. "warn,mdnspeer=debug".
const EnvVar = "MDNS_PEER_LOG"

// DefaultFilter keeps the core at info while surfacing mDNS activity.
const DefaultFilter = "mdnspeer=info,mdnspeer/discovery=debug"

var (
	mu           sync.RWMutex
	defaultLevel = slog.LevelInfo
	levels       = map[string]slog.Level{}
	initOnce     sync.Once
)

// Init installs the process-wide handler and applies the filter from
// MDNS_PEER_LOG (falling back to DefaultFilter). Subsequent calls are no-ops.
func Init() {
	initOnce.Do(func() {
		filter := os.Getenv(EnvVar)
		if filter == "" {
			filter = DefaultFilter
		}
		applyFilter(filter)
		SetOutput(os.Stderr)
	})
}

// SetOutput redirects all log output to w. The handler itself passes every
// level through; filtering happens per component before emission.
func SetOutput(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
}

// SetLevel overrides the level of a single component.
func SetLevel(component string, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	levels[component] = level
}

func applyFilter(filter string) {
	mu.Lock()
	defer mu.Unlock()
	for _, part := range strings.Split(filter, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, levelStr, ok := strings.Cut(part, "=")
		if !ok {
			// Bare level token sets the default for every component.
			if level, err := parseLevel(name); err == nil {
				defaultLevel = level
			}
			continue
		}
		level, err := parseLevel(levelStr)
		if err != nil {
			continue
		}
		levels[strings.TrimSpace(name)] = level
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}

func enabled(component string, level slog.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	if min, ok := levels[component]; ok {
		return level >= min
	}
	return level >= defaultLevel
}

// ComponentLogger logs with a fixed component attribute. It resolves the
// default slog logger at call time, so output redirection applies to loggers
// created before SetOutput ran.
type ComponentLogger struct {
	component string
}

// Logger returns the logger for a named component.
func Logger(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

// Debug logs at debug level.
func (l *ComponentLogger) Debug(msg string, args ...any) {
	if !enabled(l.component, slog.LevelDebug) {
		return
	}
	slog.Default().With("component", l.component).Debug(msg, args...)
}

// Info logs at info level.
func (l *ComponentLogger) Info(msg string, args ...any) {
	if !enabled(l.component, slog.LevelInfo) {
		return
	}
	slog.Default().With("component", l.component).Info(msg, args...)
}

// Warn logs at warn level.
func (l *ComponentLogger) Warn(msg string, args ...any) {
	if !enabled(l.component, slog.LevelWarn) {
		return
	}
	slog.Default().With("component", l.component).Warn(msg, args...)
}

// Error logs at error level.
func (l *ComponentLogger) Error(msg string, args ...any) {
	if !enabled(l.component, slog.LevelError) {
		return
	}
	slog.Default().With("component", l.component).Error(msg, args...)
}
