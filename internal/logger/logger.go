// Package logger configures the process-wide structured logger and exposes
// per-component child loggers used across the bot.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	// L is the base logger. It defaults to slog's default logger so that
	// packages remain usable in tests without calling Init.
	L = slog.Default()

	// TG logs Telegram transport events.
	TG = Component("tg")
	// DB logs database events.
	DB = Component("db")
	// MIG logs migration events.
	MIG = Component("db.migrate")
	// Flow logs command/step orchestration events.
	Flow = Component("flow")
	// Store logs session store events.
	Store = Component("store")
	// Sheets logs spreadsheet mirror events.
	Sheets = Component("sheets")
)

// Init configures the global logger. Repeated calls are no-ops.
func Init(level, format string) error {
	var initErr error
	initOnce.Do(func() {
		lvl, err := parseLevel(level)
		if err != nil {
			initErr = err
			return
		}

		opts := &slog.HandlerOptions{Level: lvl}
		var handler slog.Handler
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "", "kv", "text":
			handler = slog.NewTextHandler(os.Stdout, opts)
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, opts)
		default:
			initErr = fmt.Errorf("logger: unknown format %q; allowed: kv, json", format)
			return
		}

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()
	})
	return initErr
}

func wireComponents() {
	TG = Component("tg")
	DB = Component("db")
	MIG = Component("db.migrate")
	Flow = Component("flow")
	Store = Component("store")
	Sheets = Component("sheets")
}

// Component returns a child logger tagged with the given component name.
func Component(name string) *slog.Logger {
	return L.With("component", name)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logger: unknown level %q", level)
}

// RoundMS truncates a duration to whole milliseconds for log readability.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
