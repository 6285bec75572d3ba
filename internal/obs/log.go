package obs

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var loggerOnce sync.Once

// InitLogging configures the shared JSON logger at the given minimum level
// and installs it as the slog default. Later calls are no-ops.
func InitLogging(level string) {
	loggerOnce.Do(func() {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(level),
		})
		slog.SetDefault(slog.New(h))
	})
}

// Logger returns the shared structured logger used across the service.
func Logger() *slog.Logger { return slog.Default() }

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
