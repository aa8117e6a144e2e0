package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the service logger: JSON on stdout, debug level outside
// production-like environments, every record tagged with the service name.
func NewLogger(env, service string) *slog.Logger {
	return newLogger(os.Stdout, env, service)
}

func newLogger(w io.Writer, env, service string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" || env == "test" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(NewContextHandler(h)).With("service", service, "env", env)
}
