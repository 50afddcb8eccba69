package logger

import (
	"io"
	"log/slog"
)

// В dev читаемый текст, в stage/prod JSON для сборщика логов.
func newStdHandler(cfg Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.level(),
		AddSource: cfg.AddSource,
	}
	if cfg.Env == EnvDev {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
