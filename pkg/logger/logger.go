// Package logger configures the process-wide slog logger for the bot.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	def *slog.Logger
	zl  *zap.Logger
)

// Init настраивает slog в зависимости от среды
func Init(cfg Config) {
	InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter is Init with an explicit sink; tests and the CLI use it.
func InitWithWriter(cfg Config, w io.Writer) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "mr-dcc-bot"
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	// Выбор бекенда по умолчанию
	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var (
		h slog.Handler
		z *zap.Logger
	)
	switch cfg.Backend {
	case BackendZap:
		h, z = newZapHandler(cfg, w)
	default:
		h = newStdHandler(cfg, w)
	}

	h = h.WithAttrs(commonAttr(cfg))

	base := slog.New(h)
	slog.SetDefault(base)

	mu.Lock()
	def = base
	zl = z
	mu.Unlock()
}

func L() *slog.Logger {
	mu.RLock()
	l := def
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(Config{})
	return L()
}

// Sync сбрасывает буферы zap; для std бекенда ничего не делает.
func Sync() error {
	mu.RLock()
	z := zl
	mu.RUnlock()
	if z == nil {
		return nil
	}
	return z.Sync()
}
