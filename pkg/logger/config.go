package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // Text в dev; JSON в stage/prod
	BackendZap Backend = "zap" // Slog-zap
)

type Config struct {
	// Метаданные для логгера
	Service    string
	Version    string
	InstanceID string

	// Управление выводом
	Level   slog.Level
	Env     Env
	Backend Backend // default: zap для stage/prod, std для dev
	Debug   bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	// AddSource в dev
	AddSource bool
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}
