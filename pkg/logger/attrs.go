package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

func ensureInstanceID(v string) string {
	if v != "" {
		return v
	}

	hn, _ := os.Hostname()
	uid := uuid.New().String()[:8]
	return hn + "-" + uid
}

func commonAttr(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", time.Now()),
	}
}

// User группирует атрибуты участника чата, чтобы не дублировать ключи по коду.
func User(id, username string) slog.Attr {
	return slog.Group("user",
		slog.String("id", id),
		slog.String("username", username),
	)
}

// Command — атрибуты выполняемой команды бота.
func Command(name, runID string) slog.Attr {
	return slog.Group("command",
		slog.String("name", name),
		slog.String("run_id", runID),
	)
}
