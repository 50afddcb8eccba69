package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

type Notifier interface {
	Notify(ctx context.Context, text string)
}

// EventPublisher рассылает события живым подписчикам (websocket).
type EventPublisher interface {
	Publish(kind, text string)
}

const EventAudit = "audit"

// Audit пишет журнал действий бота: в канал логов, в slog и подписчикам.
type Audit struct {
	p          platform.Platform
	logChannel string
	pub        EventPublisher
}

func NewAudit(p platform.Platform, logChannel string, pub EventPublisher) *Audit {
	return &Audit{p: p, logChannel: logChannel, pub: pub}
}

func (a *Audit) Notify(ctx context.Context, text string) {
	log := logger.FromCtx(ctx)
	log.Info("audit", slog.String("text", text))

	if a.pub != nil {
		a.pub.Publish(EventAudit, text)
	}

	ch, err := a.p.FindChannel(ctx, a.logChannel, platform.ChannelText)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			log.Warn("log channel not found", slog.String("channel", a.logChannel))
			return
		}
		log.Warn("log channel lookup failed", slog.Any("err", err))
		return
	}
	if err := a.p.Send(ctx, ch.ID, text); err != nil {
		log.Warn("audit send failed", slog.Any("err", err))
	}
}
