// Package bot routes chat messages to the bot's workflows.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/service"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

const (
	CmdJoin       = "!join_lwd"
	CmdListNew    = "!list_new_reg"
	CmdAssign     = "!assign_group"
	CmdDeassign   = "!deassign_group"
	CmdDelete     = "!delete_entry"
	CmdMemberList = "!member_list_lwd"
	CmdHelp       = "!help"
	CmdPing       = "ping"
)

const (
	msgBusy  = "You're already running a command. Please wait until it's completed."
	msgError = "An error occurred while processing your command."
	msgPong  = "pong"
	msgHelp  = "Commands:\n" +
		"`!help` - Display this help message \n" +
		"`!join_lwd` - Join the LWD Discord server\n" +
		"`!list_new_reg` - List the new users who are trying to join DCC\n" +
		"`!assign_group` - Assign the new users to the groups\n" +
		"`!deassign_group` - Move a member back to the new users list\n" +
		"`!delete_entry` - Delete new users by ID\n" +
		"`!member_list_lwd` - List the members of a group channel"
)

type Registrar interface {
	Join(ctx context.Context, m platform.Message) (service.JoinOutcome, error)
}

type Admin interface {
	ListPending(ctx context.Context, m platform.Message) error
	AssignGroup(ctx context.Context, m platform.Message) error
	DeassignGroup(ctx context.Context, m platform.Message) error
	DeleteEntries(ctx context.Context, m platform.Message) error
}

type Members interface {
	MemberList(ctx context.Context, ch platform.Channel) error
}

type Config struct {
	WelcomeChannel     string // имя канала
	AdminChannel       string // имя канала
	MemberListCategory string // id категории
}

type Router struct {
	p       platform.Platform
	guard   *session.Guard
	reg     Registrar
	admin   Admin
	members Members
	cfg     Config
	tracer  trace.Tracer
}

func NewRouter(p platform.Platform, guard *session.Guard, reg Registrar, admin Admin, members Members, cfg Config) *Router {
	return &Router{
		p:       p,
		guard:   guard,
		reg:     reg,
		admin:   admin,
		members: members,
		cfg:     cfg,
		tracer:  otel.Tracer("github.com/sebesti0n/Mr.-DCC-Bot/internal/transport/bot"),
	}
}

func isCommand(cmd string) bool {
	switch cmd {
	case CmdJoin, CmdListNew, CmdAssign, CmdDeassign, CmdDelete, CmdMemberList:
		return true
	}
	return false
}

// Handle is the entry point for every inbound message. It never panics and
// always releases the author's session before returning.
func (r *Router) Handle(ctx context.Context, m platform.Message) {
	if m.Author.Bot {
		return
	}

	raw := strings.TrimSpace(m.Content)
	cmd := strings.ToLower(raw)

	// ping отвечает только на точное совпадение
	if raw == CmdPing {
		r.reply(ctx, m.ChannelID, msgPong)
		return
	}
	if cmd == CmdHelp {
		r.reply(ctx, m.ChannelID, msgHelp)
		return
	}

	// команды только на сервере, не в личке
	if m.IsDirect() {
		return
	}
	if !isCommand(cmd) {
		return
	}

	if !r.guard.TryAcquire(m.Author.ID, cmd) {
		r.reply(ctx, m.ChannelID, msgBusy)
		return
	}
	defer r.guard.Release(m.Author.ID)

	runID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "command "+cmd, trace.WithAttributes(
		attribute.String("command", cmd),
		attribute.String("user.id", m.Author.ID),
		attribute.String("run.id", runID),
	))
	defer span.End()

	log := logger.FromCtx(ctx).With(logger.Command(cmd, runID), logger.User(m.Author.ID, m.Author.Username))
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("command panic",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			span.SetStatus(codes.Error, "panic")
			r.reply(ctx, m.ChannelID, msgError)
		}
	}()

	err := r.dispatch(ctx, cmd, m)
	if err != nil {
		log.Error("command failed", slog.Any("err", err), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.reply(ctx, m.ChannelID, msgError)
		return
	}
	log.Info("command done", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
}

func (r *Router) dispatch(ctx context.Context, cmd string, m platform.Message) error {
	ch, err := r.p.Channel(ctx, m.ChannelID)
	if err != nil {
		return fmt.Errorf("resolve channel: %w", err)
	}

	switch {
	case cmd == CmdJoin && ch.Name == r.cfg.WelcomeChannel:
		out, err := r.reg.Join(ctx, m)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("outcome", string(out)))
		return err
	case cmd == CmdListNew && ch.Name == r.cfg.AdminChannel:
		return r.admin.ListPending(ctx, m)
	case cmd == CmdAssign && ch.Name == r.cfg.AdminChannel:
		return r.admin.AssignGroup(ctx, m)
	case cmd == CmdDeassign && ch.Name == r.cfg.AdminChannel:
		return r.admin.DeassignGroup(ctx, m)
	case cmd == CmdDelete && ch.Name == r.cfg.AdminChannel:
		return r.admin.DeleteEntries(ctx, m)
	case cmd == CmdMemberList && r.cfg.MemberListCategory != "" && ch.ParentID == r.cfg.MemberListCategory:
		return r.members.MemberList(ctx, ch)
	}
	// команда не в своём канале — молча игнорируем
	return nil
}

func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.p.Send(ctx, channelID, text); err != nil {
		logger.FromCtx(ctx).Warn("reply failed", slog.String("channel", channelID), slog.Any("err", err))
	}
}
