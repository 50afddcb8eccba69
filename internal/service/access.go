package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

type AccessConfig struct {
	GroupRoleTemplate string // "LWD - GR %s"
	CategoryTemplate  string // "Group %s"
	MenteeRole        string
	RoleColor         int
}

func (c AccessConfig) RoleName(group string) string     { return fmt.Sprintf(c.GroupRoleTemplate, group) }
func (c AccessConfig) CategoryName(group string) string { return fmt.Sprintf(c.CategoryTemplate, group) }

// AccessManager переводит назначение группы в роли и права каналов Discord.
// Источник правды — база; Discord может отставать, ошибки только сообщаются.
type AccessManager struct {
	p     platform.Platform
	audit Notifier
	cfg   AccessConfig
}

func NewAccessManager(p platform.Platform, audit Notifier, cfg AccessConfig) *AccessManager {
	return &AccessManager{p: p, audit: audit, cfg: cfg}
}

func (a *AccessManager) ensureRole(ctx context.Context, name string) (platform.Role, error) {
	role, err := a.p.FindRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, platform.ErrNotFound) {
		return platform.Role{}, err
	}
	logger.FromCtx(ctx).Info("group role does not exist, creating", slog.String("role", name))
	return a.p.CreateRole(ctx, name, a.cfg.RoleColor)
}

// Grant gives the member the group role and reports to channelID and the audit log.
func (a *AccessManager) Grant(ctx context.Context, channelID string, acc domain.DiscordAccount, group string) error {
	if acc.IsZero() {
		return domain.ErrNoDiscordLinked
	}
	roleName := a.cfg.RoleName(group)
	category := a.cfg.CategoryName(group)

	role, err := a.ensureRole(ctx, roleName)
	if err != nil {
		return fmt.Errorf("ensure role %q: %w", roleName, err)
	}
	if err := a.p.AddRole(ctx, acc.ID, role.ID); err != nil {
		return fmt.Errorf("grant role %q: %w", roleName, err)
	}

	if err := a.p.Send(ctx, channelID, fmt.Sprintf(msgVerified, category)); err != nil {
		logger.FromCtx(ctx).Warn("grant notice failed", slog.Any("err", err))
	}
	logger.FromCtx(ctx).Info("role granted",
		logger.User(acc.ID, acc.Username),
		slog.String("role", roleName),
		slog.String("group", group),
	)
	a.audit.Notify(ctx, fmt.Sprintf(msgAuditAssigned, roleName, category, acc.Username))
	return nil
}

type RevokeReport struct {
	RoleErr    error
	ChannelErr error
	Channels   int
}

func (r RevokeReport) OK() bool { return r.RoleErr == nil && r.ChannelErr == nil }

// Revoke снимает роль Mentee и роль группы, затем закрывает каналы категории.
// Шаги независимы: ошибка одного не отменяет другой.
func (a *AccessManager) Revoke(ctx context.Context, channelID string, acc domain.DiscordAccount, group string) RevokeReport {
	var rep RevokeReport
	say := func(format string, args ...any) {
		if err := a.p.Send(ctx, channelID, fmt.Sprintf(format, args...)); err != nil {
			logger.FromCtx(ctx).Warn("revoke notice failed", slog.Any("err", err))
		}
	}

	rep.RoleErr = a.removeRoles(ctx, acc.ID, a.cfg.MenteeRole, a.cfg.RoleName(group))
	if rep.RoleErr != nil {
		logger.FromCtx(ctx).Error("remove roles failed", logger.User(acc.ID, acc.Username), slog.Any("err", rep.RoleErr))
		say(msgRoleRemoveFailed, a.cfg.MenteeRole, acc.Mention())
	} else {
		say(msgRoleRemoved, a.cfg.MenteeRole, acc.Mention())
	}

	rep.Channels, rep.ChannelErr = a.hideCategory(ctx, acc.ID, a.cfg.CategoryName(group))
	if rep.ChannelErr != nil {
		logger.FromCtx(ctx).Error("revoke channel access failed", logger.User(acc.ID, acc.Username), slog.Any("err", rep.ChannelErr))
		say(msgGroupRemoveFail, acc.Mention(), group)
	} else {
		say(msgGroupRemoved, acc.Mention(), group)
	}
	return rep
}

func (a *AccessManager) removeRoles(ctx context.Context, userID string, names ...string) error {
	held, err := a.p.MemberRoles(ctx, userID)
	if err != nil {
		return fmt.Errorf("member roles: %w", err)
	}
	has := make(map[string]bool, len(held))
	for _, id := range held {
		has[id] = true
	}

	var errs []error
	for _, name := range names {
		role, err := a.p.FindRole(ctx, name)
		if errors.Is(err, platform.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("find role %q: %w", name, err))
			continue
		}
		if !has[role.ID] {
			continue
		}
		if err := a.p.RemoveRole(ctx, userID, role.ID); err != nil {
			errs = append(errs, fmt.Errorf("remove role %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *AccessManager) hideCategory(ctx context.Context, userID, categoryName string) (int, error) {
	cat, err := a.p.FindChannel(ctx, categoryName, platform.ChannelCategory)
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", categoryName, err)
	}
	chs, err := a.p.ChannelsInCategory(ctx, cat.ID)
	if err != nil {
		return 0, fmt.Errorf("channels of %q: %w", categoryName, err)
	}

	var (
		n    int
		errs []error
	)
	for _, ch := range chs {
		if err := a.p.SetMemberView(ctx, ch.ID, userID, false); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", ch.Name, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
