package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/dialog"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/throttle"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

// AdminService — команды канала администраторов.
type AdminService struct {
	store      repository.Store
	p          platform.Platform
	access     *AccessManager
	audit      Notifier
	tracker    Tracker
	dispatcher *throttle.Dispatcher
	menteeRole string

	timeout time.Duration
	now     func() time.Time
}

func NewAdminService(store repository.Store, p platform.Platform, access *AccessManager, audit Notifier, dispatcher *throttle.Dispatcher) *AdminService {
	return &AdminService{
		store:      store,
		p:          p,
		access:     access,
		audit:      audit,
		tracker:    nopTracker{},
		dispatcher: dispatcher,
		menteeRole: access.cfg.MenteeRole,
		timeout:    dialog.DefaultTimeout,
		now:        time.Now,
	}
}

func (s *AdminService) SetTracker(t Tracker) {
	if t != nil {
		s.tracker = t
	}
}

func (s *AdminService) SetDialogTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

func (s *AdminService) conversation(m platform.Message) dialog.Conversation {
	return dialog.Conversation{Messenger: s.p, ChannelID: m.ChannelID, UserID: m.Author.ID, Timeout: s.timeout}
}

// ListPending prints the self-registered users waiting for a group.
func (s *AdminService) ListPending(ctx context.Context, m platform.Message) error {
	c := s.conversation(m)
	list, err := s.store.Pending().List(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			orDash(p.Name),
			p.Enrollment.String(),
			orDash(p.Phone),
			orDash(p.Email),
		})
	}

	if err := c.Say(ctx, msgListIntro); err != nil {
		return err
	}
	for _, block := range codeBlocks([]string{"ID", "Name", "Enrollment", "Phone", "Email"}, rows) {
		if err := c.Say(ctx, block); err != nil {
			return err
		}
	}
	return nil
}

// parseIDs разбирает "3,7,,9". Пустые элементы пропускаются; ноль и числа,
// не влезающие в int64, возвращаются в bad как есть.
func parseIDs(raw string) (ids []int64, bad []string) {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			bad = append(bad, part)
			continue
		}
		ids = append(ids, id)
	}
	return ids, bad
}

// AssignGroup moves the listed pending users into a group one by one, at most
// one per dispatcher interval, and grants the group role to each.
func (s *AdminService) AssignGroup(ctx context.Context, m platform.Message) error {
	c := s.conversation(m)
	c.Sayf(ctx, msgAssignIntro)

	s.tracker.Advance(c.UserID, session.StateAwaitingIDs)
	rawIDs, err := dialog.Collect(ctx, c, dialog.IDListPattern, labelIDList)
	if errors.Is(err, dialog.ErrNoInput) {
		c.Sayf(ctx, msgNoIDs)
		return nil
	}
	if err != nil {
		return err
	}

	s.tracker.Advance(c.UserID, session.StateAwaitingGroup)
	group, err := dialog.Collect(ctx, c, dialog.GroupPattern, labelGroup)
	if errors.Is(err, dialog.ErrNoInput) {
		c.Sayf(ctx, msgNoGroup)
		return nil
	}
	if err != nil {
		return err
	}

	ids, bad := parseIDs(rawIDs)
	for _, b := range bad {
		c.Sayf(ctx, msgAssignNotFound, b)
	}
	s.tracker.Advance(c.UserID, session.StateDispatching)
	results := throttle.Run(ctx, s.dispatcher, ids, func(ctx context.Context, id int64) error {
		return s.assignOne(ctx, c, id, group)
	})

	assigned := 0
	for _, r := range results {
		if r.Err == nil {
			assigned++
			continue
		}
		if errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded) {
			c.Sayf(ctx, msgAssignFailed, r.Item)
		}
	}
	logger.FromCtx(ctx).Info("group assignment finished",
		slog.String("group", group),
		slog.Int("requested", len(ids)+len(bad)),
		slog.Int("assigned", assigned),
	)
	c.Sayf(ctx, msgAssignSummary, group, assigned, len(ids)+len(bad))
	return nil
}

func (s *AdminService) assignOne(ctx context.Context, c dialog.Conversation, id int64, group string) error {
	var promoted *domain.Registrant
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		p, err := tx.Pending().GetByID(ctx, id)
		if err != nil {
			return err
		}
		r, err := p.Promote(group, s.now())
		if err != nil {
			return err
		}
		if _, err := tx.Registrants().Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return fmt.Errorf("enrollment %s: %w", r.Enrollment, err)
			}
			return err
		}
		if err := tx.Pending().DeleteByID(ctx, id); err != nil {
			return err
		}
		promoted = r
		return nil
	})

	log := logger.FromCtx(ctx).With(slog.Int64("pending_id", id), slog.String("group", group))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.Sayf(ctx, msgAssignNotFound, id)
		return err
	case errors.Is(err, repository.ErrAlreadyExists):
		c.Sayf(ctx, msgAssignDuplicate, id, s.pendingEnrollment(ctx, log, id))
		return err
	case err != nil:
		log.Error("assign failed", slog.Any("err", err))
		c.Sayf(ctx, msgAssignFailed, id)
		return err
	}

	if !promoted.IsLinked() {
		c.Sayf(ctx, msgAssignNoAccount, id, group)
		return domain.ErrNoDiscordLinked
	}
	if err := s.access.Grant(ctx, c.ChannelID, *promoted.Discord, group); err != nil {
		log.Error("grant failed", slog.Any("err", err))
		c.Sayf(ctx, msgAssignNoRole, id, group)
		return err
	}
	c.Sayf(ctx, msgAssigned, id, group)
	return nil
}

// pendingEnrollment — зачётка для отчёта; "?" если строку прочитать не удалось.
func (s *AdminService) pendingEnrollment(ctx context.Context, log *slog.Logger, id int64) string {
	p, err := s.store.Pending().GetByID(ctx, id)
	if err != nil {
		log.Warn("pending lookup failed", slog.Any("err", err))
		return "?"
	}
	return p.Enrollment.String()
}

// DeassignGroup reverses an assignment: roles, channel access and the record
// move back to the pending list. The three steps are independent.
func (s *AdminService) DeassignGroup(ctx context.Context, m platform.Message) error {
	c := s.conversation(m)
	c.Sayf(ctx, msgDeassignIntro)

	s.tracker.Advance(c.UserID, session.StateAwaitingEnrollment)
	raw, err := dialog.Collect(ctx, c, dialog.EnrollmentPattern, labelEnrollment)
	if errors.Is(err, dialog.ErrNoInput) {
		c.Sayf(ctx, msgNoEnrollment)
		return nil
	}
	if err != nil {
		return err
	}
	e := domain.NormalizeEnrollment(raw)

	reg, err := s.store.Registrants().GetByEnrollment(ctx, e)
	if errors.Is(err, repository.ErrNotFound) {
		c.Sayf(ctx, msgDeassignUnknown, e)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup registrant %s: %w", e, err)
	}
	if !reg.IsLinked() {
		c.Sayf(ctx, msgDeassignNoLink, e)
		return nil
	}

	s.tracker.Advance(c.UserID, session.StateDispatching)
	rep := s.access.Revoke(ctx, c.ChannelID, *reg.Discord, reg.GroupID)

	dbErr := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Registrants().DeleteByEnrollment(ctx, e); err != nil {
			return err
		}
		_, err := tx.Pending().Create(ctx, reg.Demote(s.now()))
		return err
	})
	if dbErr != nil {
		logger.FromCtx(ctx).Error("deassign db update failed",
			slog.String("enrollment", e.String()),
			slog.Any("err", dbErr),
		)
		c.Sayf(ctx, msgDeassignDBError)
	}

	if rep.OK() && dbErr == nil {
		c.Sayf(ctx, msgDeassigned, e, reg.GroupID)
	} else {
		c.Sayf(ctx, msgDeassignPartial, e, reg.GroupID)
	}
	s.audit.Notify(ctx, fmt.Sprintf(msgAuditDeassigned, reg.GroupID, s.menteeRole))
	return nil
}

// DeleteEntries removes pending registrations by id.
func (s *AdminService) DeleteEntries(ctx context.Context, m platform.Message) error {
	c := s.conversation(m)

	s.tracker.Advance(c.UserID, session.StateAwaitingIDs)
	raw, err := dialog.Collect(ctx, c, dialog.IDListPattern, labelDeleteIDs)
	if errors.Is(err, dialog.ErrNoInput) {
		c.Sayf(ctx, msgNoIDs)
		return nil
	}
	if err != nil {
		return err
	}

	ids, bad := parseIDs(raw)
	for _, b := range bad {
		c.Sayf(ctx, msgDeleteNotFound, b)
	}
	for _, id := range ids {
		p, err := s.store.Pending().GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			c.Sayf(ctx, msgDeleteNotFound, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup pending %d: %w", id, err)
		}
		if err := s.store.Pending().DeleteByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.Sayf(ctx, msgDeleteNotFound, id)
				continue
			}
			return fmt.Errorf("delete pending %d: %w", id, err)
		}
		c.Sayf(ctx, msgDeleted, p.Enrollment)
		s.audit.Notify(ctx, fmt.Sprintf(msgAuditDeleted, p.Enrollment))
	}
	return nil
}
