package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/dialog"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

// Tracker — куда сценарий сообщает о текущем шаге (session.Guard).
type Tracker interface {
	Advance(userID string, st session.State)
}

type nopTracker struct{}

func (nopTracker) Advance(string, session.State) {}

// JoinOutcome — чем закончился !join_lwd.
type JoinOutcome string

const (
	JoinAborted        JoinOutcome = "aborted"
	JoinAlreadyPending JoinOutcome = "already_pending"
	JoinAlreadyLinked  JoinOutcome = "already_linked"
	JoinLinkedToOther  JoinOutcome = "linked_to_other"
	JoinLinked         JoinOutcome = "linked"
	JoinRegistered     JoinOutcome = "registered"
	JoinDeclined       JoinOutcome = "declined"
)

type RegistrationService struct {
	store   repository.Store
	p       platform.Platform
	access  *AccessManager
	audit   Notifier
	tracker Tracker

	timeout time.Duration
	now     func() time.Time
}

func NewRegistrationService(store repository.Store, p platform.Platform, access *AccessManager, audit Notifier) *RegistrationService {
	return &RegistrationService{
		store:   store,
		p:       p,
		access:  access,
		audit:   audit,
		tracker: nopTracker{},
		timeout: dialog.DefaultTimeout,
		now:     time.Now,
	}
}

func (s *RegistrationService) SetTracker(t Tracker) {
	if t != nil {
		s.tracker = t
	}
}

func (s *RegistrationService) SetDialogTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Join runs the verification dialogue for the author of m in a DM.
// Timeouts and declines end with a nil error and the matching outcome.
func (s *RegistrationService) Join(ctx context.Context, m platform.Message) (JoinOutcome, error) {
	author := m.Author
	log := logger.FromCtx(ctx).With(logger.User(author.ID, author.Username))

	if err := s.p.Send(ctx, m.ChannelID, msgCheckDMs); err != nil {
		log.Warn("check dms notice failed", slog.Any("err", err))
	}

	dm, err := s.openDM(ctx, author.ID)
	if err != nil {
		log.Warn("dm unavailable", slog.Any("err", err))
		if err := s.p.Send(ctx, m.ChannelID, fmt.Sprintf(msgDMFailed, author.Mention())); err != nil {
			log.Warn("dm failure notice failed", slog.Any("err", err))
		}
		return JoinAborted, nil
	}

	c := dialog.Conversation{Messenger: s.p, ChannelID: dm, UserID: author.ID, Timeout: s.timeout}

	e, err := s.askEnrollment(ctx, c)
	if err != nil {
		return s.abort(ctx, c, err)
	}

	pending, err := s.store.Pending().GetByEnrollment(ctx, e)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return JoinAborted, fmt.Errorf("lookup pending %s: %w", e, err)
	}
	reg, err := s.store.Registrants().GetByEnrollment(ctx, e)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return JoinAborted, fmt.Errorf("lookup registrant %s: %w", e, err)
	}

	switch {
	case pending != nil:
		c.Sayf(ctx, msgAlreadyPending)
		return JoinAlreadyPending, nil
	case reg != nil && !reg.IsLinked():
		return s.linkExisting(ctx, c, reg, author)
	case reg != nil && reg.LinkedTo(author.ID):
		c.Sayf(ctx, msgAlreadyAssigned)
		return JoinAlreadyLinked, nil
	case reg != nil:
		log.Info("enrollment linked to another account", slog.String("enrollment", e.String()))
		c.Sayf(ctx, msgLinkedToOther)
		return JoinLinkedToOther, nil
	default:
		return s.registerNew(ctx, c, e, author)
	}
}

func (s *RegistrationService) openDM(ctx context.Context, userID string) (string, error) {
	dm, err := s.p.OpenDM(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := s.p.Send(ctx, dm, msgGreeting); err != nil {
		return "", err
	}
	return dm, nil
}

// abort превращает ErrNoInput/ErrUnconfirmed в штатное завершение.
func (s *RegistrationService) abort(ctx context.Context, c dialog.Conversation, err error) (JoinOutcome, error) {
	switch {
	case errors.Is(err, dialog.ErrNoInput):
		c.Sayf(ctx, msgNoInput)
		return JoinAborted, nil
	case errors.Is(err, dialog.ErrUnconfirmed):
		return JoinAborted, nil
	}
	return JoinAborted, err
}

func (s *RegistrationService) askEnrollment(ctx context.Context, c dialog.Conversation) (domain.Enrollment, error) {
	for {
		s.tracker.Advance(c.UserID, session.StateAwaitingEnrollment)
		raw, err := dialog.Collect(ctx, c, dialog.EnrollmentPattern, labelEnrollment)
		if err != nil {
			return "", err
		}
		e, err := domain.ParseEnrollment(raw)
		if err != nil {
			return "", err
		}

		s.tracker.Advance(c.UserID, session.StateAwaitingConfirmation)
		ok, err := dialog.Confirm(ctx, c, fmt.Sprintf(msgConfirmEnroll, e))
		if err != nil {
			return "", err
		}
		if ok {
			return e, nil
		}
		c.Sayf(ctx, msgStartingOver)
	}
}

func (s *RegistrationService) linkExisting(ctx context.Context, c dialog.Conversation, reg *domain.Registrant, author platform.User) (JoinOutcome, error) {
	s.tracker.Advance(c.UserID, session.StateAwaitingEmail)
	email, err := dialog.Collect(ctx, c, dialog.EmailPattern, labelEmail)
	if err != nil {
		return s.abort(ctx, c, err)
	}

	if err := reg.Link(author.Account(), email, s.now()); err != nil {
		return JoinAborted, fmt.Errorf("link %s: %w", reg.Enrollment, err)
	}

	s.tracker.Advance(c.UserID, session.StatePersisting)
	err = s.store.Registrants().LinkAccount(ctx, reg.Enrollment, *reg.Discord, reg.Email, reg.UpdatedAt)
	switch {
	case errors.Is(err, repository.ErrConflict):
		// кто-то успел привязать зачётку между чтением и записью
		c.Sayf(ctx, msgLinkedToOther)
		return JoinLinkedToOther, nil
	case errors.Is(err, repository.ErrNotFound):
		c.Sayf(ctx, msgNotInRecords)
		return JoinAborted, nil
	case err != nil:
		return JoinAborted, fmt.Errorf("persist link %s: %w", reg.Enrollment, err)
	}

	logger.FromCtx(ctx).Info("account linked",
		logger.User(author.ID, author.Username),
		slog.String("enrollment", reg.Enrollment.String()),
		slog.String("group", reg.GroupID),
	)
	if err := s.access.Grant(ctx, c.ChannelID, *reg.Discord, reg.GroupID); err != nil {
		return JoinLinked, fmt.Errorf("grant group %s: %w", reg.GroupID, err)
	}
	return JoinLinked, nil
}

func (s *RegistrationService) registerNew(ctx context.Context, c dialog.Conversation, e domain.Enrollment, author platform.User) (JoinOutcome, error) {
	c.Sayf(ctx, msgNotInRecords)

	s.tracker.Advance(c.UserID, session.StateAwaitingRegisterConsent)
	yes, err := dialog.Confirm(ctx, c, msgAskRegister)
	if err != nil {
		return s.abort(ctx, c, err)
	}
	if !yes {
		c.Sayf(ctx, msgBye)
		return JoinDeclined, nil
	}
	c.Sayf(ctx, msgLetsRegister)

	s.tracker.Advance(c.UserID, session.StateAwaitingName)
	name, err := dialog.Collect(ctx, c, dialog.NamePattern, labelName)
	if err != nil {
		return s.abort(ctx, c, err)
	}
	s.tracker.Advance(c.UserID, session.StateAwaitingPhone)
	phone, err := dialog.Collect(ctx, c, dialog.PhonePattern, labelPhone)
	if err != nil {
		return s.abort(ctx, c, err)
	}
	s.tracker.Advance(c.UserID, session.StateAwaitingEmail)
	email, err := dialog.Collect(ctx, c, dialog.EmailPattern, labelEmailNew)
	if err != nil {
		return s.abort(ctx, c, err)
	}

	s.tracker.Advance(c.UserID, session.StatePersisting)
	acc := author.Account()
	_, err = s.store.Pending().Create(ctx, &domain.PendingRegistrant{
		Enrollment: e,
		Name:       name,
		Phone:      phone,
		Email:      email,
		Discord:    &acc,
		CreatedAt:  s.now(),
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		c.Sayf(ctx, msgAlreadyPending)
		return JoinAlreadyPending, nil
	}
	if err != nil {
		return JoinAborted, fmt.Errorf("save pending %s: %w", e, err)
	}

	c.Sayf(ctx, msgThanks)
	s.audit.Notify(ctx, fmt.Sprintf(msgAuditNewUser, name, e, email))
	return JoinRegistered, nil
}
