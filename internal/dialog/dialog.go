// Package dialog runs the prompt/validate/confirm exchanges of the bot with a
// single user in a single channel.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

var (
	// ErrNoInput — два таймаута подряд, пользователь не ответил.
	ErrNoInput = errors.New("no input provided")
	// ErrUnconfirmed — на кнопки не нажали или клик не обработался.
	ErrUnconfirmed = errors.New("confirmation not received")
)

const DefaultTimeout = 60 * time.Second

const (
	msgTimeUpRetry = "⏰ Time's up! Please try again and respond within 1 minute."
	msgTimeUpFinal = "⏰ Time's up! Due to No response! Please start the process again."
	msgClickFailed = "Failed to process your button click. 🚫 Please try again or contact support if the issue persists. 🆘"

	ButtonYes = "yes"
	ButtonNo  = "no"
)

var (
	EnrollmentPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	EmailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)
	NamePattern       = regexp.MustCompile(`^[a-zA-Z ]+$`)
	PhonePattern      = regexp.MustCompile(`^\d{10}$`)
	IDListPattern     = regexp.MustCompile(`^[0-9,]+$`)
	GroupPattern      = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Conversation — канал и собеседник, с которыми идёт диалог.
type Conversation struct {
	Messenger platform.Messenger
	ChannelID string
	UserID    string
	Timeout   time.Duration
}

func (c Conversation) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Conversation) Say(ctx context.Context, text string) error {
	return c.Messenger.Send(ctx, c.ChannelID, text)
}

// Sayf is Say with fmt formatting; send errors are logged and dropped.
func (c Conversation) Sayf(ctx context.Context, format string, args ...any) {
	if err := c.Say(ctx, fmt.Sprintf(format, args...)); err != nil {
		logger.FromCtx(ctx).Warn("send failed",
			slog.String("channel", c.ChannelID),
			slog.Any("err", err),
		)
	}
}

// Collect prompts for label until the reply matches validator. Invalid replies
// are retried without limit; the second timeout in a row returns ErrNoInput.
func Collect(ctx context.Context, c Conversation, validator *regexp.Regexp, label string) (string, error) {
	timedOut := false
	for {
		if err := c.Say(ctx, fmt.Sprintf("Please enter your %s:", label)); err != nil {
			return "", fmt.Errorf("prompt %s: %w", label, err)
		}

		m, err := c.Messenger.AwaitMessage(ctx, c.ChannelID, c.UserID, c.timeout())
		switch {
		case errors.Is(err, platform.ErrTimeout):
			if timedOut {
				c.Sayf(ctx, msgTimeUpFinal)
				return "", ErrNoInput
			}
			timedOut = true
			c.Sayf(ctx, msgTimeUpRetry)
			continue
		case err != nil:
			return "", fmt.Errorf("await %s: %w", label, err)
		}

		timedOut = false
		input := strings.TrimSpace(m.Content)
		if validator.MatchString(input) {
			return input, nil
		}
		c.Sayf(ctx, "🚫 Invalid input. Please ensure you enter a valid %s.", label)
	}
}

// Confirm asks a yes/no question with buttons. Only a click by c.UserID
// counts; a timeout yields ErrUnconfirmed.
func Confirm(ctx context.Context, c Conversation, question string) (bool, error) {
	buttons := []platform.Button{
		{ID: ButtonYes, Label: "Yes ✔️", Style: platform.ButtonSuccess},
		{ID: ButtonNo, Label: "No ✖️", Style: platform.ButtonDanger},
	}
	if err := c.Messenger.SendButtons(ctx, c.ChannelID, question, buttons); err != nil {
		return false, fmt.Errorf("send confirmation: %w", err)
	}

	id, err := c.Messenger.AwaitButton(ctx, c.ChannelID, c.UserID, c.timeout())
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.FromCtx(ctx).Info("confirmation failed", slog.String("user", c.UserID), slog.Any("err", err))
		c.Sayf(ctx, msgClickFailed)
		return false, ErrUnconfirmed
	}
	return id == ButtonYes, nil
}
