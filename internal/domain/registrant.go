package domain

import (
	"strings"
	"time"
)

// Registrant — участник программы с назначенной группой (таблица users).
type Registrant struct {
	ID         int64
	Enrollment Enrollment
	GroupID    string
	Name       string
	Phone      string
	Email      string
	Discord    *DiscordAccount
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *Registrant) IsLinked() bool {
	return !r.Discord.IsZero()
}

func (r *Registrant) LinkedTo(accountID string) bool {
	return r.IsLinked() && r.Discord.ID == accountID
}

// Link привязывает аккаунт. Перепривязка к другому аккаунту запрещена,
// для этого есть явный deassign.
func (r *Registrant) Link(acc DiscordAccount, email string, now time.Time) error {
	if acc.IsZero() {
		return ErrNoDiscordLinked
	}
	if r.IsLinked() {
		if r.Discord.ID == acc.ID {
			return ErrAlreadyLinked
		}
		return ErrLinkedToOther
	}
	r.Discord = &acc
	r.Email = strings.TrimSpace(email)
	r.UpdatedAt = now
	return nil
}

// PendingRegistrant — самостоятельно зарегистрировавшийся пользователь,
// ждёт назначения группы админом (таблица new_users).
type PendingRegistrant struct {
	ID         int64
	Enrollment Enrollment
	Name       string
	Phone      string
	Email      string
	Discord    *DiscordAccount
	CreatedAt  time.Time
}

func (p *PendingRegistrant) IsLinked() bool {
	return !p.Discord.IsZero()
}

// Promote builds the registrant record an admin assignment produces.
func (p *PendingRegistrant) Promote(groupID string, now time.Time) (*Registrant, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrEmptyGroup
	}
	return &Registrant{
		Enrollment: p.Enrollment,
		GroupID:    groupID,
		Name:       p.Name,
		Phone:      p.Phone,
		Email:      p.Email,
		Discord:    p.Discord,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Demote is the inverse of Promote: the registrant goes back to the queue.
func (r *Registrant) Demote(now time.Time) *PendingRegistrant {
	return &PendingRegistrant{
		Enrollment: r.Enrollment,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Discord:    r.Discord,
		CreatedAt:  now,
	}
}
