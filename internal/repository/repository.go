// Package repository declares the storage contracts of the bot. Every call is
// atomic on its own; multi-step moves between tables go through WithinTx.
package repository

import (
	"context"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
)

type RegistrantRepository interface {
	GetByEnrollment(ctx context.Context, e domain.Enrollment) (*domain.Registrant, error)
	ExistsByEnrollment(ctx context.Context, e domain.Enrollment) (bool, error)
	Create(ctx context.Context, r *domain.Registrant) (int64, error)
	// LinkAccount записывает email и аккаунт, только если зачётка ещё ни к кому не привязана.
	// ErrNotFound — нет такой зачётки, ErrConflict — уже привязана.
	LinkAccount(ctx context.Context, e domain.Enrollment, acc domain.DiscordAccount, email string, now time.Time) error
	DeleteByEnrollment(ctx context.Context, e domain.Enrollment) error
	Count(ctx context.Context) (int, error)
}

type PendingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.PendingRegistrant, error)
	GetByEnrollment(ctx context.Context, e domain.Enrollment) (*domain.PendingRegistrant, error)
	Create(ctx context.Context, p *domain.PendingRegistrant) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.PendingRegistrant, error)
	Count(ctx context.Context) (int, error)
}

type GroupRepository interface {
	// InsertIgnore returns false when the group already exists.
	InsertIgnore(ctx context.Context, g domain.Group) (bool, error)
	Get(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}

type Repositories interface {
	Registrants() RegistrantRepository
	Pending() PendingRepository
	Groups() GroupRepository
}

type Store interface {
	Repositories
	// WithinTx runs fn in one transaction; fn must use only the repositories it receives.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
