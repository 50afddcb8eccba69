package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/queries"
)

type RegistrantRepo struct {
	c conn
}

func (r *RegistrantRepo) GetByEnrollment(ctx context.Context, e domain.Enrollment) (*domain.Registrant, error) {
	var (
		reg                          domain.Registrant
		enrollment                   string
		discordID, username, display sql.NullString
		createdAt, updatedAt         int64
	)
	err := r.c.queryRow(ctx, queries.QueryGetRegistrantByEnrollment, domain.NormalizeEnrollment(string(e))).Scan(
		&reg.ID,
		&enrollment,
		&reg.GroupID,
		&reg.Name,
		&reg.Phone,
		&reg.Email,
		&discordID,
		&username,
		&display,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	reg.Enrollment = domain.Enrollment(enrollment)
	reg.Discord = accountFromNull(discordID, username, display)
	reg.CreatedAt = fromUnix(createdAt)
	reg.UpdatedAt = fromUnix(updatedAt)
	return &reg, nil
}

func (r *RegistrantRepo) ExistsByEnrollment(ctx context.Context, e domain.Enrollment) (bool, error) {
	var one int
	err := r.c.queryRow(ctx, queries.QueryExistsRegistrantByEnrollment, domain.NormalizeEnrollment(string(e))).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, mapDBError(err)
	}
	return true, nil
}

func (r *RegistrantRepo) Create(ctx context.Context, reg *domain.Registrant) (int64, error) {
	discordID, username, display := accountArgs(reg.Discord)
	var id int64
	err := r.c.queryRow(ctx, queries.QueryCreateRegistrant,
		domain.NormalizeEnrollment(string(reg.Enrollment)),
		strings.TrimSpace(reg.GroupID),
		strings.TrimSpace(reg.Name),
		strings.TrimSpace(reg.Phone),
		strings.TrimSpace(reg.Email),
		discordID,
		username,
		display,
		unix(reg.CreatedAt),
		unix(reg.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}
	return id, nil
}

func (r *RegistrantRepo) LinkAccount(ctx context.Context, e domain.Enrollment, acc domain.DiscordAccount, email string, now time.Time) error {
	if acc.IsZero() {
		return domain.ErrNoDiscordLinked
	}
	e = domain.NormalizeEnrollment(string(e))
	res, err := r.c.exec(ctx, queries.QueryLinkRegistrantAccount,
		strings.TrimSpace(email),
		acc.ID,
		acc.Username,
		acc.DisplayName,
		unix(now),
		e,
	)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// ничего не обновили: либо записи нет, либо она уже привязана
	exists, err := r.ExistsByEnrollment(ctx, e)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *RegistrantRepo) DeleteByEnrollment(ctx context.Context, e domain.Enrollment) error {
	res, err := r.c.exec(ctx, queries.QueryDeleteRegistrantByEnrollment, domain.NormalizeEnrollment(string(e)))
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RegistrantRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.c.queryRow(ctx, queries.QueryCountRegistrants).Scan(&n); err != nil {
		return 0, mapDBError(err)
	}
	return n, nil
}
