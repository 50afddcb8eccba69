package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/queries"
)

type PendingRepo struct {
	c conn
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row rowScanner) (*domain.PendingRegistrant, error) {
	var (
		p                            domain.PendingRegistrant
		enrollment                   string
		discordID, username, display sql.NullString
		createdAt                    int64
	)
	if err := row.Scan(
		&p.ID,
		&enrollment,
		&p.Name,
		&p.Phone,
		&p.Email,
		&discordID,
		&username,
		&display,
		&createdAt,
	); err != nil {
		return nil, err
	}
	p.Enrollment = domain.Enrollment(enrollment)
	p.Discord = accountFromNull(discordID, username, display)
	p.CreatedAt = fromUnix(createdAt)
	return &p, nil
}

func (r *PendingRepo) GetByID(ctx context.Context, id int64) (*domain.PendingRegistrant, error) {
	p, err := scanPending(r.c.queryRow(ctx, queries.QueryGetPendingByID, id))
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *PendingRepo) GetByEnrollment(ctx context.Context, e domain.Enrollment) (*domain.PendingRegistrant, error) {
	p, err := scanPending(r.c.queryRow(ctx, queries.QueryGetPendingByEnrollment, domain.NormalizeEnrollment(string(e))))
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *PendingRepo) Create(ctx context.Context, p *domain.PendingRegistrant) (int64, error) {
	discordID, username, display := accountArgs(p.Discord)
	var id int64
	err := r.c.queryRow(ctx, queries.QueryCreatePending,
		domain.NormalizeEnrollment(string(p.Enrollment)),
		strings.TrimSpace(p.Name),
		strings.TrimSpace(p.Phone),
		strings.TrimSpace(p.Email),
		discordID,
		username,
		display,
		unix(p.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}
	return id, nil
}

func (r *PendingRepo) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.c.exec(ctx, queries.QueryDeletePendingByID, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PendingRepo) List(ctx context.Context) ([]domain.PendingRegistrant, error) {
	rows, err := r.c.query(ctx, queries.QueryListPending)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.PendingRegistrant
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PendingRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.c.queryRow(ctx, queries.QueryCountPending).Scan(&n); err != nil {
		return 0, mapDBError(err)
	}
	return n, nil
}
