package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	pgconn "github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/queries"
)

/*
абстрактный слой над *sql.DB / *sql.Tx
чтобы запросы можно было делать атомарно а не по одному
*/
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn подставляет плейсхолдеры нужного диалекта.
type conn struct {
	q       querier
	dialect Dialect
}

func (c conn) sql(query string) string {
	if c.dialect == DialectPostgres {
		return queries.Rebind(query)
	}
	return query
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.sql(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.sql(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.sql(query), args...)
}

type repos struct {
	registrants *RegistrantRepo
	pending     *PendingRepo
	groups      *GroupRepo
}

func newRepos(q querier, d Dialect) repos {
	c := conn{q: q, dialect: d}
	return repos{
		registrants: &RegistrantRepo{c: c},
		pending:     &PendingRepo{c: c},
		groups:      &GroupRepo{c: c},
	}
}

func (r repos) Registrants() repository.RegistrantRepository { return r.registrants }
func (r repos) Pending() repository.PendingRepository         { return r.pending }
func (r repos) Groups() repository.GroupRepository            { return r.groups }

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 - unique violation
		if pgErr.Code == "23505" {
			return repository.ErrAlreadyExists
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return repository.ErrAlreadyExists
		}
		// без extended кодов остаётся только текст
		if code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE") {
			return repository.ErrAlreadyExists
		}
	}

	return err
}

// account columns are NULL until a Discord user is linked.
func accountArgs(a *domain.DiscordAccount) (id, username, display any) {
	if a.IsZero() {
		return nil, nil, nil
	}
	return a.ID, a.Username, a.DisplayName
}

func accountFromNull(id, username, display sql.NullString) *domain.DiscordAccount {
	if !id.Valid || strings.TrimSpace(id.String) == "" {
		return nil
	}
	return &domain.DiscordAccount{
		ID:          id.String,
		Username:    username.String,
		DisplayName: display.String,
	}
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}
