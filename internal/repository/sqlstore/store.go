// Package sqlstore implements the repository contracts on database/sql. The
// same code serves the embedded sqlite file and a postgres pool; only the
// placeholder style and the migration set differ.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/pg"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	onClose []func()

	repos
}

// OpenSQLite открывает файл базы (создаёт при отсутствии) и накатывает миграции.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// один писатель — меньше SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := newStore(db, DialectSQLite)
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func OpenPostgres(ctx context.Context, cfg pg.Config) (*Store, error) {
	db, pool, err := pg.OpenDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := newStore(db, DialectPostgres)
	s.onClose = append(s.onClose, pool.Close)
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB, d Dialect) *Store {
	s := &Store{db: db, dialect: d}
	s.repos = newRepos(db, d)
	return s
}

func (s *Store) init(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s db: %w", s.dialect, err)
	}
	if err := applyMigrations(ctx, s.db, s.dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	for _, fn := range s.onClose {
		fn()
	}
	return err
}

// WithinTx — атомарный перенос записей между таблицами. Любая ошибка fn
// откатывает транзакцию целиком.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newRepos(tx, s.dialect)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
