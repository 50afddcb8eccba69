package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/queries"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationTable = "schema_migrations"

// applyMigrations executes embedded migrations for the dialect at most once per file.
func applyMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	root := path.Join("migrations", string(d))
	entries, err := fs.ReadDir(migrationsFS, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
);
`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	c := conn{q: db, dialect: d}
	for _, name := range files {
		var one int
		err := c.queryRow(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&one)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", name, err)
		}

		content, err := fs.ReadFile(migrationsFS, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(ctx, db, d, name, string(content)); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, db *sql.DB, d Dialect, name, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(content) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	record := "INSERT INTO " + migrationTable + " (name, applied_at) VALUES (?, ?)"
	if d == DialectPostgres {
		record = queries.Rebind(record)
	}
	if _, err := tx.ExecContext(ctx, record, name, time.Now().Unix()); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}

func splitStatements(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
