// Package bootstrap loads the mentorship roster CSV into the store.
package bootstrap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

var ErrBadHeader = errors.New("roster header must contain Name, Enrollment, Group and Phone")

type Row struct {
	Name       string
	Enrollment domain.Enrollment
	Group      string
	Phone      string
}

type Report struct {
	Rows           int
	GroupsInserted int
	Inserted       int
	Skipped        int
}

// ParseRoster reads a CSV with a Name,Enrollment,Group,Phone header. Column
// order is free and extra columns are ignored; rows without an enrollment are dropped.
func ParseRoster(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		// BOM из Excel
		h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
		idx[strings.ToLower(h)] = i
	}
	for _, col := range []string{"name", "enrollment", "group", "phone"} {
		if _, ok := idx[col]; !ok {
			return nil, ErrBadHeader
		}
	}

	get := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		e := domain.NormalizeEnrollment(get(rec, "enrollment"))
		if e == "" {
			continue
		}
		rows = append(rows, Row{
			Name:       get(rec, "name"),
			Enrollment: e,
			Group:      get(rec, "group"),
			Phone:      get(rec, "phone"),
		})
	}
	return rows, nil
}

type Loader struct {
	store repository.Store
	now   func() time.Time
}

func NewLoader(store repository.Store) *Loader {
	return &Loader{store: store, now: time.Now}
}

func (l *Loader) LoadFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load inserts missing groups and registrants in one transaction. Enrollments
// already present are skipped, so the import can be repeated.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Report, error) {
	rows, err := ParseRoster(r)
	if err != nil {
		return Report{}, err
	}

	counts := map[string]int{}
	for _, row := range rows {
		counts[row.Group]++
	}
	groups := make([]string, 0, len(counts))
	for g := range counts {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	rep := Report{Rows: len(rows)}
	now := l.now()
	err = l.store.WithinTx(ctx, func(tx repository.Repositories) error {
		for _, g := range groups {
			ok, err := tx.Groups().InsertIgnore(ctx, domain.Group{ID: g, MemberCount: counts[g]})
			if err != nil {
				return fmt.Errorf("insert group %s: %w", g, err)
			}
			if ok {
				rep.GroupsInserted++
			}
		}

		for _, row := range rows {
			exists, err := tx.Registrants().ExistsByEnrollment(ctx, row.Enrollment)
			if err != nil {
				return err
			}
			if exists {
				rep.Skipped++
				continue
			}
			_, err = tx.Registrants().Create(ctx, &domain.Registrant{
				Enrollment: row.Enrollment,
				GroupID:    row.Group,
				Name:       row.Name,
				Phone:      row.Phone,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			if err != nil {
				return fmt.Errorf("insert %s: %w", row.Enrollment, err)
			}
			rep.Inserted++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	logger.FromCtx(ctx).Info("roster loaded",
		slog.Int("rows", rep.Rows),
		slog.Int("groups_inserted", rep.GroupsInserted),
		slog.Int("inserted", rep.Inserted),
		slog.Int("skipped", rep.Skipped),
	)
	return rep, nil
}
