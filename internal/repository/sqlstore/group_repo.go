package sqlstore

import (
	"context"
	"strings"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/queries"
)

type GroupRepo struct {
	c conn
}

func (r *GroupRepo) InsertIgnore(ctx context.Context, g domain.Group) (bool, error) {
	res, err := r.c.exec(ctx, queries.QueryInsertGroupIgnore, strings.TrimSpace(g.ID), g.MemberCount)
	if err != nil {
		return false, mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GroupRepo) Get(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	if err := r.c.queryRow(ctx, queries.QueryGetGroup, strings.TrimSpace(id)).Scan(&g.ID, &g.MemberCount); err != nil {
		return nil, mapDBError(err)
	}
	return &g, nil
}

func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.c.query(ctx, queries.QueryListGroups)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
