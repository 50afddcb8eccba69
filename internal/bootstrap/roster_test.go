package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/sqlstore"
)

const roster = "\uFEFFName,Enrollment,Group,Phone,Branch\n" +
	"Neo Anderson,ab123,A1,9876543210,CSE\n" +
	"Trinity, xy9 ,A1,9876500000,ECE\n" +
	"Morpheus,MP1,B2,9000000000\n" +
	"Nobody,,B2,0000000000,IT\n"

func TestParseRoster(t *testing.T) {
	rows, err := ParseRoster(strings.NewReader(roster))
	require.NoError(t, err)

	want := []Row{
		{Name: "Neo Anderson", Enrollment: "AB123", Group: "A1", Phone: "9876543210"},
		{Name: "Trinity", Enrollment: "XY9", Group: "A1", Phone: "9876500000"},
		{Name: "Morpheus", Enrollment: "MP1", Group: "B2", Phone: "9000000000"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseRoster(strings.NewReader("Name,Phone\nx,1\n"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestLoader_IdempotentImport(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(t.TempDir(), "mentorship_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(roster), 0o600))

	l := NewLoader(store)
	rep, err := l.LoadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Report{Rows: 3, GroupsInserted: 2, Inserted: 3}, rep)

	rep, err = l.LoadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Report{Rows: 3, Skipped: 3}, rep)

	r, err := store.Registrants().GetByEnrollment(ctx, "ab123")
	require.NoError(t, err)
	assert.Equal(t, domain.Enrollment("AB123"), r.Enrollment)
	assert.Equal(t, "A1", r.GroupID)
	assert.Empty(t, r.Email)
	assert.False(t, r.IsLinked())

	groups, err := store.Groups().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Group{{ID: "A1", MemberCount: 2}, {ID: "B2", MemberCount: 1}}, groups)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(nil).LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
