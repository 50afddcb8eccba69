package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
)

const adminUser = "adm"

func TestAssignGroup_MigratesFoundAndReportsMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// нужна строка с id=3
	id1 := e.seedPending(t, "X1", nil)
	id2 := e.seedPending(t, "X2", nil)
	id3 := e.seedPending(t, "X3", &domain.DiscordAccount{ID: "u9", Username: "trin"})
	require.EqualValues(t, 3, id3)
	require.NoError(t, e.store.Pending().DeleteByID(ctx, id1))
	require.NoError(t, e.store.Pending().DeleteByID(ctx, id2))

	e.fake.Reply(adminUser, "3,7", "A1")
	require.NoError(t, e.admin.AssignGroup(ctx, message(adminCh, adminUser)))

	r, err := e.store.Registrants().GetByEnrollment(ctx, "X3")
	require.NoError(t, err)
	assert.Equal(t, "A1", r.GroupID)
	assert.True(t, r.LinkedTo("u9"))

	_, err = e.store.Pending().GetByID(ctx, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.True(t, e.fake.HasRole("u9", "LWD - GR A1"))

	texts := e.fake.Texts(adminCh)
	assigned := indexOf(texts, "User with ID `3` has been assigned to group `A1`")
	missing := indexOf(texts, "User with ID `7` not found in the database.")
	require.NotEqual(t, -1, assigned)
	require.NotEqual(t, -1, missing)
	assert.Less(t, assigned, missing)
	assert.True(t, e.fake.Saw(adminCh, "1 of 2 users assigned"))
}

func TestAssignGroup_UnlinkedPendingIsMovedWithoutRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedPending(t, "NOACC", nil)

	e.fake.Reply(adminUser, "1", "B2")
	require.NoError(t, e.admin.AssignGroup(ctx, message(adminCh, adminUser)))
	require.EqualValues(t, 1, id)

	r, err := e.store.Registrants().GetByEnrollment(ctx, "NOACC")
	require.NoError(t, err)
	assert.Equal(t, "B2", r.GroupID)
	assert.False(t, r.IsLinked())
	assert.False(t, e.fake.RoleExists("LWD - GR B2"))
	assert.True(t, e.fake.Saw(adminCh, "has no Discord account linked"))
}

func TestAssignGroup_DuplicateEnrollmentRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedRegistrant(t, "DUP1", "A1", nil)
	id := e.seedPending(t, "DUP1", &domain.DiscordAccount{ID: "u5"})

	e.fake.Reply(adminUser, "1", "C3")
	require.NoError(t, e.admin.AssignGroup(ctx, message(adminCh, adminUser)))

	_, err := e.store.Pending().GetByID(ctx, id)
	require.NoError(t, err, "pending row must survive a failed migration")
	r, err := e.store.Registrants().GetByEnrollment(ctx, "DUP1")
	require.NoError(t, err)
	assert.Equal(t, "A1", r.GroupID)
	assert.True(t, e.fake.Saw(adminCh, "enrollment `DUP1` is already in the registrants list"))
}

func TestPendingEnrollment_FallsBackOnLookupError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedPending(t, "LOOK1", nil)

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	assert.Equal(t, "LOOK1", e.admin.pendingEnrollment(ctx, log, id))
	assert.Empty(t, buf.String())

	require.NoError(t, e.store.Close())
	assert.Equal(t, "?", e.admin.pendingEnrollment(ctx, log, id))
	assert.Contains(t, buf.String(), "pending lookup failed")
}

func TestAssignGroup_NoInput(t *testing.T) {
	e := newEnv(t)
	e.fake.Silence(adminUser).Silence(adminUser)
	require.NoError(t, e.admin.AssignGroup(context.Background(), message(adminCh, adminUser)))
	assert.True(t, e.fake.Saw(adminCh, "No IDs provided. Exiting..."))

	e.fake.Reply(adminUser, "1").Silence(adminUser).Silence(adminUser)
	require.NoError(t, e.admin.AssignGroup(context.Background(), message(adminCh, adminUser)))
	assert.True(t, e.fake.Saw(adminCh, "No group provided. Exiting..."))
}

func TestDeassignGroup_UnlinkedDoesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedRegistrant(t, "AB1", "A1", nil)

	e.fake.Reply(adminUser, "ab1")
	require.NoError(t, e.admin.DeassignGroup(ctx, message(adminCh, adminUser)))

	assert.True(t, e.fake.Saw(adminCh, "User with Enrollment `AB1` does not have a Discord account linked."))
	ok, err := e.store.Registrants().ExistsByEnrollment(ctx, "AB1")
	require.NoError(t, err)
	assert.True(t, ok)
	n, err := e.store.Pending().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, e.audit.saw("has been removed from the group"))
}

func TestDeassignGroup_Unknown(t *testing.T) {
	e := newEnv(t)
	e.fake.Reply(adminUser, "ZZ1")
	require.NoError(t, e.admin.DeassignGroup(context.Background(), message(adminCh, adminUser)))
	assert.True(t, e.fake.Saw(adminCh, "User with Enrollment `ZZ1` not found in the database."))
}

func TestDeassignGroup_RevokesAndMovesBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := &domain.DiscordAccount{ID: "u1", Username: "neo"}
	e.seedRegistrant(t, "AB1", "A1", acc)

	e.fake.
		AddRoleDef(platform.Role{ID: "r-mentee", Name: "Mentee"}).
		AddRoleDef(platform.Role{ID: "r-a1", Name: "LWD - GR A1"}).
		GiveRole("u1", "r-mentee").
		GiveRole("u1", "r-a1").
		AddChannel(platform.Channel{ID: "cat", Name: "Group A1", Type: platform.ChannelCategory}).
		AddChannel(platform.Channel{ID: "c1", Name: "announcements", ParentID: "cat"}).
		AddChannel(platform.Channel{ID: "c2", Name: "general-chat", ParentID: "cat"})

	e.fake.Reply(adminUser, "AB1")
	require.NoError(t, e.admin.DeassignGroup(ctx, message(adminCh, adminUser)))

	assert.False(t, e.fake.HasRole("u1", "Mentee"))
	assert.False(t, e.fake.HasRole("u1", "LWD - GR A1"))
	for _, ch := range []string{"c1", "c2"} {
		allow, ok := e.fake.View(ch, "u1")
		assert.True(t, ok, ch)
		assert.False(t, allow, ch)
	}

	ok, err := e.store.Registrants().ExistsByEnrollment(ctx, "AB1")
	require.NoError(t, err)
	assert.False(t, ok)
	p, err := e.store.Pending().GetByEnrollment(ctx, "AB1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.Discord.ID)

	assert.True(t, e.fake.Saw(adminCh, "Mentee role has been removed from the user <@u1>"))
	assert.True(t, e.fake.Saw(adminCh, "User <@u1> has been removed from the group A1"))
	assert.True(t, e.fake.Saw(adminCh, "User with Enrollment `AB1` has been deassigned from group `A1`"))
	assert.True(t, e.audit.saw("User has been removed from the group A1 and the role Mentee has been removed"))
}

func TestDeassignGroup_MissingCategoryStillMovesRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedRegistrant(t, "AB2", "Q9", &domain.DiscordAccount{ID: "u2"})

	e.fake.Reply(adminUser, "AB2")
	require.NoError(t, e.admin.DeassignGroup(ctx, message(adminCh, adminUser)))

	assert.True(t, e.fake.Saw(adminCh, "Unable to remove user <@u2> from the group Q9"))
	assert.True(t, e.fake.Saw(adminCh, "only partially deassigned"))
	_, err := e.store.Pending().GetByEnrollment(ctx, "AB2")
	require.NoError(t, err)
}

func TestDeleteEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.seedPending(t, "DEL1", nil)
	require.EqualValues(t, 1, id)

	e.fake.Reply(adminUser, "1,5")
	require.NoError(t, e.admin.DeleteEntries(ctx, message(adminCh, adminUser)))

	assert.True(t, e.fake.Saw(adminCh, "User with Enrollment `DEL1` has been deleted from the new users list"))
	assert.True(t, e.fake.Saw(adminCh, "User with ID `5` not found in the new users list."))
	n, err := e.store.Pending().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListPending(t *testing.T) {
	e := newEnv(t)
	e.seedPending(t, "LP1", nil)
	e.seedPending(t, "LP2", nil)

	require.NoError(t, e.admin.ListPending(context.Background(), message(adminCh, adminUser)))

	texts := e.fake.Texts(adminCh)
	require.Len(t, texts, 2)
	assert.Equal(t, "the new users who are trying to join DCC are:", texts[0])
	assert.True(t, strings.HasPrefix(texts[1], "```\nID"))
	assert.Contains(t, texts[1], "LP1")
	assert.Contains(t, texts[1], "lp2@dcc.in")
}

func TestParseIDs(t *testing.T) {
	cases := []struct {
		raw string
		ids []int64
		bad []string
	}{
		{raw: "3,7", ids: []int64{3, 7}},
		{raw: ",1,,9,", ids: []int64{1, 9}},
		{raw: ","},
		{raw: "0,4,99999999999999999999", ids: []int64{4}, bad: []string{"0", "99999999999999999999"}},
	}
	for _, tc := range cases {
		ids, bad := parseIDs(tc.raw)
		assert.Equal(t, tc.ids, ids, tc.raw)
		assert.Equal(t, tc.bad, bad, tc.raw)
	}
}

func TestAssignGroup_ReportsUnusableIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedPending(t, "OK1", nil)

	e.fake.Reply(adminUser, "0,1,99999999999999999999", "A1")
	require.NoError(t, e.admin.AssignGroup(ctx, message(adminCh, adminUser)))

	assert.True(t, e.fake.Saw(adminCh, "User with ID `0` not found in the database."))
	assert.True(t, e.fake.Saw(adminCh, "User with ID `99999999999999999999` not found in the database."))
	assert.True(t, e.fake.Saw(adminCh, "1 of 3 users assigned"))

	_, err := e.store.Registrants().GetByEnrollment(ctx, "OK1")
	require.NoError(t, err)
}

func TestDeleteEntries_ReportsUnusableIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedPending(t, "KEEP1", nil)

	e.fake.Reply(adminUser, "0,99999999999999999999")
	require.NoError(t, e.admin.DeleteEntries(ctx, message(adminCh, adminUser)))

	assert.True(t, e.fake.Saw(adminCh, "User with ID `0` not found in the new users list."))
	assert.True(t, e.fake.Saw(adminCh, "User with ID `99999999999999999999` not found in the new users list."))
	n, err := e.store.Pending().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func indexOf(texts []string, substr string) int {
	for i, t := range texts {
		if strings.Contains(t, substr) {
			return i
		}
	}
	return -1
}
