package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform/platformtest"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository/sqlstore"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/throttle"
)

const (
	welcomeCh = "welcome"
	adminCh   = "admin"
	logCh     = "logs"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Notify(_ context.Context, text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *recorder) Publish(_, text string) { r.Notify(context.Background(), text) }

func (r *recorder) saw(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.texts {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

type testEnv struct {
	store  *sqlstore.Store
	fake   *platformtest.Fake
	audit  *recorder
	access *AccessManager
	reg    *RegistrationService
	admin  *AdminService
	now    time.Time
}

var testAccess = AccessConfig{
	GroupRoleTemplate: "LWD - GR %s",
	CategoryTemplate:  "Group %s",
	MenteeRole:        "Mentee",
	RoleColor:         0xFF5733,
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fake := platformtest.New()
	fake.AddChannel(platform.Channel{ID: welcomeCh, Name: "welcome-to-lwd"})
	fake.AddChannel(platform.Channel{ID: adminCh, Name: "admin-mentorship"})

	rec := &recorder{}
	access := NewAccessManager(fake, rec, testAccess)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	reg := NewRegistrationService(store, fake, access, rec)
	reg.now = func() time.Time { return now }
	admin := NewAdminService(store, fake, access, rec, throttle.NewDispatcher(0))
	admin.now = func() time.Time { return now }

	return &testEnv{store: store, fake: fake, audit: rec, access: access, reg: reg, admin: admin, now: now}
}

func (e *testEnv) seedRegistrant(t *testing.T, enrollment, group string, acc *domain.DiscordAccount) {
	t.Helper()
	_, err := e.store.Registrants().Create(context.Background(), &domain.Registrant{
		Enrollment: domain.Enrollment(enrollment),
		GroupID:    group,
		Name:       "Roster " + enrollment,
		Phone:      "9999999999",
		Discord:    acc,
		CreatedAt:  e.now,
		UpdatedAt:  e.now,
	})
	require.NoError(t, err)
}

func (e *testEnv) seedPending(t *testing.T, enrollment string, acc *domain.DiscordAccount) int64 {
	t.Helper()
	id, err := e.store.Pending().Create(context.Background(), &domain.PendingRegistrant{
		Enrollment: domain.Enrollment(enrollment),
		Name:       "Pending " + enrollment,
		Phone:      "8888888888",
		Email:      strings.ToLower(enrollment) + "@dcc.in",
		Discord:    acc,
		CreatedAt:  e.now,
	})
	require.NoError(t, err)
	return id
}

func message(channelID, userID string) platform.Message {
	return platform.Message{
		ChannelID: channelID,
		GuildID:   "guild",
		Author:    platform.User{ID: userID, Username: "user-" + userID, GlobalName: "User " + userID},
	}
}
