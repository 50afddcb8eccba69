package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform/platformtest"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/service"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRegistrar struct {
	join func(ctx context.Context, m platform.Message) (service.JoinOutcome, error)
}

func (s stubRegistrar) Join(ctx context.Context, m platform.Message) (service.JoinOutcome, error) {
	return s.join(ctx, m)
}

type stubAdmin struct {
	calls []string
	err   error
}

func (s *stubAdmin) ListPending(context.Context, platform.Message) error {
	s.calls = append(s.calls, CmdListNew)
	return s.err
}

func (s *stubAdmin) AssignGroup(context.Context, platform.Message) error {
	s.calls = append(s.calls, CmdAssign)
	return s.err
}

func (s *stubAdmin) DeassignGroup(context.Context, platform.Message) error {
	s.calls = append(s.calls, CmdDeassign)
	return s.err
}

func (s *stubAdmin) DeleteEntries(context.Context, platform.Message) error {
	s.calls = append(s.calls, CmdDelete)
	return s.err
}

type stubMembers struct{ channels []string }

func (s *stubMembers) MemberList(_ context.Context, ch platform.Channel) error {
	s.channels = append(s.channels, ch.ID)
	return nil
}

type fixture struct {
	fake    *platformtest.Fake
	guard   *session.Guard
	admin   *stubAdmin
	members *stubMembers
	router  *Router
}

func newFixture(join func(ctx context.Context, m platform.Message) (service.JoinOutcome, error)) *fixture {
	f := platformtest.New().
		AddChannel(platform.Channel{ID: "welcome", Name: "welcome-to-lwd"}).
		AddChannel(platform.Channel{ID: "admin", Name: "admin-mentorship"}).
		AddChannel(platform.Channel{ID: "general", Name: "general"}).
		AddChannel(platform.Channel{ID: "grp", Name: "group-a1", ParentID: "lwd-cat"})
	if join == nil {
		join = func(context.Context, platform.Message) (service.JoinOutcome, error) {
			return service.JoinRegistered, nil
		}
	}
	fx := &fixture{
		fake:    f,
		guard:   session.NewGuard(),
		admin:   &stubAdmin{},
		members: &stubMembers{},
	}
	fx.router = NewRouter(f, fx.guard, stubRegistrar{join: join}, fx.admin, fx.members, Config{
		WelcomeChannel:     "welcome-to-lwd",
		AdminChannel:       "admin-mentorship",
		MemberListCategory: "lwd-cat",
	})
	return fx
}

func msg(channelID, userID, content string) platform.Message {
	return platform.Message{
		ChannelID: channelID,
		GuildID:   "guild",
		Content:   content,
		Author:    platform.User{ID: userID, Username: "user-" + userID},
	}
}

func TestRouter_ReleasesOnEveryExitPath(t *testing.T) {
	cases := map[string]func(context.Context, platform.Message) (service.JoinOutcome, error){
		"success": func(context.Context, platform.Message) (service.JoinOutcome, error) {
			return service.JoinLinked, nil
		},
		"declined": func(context.Context, platform.Message) (service.JoinOutcome, error) {
			return service.JoinDeclined, nil
		},
		"error": func(context.Context, platform.Message) (service.JoinOutcome, error) {
			return service.JoinAborted, errors.New("db down")
		},
		"panic": func(context.Context, platform.Message) (service.JoinOutcome, error) {
			panic("boom")
		},
	}

	for name, join := range cases {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(join)
			require.NotPanics(t, func() {
				fx.router.Handle(context.Background(), msg("welcome", "u1", "!join_lwd"))
			})
			assert.False(t, fx.guard.Active("u1"))
			if name == "error" || name == "panic" {
				assert.True(t, fx.fake.Saw("welcome", msgError))
			} else {
				assert.False(t, fx.fake.Saw("welcome", msgError))
			}
		})
	}
}

func TestRouter_ChannelMismatchReleases(t *testing.T) {
	called := false
	fx := newFixture(func(context.Context, platform.Message) (service.JoinOutcome, error) {
		called = true
		return service.JoinRegistered, nil
	})

	fx.router.Handle(context.Background(), msg("general", "u1", "!join_lwd"))
	fx.router.Handle(context.Background(), msg("welcome", "u1", "!assign_group"))

	assert.False(t, called)
	assert.Empty(t, fx.admin.calls)
	assert.False(t, fx.guard.Active("u1"))
	assert.Empty(t, fx.fake.Sent())
}

func TestRouter_RejectsSecondCommandWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fx := newFixture(func(ctx context.Context, _ platform.Message) (service.JoinOutcome, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return service.JoinRegistered, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.router.Handle(context.Background(), msg("welcome", "u1", "!join_lwd"))
	}()
	<-started

	fx.router.Handle(context.Background(), msg("admin", "u1", "!list_new_reg"))
	assert.True(t, fx.fake.Saw("admin", msgBusy))
	assert.Empty(t, fx.admin.calls)

	// другой пользователь не блокируется
	fx.router.Handle(context.Background(), msg("admin", "u2", "!list_new_reg"))
	assert.Equal(t, []string{CmdListNew}, fx.admin.calls)

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workflow did not finish")
	}
	assert.False(t, fx.guard.Active("u1"))

	fx.router.Handle(context.Background(), msg("admin", "u1", "  !LIST_NEW_REG "))
	assert.Equal(t, []string{CmdListNew, CmdListNew}, fx.admin.calls)
}

func TestRouter_AdminCommands(t *testing.T) {
	fx := newFixture(nil)
	for _, c := range []string{CmdListNew, CmdAssign, CmdDeassign, CmdDelete} {
		fx.router.Handle(context.Background(), msg("admin", "adm", c))
	}
	assert.Equal(t, []string{CmdListNew, CmdAssign, CmdDeassign, CmdDelete}, fx.admin.calls)

	fx.admin.err = errors.New("store closed")
	fx.router.Handle(context.Background(), msg("admin", "adm", CmdListNew))
	assert.True(t, fx.fake.Saw("admin", msgError))
	assert.False(t, fx.guard.Active("adm"))
}

func TestRouter_MemberListOnlyInCategory(t *testing.T) {
	fx := newFixture(nil)
	fx.router.Handle(context.Background(), msg("general", "u1", CmdMemberList))
	fx.router.Handle(context.Background(), msg("grp", "u1", CmdMemberList))
	assert.Equal(t, []string{"grp"}, fx.members.channels)
}

func TestRouter_PingHelpAndIgnored(t *testing.T) {
	fx := newFixture(nil)

	fx.router.Handle(context.Background(), msg("general", "u1", "ping"))
	fx.router.Handle(context.Background(), msg("general", "u1", "!help"))
	fx.router.Handle(context.Background(), msg("general", "u1", "!HELP"))
	fx.router.Handle(context.Background(), msg("general", "u1", "  !Help  "))
	fx.router.Handle(context.Background(), msg("general", "u1", "PING"))
	assert.Equal(t, []string{msgPong, msgHelp, msgHelp, msgHelp}, fx.fake.Texts("general"))
	assert.Zero(t, fx.guard.Len())

	dm := msg("dm-u1", "u1", "!join_lwd")
	dm.GuildID = ""
	fx.router.Handle(context.Background(), dm)

	bot := msg("welcome", "b1", "!join_lwd")
	bot.Author.Bot = true
	fx.router.Handle(context.Background(), bot)

	fx.router.Handle(context.Background(), msg("welcome", "u1", "hello there"))
	assert.Empty(t, fx.fake.Texts("welcome"))
	assert.Empty(t, fx.fake.Texts("dm-u1"))
}
