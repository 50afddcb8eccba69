// Package platformtest provides an in-memory platform.Platform for tests.
// Replies are scripted per user and consumed in order; an exhausted script
// behaves like a timeout.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
)

type stepKind int

const (
	stepText stepKind = iota
	stepButton
	stepTimeout
	stepHold
)

type step struct {
	kind  stepKind
	value string
	hold  chan struct{}
}

type Sent struct {
	ChannelID string
	Text      string
	Buttons   []platform.Button
}

type perm struct {
	channelID string
	userID    string
}

type Fake struct {
	mu sync.Mutex

	script   map[string][]step
	sent     []Sent
	roles    map[string]platform.Role // name -> role
	members  map[string]map[string]bool
	channels map[string]platform.Channel
	views    map[perm]bool
	viewers  map[string][]platform.User
	nextID   int

	// ошибки для сценариев отказа
	DMErr         error
	SendErr       error
	AddRoleErr    error
	RemoveRoleErr error
	SetViewErr    error
}

func New() *Fake {
	return &Fake{
		script:   map[string][]step{},
		roles:    map[string]platform.Role{},
		members:  map[string]map[string]bool{},
		channels: map[string]platform.Channel{},
		views:    map[perm]bool{},
		viewers:  map[string][]platform.User{},
	}
}

// Reply queues text replies from userID.
func (f *Fake) Reply(userID string, texts ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range texts {
		f.script[userID] = append(f.script[userID], step{kind: stepText, value: t})
	}
	return f
}

// Click queues a button click (custom id) from userID.
func (f *Fake) Click(userID, buttonID string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[userID] = append(f.script[userID], step{kind: stepButton, value: buttonID})
	return f
}

// Silence queues one timed-out wait for userID.
func (f *Fake) Silence(userID string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[userID] = append(f.script[userID], step{kind: stepTimeout})
	return f
}

// Hold queues a wait that blocks until the returned func is called (or ctx
// ends) and then times out. Used to keep a workflow in flight.
func (f *Fake) Hold(userID string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.script[userID] = append(f.script[userID], step{kind: stepHold, hold: ch})
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Pending reports how many scripted steps were not consumed.
func (f *Fake) Pending(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.script[userID])
}

func (f *Fake) AddChannel(ch platform.Channel) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = ch
	return f
}

func (f *Fake) AddRoleDef(r platform.Role) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[r.Name] = r
	return f
}

func (f *Fake) GiveRole(userID, roleID string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[userID] == nil {
		f.members[userID] = map[string]bool{}
	}
	f.members[userID][roleID] = true
	return f
}

func (f *Fake) SetViewers(channelID string, users ...platform.User) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewers[channelID] = users
	return f
}

func (f *Fake) HasRole(userID, roleName string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[roleName]
	return ok && f.members[userID][r.ID]
}

func (f *Fake) RoleExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.roles[name]
	return ok
}

// View returns the explicit view overwrite for the member; ok is false when none was set.
func (f *Fake) View(channelID, userID string) (allow, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	allow, ok = f.views[perm{channelID, userID}]
	return allow, ok
}

func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// Texts returns the texts sent to channelID in order.
func (f *Fake) Texts(channelID string) []string {
	var out []string
	for _, s := range f.Sent() {
		if s.ChannelID == channelID {
			out = append(out, s.Text)
		}
	}
	return out
}

// Saw reports whether any message to channelID contains substr.
func (f *Fake) Saw(channelID, substr string) bool {
	for _, t := range f.Texts(channelID) {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

func DMChannel(userID string) string { return "dm-" + userID }

func (f *Fake) Send(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, Sent{ChannelID: channelID, Text: text})
	return nil
}

func (f *Fake) SendButtons(_ context.Context, channelID, text string, buttons []platform.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, Sent{ChannelID: channelID, Text: text, Buttons: buttons})
	return nil
}

func (f *Fake) OpenDM(_ context.Context, userID string) (string, error) {
	if f.DMErr != nil {
		return "", f.DMErr
	}
	return DMChannel(userID), nil
}

func (f *Fake) next(ctx context.Context, userID string, want stepKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.script[userID]
	if len(q) == 0 {
		return "", platform.ErrTimeout
	}
	s := q[0]
	f.script[userID] = q[1:]
	if s.kind == stepHold {
		f.mu.Unlock()
		select {
		case <-s.hold:
		case <-ctx.Done():
		}
		f.mu.Lock()
		return "", platform.ErrTimeout
	}
	switch {
	case s.kind == stepTimeout:
		return "", platform.ErrTimeout
	case s.kind != want:
		return "", fmt.Errorf("platformtest: unexpected step %d for user %s", s.kind, userID)
	}
	return s.value, nil
}

func (f *Fake) AwaitMessage(ctx context.Context, channelID, userID string, _ time.Duration) (platform.Message, error) {
	text, err := f.next(ctx, userID, stepText)
	if err != nil {
		return platform.Message{}, err
	}
	return platform.Message{ChannelID: channelID, Content: text, Author: platform.User{ID: userID}}, nil
}

func (f *Fake) AwaitButton(ctx context.Context, _, userID string, _ time.Duration) (string, error) {
	return f.next(ctx, userID, stepButton)
}

func (f *Fake) FindRole(_ context.Context, name string) (platform.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[name]
	if !ok {
		return platform.Role{}, platform.ErrNotFound
	}
	return r, nil
}

func (f *Fake) CreateRole(_ context.Context, name string, _ int) (platform.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := platform.Role{ID: fmt.Sprintf("role-%d", f.nextID), Name: name}
	f.roles[name] = r
	return r, nil
}

func (f *Fake) AddRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddRoleErr != nil {
		return f.AddRoleErr
	}
	if f.members[userID] == nil {
		f.members[userID] = map[string]bool{}
	}
	f.members[userID][roleID] = true
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RemoveRoleErr != nil {
		return f.RemoveRoleErr
	}
	delete(f.members[userID], roleID)
	return nil
}

func (f *Fake) MemberRoles(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.members[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (f *Fake) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrNotFound
	}
	return ch, nil
}

func (f *Fake) FindChannel(_ context.Context, name string, typ platform.ChannelType) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.Name == name && ch.Type == typ {
			return ch, nil
		}
	}
	return platform.Channel{}, platform.ErrNotFound
}

func (f *Fake) ChannelsInCategory(_ context.Context, categoryID string) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Channel
	for _, ch := range f.channels {
		if ch.ParentID == categoryID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) SetMemberView(_ context.Context, channelID, userID string, allow bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetViewErr != nil {
		return f.SetViewErr
	}
	f.views[perm{channelID, userID}] = allow
	return nil
}

func (f *Fake) ChannelViewers(_ context.Context, channelID string) ([]platform.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return nil, errors.New("platformtest: unknown channel " + channelID)
	}
	return append([]platform.User(nil), f.viewers[channelID]...), nil
}

var _ platform.Platform = (*Fake)(nil)
