// Package discord adapts a discordgo session to platform.Platform.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

// MessageHandler получает сообщения, которые не забрал ни один ждущий диалог.
type MessageHandler func(ctx context.Context, m platform.Message)

type Bot struct {
	s       *discordgo.Session
	guildID string

	messages waiters[platform.Message]
	clicks   waiters[string]

	mu      sync.RWMutex
	ctx     context.Context
	handler MessageHandler
}

func New(token, guildID string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{s: s, guildID: guildID, ctx: context.Background()}
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onInteractionCreate)
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.L().Info("discord ready", slog.String("user", r.User.Username), slog.Int("guilds", len(r.Guilds)))
	})
	return b, nil
}

func (b *Bot) Handle(h MessageHandler) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

// Run открывает gateway и держит его до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	<-ctx.Done()
	if err := b.s.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

func toUser(u *discordgo.User) platform.User {
	if u == nil {
		return platform.User{}
	}
	return platform.User{ID: u.ID, Username: u.Username, GlobalName: u.GlobalName, Bot: u.Bot}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	msg := platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		Author:    toUser(m.Author),
	}
	if b.messages.deliver(waitKey{m.ChannelID, m.Author.ID}, msg) {
		return
	}

	b.mu.RLock()
	h, ctx := b.handler, b.ctx
	b.mu.RUnlock()
	if h != nil {
		h(ctx, msg)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		logger.L().Warn("interaction ack failed", slog.Any("err", err))
	}
	b.clicks.deliver(waitKey{i.ChannelID, u.ID}, i.MessageComponentData().CustomID)
}

func (b *Bot) Send(ctx context.Context, channelID, text string) error {
	if _, err := b.s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) SendButtons(ctx context.Context, channelID, text string, buttons []platform.Button) error {
	row := discordgo.ActionsRow{}
	for _, btn := range buttons {
		style := discordgo.SuccessButton
		if btn.Style == platform.ButtonDanger {
			style = discordgo.DangerButton
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    btn.Label,
			Style:    style,
			CustomID: btn.ID,
		})
	}
	_, err := b.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    text,
		Components: []discordgo.MessageComponent{row},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send buttons: %w", err)
	}
	return nil
}

func (b *Bot) OpenDM(ctx context.Context, userID string) (string, error) {
	ch, err := b.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open dm: %w", err)
	}
	return ch.ID, nil
}

func await[T any](ctx context.Context, w *waiters[T], k waitKey, timeout time.Duration) (T, error) {
	ch, cancel := w.add(k)
	defer cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()

	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-t.C:
		return zero, platform.ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (b *Bot) AwaitMessage(ctx context.Context, channelID, userID string, timeout time.Duration) (platform.Message, error) {
	return await(ctx, &b.messages, waitKey{channelID, userID}, timeout)
}

func (b *Bot) AwaitButton(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error) {
	return await(ctx, &b.clicks, waitKey{channelID, userID}, timeout)
}

func (b *Bot) FindRole(ctx context.Context, name string) (platform.Role, error) {
	roles, err := b.s.GuildRoles(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Role{}, fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == name {
			return platform.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return platform.Role{}, platform.ErrNotFound
}

func (b *Bot) CreateRole(ctx context.Context, name string, color int) (platform.Role, error) {
	var perms int64
	r, err := b.s.GuildRoleCreate(b.guildID, &discordgo.RoleParams{
		Name:        name,
		Color:       &color,
		Permissions: &perms,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Role{}, fmt.Errorf("create role %q: %w", name, err)
	}
	return platform.Role{ID: r.ID, Name: r.Name}, nil
}

func (b *Bot) AddRole(ctx context.Context, userID, roleID string) error {
	if err := b.s.GuildMemberRoleAdd(b.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

func (b *Bot) RemoveRole(ctx context.Context, userID, roleID string) error {
	if err := b.s.GuildMemberRoleRemove(b.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

func (b *Bot) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	m, err := b.s.GuildMember(b.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", err)
	}
	return m.Roles, nil
}

func toChannel(c *discordgo.Channel) platform.Channel {
	typ := platform.ChannelOther
	switch c.Type {
	case discordgo.ChannelTypeGuildText:
		typ = platform.ChannelText
	case discordgo.ChannelTypeGuildCategory:
		typ = platform.ChannelCategory
	}
	return platform.Channel{ID: c.ID, Name: c.Name, ParentID: c.ParentID, Type: typ}
}

func (b *Bot) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	c, err := b.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, fmt.Errorf("fetch channel: %w", err)
	}
	return toChannel(c), nil
}

func (b *Bot) FindChannel(ctx context.Context, name string, typ platform.ChannelType) (platform.Channel, error) {
	chs, err := b.s.GuildChannels(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, fmt.Errorf("list channels: %w", err)
	}
	for _, c := range chs {
		pc := toChannel(c)
		if pc.Name == name && pc.Type == typ {
			return pc, nil
		}
	}
	return platform.Channel{}, platform.ErrNotFound
}

func (b *Bot) ChannelsInCategory(ctx context.Context, categoryID string) ([]platform.Channel, error) {
	chs, err := b.s.GuildChannels(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	var out []platform.Channel
	for _, c := range chs {
		if c.ParentID == categoryID {
			out = append(out, toChannel(c))
		}
	}
	return out, nil
}

func (b *Bot) SetMemberView(ctx context.Context, channelID, userID string, allow bool) error {
	var a, d int64
	if allow {
		a = discordgo.PermissionViewChannel
	} else {
		d = discordgo.PermissionViewChannel
	}
	err := b.s.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, a, d, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set channel permission: %w", err)
	}
	return nil
}

const membersPage = 1000

func (b *Bot) ChannelViewers(ctx context.Context, channelID string) ([]platform.User, error) {
	ch, err := b.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channel: %w", err)
	}
	roles, err := b.s.GuildRoles(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	visible := viewingRoles(b.guildID, roles, ch)

	var out []platform.User
	after := ""
	for {
		page, err := b.s.GuildMembers(b.guildID, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			// @everyone есть у всех, в Roles его нет
			ok := visible[b.guildID]
			for _, rid := range m.Roles {
				ok = ok || visible[rid]
			}
			if ok {
				out = append(out, toUser(m.User))
			}
		}
		if len(page) < membersPage {
			break
		}
		after = page[len(page)-1].User.ID
	}
	return out, nil
}

var _ platform.Platform = (*Bot)(nil)
