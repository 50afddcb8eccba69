// Package platform describes the chat platform as the bot sees it. The Discord
// adapter lives in platform/discord; platformtest holds an in-memory fake.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/domain"
)

var (
	// ErrTimeout — за отведённое время ответа не было.
	ErrTimeout  = errors.New("timed out waiting for reply")
	ErrNotFound = errors.New("platform object not found")
)

type User struct {
	ID         string
	Username   string
	GlobalName string
	Bot        bool
}

func (u User) Account() domain.DiscordAccount {
	return domain.DiscordAccount{ID: u.ID, Username: u.Username, DisplayName: u.GlobalName}
}

func (u User) Mention() string { return "<@" + u.ID + ">" }

type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelCategory
	ChannelOther
)

type Channel struct {
	ID       string
	Name     string
	ParentID string
	Type     ChannelType
}

type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Content   string
	Author    User
}

// IsDirect reports whether the message came from a DM rather than a guild channel.
func (m Message) IsDirect() bool { return m.GuildID == "" }

type Role struct {
	ID   string
	Name string
}

type ButtonStyle int

const (
	ButtonSuccess ButtonStyle = iota
	ButtonDanger
)

type Button struct {
	ID    string
	Label string
	Style ButtonStyle
}

// Messenger — отправка сообщений и ожидание ответа конкретного пользователя.
type Messenger interface {
	Send(ctx context.Context, channelID, text string) error
	SendButtons(ctx context.Context, channelID, text string, buttons []Button) error
	// OpenDM returns the id of the direct-message channel with the user.
	OpenDM(ctx context.Context, userID string) (string, error)
	// AwaitMessage ждёт одно сообщение от userID в channelID. ErrTimeout по истечении.
	AwaitMessage(ctx context.Context, channelID, userID string, timeout time.Duration) (Message, error)
	// AwaitButton returns the custom id of the button userID clicked in channelID.
	AwaitButton(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error)
}

// Guild — роли, каналы и права на сервере бота.
type Guild interface {
	FindRole(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name string, color int) (Role, error)
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	MemberRoles(ctx context.Context, userID string) ([]string, error)

	Channel(ctx context.Context, channelID string) (Channel, error)
	FindChannel(ctx context.Context, name string, typ ChannelType) (Channel, error)
	ChannelsInCategory(ctx context.Context, categoryID string) ([]Channel, error)
	// SetMemberView allows or denies ViewChannel for one member on one channel.
	SetMemberView(ctx context.Context, channelID, userID string, allow bool) error
	// ChannelViewers — не-боты, которым роли дают право видеть канал.
	ChannelViewers(ctx context.Context, channelID string) ([]User, error)
}

type Platform interface {
	Messenger
	Guild
}
