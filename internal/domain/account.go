package domain

import "strings"

// DiscordAccount — привязанный аккаунт Discord.
type DiscordAccount struct {
	ID          string
	Username    string
	DisplayName string
}

func (a *DiscordAccount) IsZero() bool {
	return a == nil || strings.TrimSpace(a.ID) == ""
}

// Mention renders the account the way Discord pings a user.
func (a *DiscordAccount) Mention() string {
	if a.IsZero() {
		return ""
	}
	return "<@" + a.ID + ">"
}
