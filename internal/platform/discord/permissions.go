package discord

import "github.com/bwmarrin/discordgo"

// roleCanView повторяет расчёт прав канала для роли: базовые права
// @everyone и роли, затем оверрайды канала для @everyone и для роли.
func roleCanView(guildID string, role *discordgo.Role, everyone int64, ch *discordgo.Channel) bool {
	perms := everyone | role.Permissions
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	apply := func(id string) {
		for _, o := range ch.PermissionOverwrites {
			if o.Type == discordgo.PermissionOverwriteTypeRole && o.ID == id {
				perms &^= o.Deny
				perms |= o.Allow
			}
		}
	}
	apply(guildID)
	if role.ID != guildID {
		apply(role.ID)
	}
	return perms&discordgo.PermissionViewChannel != 0
}

// viewingRoles returns the ids of roles that can see ch.
func viewingRoles(guildID string, roles []*discordgo.Role, ch *discordgo.Channel) map[string]bool {
	var everyone int64
	for _, r := range roles {
		if r.ID == guildID {
			everyone = r.Permissions
		}
	}

	out := map[string]bool{}
	for _, r := range roles {
		if roleCanView(guildID, r, everyone, ch) {
			out[r.ID] = true
		}
	}
	return out
}
