package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform"
)

type MemberDirectory struct {
	p platform.Platform
}

func NewMemberDirectory(p platform.Platform) *MemberDirectory {
	return &MemberDirectory{p: p}
}

// MemberList posts the non-bot members who can see ch through their roles.
func (d *MemberDirectory) MemberList(ctx context.Context, ch platform.Channel) error {
	users, err := d.p.ChannelViewers(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("channel viewers: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		if u.Bot {
			continue
		}
		rows = append(rows, []string{u.Username, orDash(u.GlobalName)})
	}

	if err := d.p.Send(ctx, ch.ID, fmt.Sprintf(msgMemberListIntro, ch.Name)); err != nil {
		return err
	}
	for _, block := range codeBlocks([]string{"username", "Name"}, rows) {
		if err := d.p.Send(ctx, ch.ID, block); err != nil {
			return err
		}
	}
	return nil
}
