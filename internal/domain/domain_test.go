package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnrollment(t *testing.T) {
	e, err := ParseEnrollment("  ab123 ")
	require.NoError(t, err)
	assert.Equal(t, Enrollment("AB123"), e)
	assert.Equal(t, NormalizeEnrollment("AB123"), e)

	for _, bad := range []string{"", "ab-12", "a b", "ключ"} {
		_, err := ParseEnrollment(bad)
		assert.ErrorIs(t, err, ErrInvalidEnrollment, bad)
	}
}

func TestRegistrantLink(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &Registrant{Enrollment: "AB123", GroupID: "A1"}
	assert.False(t, r.IsLinked())

	require.NoError(t, r.Link(DiscordAccount{ID: "1", Username: "neo"}, " neo@dcc.in ", now))
	assert.True(t, r.LinkedTo("1"))
	assert.False(t, r.LinkedTo("2"))
	assert.Equal(t, "neo@dcc.in", r.Email)
	assert.Equal(t, now, r.UpdatedAt)

	assert.ErrorIs(t, r.Link(DiscordAccount{ID: "1"}, "x@y.io", now), ErrAlreadyLinked)
	assert.ErrorIs(t, r.Link(DiscordAccount{ID: "2"}, "x@y.io", now), ErrLinkedToOther)
	assert.Equal(t, "1", r.Discord.ID)

	assert.ErrorIs(t, (&Registrant{}).Link(DiscordAccount{}, "", now), ErrNoDiscordLinked)
}

func TestPromoteDemote(t *testing.T) {
	now := time.Now()
	p := &PendingRegistrant{
		ID:         3,
		Enrollment: "XY9",
		Name:       "Trinity",
		Phone:      "9876543210",
		Email:      "t@dcc.in",
		Discord:    &DiscordAccount{ID: "7"},
	}

	_, err := p.Promote("  ", now)
	assert.ErrorIs(t, err, ErrEmptyGroup)

	r, err := p.Promote("A1", now)
	require.NoError(t, err)
	assert.Equal(t, "A1", r.GroupID)
	assert.Equal(t, p.Enrollment, r.Enrollment)
	assert.True(t, r.LinkedTo("7"))

	back := r.Demote(now)
	assert.Equal(t, p.Enrollment, back.Enrollment)
	assert.Equal(t, p.Email, back.Email)
	assert.True(t, back.IsLinked())
}

func TestDiscordAccountMention(t *testing.T) {
	var nilAcc *DiscordAccount
	assert.True(t, nilAcc.IsZero())
	assert.Equal(t, "", nilAcc.Mention())
	assert.Equal(t, "<@42>", (&DiscordAccount{ID: "42"}).Mention())
}
