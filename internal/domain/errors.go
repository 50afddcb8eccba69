package domain

import "errors"

var (
	ErrInvalidEnrollment = errors.New("invalid enrollment number")
	ErrLinkedToOther     = errors.New("enrollment is linked to another discord account")
	ErrAlreadyLinked     = errors.New("enrollment is already linked")
	ErrNoDiscordLinked   = errors.New("no discord account linked")
	ErrEmptyGroup        = errors.New("empty group")
)
