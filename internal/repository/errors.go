package repository

import "errors"

var (
	// ErrLinkNotFound is returned when no link row matches the given id.
	ErrLinkNotFound = errors.New("link not found")
	// ErrNoOpAdjustment is returned when a decrement would take a counter below zero.
	ErrNoOpAdjustment = errors.New("counter already at zero")
	// ErrInvalidAdjustment is returned for an unknown counter or a delta other than ±1.
	ErrInvalidAdjustment = errors.New("invalid counter adjustment")
	// ErrSessionNotFound is returned when no CAPTCHA session matches the given id.
	ErrSessionNotFound = errors.New("captcha session not found")
)
