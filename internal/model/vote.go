package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Vote directions accepted by the vote endpoint.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Counter names a per-link vote counter column.
type Counter string

const (
	CounterUpvotes   Counter = "upvotes"
	CounterDownvotes Counter = "downvotes"
)

// VoteRequest is the API request body for casting or retracting a vote.
type VoteRequest struct {
	Direction string `json:"direction"`
	Undo      bool   `json:"undo"`
}

// Validate checks that the direction is one of the accepted values.
func (r VoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Direction, validation.Required, validation.In(DirectionUp, DirectionDown)),
	)
}

// Counter returns the counter column the vote direction targets.
func (r VoteRequest) Counter() Counter {
	if r.Direction == DirectionDown {
		return CounterDownvotes
	}
	return CounterUpvotes
}

// Delta returns +1 for a vote and -1 for an undo.
func (r VoteRequest) Delta() int {
	if r.Undo {
		return -1
	}
	return 1
}

// VoteResponse is the API response after a vote mutation.
type VoteResponse struct {
	Success bool `json:"success"`
}
