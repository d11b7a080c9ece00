package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Link moderation states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Field length limits matching database schema constraints.
const (
	MaxTitleLen = 200 // links.title VARCHAR(200)
	MaxURLLen   = 2048
)

var httpSchemeRe = regexp.MustCompile(`^(?i)https?://`)

// Link represents a submitted link with its raw vote counters.
type Link struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
	Status    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// RankedLink is a Link annotated with its computed ranking inputs.
type RankedLink struct {
	Link
	Score   int64 `json:"score"`
	IsFresh bool  `json:"isFresh"`
}

// SubmitLinkRequest is the API request body for submitting a new link.
type SubmitLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Normalize trims surrounding whitespace from all fields.
func (r *SubmitLinkRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.URL = strings.TrimSpace(r.URL)
}

// Validate checks the submission against the links table constraints.
func (r SubmitLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, MaxTitleLen)),
		validation.Field(&r.URL,
			validation.Required,
			validation.Length(1, MaxURLLen),
			validation.Match(httpSchemeRe).Error("must start with http:// or https://"),
			is.URL,
		),
	)
}

// SubmitLinkResponse is the API response after a successful submission.
type SubmitLinkResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
