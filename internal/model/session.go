package model

import "time"

// CaptchaSession is a voting credential minted after a successful
// human-verification. Only salted hashes of the client IP and user agent are
// stored.
type CaptchaSession struct {
	ID        string    `json:"-"`
	IPHash    string    `json:"-"`
	UAHash    string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer usable at now.
func (s *CaptchaSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// VerificationOutcome is the result of a single human-verification call.
type VerificationOutcome struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
}

// MintSessionRequest is the API request body for exchanging a CAPTCHA token.
type MintSessionRequest struct {
	Token string `json:"token"`
}

// MintSessionResponse is the API response after a session is minted.
type MintSessionResponse struct {
	TTL int `json:"ttl"`
}
