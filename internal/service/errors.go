package service

import (
	"errors"
	"strings"

	"github.com/mparaz/cloudflare-ranking/internal/repository"
)

var (
	ErrMissingToken            = errors.New("captcha token is required")
	ErrVerificationFailed      = errors.New("captcha verification failed")
	ErrVerificationUnavailable = errors.New("captcha verification unavailable")
	ErrSessionNotFound         = repository.ErrSessionNotFound
	ErrSessionExpired          = errors.New("captcha session expired")
	ErrFingerprintMismatch     = errors.New("captcha session fingerprint mismatch")
)

// VerificationError carries the provider's diagnostics for a rejected token.
type VerificationError struct {
	Codes []string
}

func (e *VerificationError) Error() string {
	if len(e.Codes) == 0 {
		return ErrVerificationFailed.Error()
	}
	return ErrVerificationFailed.Error() + ": " + strings.Join(e.Codes, ", ")
}

func (e *VerificationError) Unwrap() error {
	return ErrVerificationFailed
}
