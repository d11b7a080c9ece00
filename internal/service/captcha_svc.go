package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/config"
	"github.com/mparaz/cloudflare-ranking/internal/model"
	"github.com/mparaz/cloudflare-ranking/pkg/hash"
)

// MintedSession is returned to the caller after a successful exchange. The
// caller delivers ID to the client as an HttpOnly cookie with Max-Age = TTL.
type MintedSession struct {
	ID        string
	TTL       time.Duration
	ExpiresAt time.Time
}

// CaptchaService exchanges a one-time human-verification token for a reusable,
// time-boxed voting session bound to the client's IP and user agent, and
// validates that session on every protected action.
type CaptchaService struct {
	verifier Verifier
	store    SessionStore
	salt     string
	ttl      time.Duration

	now   func() time.Time
	newID func() (string, error)
}

func NewCaptchaService(verifier Verifier, store SessionStore, salt string, ttl time.Duration) *CaptchaService {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &CaptchaService{
		verifier: verifier,
		store:    store,
		salt:     salt,
		ttl:      ttl,
		now:      time.Now,
		newID:    newSessionID,
	}
}

// TTL returns the lifetime given to newly minted sessions.
func (s *CaptchaService) TTL() time.Duration {
	return s.ttl
}

// Mint verifies token with the oracle and, on success, persists a new session
// fingerprinted to ip and userAgent. An empty token is rejected without
// contacting the oracle.
func (s *CaptchaService) Mint(ctx context.Context, token, ip, userAgent string) (*MintedSession, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	outcome, err := s.verifier.Verify(ctx, token, ip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	if !outcome.Success {
		return nil, &VerificationError{Codes: outcome.ErrorCodes}
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	sess := &model.CaptchaSession{
		ID:        id,
		IPHash:    hash.Fingerprint(ip, s.salt),
		UAHash:    hash.Fingerprint(userAgent, s.salt),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("store captcha session: %w", err)
	}

	return &MintedSession{ID: sess.ID, TTL: s.ttl, ExpiresAt: sess.ExpiresAt}, nil
}

// Validate checks that sessionID names a live session minted for the same IP
// and user agent as the current request. An expired session is deleted; a
// fingerprint mismatch leaves the session in place. Sessions are never renewed.
func (s *CaptchaService) Validate(ctx context.Context, sessionID, ip, userAgent string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	sess, err := s.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("find captcha session: %w", err)
	}

	if sess.Expired(s.now()) {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			log.Warn().Err(err).Msg("captcha: delete expired session failed")
		}
		return ErrSessionExpired
	}

	ipOK := hash.Equal(sess.IPHash, hash.Fingerprint(ip, s.salt))
	uaOK := hash.Equal(sess.UAHash, hash.Fingerprint(userAgent, s.salt))
	if !ipOK || !uaOK {
		return ErrFingerprintMismatch
	}
	return nil
}

func newSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return id.String(), nil
}
