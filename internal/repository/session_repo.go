package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// SessionRepo persists CAPTCHA sessions in the captcha_sessions table.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *model.CaptchaSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO captcha_sessions (id, ip_hash, ua_hash, expires_at)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.IPHash, s.UAHash, s.ExpiresAt)
	return err
}

func (r *SessionRepo) Find(ctx context.Context, id string) (*model.CaptchaSession, error) {
	var s model.CaptchaSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, ip_hash, ua_hash, expires_at
		FROM captcha_sessions
		WHERE id = $1`,
		id).Scan(&s.ID, &s.IPHash, &s.UAHash, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM captcha_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpired removes every session whose expiry is at or before now and
// returns how many were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM captcha_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
