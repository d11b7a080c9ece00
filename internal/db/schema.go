package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates all tables needed by the service.
// Safe to call multiple times - uses IF NOT EXISTS.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS links (
    id          BIGSERIAL PRIMARY KEY,
    title       VARCHAR(200) NOT NULL,
    url         VARCHAR(2048) NOT NULL,
    upvotes     BIGINT NOT NULL DEFAULT 0,
    downvotes   BIGINT NOT NULL DEFAULT 0,
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_links_status ON links(status);

CREATE TABLE IF NOT EXISTS captcha_sessions (
    id          TEXT PRIMARY KEY,
    ip_hash     TEXT NOT NULL,
    ua_hash     TEXT NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_captcha_sessions_expires_at ON captcha_sessions(expires_at);
`
