package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

type LinkRepo struct {
	pool *pgxpool.Pool
}

func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

// adjustQueries holds the single-statement counter mutations, keyed by counter
// and delta. Decrements never take a counter below zero.
var adjustQueries = map[model.Counter]map[int]string{
	model.CounterUpvotes: {
		1:  `UPDATE links SET upvotes = upvotes + 1 WHERE id = $1`,
		-1: `UPDATE links SET upvotes = upvotes - 1 WHERE id = $1 AND upvotes > 0`,
	},
	model.CounterDownvotes: {
		1:  `UPDATE links SET downvotes = downvotes + 1 WHERE id = $1`,
		-1: `UPDATE links SET downvotes = downvotes - 1 WHERE id = $1 AND downvotes > 0`,
	},
}

// ListApproved returns every approved link. Ordering is left to the ranking
// engine.
func (r *LinkRepo) ListApproved(ctx context.Context) ([]model.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, url, upvotes, downvotes, status, created_at
		FROM links
		WHERE status = $1`,
		model.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var l model.Link
		err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.Upvotes, &l.Downvotes, &l.Status, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		l.CreatedAt = l.CreatedAt.UTC()
		links = append(links, l)
	}
	return links, rows.Err()
}

// Create inserts a pending link with zero counters and returns its id.
func (r *LinkRepo) Create(ctx context.Context, title, url string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO links (title, url) VALUES ($1, $2)
		RETURNING id`,
		title, url).Scan(&id)
	return id, err
}

// Adjust applies a single ±1 step to one counter of a link as one atomic
// UPDATE. Concurrent adjustments interleave as independent deltas.
func (r *LinkRepo) Adjust(ctx context.Context, linkID int64, counter model.Counter, delta int) error {
	query, ok := adjustQueries[counter][delta]
	if !ok {
		return fmt.Errorf("%w: %s %+d", ErrInvalidAdjustment, counter, delta)
	}

	tag, err := r.pool.Exec(ctx, query, linkID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if delta > 0 {
		return ErrLinkNotFound
	}

	// Zero rows on a decrement: either the link is gone or the counter is at zero.
	exists, err := r.exists(ctx, linkID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrLinkNotFound
	}
	return ErrNoOpAdjustment
}

// Approve moves a link from pending to approved.
func (r *LinkRepo) Approve(ctx context.Context, linkID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE links SET status = $1 WHERE id = $2`, model.StatusApproved, linkID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepo) exists(ctx context.Context, linkID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE id = $1)`, linkID).Scan(&exists)
	return exists, err
}
