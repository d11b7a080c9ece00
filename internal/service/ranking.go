package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// FreshnessWindow is how long after creation a link sorts ahead of all older
// links regardless of score.
const FreshnessWindow = 7 * 24 * time.Hour

// Rank orders a snapshot of links for display. The algorithm:
//
//	score    = upvotes - downvotes
//	is_fresh = now - created_at < 7 days
//	order by is_fresh desc, score desc, created_at desc, id desc
//
// The id tie-break makes the order total, so identical input always yields
// identical output. Rank holds no state and performs no I/O; the input slice is
// not modified.
func Rank(links []model.Link, now time.Time) []model.RankedLink {
	ranked := make([]model.RankedLink, len(links))
	for i, l := range links {
		ranked[i] = model.RankedLink{
			Link:    l,
			Score:   Score(l.Upvotes, l.Downvotes),
			IsFresh: IsFresh(l.CreatedAt, now),
		}
	}
	slices.SortFunc(ranked, compareRanked)
	return ranked
}

// Score returns the net vote total. It may be negative.
func Score(upvotes, downvotes int64) int64 {
	return upvotes - downvotes
}

// IsFresh reports whether a link created at createdAt is still inside the
// freshness window at now.
func IsFresh(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < FreshnessWindow
}

func compareRanked(a, b model.RankedLink) int {
	if a.IsFresh != b.IsFresh {
		if a.IsFresh {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
