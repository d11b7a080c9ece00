package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

var rankNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return rankNow.Add(-time.Duration(d * float64(24*time.Hour)))
}

func ids(ranked []model.RankedLink) []int64 {
	out := make([]int64, len(ranked))
	for i, r := range ranked {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRank_FreshBeatsOldPopular(t *testing.T) {
	// Link A: 8 days old, 100 upvotes. Link B: 2 days old, 10 upvotes.
	a := model.Link{ID: 1, Title: "Old popular link", Upvotes: 100, CreatedAt: daysAgo(8)}
	b := model.Link{ID: 2, Title: "New link", Upvotes: 10, CreatedAt: daysAgo(2)}

	ranked := Rank([]model.Link{a, b}, rankNow)

	if got := ids(ranked); !equalIDs(got, []int64{2, 1}) {
		t.Fatalf("order = %v, want [2 1]", got)
	}
	if ranked[0].Score != 10 || !ranked[0].IsFresh {
		t.Errorf("B = score %d fresh %v, want score 10 fresh true", ranked[0].Score, ranked[0].IsFresh)
	}
	// The old link keeps its raw score; freshness is a gate, not a decay.
	if ranked[1].Score != 100 || ranked[1].IsFresh {
		t.Errorf("A = score %d fresh %v, want score 100 fresh false", ranked[1].Score, ranked[1].IsFresh)
	}
}

func TestRank_HigherScoreFirstWithinFreshness(t *testing.T) {
	tests := []struct {
		name string
		age  float64
	}{
		{"both fresh", 1},
		{"both stale", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low := model.Link{ID: 1, Upvotes: 3, CreatedAt: daysAgo(tt.age)}
			high := model.Link{ID: 2, Upvotes: 5, CreatedAt: daysAgo(tt.age + 0.5)}

			got := ids(Rank([]model.Link{low, high}, rankNow))
			if !equalIDs(got, []int64{2, 1}) {
				t.Errorf("order = %v, want [2 1] (score 5 before score 3)", got)
			}
		})
	}
}

func TestRank_RecencyBreaksScoreTie(t *testing.T) {
	older := model.Link{ID: 1, Upvotes: 4, Downvotes: 1, CreatedAt: daysAgo(3)}
	newer := model.Link{ID: 2, Upvotes: 3, CreatedAt: daysAgo(1)}

	got := ids(Rank([]model.Link{older, newer}, rankNow))
	if !equalIDs(got, []int64{2, 1}) {
		t.Errorf("order = %v, want [2 1] (more recent first on equal score)", got)
	}
}

func TestRank_IDBreaksFullTie(t *testing.T) {
	created := daysAgo(1)
	links := []model.Link{
		{ID: 7, CreatedAt: created},
		{ID: 9, CreatedAt: created},
		{ID: 8, CreatedAt: created},
	}
	got := ids(Rank(links, rankNow))
	if !equalIDs(got, []int64{9, 8, 7}) {
		t.Errorf("order = %v, want [9 8 7]", got)
	}
}

func TestRank_NegativeScores(t *testing.T) {
	links := []model.Link{
		{ID: 1, Downvotes: 4, CreatedAt: daysAgo(1)},
		{ID: 2, Upvotes: 1, Downvotes: 2, CreatedAt: daysAgo(1)},
		{ID: 3, CreatedAt: daysAgo(9)},
	}
	ranked := Rank(links, rankNow)

	if got := ids(ranked); !equalIDs(got, []int64{2, 1, 3}) {
		t.Fatalf("order = %v, want [2 1 3]", got)
	}
	if ranked[1].Score != -4 {
		t.Errorf("score = %d, want -4", ranked[1].Score)
	}
}

func TestRank_FreshnessBoundary(t *testing.T) {
	tests := []struct {
		name      string
		createdAt time.Time
		wantFresh bool
	}{
		{"just inside", rankNow.Add(-FreshnessWindow + time.Second), true},
		{"exactly seven days", rankNow.Add(-FreshnessWindow), false},
		{"just outside", rankNow.Add(-FreshnessWindow - time.Second), false},
		{"created in the future", rankNow.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.createdAt, rankNow); got != tt.wantFresh {
				t.Errorf("IsFresh = %v, want %v", got, tt.wantFresh)
			}
		})
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	links := make([]model.Link, 200)
	for i := range links {
		links[i] = model.Link{
			ID:        int64(i + 1),
			Upvotes:   int64(r.Intn(5)),
			Downvotes: int64(r.Intn(5)),
			// Coarse timestamps so score and recency ties are common.
			CreatedAt: daysAgo(float64(r.Intn(14))),
		}
	}

	first := ids(Rank(links, rankNow))
	second := ids(Rank(links, rankNow))
	if !equalIDs(first, second) {
		t.Fatal("Rank returned different orders for the same snapshot")
	}

	// Input order must not matter either.
	shuffled := append([]model.Link(nil), links...)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if got := ids(Rank(shuffled, rankNow)); !equalIDs(first, got) {
		t.Fatal("Rank depends on input order")
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	links := []model.Link{
		{ID: 1, CreatedAt: daysAgo(10)},
		{ID: 2, Upvotes: 1, CreatedAt: daysAgo(1)},
	}
	Rank(links, rankNow)
	if links[0].ID != 1 || links[1].ID != 2 {
		t.Error("Rank reordered its input slice")
	}
}

func TestRank_Empty(t *testing.T) {
	ranked := Rank(nil, rankNow)
	if ranked == nil || len(ranked) != 0 {
		t.Errorf("Rank(nil) = %v, want empty non-nil slice", ranked)
	}
}
