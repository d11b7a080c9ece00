package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// LinkStore is the persistent link table: the approved snapshot, submissions,
// moderation and the vote ledger's single-step counter adjustments.
type LinkStore interface {
	ListApproved(ctx context.Context) ([]model.Link, error)
	Create(ctx context.Context, title, url string) (int64, error)
	Adjust(ctx context.Context, linkID int64, counter model.Counter, delta int) error
	Approve(ctx context.Context, linkID int64) error
}

type LinkService struct {
	store LinkStore
	cache *CacheService
	now   func() time.Time
}

func NewLinkService(store LinkStore, cache *CacheService) *LinkService {
	return &LinkService{store: store, cache: cache, now: time.Now}
}

// Ranked returns every approved link in display order. The snapshot may come
// from the cache; the ranking is recomputed on every call.
func (s *LinkService) Ranked(ctx context.Context) ([]model.RankedLink, error) {
	links, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(links, s.now().UTC()), nil
}

func (s *LinkService) snapshot(ctx context.Context) ([]model.Link, error) {
	if s.cache != nil {
		links, ok, err := s.cache.GetLinks(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("cache: get links error")
		}
		if ok {
			return links, nil
		}
	}

	links, err := s.store.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLinks(ctx, links); err != nil {
			log.Warn().Err(err).Msg("cache: set links error")
		}
	}
	return links, nil
}

// Vote applies one vote or un-vote to a link's counter.
func (s *LinkService) Vote(ctx context.Context, linkID int64, req model.VoteRequest) error {
	if err := s.store.Adjust(ctx, linkID, req.Counter(), req.Delta()); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Submit stores a new pending link. It is not listed until approved.
func (s *LinkService) Submit(ctx context.Context, req model.SubmitLinkRequest) (int64, error) {
	return s.store.Create(ctx, req.Title, req.URL)
}

// Approve publishes a pending link.
func (s *LinkService) Approve(ctx context.Context, linkID int64) error {
	if err := s.store.Approve(ctx, linkID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *LinkService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLinks(ctx); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate links error")
	}
}
