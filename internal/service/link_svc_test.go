package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mparaz/cloudflare-ranking/internal/model"
	"github.com/mparaz/cloudflare-ranking/internal/repository"
)

// memLinkStore is an in-process LinkStore with the same clamping rules as the
// Postgres ledger.
type memLinkStore struct {
	mu     sync.Mutex
	links  map[int64]*model.Link
	nextID int64
	lists  int
}

func newMemLinkStore() *memLinkStore {
	return &memLinkStore{links: make(map[int64]*model.Link)}
}

func (m *memLinkStore) ListApproved(context.Context) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []model.Link
	for _, l := range m.links {
		if l.Status == model.StatusApproved {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLinkStore) Create(_ context.Context, title, url string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.links[m.nextID] = &model.Link{
		ID: m.nextID, Title: title, URL: url,
		Status: model.StatusPending, CreatedAt: time.Now().UTC(),
	}
	return m.nextID, nil
}

func (m *memLinkStore) Adjust(_ context.Context, id int64, counter model.Counter, delta int) error {
	if delta != 1 && delta != -1 {
		return repository.ErrInvalidAdjustment
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	field := &l.Upvotes
	if counter == model.CounterDownvotes {
		field = &l.Downvotes
	}
	if *field+int64(delta) < 0 {
		return repository.ErrNoOpAdjustment
	}
	*field += int64(delta)
	return nil
}

func (m *memLinkStore) Approve(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	l.Status = model.StatusApproved
	return nil
}

func seedApproved(t *testing.T, svc *LinkService, title string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := svc.Submit(ctx, model.SubmitLinkRequest{Title: title, URL: "https://example.com/" + title})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Approve(ctx, id); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestLinkService_VoteOrderIndependent(t *testing.T) {
	up := model.VoteRequest{Direction: model.DirectionUp}
	down := model.VoteRequest{Direction: model.DirectionDown}
	orders := [][]model.VoteRequest{
		{up, up, down},
		{up, down, up},
		{down, up, up},
	}
	for _, order := range orders {
		svc := NewLinkService(newMemLinkStore(), nil)
		id := seedApproved(t, svc, "a")
		for _, v := range order {
			if err := svc.Vote(context.Background(), id, v); err != nil {
				t.Fatalf("Vote: %v", err)
			}
		}
		ranked, err := svc.Ranked(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(ranked) != 1 || ranked[0].Score != 1 {
			t.Errorf("order %v: ranked = %+v, want one link with score 1", order, ranked)
		}
	}
}

func TestLinkService_ConcurrentVotes(t *testing.T) {
	svc := NewLinkService(newMemLinkStore(), nil)
	id := seedApproved(t, svc, "a")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = svc.Vote(ctx, id, model.VoteRequest{Direction: model.DirectionUp}) }()
		go func() { defer wg.Done(); _ = svc.Vote(ctx, id, model.VoteRequest{Direction: model.DirectionUp}) }()
		go func() { defer wg.Done(); _ = svc.Vote(ctx, id, model.VoteRequest{Direction: model.DirectionDown}) }()
	}
	wg.Wait()

	ranked, err := svc.Ranked(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Upvotes != 100 || ranked[0].Downvotes != 50 || ranked[0].Score != 50 {
		t.Errorf("got up=%d down=%d score=%d, want 100/50/50",
			ranked[0].Upvotes, ranked[0].Downvotes, ranked[0].Score)
	}
}

func TestLinkService_UndoVote(t *testing.T) {
	svc := NewLinkService(newMemLinkStore(), nil)
	id := seedApproved(t, svc, "a")
	ctx := context.Background()

	undoUp := model.VoteRequest{Direction: model.DirectionUp, Undo: true}
	if err := svc.Vote(ctx, id, undoUp); !errors.Is(err, repository.ErrNoOpAdjustment) {
		t.Fatalf("undo at zero: err = %v, want ErrNoOpAdjustment", err)
	}
	if err := svc.Vote(ctx, id, model.VoteRequest{Direction: model.DirectionUp}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Vote(ctx, id, undoUp); err != nil {
		t.Fatalf("undo after vote: %v", err)
	}
	ranked, _ := svc.Ranked(ctx)
	if ranked[0].Upvotes != 0 {
		t.Errorf("upvotes = %d, want 0", ranked[0].Upvotes)
	}
}

func TestLinkService_VoteUnknownLink(t *testing.T) {
	svc := NewLinkService(newMemLinkStore(), nil)
	err := svc.Vote(context.Background(), 42, model.VoteRequest{Direction: model.DirectionDown})
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("err = %v, want ErrLinkNotFound", err)
	}
}

func TestLinkService_PendingLinksHidden(t *testing.T) {
	store := newMemLinkStore()
	svc := NewLinkService(store, nil)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, model.SubmitLinkRequest{Title: "p", URL: "https://p.example"}); err != nil {
		t.Fatal(err)
	}
	approved := seedApproved(t, svc, "a")

	ranked, err := svc.Ranked(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 || ranked[0].ID != approved {
		t.Errorf("ranked = %+v, want only link %d", ranked, approved)
	}
}

func TestLinkService_RankedUsesClock(t *testing.T) {
	store := newMemLinkStore()
	svc := NewLinkService(store, nil)
	id := seedApproved(t, svc, "a")

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	ranked, err := svc.Ranked(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].ID != id || ranked[0].IsFresh {
		t.Errorf("link should be stale eight days later, got %+v", ranked[0])
	}
}

func TestLinkService_NilCacheReadsThrough(t *testing.T) {
	store := newMemLinkStore()
	svc := NewLinkService(store, NewCacheServiceWithClient(nil))
	seedApproved(t, svc, "a")

	for i := 0; i < 3; i++ {
		if _, err := svc.Ranked(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if store.lists != 3 {
		t.Errorf("ListApproved called %d times, want 3 with caching disabled", store.lists)
	}
}
