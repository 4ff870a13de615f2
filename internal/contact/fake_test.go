package contact

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/folio-studio/folio/internal/shared"
)

type memRepo struct {
	mu      sync.Mutex
	items   []Submission
	inserts int
	err     error
}

func (r *memRepo) Insert(ctx context.Context, s Submission) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.inserts++
	s.ID = int64(len(r.items) + 1)
	s.CreatedAt = time.Now()
	r.items = append(r.items, s)
	return s.ID, nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.ID == id {
			return s, nil
		}
	}
	return Submission{}, shared.ErrNotFound
}

func (r *memRepo) List(ctx context.Context, f shared.ListFilters, flaggedOnly bool) ([]Submission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Submission
	for i := len(r.items) - 1; i >= 0; i-- {
		if flaggedOnly && !r.items[i].Flagged {
			continue
		}
		out = append(out, r.items[i])
	}
	return out, len(out), nil
}

func (r *memRepo) Latest(ctx context.Context, limit int) ([]Submission, error) {
	items, _, err := r.List(ctx, shared.ListFilters{}, false)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, err
}

func (r *memRepo) Counts(ctx context.Context) (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := Counts{Total: len(r.items)}
	for _, s := range r.items {
		if s.Flagged {
			c.Flagged++
		}
	}
	return c, nil
}

type memGuard struct {
	claimed  map[string]bool
	released []string
}

func newMemGuard() *memGuard { return &memGuard{claimed: map[string]bool{}} }

func (g *memGuard) Claim(ctx context.Context, key, module string) error {
	if g.claimed[module+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	g.claimed[module+"/"+key] = true
	return nil
}

func (g *memGuard) Release(ctx context.Context, key, module string) error {
	delete(g.claimed, module+"/"+key)
	g.released = append(g.released, key)
	return nil
}

type recordingNotifier struct {
	notified []int64
	err      error
}

func (n *recordingNotifier) NotifySubmission(ctx context.Context, s Submission) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, s.ID)
	return nil
}

var errDatabaseDown = errors.New("connection refused")
