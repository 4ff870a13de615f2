package projects

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/folio-studio/folio/internal/shared"
)

type memRepo struct {
	mu     sync.Mutex
	items  map[int64]Project
	nextID int64
	err    error
}

func newMemRepo(seed ...Project) *memRepo {
	r := &memRepo{items: make(map[int64]Project), nextID: 1}
	for _, p := range seed {
		if p.ID == 0 {
			p.ID = r.nextID
		}
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.items[p.ID] = p
	}
	return r
}

func (r *memRepo) List(ctx context.Context, f ListFilters) ([]Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []Project
	for _, p := range r.items {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if f.PerPage > 0 {
		start := f.Offset()
		if start > len(out) {
			start = len(out)
		}
		end := start + f.PerPage
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return Project{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memRepo) GetBySlug(ctx context.Context, slug string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Project{}, shared.ErrNotFound
}

func (r *memRepo) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Create(ctx context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return Project{}, r.err
	}
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.items[p.ID] = p
	return p, nil
}

func (r *memRepo) Update(ctx context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[p.ID]
	if !ok {
		return Project{}, shared.ErrNotFound
	}
	p.ImageURL = current.ImageURL
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()
	r.items[p.ID] = p
	return p, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) SetImage(ctx context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.ImageURL = url
	r.items[id] = p
	return nil
}

func (r *memRepo) Counts(ctx context.Context) (Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c Counts
	for _, p := range r.items {
		c.Total++
		if p.Status == StatusPublished {
			c.Published++
		} else {
			c.Draft++
		}
	}
	return c, nil
}

func (r *memRepo) Categories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range r.items {
		if p.Published() && p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memStore struct {
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore { return &memStore{objects: make(map[string][]byte)} }

func (s *memStore) BaseURL() string { return "/uploads" }

func (s *memStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.objects[key] = buf.Bytes()
	return "/uploads/" + key, nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}
