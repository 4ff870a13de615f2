package projects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio-studio/folio/internal/assets"
	"github.com/folio-studio/folio/internal/shared"
)

// Service enforces project rules on top of the repository.
type Service struct {
	repo   Repository
	store  assets.Store
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds a Service. store may be nil when uploads are disabled.
func NewService(repo Repository, store assets.Store, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, audit: audit, logger: logger}
}

// List returns a page of projects for the admin listing.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Project, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("projects: list: %w", err)
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// ListPublished returns a page of projects visible on the public site.
func (s *Service) ListPublished(ctx context.Context, filters ListFilters) ([]Project, shared.Pagination, error) {
	filters.Status = StatusPublished
	return s.List(ctx, filters)
}

// Featured returns up to limit featured, published projects.
func (s *Service) Featured(ctx context.Context, limit int) ([]Project, error) {
	featured := true
	items, _, err := s.repo.List(ctx, ListFilters{
		ListFilters: shared.ListFilters{Page: 1, PerPage: limit},
		Status:      StatusPublished,
		Featured:    &featured,
	})
	return items, err
}

// Categories lists the categories used by published projects.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	if id <= 0 {
		return Project{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// GetPublished returns a published project by slug. Drafts are reported as
// not found.
func (s *Service) GetPublished(ctx context.Context, slug string) (Project, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Project{}, err
	}
	if !p.Published() {
		return Project{}, shared.ErrNotFound
	}
	return p, nil
}

// Counts summarises projects by status.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

// Create validates in and inserts a new project.
func (s *Service) Create(ctx context.Context, in Input) (Project, error) {
	p, err := s.build(ctx, 0, in)
	if err != nil {
		return Project{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Project{}, err
	}
	s.record(ctx, "project.created", created.ID, map[string]any{"slug": created.Slug, "status": created.Status})
	return created, nil
}

// Update validates in and overwrites project id.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Project, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Project{}, err
	}
	p, err := s.build(ctx, id, in)
	if err != nil {
		return Project{}, err
	}
	p.ID = id
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Project{}, err
	}
	s.record(ctx, "project.updated", id, map[string]any{"slug": updated.Slug, "status": updated.Status})
	return updated, nil
}

// Delete removes project id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "project.deleted", id, nil)
	return nil
}

// UploadImage validates content, stores it and points the project at it.
// The previous image is removed when it lives in the same store.
func (s *Service) UploadImage(ctx context.Context, id int64, content []byte) (string, error) {
	if s.store == nil {
		return "", errors.New("projects: asset storage is not configured")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	img, err := assets.DetectImage(content)
	if err != nil {
		return "", err
	}
	key := assets.ObjectKey("projects/"+strconv.FormatInt(id, 10), img)
	location, err := s.store.Put(ctx, key, img.ContentType, bytes.NewReader(img.Content), int64(len(img.Content)))
	if err != nil {
		return "", err
	}
	if err := s.repo.SetImage(ctx, id, location); err != nil {
		return "", err
	}
	if old := s.storedKey(current.ImageURL); old != "" {
		if err := s.store.Delete(ctx, old); err != nil {
			s.logger.Warn("delete replaced project image", slog.Int64("project_id", id), slog.Any("error", err))
		}
	}
	s.record(ctx, "project.image_uploaded", id, map[string]any{"url": location, "content_type": img.ContentType})
	return location, nil
}

type baseURLer interface {
	BaseURL() string
}

func (s *Service) storedKey(imageURL string) string {
	b, ok := s.store.(baseURLer)
	if !ok || imageURL == "" {
		return ""
	}
	return assets.KeyFromURL(b.BaseURL(), imageURL)
}

func (s *Service) build(ctx context.Context, id int64, in Input) (Project, error) {
	p := Project{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Status:      Status(strings.ToLower(strings.TrimSpace(in.Status))),
		Featured:    in.Featured,
		DemoURL:     strings.TrimSpace(in.DemoURL),
		RepoURL:     strings.TrimSpace(in.RepoURL),
		TechStack:   NormalizeTechStack(in.TechStack),
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	switch {
	case p.Title == "":
		return Project{}, shared.NewValidationError("title", "title is required")
	case p.Category == "":
		return Project{}, shared.NewValidationError("category", "category is required")
	case !p.Status.Valid():
		return Project{}, shared.NewValidationError("status", "status must be draft or published")
	}
	for _, link := range []struct{ field, raw string }{{"demo_url", p.DemoURL}, {"repo_url", p.RepoURL}} {
		if link.raw != "" && !validLink(link.raw) {
			return Project{}, shared.NewValidationError(link.field, "links must be absolute http(s) URLs")
		}
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(p.Title)
	}
	if slug == "" {
		return Project{}, shared.NewValidationError("slug", "slug cannot be derived from the title")
	}
	unique, err := s.uniqueSlug(ctx, slug, id)
	if err != nil {
		return Project{}, err
	}
	p.Slug = unique
	return p, nil
}

// uniqueSlug appends -2, -3, ... until the slug is free.
func (s *Service) uniqueSlug(ctx context.Context, base string, id int64) (string, error) {
	candidate := base
	for n := 2; n < 100; n++ {
		taken, err := s.repo.SlugTaken(ctx, candidate, id)
		if err != nil {
			return "", fmt.Errorf("projects: check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", fmt.Errorf("%w: slug %q", shared.ErrDuplicate, base)
}

// NormalizeTechStack trims entries, drops blanks and removes
// case-insensitive duplicates while keeping the first spelling.
func NormalizeTechStack(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SplitTechStack splits a comma separated form value.
func SplitTechStack(raw string) []string {
	return NormalizeTechStack(strings.Split(raw, ","))
}

func validLink(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "project",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit project change", slog.String("action", action), slog.Any("error", err))
	}
}
