package roles

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/folio-studio/folio/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, in Input) (Role, error)
	UpdateRole(ctx context.Context, id int64, in Input) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	CountRoles(ctx context.Context) (int, error)
}

const maxNameLength = 80

// ErrNameTaken is returned when another role already uses the name.
var ErrNameTaken = errors.New("role name already exists")

// Service handles role business logic.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns role id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	if id <= 0 {
		return Role{}, shared.ErrNotFound
	}
	return s.repo.GetRole(ctx, id)
}

// CountRoles returns the number of roles.
func (s *Service) CountRoles(ctx context.Context) (int, error) {
	return s.repo.CountRoles(ctx)
}

// CreateRole validates in and inserts a role.
func (s *Service) CreateRole(ctx context.Context, in Input) (Role, error) {
	in, err := normalize(in)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, in)
	if err != nil {
		return Role{}, duplicateName(err)
	}
	s.record(ctx, "role.created", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole validates in and overwrites role id.
func (s *Service) UpdateRole(ctx context.Context, id int64, in Input) (Role, error) {
	if id <= 0 {
		return Role{}, shared.ErrNotFound
	}
	in, err := normalize(in)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.UpdateRole(ctx, id, in)
	if err != nil {
		return Role{}, duplicateName(err)
	}
	s.record(ctx, "role.updated", id, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes role id.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "role.deleted", id, nil)
	return nil
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Name == "":
		return in, shared.NewValidationError("name", "name is required")
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		return in, shared.NewValidationError("name", "name must be at most 80 characters")
	case in.SortOrder < 0:
		return in, shared.NewValidationError("sort_order", "sort order cannot be negative")
	}
	return in, nil
}

func duplicateName(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return errors.Join(ErrNameTaken, err)
	}
	return err
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit role change", slog.String("action", action), slog.Any("error", err))
	}
}
