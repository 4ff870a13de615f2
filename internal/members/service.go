package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
)

// RepositoryPort defines data access methods for members.
type RepositoryPort interface {
	ListMembers(ctx context.Context, filters shared.ListFilters) ([]Member, int, error)
	ListActive(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	CreateMember(ctx context.Context, m Member, passwordHash string) (int64, error)
	UpdateMember(ctx context.Context, m Member, passwordHash string) error
	DeleteMember(ctx context.Context, id int64) error
	CountMembers(ctx context.Context) (int, error)
	CountActiveAdmins(ctx context.Context, excludeID int64) (int, error)
}

var (
	// ErrEmailTaken is returned when another member already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrLastAdmin is returned when a change would leave no active admin.
	ErrLastAdmin = errors.New("at least one active admin is required")
)

// Service handles member business logic.
type Service struct {
	repo       RepositoryPort
	audit      shared.AuditRecorder
	logger     *slog.Logger
	validate   *validator.Validate
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, validate: validator.New(), bcryptCost: bcrypt.DefaultCost}
}

// ListMembers returns a page of members.
func (s *Service) ListMembers(ctx context.Context, filters shared.ListFilters) ([]Member, shared.Pagination, error) {
	members, total, err := s.repo.ListMembers(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("members: list: %w", err)
	}
	return members, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// GetMember returns member id.
func (s *Service) GetMember(ctx context.Context, id int64) (Member, error) {
	if id <= 0 {
		return Member{}, shared.ErrNotFound
	}
	return s.repo.GetMember(ctx, id)
}

// CountMembers returns the number of members.
func (s *Service) CountMembers(ctx context.Context) (int, error) {
	return s.repo.CountMembers(ctx)
}

// Team groups active members by team role for the public team page.
func (s *Service) Team(ctx context.Context) ([]TeamGroup, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var (
		groups []TeamGroup
		other  []Member
	)
	for _, m := range active {
		if m.RoleName == "" {
			other = append(other, m)
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].Role == m.RoleName {
			groups[n-1].Members = append(groups[n-1].Members, m)
			continue
		}
		groups = append(groups, TeamGroup{Role: m.RoleName, Members: []Member{m}})
	}
	if len(other) > 0 {
		groups = append(groups, TeamGroup{Role: "Team", Members: other})
	}
	return groups, nil
}

// CreateMember validates in, hashes the password and inserts the member.
func (s *Service) CreateMember(ctx context.Context, in Input) (Member, error) {
	in = normalize(in)
	if in.Password == "" {
		return Member{}, shared.NewValidationError("password", "password is required")
	}
	if err := s.check(in); err != nil {
		return Member{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return Member{}, err
	}
	m := memberFromInput(0, in)
	id, err := s.repo.CreateMember(ctx, m, hash)
	if err != nil {
		return Member{}, emailTaken(err)
	}
	m.ID = id
	s.record(ctx, "member.created", id, map[string]any{"email": m.Email, "access_role": string(m.AccessRole)})
	return m, nil
}

// UpdateMember validates in and overwrites member id. A blank password
// keeps the current one.
func (s *Service) UpdateMember(ctx context.Context, id int64, in Input) (Member, error) {
	current, err := s.GetMember(ctx, id)
	if err != nil {
		return Member{}, err
	}
	in = normalize(in)
	if err := s.check(in); err != nil {
		return Member{}, err
	}
	m := memberFromInput(id, in)
	if current.AccessRole == rbac.RoleAdmin && current.IsActive && (m.AccessRole != rbac.RoleAdmin || !m.IsActive) {
		if err := s.ensureOtherAdmin(ctx, id); err != nil {
			return Member{}, err
		}
	}
	var hash string
	if in.Password != "" {
		if hash, err = s.hash(in.Password); err != nil {
			return Member{}, err
		}
	}
	if err := s.repo.UpdateMember(ctx, m, hash); err != nil {
		return Member{}, emailTaken(err)
	}
	s.record(ctx, "member.updated", id, map[string]any{
		"email":            m.Email,
		"access_role":      string(m.AccessRole),
		"password_changed": hash != "",
	})
	return m, nil
}

// DeleteMember removes member id. Members cannot delete themselves and the
// last active admin cannot be removed.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	current, err := s.GetMember(ctx, id)
	if err != nil {
		return err
	}
	if shared.ActorID(ctx) == id {
		return shared.NewValidationError("member", "you cannot delete your own account")
	}
	if current.AccessRole == rbac.RoleAdmin && current.IsActive {
		if err := s.ensureOtherAdmin(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "member.deleted", id, map[string]any{"email": current.Email})
	return nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context, id int64) error {
	others, err := s.repo.CountActiveAdmins(ctx, id)
	if err != nil {
		return fmt.Errorf("members: count admins: %w", err)
	}
	if others == 0 {
		return &shared.ValidationError{Field: "access_role", Message: ErrLastAdmin.Error()}
	}
	return nil
}

// check runs the struct validation and reports the first failing field.
func (s *Service) check(in Input) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fieldName(fe.Field())
	return shared.NewValidationError(field, validationMessage(field, fe))
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("members: hash password: %w", err)
	}
	return string(hashed), nil
}

func normalize(in Input) Input {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Title = strings.TrimSpace(in.Title)
	in.Bio = strings.TrimSpace(in.Bio)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	if role, ok := rbac.ParseRole(in.AccessRole); ok {
		in.AccessRole = string(role)
	} else {
		in.AccessRole = strings.TrimSpace(in.AccessRole)
	}
	return in
}

func memberFromInput(id int64, in Input) Member {
	return Member{
		ID:         id,
		Email:      in.Email,
		Name:       in.Name,
		Title:      in.Title,
		Bio:        in.Bio,
		AvatarURL:  in.AvatarURL,
		RoleID:     in.RoleID,
		AccessRole: rbac.Role(in.AccessRole),
		IsActive:   in.IsActive,
	}
}

var fieldNames = map[string]string{
	"Email":      "email",
	"Name":       "name",
	"Title":      "title",
	"Bio":        "bio",
	"AvatarURL":  "avatar_url",
	"RoleID":     "role_id",
	"AccessRole": "access_role",
	"Password":   "password",
}

func fieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return strings.ToLower(structField)
}

func validationMessage(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "email must be a valid address"
	case "min":
		return label + " must be at least " + fe.Param() + " characters"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return label + " must be one of " + fe.Param()
	case "url", "startswith":
		return label + " must be an http(s) URL"
	default:
		return label + " is invalid"
	}
}

func emailTaken(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return errors.Join(ErrEmailTaken, err)
	}
	return err
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "member",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit member change", slog.String("action", action), slog.Any("error", err))
	}
}
