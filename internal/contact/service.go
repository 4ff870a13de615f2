package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/folio-studio/folio/internal/shared"
)

// IdempotencyModule scopes contact keys in the idempotency store.
const IdempotencyModule = "contact"

// Notifier is told about each stored submission.
type Notifier interface {
	NotifySubmission(ctx context.Context, s Submission) error
}

// Service accepts and lists contact submissions.
type Service struct {
	repo     Repository
	guard    shared.IdempotencyGuard
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds a Service. guard and notifier are optional.
func NewService(repo Repository, guard shared.IdempotencyGuard, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, guard: guard, notifier: notifier, logger: logger, validate: validator.New()}
}

// Submit stores one submission. Blank name, email or message yields
// ErrMissingFields and nothing is written. A replayed idempotency key
// returns a duplicate result without inserting.
func (s *Service) Submit(ctx context.Context, in Input) (Result, error) {
	in = trim(in)
	if err := s.check(in); err != nil {
		return Result{}, err
	}

	if in.IdempotencyKey != "" && s.guard != nil {
		if err := s.guard.Claim(ctx, in.IdempotencyKey, IdempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				s.logger.Info("contact replay ignored", slog.String("idempotency_key", in.IdempotencyKey))
				return Result{Duplicate: true}, nil
			}
			return Result{}, fmt.Errorf("contact: claim idempotency key: %w", err)
		}
	}

	sub := Submission{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		IP:        in.IP,
		UserAgent: in.UserAgent,
	}
	if flagged, reason := Screen(sub.Name, sub.Email, sub.Subject, sub.Message); flagged {
		sub.Flagged = true
		s.logger.Warn("contact submission flagged", slog.String("reason", reason), slog.String("ip", in.IP))
	}

	id, err := s.repo.Insert(ctx, sub)
	if err != nil {
		if in.IdempotencyKey != "" && s.guard != nil {
			if relErr := s.guard.Release(ctx, in.IdempotencyKey, IdempotencyModule); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return Result{}, fmt.Errorf("contact: insert submission: %w", err)
	}
	sub.ID = id

	if s.notifier != nil {
		if err := s.notifier.NotifySubmission(ctx, sub); err != nil {
			s.logger.Warn("enqueue contact notification", slog.Int64("submission_id", id), slog.Any("error", err))
		}
	}
	return Result{ID: id}, nil
}

// List returns a page of submissions, newest first.
func (s *Service) List(ctx context.Context, filters shared.ListFilters, flaggedOnly bool) ([]Submission, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filters, flaggedOnly)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("contact: list: %w", err)
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get returns submission id.
func (s *Service) Get(ctx context.Context, id int64) (Submission, error) {
	if id <= 0 {
		return Submission{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Latest returns the newest limit submissions.
func (s *Service) Latest(ctx context.Context, limit int) ([]Submission, error) {
	return s.repo.Latest(ctx, limit)
}

// Counts returns total and flagged counts.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

func (s *Service) check(in Input) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return ErrMissingFields
		}
	}
	fe := verrs[0]
	return shared.NewValidationError(strings.ToLower(fe.Field()), strings.ToLower(fe.Field())+" must be at most "+fe.Param()+" characters")
}

func trim(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	return in
}
