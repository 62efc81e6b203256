package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// RepositoryPort abstracts storage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, title, message, link string) error
	List(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, ids []int64) error
	UnreadCount(ctx context.Context) (int64, error)
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

// Service manages the notification feed.
type Service struct {
	repo RepositoryPort
	now  Clock
}

// NewService builds Service.
func NewService(repo RepositoryPort, now Clock) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Create is fire-and-forget from the caller's perspective.
func (s *Service) Create(ctx context.Context, title, message, link string) error {
	if title == "" || message == "" {
		return fmt.Errorf("%w: título y mensaje son obligatorios", shared.ErrValidation)
	}
	return s.repo.Insert(ctx, title, message, link)
}

func (s *Service) List(ctx context.Context) ([]Notification, error) {
	return s.repo.List(ctx)
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.UnreadCount(ctx)
}

// MarkRead flags the given notifications and sweeps out read ones past
// retention. The sweep rides along here so the table stays bounded without
// depending on the worker being up.
func (s *Service) MarkRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no hay notificaciones seleccionadas", shared.ErrValidation)
	}
	if err := s.repo.MarkRead(ctx, ids); err != nil {
		return err
	}
	_, err := s.repo.PurgeRead(ctx, s.now().Add(-RetentionAge))
	return err
}

// PurgeRead removes read notifications older than retention; called from the
// background worker.
func (s *Service) PurgeRead(ctx context.Context) (int64, error) {
	return s.repo.PurgeRead(ctx, s.now().Add(-RetentionAge))
}
