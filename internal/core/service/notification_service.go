package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	"github.com/mealvilla/staff-portal/internal/pkg/metrics"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

// NotificationService writes notification records and serves the feed.
type NotificationService struct {
	repo ports.NotificationRepository
	log  zerolog.Logger
}

func NewNotificationService(repo ports.NotificationRepository, log zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, log: log}
}

// Emit appends n to the feed. The store assigns the timestamp.
func (s *NotificationService) Emit(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := s.repo.Insert(ctx, &n); err != nil {
		metrics.NotificationsEmittedTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).
			Str("recipient_role", string(n.RecipientRole)).
			Str("title", n.Title).
			Msg("failed to emit notification")
		return domain.Unavailable("emit notification", err)
	}
	metrics.NotificationsEmittedTotal.WithLabelValues("ok").Inc()
	return nil
}

// Feed returns the newest notifications visible to actor.
func (s *NotificationService) Feed(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error) {
	if actor.UID == "" || actor.Role == "" {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	items, err := s.repo.ListFor(ctx, actor.Role, actor.UID, limit)
	if err != nil {
		return nil, domain.Unavailable("notification feed", err)
	}
	return items, nil
}
