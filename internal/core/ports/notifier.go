package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// Notifier emits feed notifications. Implementations never retry, and
// callers treat a returned error as non-fatal.
type Notifier interface {
	Emit(ctx context.Context, n domain.Notification) error
}

// NotificationFeed reads the notifications addressed to an actor.
type NotificationFeed interface {
	Feed(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error)
}
