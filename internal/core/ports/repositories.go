package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// UserRepository persists staff profile records.
type UserRepository interface {
	// Create inserts u atomically; a staff id that is already registered
	// yields domain.ErrDuplicateStaffID.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByStaffID(ctx context.Context, staffID string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Delete removes the record; a missing record yields domain.ErrUserNotFound.
	Delete(ctx context.Context, id string) error
}

// RequestFilter narrows a request listing. Empty fields match everything.
type RequestFilter struct {
	Status         domain.RequestStatus
	RequestedByUID string
	Limit          int
}

// RequestRepository persists deletion and add-staff requests, one collection per kind.
type RequestRepository interface {
	// Create stores r with a server-assigned request timestamp and returns
	// the stored document. A pending add-staff request that repeats the staff
	// id of another pending one yields domain.ErrDuplicateStaffID.
	Create(ctx context.Context, r *domain.StaffRequest) (*domain.StaffRequest, error)
	Get(ctx context.Context, kind domain.RequestKind, id string) (*domain.StaffRequest, error)
	List(ctx context.Context, kind domain.RequestKind, filter RequestFilter) ([]*domain.StaffRequest, error)
	// Transition applies d only while the stored status is still pending.
	// It returns domain.ErrRequestNotFound or domain.ErrAlreadyProcessed
	// when the compare-and-set does not match.
	Transition(ctx context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error)
	// Reopen returns a request approved by processedByUID to pending. It is
	// the undo of a Transition whose side effect could not be applied.
	Reopen(ctx context.Context, kind domain.RequestKind, id, processedByUID string) error
}

// SalesRepository persists per-user per-day sales entries.
type SalesRepository interface {
	// Get returns the stored entry or domain.ErrNotFound.
	Get(ctx context.Context, userID, date string) (*domain.SalesEntry, error)
	// Accumulate adds delta to the stored counters in a single atomic write,
	// creating the entry when absent. A finalized entry yields domain.ErrLocked.
	Accumulate(ctx context.Context, userID, staffID, date string, delta domain.SalesTotals) (*domain.SalesEntry, error)
	// Reset zeroes every counter of an unfinalized entry, creating it when absent.
	Reset(ctx context.Context, userID, staffID, date string) (*domain.SalesEntry, error)
	// Finalize locks the entry, creating it when absent.
	Finalize(ctx context.Context, userID, staffID, date string) (*domain.SalesEntry, error)
	ListByDate(ctx context.Context, date string) ([]*domain.SalesEntry, error)
}

// NotificationRepository appends to and reads the notification feed.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	// ListFor returns newest-first items addressed to role, to everyone, or to uid.
	ListFor(ctx context.Context, role domain.Role, uid string, limit int) ([]*domain.Notification, error)
}

// CredentialRepository stores login secrets keyed by email.
type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) error
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Delete(ctx context.Context, email string) error
}
