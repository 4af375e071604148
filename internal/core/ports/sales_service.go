package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// SubmitEntryInput is one additive submission of the daily sales form.
type SubmitEntryInput struct {
	UserID  string
	StaffID string
	Delta   domain.SalesTotals
	// IdempotencyKey optionally suppresses an accidental resubmission of
	// the same form.
	IdempotencyKey string
}

// SalesLedger maintains the per-user daily sales accumulator.
type SalesLedger interface {
	SubmitEntry(ctx context.Context, in SubmitEntryInput) (*domain.SalesEntry, error)
	GetTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error)
	ResetTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error)
	FinalizeTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error)
	DailyEntries(ctx context.Context, actor domain.Actor, date string) ([]*domain.SalesEntry, error)
	// Today is the current business day as YYYY-MM-DD.
	Today() string
}

// SubmissionDedup remembers idempotency keys of processed submissions.
type SubmissionDedup interface {
	// Claim records key for scope and reports whether it was seen before.
	Claim(ctx context.Context, scope, key string) (seen bool, err error)
	// Release forgets key so a failed submission can be retried with it.
	Release(ctx context.Context, scope, key string) error
}
