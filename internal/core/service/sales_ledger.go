package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	"github.com/mealvilla/staff-portal/internal/pkg/metrics"
)

// SalesLedgerService accumulates each user's daily sales sheet. The day is
// the calendar date in the business time zone.
type SalesLedgerService struct {
	repo  ports.SalesRepository
	dedup ports.SubmissionDedup
	loc   *time.Location
	now   func() time.Time
	log   zerolog.Logger
}

func NewSalesLedgerService(repo ports.SalesRepository, dedup ports.SubmissionDedup, loc *time.Location, log zerolog.Logger) *SalesLedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesLedgerService{repo: repo, dedup: dedup, loc: loc, now: time.Now, log: log}
}

// Today is the current business day, YYYY-MM-DD in the configured time zone.
func (s *SalesLedgerService) Today() string {
	return domain.BusinessDay(s.now(), s.loc)
}

// SubmitEntry adds delta to today's totals. Every accepted submission adds
// again; only a repeated idempotency key is suppressed.
func (s *SalesLedgerService) SubmitEntry(ctx context.Context, in ports.SubmitEntryInput) (*domain.SalesEntry, error) {
	if in.UserID == "" || in.StaffID == "" {
		return nil, domain.ErrMissingIdentity
	}
	if in.Delta.Negative() {
		return nil, domain.ErrInvalidQuantity
	}
	date := s.Today()
	scope := domain.SalesKey(in.UserID, date)

	claimed := false
	if in.IdempotencyKey != "" && s.dedup != nil {
		seen, err := s.dedup.Claim(ctx, scope, in.IdempotencyKey)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("dedup claim failed, processing anyway")
		case seen:
			metrics.SalesSubmissionsTotal.WithLabelValues("duplicate").Inc()
			s.log.Debug().Str("user_id", in.UserID).Str("key", in.IdempotencyKey).Msg("duplicate submission skipped")
			return s.GetTodayEntry(ctx, in.UserID, in.StaffID)
		default:
			claimed = true
		}
	}

	entry, err := s.repo.Accumulate(ctx, in.UserID, in.StaffID, date, in.Delta)
	if err != nil {
		if claimed {
			if relErr := s.dedup.Release(ctx, scope, in.IdempotencyKey); relErr != nil {
				s.log.Warn().Err(relErr).Str("user_id", in.UserID).Msg("failed to release dedup key")
			}
		}
		if errors.Is(err, domain.ErrLocked) {
			metrics.SalesSubmissionsTotal.WithLabelValues("locked").Inc()
			return nil, err
		}
		metrics.SalesSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, domain.Unavailable("submit sales entry", err)
	}

	metrics.SalesSubmissionsTotal.WithLabelValues("accumulated").Inc()
	s.log.Info().Str("user_id", in.UserID).Str("date", date).Msg("sales entry accumulated")
	return entry, nil
}

// GetTodayEntry returns today's entry, or the empty entry before the first submission.
func (s *SalesLedgerService) GetTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error) {
	if userID == "" {
		return nil, domain.ErrMissingIdentity
	}
	date := s.Today()
	entry, err := s.repo.Get(ctx, userID, date)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptySalesEntry(userID, staffID, date), nil
	}
	if err != nil {
		return nil, domain.Unavailable("get sales entry", err)
	}
	return entry, nil
}

// ResetTodayEntry zeroes today's totals unless the day is finalized.
func (s *SalesLedgerService) ResetTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error) {
	if userID == "" || staffID == "" {
		return nil, domain.ErrMissingIdentity
	}
	entry, err := s.repo.Reset(ctx, userID, staffID, s.Today())
	if err != nil {
		return nil, domain.Unavailable("reset sales entry", err)
	}
	s.log.Info().Str("user_id", userID).Str("date", entry.Date).Msg("sales entry reset")
	return entry, nil
}

// FinalizeTodayEntry locks today's entry against further changes.
func (s *SalesLedgerService) FinalizeTodayEntry(ctx context.Context, userID, staffID string) (*domain.SalesEntry, error) {
	if userID == "" || staffID == "" {
		return nil, domain.ErrMissingIdentity
	}
	entry, err := s.repo.Finalize(ctx, userID, staffID, s.Today())
	if err != nil {
		return nil, domain.Unavailable("finalize sales entry", err)
	}
	s.log.Info().Str("user_id", userID).Str("date", entry.Date).Msg("sales entry finalized")
	return entry, nil
}

// DailyEntries lists every user's entry for date (YYYY-MM-DD, default today).
func (s *SalesLedgerService) DailyEntries(ctx context.Context, actor domain.Actor, date string) ([]*domain.SalesEntry, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, domain.ErrInvalidDate
	}
	entries, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, domain.Unavailable("list sales entries", err)
	}
	return entries, nil
}
