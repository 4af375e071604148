package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	"github.com/mealvilla/staff-portal/internal/pkg/metrics"
)

const requestListLimit = 200

// RequestLedgerService records supervisor requests and is the only writer of
// their status fields.
type RequestLedgerService struct {
	requests ports.RequestRepository
	users    ports.UserRepository
	notifier ports.Notifier
	hashCost int
	log      zerolog.Logger
}

func NewRequestLedgerService(requests ports.RequestRepository, users ports.UserRepository, notifier ports.Notifier, log zerolog.Logger) *RequestLedgerService {
	return &RequestLedgerService{requests: requests, users: users, notifier: notifier, hashCost: bcrypt.DefaultCost, log: log}
}

// CreateDeletionRequest proposes removing an existing staff member. The
// target's stored role decides eligibility; the caller cannot vouch for it.
func (s *RequestLedgerService) CreateDeletionRequest(ctx context.Context, actor domain.Actor, in ports.DeletionRequestInput) (*domain.StaffRequest, error) {
	if actor.Role != domain.RoleSupervisor {
		return nil, domain.ErrForbidden
	}

	target, err := s.users.FindByID(ctx, in.TargetUserUID)
	if err != nil {
		return nil, domain.Unavailable("create deletion request", err)
	}
	switch target.Role {
	case domain.RoleManager, domain.RoleDeveloper, domain.RoleSupervisor:
		return nil, domain.ErrInvalidTarget
	}

	req := newRequest(domain.KindDeletion, actor)
	req.TargetUserUID = target.ID
	req.TargetStaffID = target.StaffID
	req.TargetUserName = target.Name
	req.TargetUserRole = target.Role
	req.ReasonForRequest = strings.TrimSpace(in.Reason)

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, domain.Unavailable("create deletion request", err)
	}
	metrics.RequestsCreatedTotal.WithLabelValues(string(domain.KindDeletion)).Inc()

	s.emit(ctx, domain.NewNotification(actor, domain.RoleManager,
		"Staff deletion request",
		fmt.Sprintf("%s requested the removal of %s (%s).", actor.Name, target.Name, target.StaffID)))

	s.log.Info().Str("request_id", created.ID).Str("target", target.ID).Str("by", actor.UID).Msg("deletion request created")
	return created, nil
}

// CreateAddStaffRequest proposes a new staff member for manager approval.
func (s *RequestLedgerService) CreateAddStaffRequest(ctx context.Context, actor domain.Actor, in ports.AddStaffRequestInput) (*domain.StaffRequest, error) {
	if actor.Role != domain.RoleSupervisor {
		return nil, domain.ErrForbidden
	}
	if in.Role.Privileged() || !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if !domain.ValidStaffID(in.StaffID) {
		return nil, domain.ErrInvalidStaffID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	// Fast rejection only. The users collection index is what finally
	// guarantees uniqueness when the request is approved.
	existing, err := s.users.FindByStaffID(ctx, in.StaffID)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateStaffID
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, domain.Unavailable("create add-staff request", err)
	}

	// Only the hash is stored; it becomes the credential on approval.
	var hash string
	if in.InitialPassword != "" {
		if hash, err = hashPassword(in.InitialPassword, s.hashCost); err != nil {
			return nil, err
		}
	}

	req := newRequest(domain.KindAddStaff, actor)
	req.TargetStaffID = in.StaffID
	req.TargetUserName = name
	req.TargetUserRole = in.Role
	req.InitialPasswordHash = hash
	req.ReasonForRequest = strings.TrimSpace(in.Reason)

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, domain.Unavailable("create add-staff request", err)
	}
	metrics.RequestsCreatedTotal.WithLabelValues(string(domain.KindAddStaff)).Inc()

	s.emit(ctx, domain.NewNotification(actor, domain.RoleManager,
		"New staff request",
		fmt.Sprintf("%s requested adding %s (%s) as %s.", actor.Name, name, in.StaffID, in.Role)))

	s.log.Info().Str("request_id", created.ID).Str("staff_id", in.StaffID).Str("by", actor.UID).Msg("add-staff request created")
	return created, nil
}

// GetRequest fetches a request of the given kind.
func (s *RequestLedgerService) GetRequest(ctx context.Context, kind domain.RequestKind, id string) (*domain.StaffRequest, error) {
	if !kind.Valid() {
		return nil, domain.ErrRequestNotFound
	}
	req, err := s.requests.Get(ctx, kind, id)
	if err != nil {
		return nil, domain.Unavailable("get request", err)
	}
	return req, nil
}

// ListRequests returns requests of a kind. Supervisors only see their own.
func (s *RequestLedgerService) ListRequests(ctx context.Context, actor domain.Actor, kind domain.RequestKind, status domain.RequestStatus) ([]*domain.StaffRequest, error) {
	if !kind.Valid() {
		return nil, domain.ErrRequestNotFound
	}
	filter := ports.RequestFilter{Status: status, Limit: requestListLimit}
	switch {
	case actor.Role.Privileged():
	case actor.Role == domain.RoleSupervisor:
		filter.RequestedByUID = actor.UID
	default:
		return nil, domain.ErrForbidden
	}

	items, err := s.requests.List(ctx, kind, filter)
	if err != nil {
		return nil, domain.Unavailable("list requests", err)
	}
	return items, nil
}

// SetRequestStatus settles a pending request exactly once.
func (s *RequestLedgerService) SetRequestStatus(ctx context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error) {
	if !domain.StatusPending.CanTransitionTo(d.Status) {
		return nil, fmt.Errorf("set request status: invalid decision %q", d.Status)
	}
	updated, err := s.requests.Transition(ctx, kind, id, d)
	if err != nil {
		return nil, domain.Unavailable("set request status", err)
	}
	return updated, nil
}

// ReopenRequest returns a request approved by processedByUID to pending.
func (s *RequestLedgerService) ReopenRequest(ctx context.Context, kind domain.RequestKind, id, processedByUID string) error {
	if err := s.requests.Reopen(ctx, kind, id, processedByUID); err != nil {
		return domain.Unavailable("reopen request", err)
	}
	s.log.Info().Str("request_id", id).Str("kind", string(kind)).Str("by", processedByUID).Msg("request reopened")
	return nil
}

func (s *RequestLedgerService) emit(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Emit(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("title", n.Title).Msg("notification not delivered")
	}
}

func newRequest(kind domain.RequestKind, actor domain.Actor) *domain.StaffRequest {
	return &domain.StaffRequest{
		ID:              uuid.NewString(),
		Kind:            kind,
		RequestedByUID:  actor.UID,
		RequestedByName: actor.Name,
		RequestedByRole: actor.Role,
		Status:          domain.StatusPending,
	}
}
