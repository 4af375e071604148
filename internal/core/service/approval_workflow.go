package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	"github.com/mealvilla/staff-portal/internal/pkg/metrics"
)

// ApprovalWorkflowService settles pending staff requests on behalf of a
// manager or developer and applies their directory side effects.
type ApprovalWorkflowService struct {
	ledger    ports.RequestLedger
	directory ports.UserDirectory
	notifier  ports.Notifier
	log       zerolog.Logger
}

func NewApprovalWorkflowService(ledger ports.RequestLedger, directory ports.UserDirectory, notifier ports.Notifier, log zerolog.Logger) *ApprovalWorkflowService {
	return &ApprovalWorkflowService{ledger: ledger, directory: directory, notifier: notifier, log: log}
}

// ApproveDeletion claims the request as approved, then removes the target
// staff record. A target that is already gone does not fail the approval;
// any other removal failure puts the request back to pending.
func (s *ApprovalWorkflowService) ApproveDeletion(ctx context.Context, actor domain.Actor, requestID string) (*domain.StaffRequest, error) {
	req, err := s.pending(ctx, actor, domain.KindDeletion, requestID)
	if err != nil {
		return nil, err
	}

	// Claim before deleting: a request declined meanwhile keeps its target.
	updated, err := s.settle(ctx, actor, req, domain.StatusApproved, "")
	if err != nil {
		return nil, err
	}

	if err := s.directory.DeleteUser(ctx, actor, req.TargetUserUID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.failed(domain.KindDeletion)
			if reErr := s.ledger.ReopenRequest(ctx, domain.KindDeletion, req.ID, actor.UID); reErr != nil {
				s.log.Error().Err(reErr).Str("request_id", req.ID).Msg("failed to reopen request after deletion error")
			}
			return nil, fmt.Errorf("approve deletion: %w", err)
		}
		s.log.Warn().
			Str("request_id", req.ID).
			Str("target", req.TargetUserUID).
			Msg("deletion target already absent, approving anyway")
	}

	s.emit(ctx, domain.NewNotification(actor, req.RequestedByRole,
		"Deletion request approved",
		fmt.Sprintf("Your request to remove %s (%s) was approved by %s.", req.TargetUserName, req.TargetStaffID, actor.Name)).
		ForUser(req.RequestedByUID))
	s.emit(ctx, domain.NewNotification(actor, domain.RoleAll,
		"Staff member removed",
		fmt.Sprintf("%s (%s) is no longer part of the team.", req.TargetUserName, req.TargetStaffID)))

	return updated, nil
}

// DeclineDeletion marks the request declined. The requester is notified only
// when the caller names them in the decline input; the notice always goes to
// the stored requester.
func (s *ApprovalWorkflowService) DeclineDeletion(ctx context.Context, actor domain.Actor, requestID string, in ports.DeclineInput) (*domain.StaffRequest, error) {
	return s.decline(ctx, actor, domain.KindDeletion, requestID, in, "Deletion request declined")
}

// ApproveAddStaff creates the proposed staff record and marks the request
// approved. The request stays pending when the record cannot be created.
func (s *ApprovalWorkflowService) ApproveAddStaff(ctx context.Context, actor domain.Actor, requestID string) (*domain.StaffRequest, error) {
	req, err := s.pending(ctx, actor, domain.KindAddStaff, requestID)
	if err != nil {
		return nil, err
	}

	user, err := s.directory.CreateUser(ctx, actor, ports.CreateUserInput{
		Name:         req.TargetUserName,
		StaffID:      req.TargetStaffID,
		Role:         req.TargetUserRole,
		PasswordHash: req.InitialPasswordHash,
	})
	if err != nil {
		s.failed(domain.KindAddStaff)
		return nil, fmt.Errorf("approve add-staff: %w", err)
	}

	updated, err := s.settle(ctx, actor, req, domain.StatusApproved, "")
	if err != nil {
		// Another decision won the race; undo the record created above.
		if delErr := s.directory.DeleteUser(ctx, actor, user.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", user.ID).Str("request_id", req.ID).Msg("failed to compensate user creation")
		}
		return nil, err
	}

	s.emit(ctx, domain.NewNotification(actor, req.RequestedByRole,
		"Staff request approved",
		fmt.Sprintf("%s (%s) was added as %s by %s.", user.Name, user.StaffID, user.Role, actor.Name)).
		ForUser(req.RequestedByUID))

	return updated, nil
}

// DeclineAddStaff marks the request declined, mirroring DeclineDeletion.
func (s *ApprovalWorkflowService) DeclineAddStaff(ctx context.Context, actor domain.Actor, requestID string, in ports.DeclineInput) (*domain.StaffRequest, error) {
	return s.decline(ctx, actor, domain.KindAddStaff, requestID, in, "Staff request declined")
}

func (s *ApprovalWorkflowService) decline(ctx context.Context, actor domain.Actor, kind domain.RequestKind, requestID string, in ports.DeclineInput, title string) (*domain.StaffRequest, error) {
	req, err := s.pending(ctx, actor, kind, requestID)
	if err != nil {
		return nil, err
	}

	updated, err := s.settle(ctx, actor, req, domain.StatusDeclined, in.Feedback)
	if err != nil {
		return nil, err
	}

	if in.RequesterUID == "" {
		return updated, nil
	}
	name := in.TargetUserName
	if name == "" {
		name = req.TargetUserName
	}
	msg := fmt.Sprintf("Your request concerning %s (%s) was declined by %s.", name, req.TargetStaffID, actor.Name)
	if in.Feedback != "" {
		msg += " Feedback: " + in.Feedback
	}
	s.emit(ctx, domain.NewNotification(actor, req.RequestedByRole, title, msg).ForUser(req.RequestedByUID))

	return updated, nil
}

// pending authorizes actor and loads a request that is still awaiting a decision.
func (s *ApprovalWorkflowService) pending(ctx context.Context, actor domain.Actor, kind domain.RequestKind, id string) (*domain.StaffRequest, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}

	req, err := s.ledger.GetRequest(ctx, kind, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFoundOrProcessed
		}
		return nil, err
	}
	if !req.Pending() {
		return nil, domain.ErrNotFoundOrProcessed
	}
	return req, nil
}

func (s *ApprovalWorkflowService) settle(ctx context.Context, actor domain.Actor, req *domain.StaffRequest, status domain.RequestStatus, feedback string) (*domain.StaffRequest, error) {
	updated, err := s.ledger.SetRequestStatus(ctx, req.Kind, req.ID, domain.RequestDecision{
		Status:          status,
		ProcessedByUID:  actor.UID,
		ProcessedByName: actor.Name,
		Feedback:        feedback,
	})
	if err != nil {
		s.failed(req.Kind)
		return nil, err
	}

	metrics.RequestsProcessedTotal.WithLabelValues(string(req.Kind), string(status)).Inc()
	s.log.Info().
		Str("request_id", req.ID).
		Str("kind", string(req.Kind)).
		Str("status", string(status)).
		Str("by", actor.UID).
		Msg("request processed")
	return updated, nil
}

func (s *ApprovalWorkflowService) failed(kind domain.RequestKind) {
	metrics.RequestsProcessedTotal.WithLabelValues(string(kind), "failed").Inc()
}

func (s *ApprovalWorkflowService) emit(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Emit(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("title", n.Title).Msg("notification not delivered")
	}
}
