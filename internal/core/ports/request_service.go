package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// DeletionRequestInput identifies the staff member a supervisor wants removed.
type DeletionRequestInput struct {
	TargetUserUID string
	Reason        string
}

// AddStaffRequestInput carries the profile a supervisor wants created.
type AddStaffRequestInput struct {
	Name            string
	StaffID         string
	Role            domain.Role
	InitialPassword string
	Reason          string
}

// RequestLedger creates and settles staff requests.
type RequestLedger interface {
	CreateDeletionRequest(ctx context.Context, actor domain.Actor, in DeletionRequestInput) (*domain.StaffRequest, error)
	CreateAddStaffRequest(ctx context.Context, actor domain.Actor, in AddStaffRequestInput) (*domain.StaffRequest, error)
	GetRequest(ctx context.Context, kind domain.RequestKind, id string) (*domain.StaffRequest, error)
	ListRequests(ctx context.Context, actor domain.Actor, kind domain.RequestKind, status domain.RequestStatus) ([]*domain.StaffRequest, error)
	SetRequestStatus(ctx context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error)
	ReopenRequest(ctx context.Context, kind domain.RequestKind, id, processedByUID string) error
}

// DeclineInput is the optional context of a decline decision. The requester
// is only notified when RequesterUID is set.
type DeclineInput struct {
	Feedback       string
	RequesterUID   string
	TargetUserName string
}

// ApprovalWorkflow settles pending requests and applies their side effects.
type ApprovalWorkflow interface {
	ApproveDeletion(ctx context.Context, actor domain.Actor, requestID string) (*domain.StaffRequest, error)
	DeclineDeletion(ctx context.Context, actor domain.Actor, requestID string, in DeclineInput) (*domain.StaffRequest, error)
	ApproveAddStaff(ctx context.Context, actor domain.Actor, requestID string) (*domain.StaffRequest, error)
	DeclineAddStaff(ctx context.Context, actor domain.Actor, requestID string, in DeclineInput) (*domain.StaffRequest, error)
}
