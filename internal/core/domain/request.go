package domain

import "time"

// RequestKind distinguishes the two supervisor-initiated proposals.
type RequestKind string

const (
	KindDeletion RequestKind = "deletion"
	KindAddStaff RequestKind = "add_staff"
)

// Valid reports whether k is a known request kind.
func (k RequestKind) Valid() bool {
	return k == KindDeletion || k == KindAddStaff
}

// RequestStatus represents the lifecycle state of a staff request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDeclined RequestStatus = "declined"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusPending: {StatusApproved, StatusDeclined},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StaffRequest is a supervisor proposal to add or remove a staff member.
// Deletion requests reference an existing user through TargetUserUID; add-staff
// requests carry everything needed to create one.
type StaffRequest struct {
	ID   string      `json:"id" bson:"_id"`
	Kind RequestKind `json:"kind" bson:"kind"`

	RequestedByUID  string `json:"requested_by_uid" bson:"requested_by_uid"`
	RequestedByName string `json:"requested_by_name" bson:"requested_by_name"`
	RequestedByRole Role   `json:"requested_by_role" bson:"requested_by_role"`

	TargetUserUID   string `json:"target_user_uid,omitempty" bson:"target_user_uid,omitempty"`
	TargetStaffID   string `json:"target_staff_id" bson:"target_staff_id"`
	TargetUserName  string `json:"target_user_name" bson:"target_user_name"`
	TargetUserRole  Role   `json:"target_user_role" bson:"target_user_role"`
	// InitialPasswordHash is the bcrypt hash of the proposed login password.
	InitialPasswordHash string `json:"-" bson:"initial_password_hash,omitempty"`

	Status           RequestStatus `json:"status" bson:"status"`
	RequestTimestamp time.Time     `json:"request_timestamp" bson:"request_timestamp"`
	ReasonForRequest string        `json:"reason_for_request,omitempty" bson:"reason_for_request,omitempty"`

	ProcessedByUID     string     `json:"processed_by_uid,omitempty" bson:"processed_by_uid,omitempty"`
	ProcessedByName    string     `json:"processed_by_name,omitempty" bson:"processed_by_name,omitempty"`
	ProcessedTimestamp *time.Time `json:"processed_timestamp,omitempty" bson:"processed_timestamp,omitempty"`
	ManagerFeedback    string     `json:"manager_feedback,omitempty" bson:"manager_feedback,omitempty"`
}

// Pending reports whether the request is still awaiting a decision.
func (r *StaffRequest) Pending() bool {
	return r.Status == StatusPending
}

// RequestDecision is the payload of a pending → approved|declined transition.
type RequestDecision struct {
	Status          RequestStatus
	ProcessedByUID  string
	ProcessedByName string
	Feedback        string
}
