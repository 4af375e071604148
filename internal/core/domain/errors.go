package domain

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden           = errors.New("access forbidden")
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrRequestNotFound     = fmt.Errorf("request %w", ErrNotFound)
	ErrNotFoundOrProcessed = errors.New("request not found or already processed")
	ErrAlreadyProcessed    = errors.New("request already processed")
	ErrInvalidTarget       = errors.New("target user cannot be removed through a request")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidStaffID      = errors.New("staff id must be exactly 6 digits")
	ErrEmptyName           = errors.New("name is required")
	ErrDuplicateStaffID    = errors.New("staff id already registered")
	ErrPrivilegeEscalation = errors.New("managers cannot assign manager or developer roles")
	ErrPrivilegeBoundary   = errors.New("managers cannot remove another manager or developer")
	ErrLocked              = errors.New("sales entry is finalized")
	ErrInvalidQuantity     = errors.New("quantities must be non-negative integers")
	ErrMissingIdentity     = errors.New("user id and staff id are required")
	ErrInvalidDate         = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrUnavailable         = errors.New("store unavailable")
)

var known = []error{
	ErrForbidden,
	ErrNotFound,
	ErrNotFoundOrProcessed,
	ErrAlreadyProcessed,
	ErrInvalidTarget,
	ErrInvalidRole,
	ErrInvalidStaffID,
	ErrEmptyName,
	ErrDuplicateStaffID,
	ErrPrivilegeEscalation,
	ErrPrivilegeBoundary,
	ErrLocked,
	ErrInvalidQuantity,
	ErrMissingIdentity,
	ErrInvalidDate,
	ErrInvalidCredentials,
	ErrWeakPassword,
	ErrUnavailable,
}

// UnavailableError carries a store failure (driver error, timeout) while
// still matching ErrUnavailable through errors.Is.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// IsKnown reports whether err belongs to the domain error taxonomy.
func IsKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Unavailable passes domain errors through untouched and wraps anything
// else (driver failures, deadline exceeded) as an UnavailableError.
func Unavailable(op string, err error) error {
	if err == nil || IsKnown(err) {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
