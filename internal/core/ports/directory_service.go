package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// CreateUserInput carries the profile of a new staff member.
type CreateUserInput struct {
	Name     string
	StaffID  string
	Role     domain.Role
	Password string // optional; provisions a login credential when set
	// PasswordHash is an already hashed password, used instead of Password
	// when the plaintext was never kept.
	PasswordHash string
}

// UserDirectory manages staff records.
type UserDirectory interface {
	CreateUser(ctx context.Context, actor domain.Actor, in CreateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Actor, targetID string) error
	GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
}
