package ports

import (
	"context"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// AuthService exchanges staff credentials for a signed token.
type AuthService interface {
	Login(ctx context.Context, staffID, password string) (string, *domain.User, error)
}

// IdentityProvisioner owns the login-credential lifecycle of a staff identity.
type IdentityProvisioner interface {
	CreateCredential(ctx context.Context, email, password, userID string) error
	// ImportCredential stores a credential whose password was hashed earlier.
	ImportCredential(ctx context.Context, email, passwordHash, userID string) error
	RevokeCredential(ctx context.Context, email string) error
}
