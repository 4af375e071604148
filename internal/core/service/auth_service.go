package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements staff login.
type AuthService struct {
	users       ports.UserRepository
	creds       ports.CredentialRepository
	emailDomain string
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuthService(users ports.UserRepository, creds ports.CredentialRepository, emailDomain, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthService{
		users:       users,
		creds:       creds,
		emailDomain: emailDomain,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

// Login verifies the credential bound to staffID and returns a signed token
// carrying the actor claims.
func (s *AuthService) Login(ctx context.Context, staffID, password string) (string, *domain.User, error) {
	if !domain.ValidStaffID(staffID) || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, err := s.creds.FindByEmail(ctx, domain.LoginEmail(staffID, s.emailDomain))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, domain.Unavailable("login", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	// A credential can outlive its profile when the record was removed first.
	user, err := s.users.FindByID(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, domain.Unavailable("login", err)
	}
	if !user.Role.Valid() {
		return "", nil, domain.ErrForbidden
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"uid":      user.ID,
		"name":     user.Name,
		"role":     string(user.Role),
		"staff_id": user.StaffID,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// CredentialProvisioner implements ports.IdentityProvisioner on top of the
// credentials collection.
type CredentialProvisioner struct {
	repo ports.CredentialRepository
	cost int
}

func NewCredentialProvisioner(repo ports.CredentialRepository) *CredentialProvisioner {
	return &CredentialProvisioner{repo: repo, cost: bcrypt.DefaultCost}
}

func (p *CredentialProvisioner) CreateCredential(ctx context.Context, email, password, userID string) error {
	hash, err := hashPassword(password, p.cost)
	if err != nil {
		return err
	}
	return p.ImportCredential(ctx, email, hash, userID)
}

func (p *CredentialProvisioner) ImportCredential(ctx context.Context, email, passwordHash, userID string) error {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("import credential: %w", err)
	}
	return p.repo.Create(ctx, &domain.Credential{
		Email:        email,
		UserID:       userID,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
}

// hashPassword enforces the minimum length and returns the bcrypt hash.
func hashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// RevokeCredential removes the login for email. A missing credential is not an error.
func (p *CredentialProvisioner) RevokeCredential(ctx context.Context, email string) error {
	if err := p.repo.Delete(ctx, email); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
