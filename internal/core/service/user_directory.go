package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

// systemActor performs startup provisioning on behalf of the deployment.
var systemActor = domain.Actor{UID: "system", Name: "System", Role: domain.RoleDeveloper}

// UserDirectoryService enforces role rules around staff record changes.
type UserDirectoryService struct {
	repo        ports.UserRepository
	identity    ports.IdentityProvisioner
	emailDomain string
	log         zerolog.Logger
}

func NewUserDirectoryService(repo ports.UserRepository, identity ports.IdentityProvisioner, emailDomain string, log zerolog.Logger) *UserDirectoryService {
	return &UserDirectoryService{repo: repo, identity: identity, emailDomain: emailDomain, log: log}
}

// CreateUser validates and stores a new staff record. Staff-id uniqueness is
// enforced by the repository's atomic insert, not by a prior lookup. When a
// password or password hash is supplied a login credential is provisioned;
// if that fails the record is removed again so no half-created identity
// remains.
func (s *UserDirectoryService) CreateUser(ctx context.Context, actor domain.Actor, in ports.CreateUserInput) (*domain.User, error) {
	if !actor.Role.Privileged() {
		return nil, domain.ErrForbidden
	}
	if actor.Role == domain.RoleManager && in.Role.Privileged() {
		return nil, domain.ErrPrivilegeEscalation
	}
	if !domain.ValidStaffID(in.StaffID) {
		return nil, domain.ErrInvalidStaffID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		StaffID:   in.StaffID,
		Name:      name,
		Email:     domain.LoginEmail(in.StaffID, s.emailDomain),
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, domain.Unavailable("create user", err)
	}

	if err := s.provision(ctx, user, in); err != nil {
		if delErr := s.repo.Delete(ctx, user.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", user.ID).Msg("failed to roll back user after credential error")
		}
		return nil, domain.Unavailable("provision credential", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("staff_id", user.StaffID).
		Str("role", string(user.Role)).
		Str("by", actor.UID).
		Msg("user created")
	return user, nil
}

// DeleteUser removes a staff record. A manager may remove themselves but no
// other manager or developer.
func (s *UserDirectoryService) DeleteUser(ctx context.Context, actor domain.Actor, targetID string) error {
	if !actor.Role.Privileged() {
		return domain.ErrForbidden
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return domain.Unavailable("delete user", err)
	}
	if actor.Role == domain.RoleManager && target.Role.Privileged() && actor.UID != target.ID {
		return domain.ErrPrivilegeBoundary
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return domain.Unavailable("delete user", err)
	}
	s.revoke(ctx, target)

	s.log.Info().Str("user_id", target.ID).Str("staff_id", target.StaffID).Str("by", actor.UID).Msg("user deleted")
	return nil
}

// GetUser returns a single staff record.
func (s *UserDirectoryService) GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if !canBrowseDirectory(actor) {
		return nil, domain.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Unavailable("get user", err)
	}
	return user, nil
}

// ListUsers returns every staff record.
func (s *UserDirectoryService) ListUsers(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !canBrowseDirectory(actor) {
		return nil, domain.ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Unavailable("list users", err)
	}
	return users, nil
}

// Bootstrap creates the first developer account. An already registered
// staff id is left untouched.
func (s *UserDirectoryService) Bootstrap(ctx context.Context, staffID, name, password string) error {
	_, err := s.CreateUser(ctx, systemActor, ports.CreateUserInput{
		Name:     name,
		StaffID:  staffID,
		Role:     domain.RoleDeveloper,
		Password: password,
	})
	if errors.Is(err, domain.ErrDuplicateStaffID) {
		s.log.Debug().Str("staff_id", staffID).Msg("bootstrap account already present")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

func (s *UserDirectoryService) provision(ctx context.Context, user *domain.User, in ports.CreateUserInput) error {
	switch {
	case in.PasswordHash != "":
		return s.identity.ImportCredential(ctx, user.Email, in.PasswordHash, user.ID)
	case in.Password != "":
		return s.identity.CreateCredential(ctx, user.Email, in.Password, user.ID)
	}
	return nil
}

func (s *UserDirectoryService) revoke(ctx context.Context, target *domain.User) {
	if err := s.identity.RevokeCredential(ctx, target.Email); err != nil {
		s.log.Warn().Err(err).Str("user_id", target.ID).Msg("failed to revoke credential")
	}
}

func canBrowseDirectory(actor domain.Actor) bool {
	return actor.Role.Privileged() || actor.Role == domain.RoleSupervisor
}
