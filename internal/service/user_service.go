package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/config"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/repository"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// UserService covers account administration.
type UserService struct {
	repos  repository.Repos
	atomic repository.Atomic
	cfg    config.AuthConfig
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	Repos  repository.Repos
	Atomic repository.Atomic
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{repos: deps.Repos, atomic: deps.Atomic, cfg: cfg.Auth}
}

// UserCreateInput describes admin account creation payload.
type UserCreateInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     domain.Role
}

// UserUpdateInput carries partial account edits. Role and IsActive are only
// honored for admin actors.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Role     *domain.Role
	IsActive *bool
}

// List returns all accounts, newest first. Admin only.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}
	users, err := s.repos.Users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account. Admins read anyone; everyone else only self.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdminUtama && actor.ID != id {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Create adds an account on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}
	if input.Role == "" {
		input.Role = domain.RolePetugasLapangan
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if len(input.Password) < s.cfg.PasswordMinLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": s.cfg.PasswordMinLength})
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	err = s.atomic.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Create(ctx, user); err != nil {
			if apperrors.IsUniqueViolation(err, "users_email_key") {
				return apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
			}
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionCreateUser,
			Details: "Admin created user " + user.Name,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update edits an account. Admins edit anyone including role and active
// flag; everyone else only their own name, email, phone.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, input UserUpdateInput) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	isAdmin := actor.Role == domain.RoleAdminUtama
	if !isAdmin && actor.ID != id {
		return nil, apperrors.NewForbidden("access denied")
	}

	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if isAdmin {
		if input.Role != nil {
			if !input.Role.Valid() {
				return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
			}
			user.Role = *input.Role
		}
		if input.IsActive != nil {
			user.IsActive = *input.IsActive
		}
	}

	err = s.atomic.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Update(ctx, user); err != nil {
			if apperrors.IsUniqueViolation(err, "users_email_key") {
				return apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
			}
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionUpdateUser,
			Details: "User " + user.Name + " updated",
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes an account. Admin only; self-deletion is rejected.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return apperrors.NewForbidden("access denied")
	}
	if actor.ID == id {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}

	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Delete(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": id})
			}
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionDeleteUser,
			Details: "Admin deleted user " + id,
		})
	})
	return apperrors.MapError(err)
}
