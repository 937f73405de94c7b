package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/config"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/repository"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	repos    repository.Repos
	atomic   repository.Atomic
	tokenMgr *auth.TokenManager
	cfg      config.AuthConfig
}

// AuthDependencies bundles requirements for the auth service.
type AuthDependencies struct {
	Repos  repository.Repos
	Atomic repository.Atomic
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		repos:    deps.Repos,
		atomic:   deps.Atomic,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		cfg:      cfg.Auth,
	}
}

// RegisterInput describes self-registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     domain.Role
}

// Register creates a new account. Role defaults to PETUGAS_LAPANGAN when
// not provided.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RolePetugasLapangan
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if len(input.Password) < s.cfg.PasswordMinLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": s.cfg.PasswordMinLength})
	}

	if _, err := s.repos.Users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
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
			UserID:  &user.ID,
			Action:  domain.ActionRegister,
			Details: "User " + user.Name + " registered",
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates an account and issues a token. Inactive accounts are
// rejected before password verification leaks anything.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*domain.User, string, time.Time, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account is inactive")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	var ip *string
	if ipAddress != "" {
		ip = &ipAddress
	}
	if err := s.repos.ActivityLogs.Create(ctx, &domain.ActivityLog{
		UserID:    &user.ID,
		Action:    domain.ActionLogin,
		Details:   "User " + user.Name + " logged in",
		IPAddress: ip,
	}); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, expiresAt, nil
}

// Logout records the sign-out in the activity log. Tokens are stateless, so
// the client discards its own copy; the audit trail is the server-side effect.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, ipAddress string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var ip *string
	if ipAddress != "" {
		ip = &ipAddress
	}
	if err := s.repos.ActivityLogs.Create(ctx, &domain.ActivityLog{
		UserID:    &actor.ID,
		Action:    domain.ActionLogout,
		Details:   "User " + actor.Name + " logged out",
		IPAddress: ip,
	}); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before updating to the new
// hash. Accounts may only change their own password.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, userID, currentPassword, newPassword string) error {
	if actor == nil || actor.ID != userID {
		return apperrors.NewForbidden("you can only change your own password")
	}
	if len(newPassword) < s.cfg.PasswordMinLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": s.cfg.PasswordMinLength})
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash

	err = s.atomic.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Update(ctx, user); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &user.ID,
			Action:  domain.ActionChangePassword,
			Details: "User changed password",
		})
	})
	return apperrors.MapError(err)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
