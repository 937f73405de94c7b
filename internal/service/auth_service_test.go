package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/config"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/repository/repositorytest"
)

func testAuthConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		PasswordMinLength:     8,
	}}
}

func newAuthEnv(t *testing.T) (*repositorytest.DB, *AuthService) {
	t.Helper()
	db := repositorytest.New()
	svc := NewAuthService(testAuthConfig(), AuthDependencies{
		Repos:  db.Repos(),
		Atomic: db.Atomic(),
	})
	return db, svc
}

func TestRegisterDefaultsToFieldOfficer(t *testing.T) {
	db, svc := newAuthEnv(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dewi@pln.test",
		Password: "rahasia-kuat",
		Name:     "Dewi",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RolePetugasLapangan, user.Role)
	require.True(t, user.IsActive)
	require.NoError(t, auth.ComparePassword(user.PasswordHash, "rahasia-kuat"))

	require.Len(t, db.Logs, 1)
	require.Equal(t, domain.ActionRegister, db.Logs[0].Action)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, svc := newAuthEnv(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dewi@pln.test",
		Password: "pendek",
		Name:     "Dewi",
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, svc := newAuthEnv(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-lain", Name: "Dewi Kedua",
	})
	requireDomainCode(t, err, "CONFLICT")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	_, svc := newAuthEnv(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "x@pln.test", Password: "rahasia-kuat", Name: "X",
		Role: domain.Role("SUPERADMIN"),
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestRegisterAcceptsSupervisor(t *testing.T) {
	_, svc := newAuthEnv(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "spv@pln.test", Password: "rahasia-kuat", Name: "Supervisor",
		Role: domain.RoleSupervisor,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleSupervisor, user.Role)
}

func TestLoginIssuesToken(t *testing.T) {
	db, svc := newAuthEnv(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)

	user, token, expiresAt, err := svc.Login(context.Background(), "dewi@pln.test", "rahasia-kuat", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, user.Email, claims.Email)

	// Login leaves an audit record with the caller IP.
	last := db.Logs[len(db.Logs)-1]
	require.Equal(t, domain.ActionLogin, last.Action)
	require.NotNil(t, last.IPAddress)
	require.Equal(t, "10.0.0.1", *last.IPAddress)
}

func TestLogoutWritesAuditRecord(t *testing.T) {
	db, svc := newAuthEnv(t)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user, "10.0.0.2"))

	last := db.Logs[len(db.Logs)-1]
	require.Equal(t, domain.ActionLogout, last.Action)
	require.Equal(t, user.ID, *last.UserID)
	require.Equal(t, "10.0.0.2", *last.IPAddress)

	requireDomainCode(t, svc.Logout(context.Background(), nil, ""), "UNAUTHORIZED")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, svc := newAuthEnv(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "dewi@pln.test", "salah", "")
	requireDomainCode(t, err, "UNAUTHORIZED")
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	db, svc := newAuthEnv(t)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)

	stored := db.Users[user.ID]
	stored.IsActive = false
	db.Users[user.ID] = stored

	_, _, _, err = svc.Login(context.Background(), "dewi@pln.test", "rahasia-kuat", "")
	requireDomainCode(t, err, "UNAUTHORIZED")
}

func TestChangePasswordSelfOnly(t *testing.T) {
	db, svc := newAuthEnv(t)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "dewi@pln.test", Password: "rahasia-kuat", Name: "Dewi",
	})
	require.NoError(t, err)
	other, err := svc.Register(context.Background(), RegisterInput{
		Email: "lain@pln.test", Password: "rahasia-kuat", Name: "Lain",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user, other.ID, "rahasia-kuat", "rahasia-baru")
	requireDomainCode(t, err, "FORBIDDEN")

	err = svc.ChangePassword(context.Background(), user, user.ID, "salah", "rahasia-baru")
	requireDomainCode(t, err, "VALIDATION_FAILED")

	require.NoError(t, svc.ChangePassword(context.Background(), user, user.ID, "rahasia-kuat", "rahasia-baru"))
	require.NoError(t, auth.ComparePassword(db.Users[user.ID].PasswordHash, "rahasia-baru"))
}
