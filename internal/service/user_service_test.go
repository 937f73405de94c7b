package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/repository/repositorytest"
)

func newUserEnv(t *testing.T) (*repositorytest.DB, *UserService, domain.User, domain.User) {
	t.Helper()
	db := repositorytest.New()
	admin := db.AddUser(domain.User{Name: "Admin", Email: "admin@pln.test", Role: domain.RoleAdminUtama, IsActive: true})
	officer := db.AddUser(domain.User{Name: "Budi", Email: "budi@pln.test", Role: domain.RolePetugasLapangan, IsActive: true})
	svc := NewUserService(testAuthConfig(), UserDependencies{
		Repos:  db.Repos(),
		Atomic: db.Atomic(),
	})
	return db, svc, admin, officer
}

func TestUserListAdminOnly(t *testing.T) {
	_, svc, admin, officer := newUserEnv(t)

	users, err := svc.List(context.Background(), &admin)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = svc.List(context.Background(), &officer)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestUserGetSelfOrAdmin(t *testing.T) {
	_, svc, admin, officer := newUserEnv(t)

	got, err := svc.Get(context.Background(), &officer, officer.ID)
	require.NoError(t, err)
	require.Equal(t, officer.ID, got.ID)

	_, err = svc.Get(context.Background(), &officer, admin.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	got, err = svc.Get(context.Background(), &admin, officer.ID)
	require.NoError(t, err)
	require.Equal(t, officer.ID, got.ID)
}

func TestUserCreateByAdmin(t *testing.T) {
	db, svc, admin, officer := newUserEnv(t)

	created, err := svc.Create(context.Background(), &admin, UserCreateInput{
		Email:    "baru@pln.test",
		Password: "rahasia-kuat",
		Name:     "Petugas Baru",
		Role:     domain.RolePetugasLapangan,
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, domain.ActionCreateUser, db.Logs[len(db.Logs)-1].Action)

	_, err = svc.Create(context.Background(), &officer, UserCreateInput{
		Email: "lagi@pln.test", Password: "rahasia-kuat", Name: "X",
	})
	requireDomainCode(t, err, "FORBIDDEN")

	_, err = svc.Create(context.Background(), &admin, UserCreateInput{
		Email: "baru@pln.test", Password: "rahasia-kuat", Name: "Duplikat",
	})
	requireDomainCode(t, err, "CONFLICT")
}

func TestUserUpdateRoleChangesAdminOnly(t *testing.T) {
	db, svc, admin, officer := newUserEnv(t)

	role := domain.RoleSupervisor
	inactive := false
	updated, err := svc.Update(context.Background(), &admin, officer.ID, UserUpdateInput{
		Role:     &role,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleSupervisor, updated.Role)
	require.False(t, updated.IsActive)

	// Non-admin self-edit silently ignores role and active flag.
	selfRole := domain.RoleAdminUtama
	active := true
	name := "Budi Baru"
	current := db.Users[officer.ID]
	selfUpdated, err := svc.Update(context.Background(), &current, officer.ID, UserUpdateInput{
		Name:     &name,
		Role:     &selfRole,
		IsActive: &active,
	})
	require.NoError(t, err)
	require.Equal(t, "Budi Baru", selfUpdated.Name)
	require.Equal(t, domain.RoleSupervisor, selfUpdated.Role)
	require.False(t, selfUpdated.IsActive)
}

func TestUserDeleteRules(t *testing.T) {
	db, svc, admin, officer := newUserEnv(t)

	err := svc.Delete(context.Background(), &admin, admin.ID)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	err = svc.Delete(context.Background(), &officer, admin.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	require.NoError(t, svc.Delete(context.Background(), &admin, officer.ID))
	_, ok := db.Users[officer.ID]
	require.False(t, ok)

	err = svc.Delete(context.Background(), &admin, officer.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}
