package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/auth"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewUserService(f.users)
	root := f.user(t, "ROOT", models.RoleSysAdmin, true)
	admin := f.user(t, "ADM", models.RoleAdmin, true)

	u, err := svc.Create(ctx, admin.Principal(), services.NewUser{EmployeeCode: "E100", Name: "Ana", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.True(t, auth.CheckPassword(u.Password, "secret1"))

	_, err = svc.Create(ctx, admin.Principal(), services.NewUser{EmployeeCode: "E100", Name: "Dup", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = svc.Create(ctx, admin.Principal(), services.NewUser{EmployeeCode: "E101", Name: "Boss", Password: "secret1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	name := "Ana Lee"
	updated, err := svc.Update(ctx, admin.Principal(), u.ID, services.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lee", updated.Name)

	pw := "another"
	_, err = svc.Update(ctx, admin.Principal(), u.ID, services.UserPatch{Password: &pw})
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	_, err = svc.Update(ctx, admin.Principal(), 9999, services.UserPatch{Name: &name})
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, admin.Principal(), root.ID), services.ErrPermissionDenied)
	assert.ErrorIs(t, svc.Delete(ctx, root.Principal(), root.ID), services.ErrPermissionDenied)
	require.NoError(t, svc.Delete(ctx, root.Principal(), admin.ID))
	_, err = svc.Get(ctx, admin.ID)
	assert.ErrorIs(t, err, services.ErrNotFound, "deleted users are hidden")

	_, err = svc.Create(ctx, root.Principal(), services.NewUser{EmployeeCode: "ADM", Name: "Again", Password: "secret1"})
	require.ErrorIs(t, err, services.ErrConflict)
	assert.Contains(t, err.Error(), "deleted account")

	list, err := svc.List(ctx, root.Principal())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = svc.List(ctx, u.Principal())
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestPasswords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := services.NewUserService(f.users)
	login := services.NewAuthService(f.users)
	root := f.user(t, "ROOT", models.RoleSysAdmin, true)

	u, err := svc.Create(ctx, root.Principal(), services.NewUser{EmployeeCode: "E1", Name: "Ana", Password: "first1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.Principal(), "wrong", "second2")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, u.Principal(), "first1", "second2"))

	_, err = login.Login(ctx, "E1", "first1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	tok, err := login.Login(ctx, "E1", "second2")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	claims, err := auth.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)

	require.NoError(t, svc.ResetPassword(ctx, root.Principal(), u.ID, "third3"))
	_, err = login.Login(ctx, "E1", "third3")
	assert.NoError(t, err)

	_, err = login.Login(ctx, "NOPE", "third3")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	active := false
	_, err = svc.Update(ctx, root.Principal(), u.ID, services.UserPatch{IsActive: &active})
	require.NoError(t, err)
	_, err = login.Login(ctx, "E1", "third3")
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}
