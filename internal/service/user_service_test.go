package service

import (
	"bytes"
	"context"
	"testing"

	"refurbstock/internal/permission"
	"refurbstock/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	base := CreateUserRequest{
		FirstName:  "Ana",
		LastName:   "Lima",
		Username:   "ana",
		Contact:    "555-0101",
		EmployeeID: "E-1",
		Password:   "secret1",
		RoleID:     f.adminRole.ID.String(),
	}

	short := base
	short.Password = "123"
	_, err := f.userSvc.CreateUser(ctx, short)
	assert.ErrorIs(t, err, ErrValidation)

	blank := base
	blank.Contact = "  "
	_, err = f.userSvc.CreateUser(ctx, blank)
	assert.ErrorIs(t, err, ErrValidation)

	missingRole := base
	missingRole.RoleID = "3f1d8d4e-8a2b-4c7e-9d11-000000000000"
	_, err = f.userSvc.CreateUser(ctx, missingRole)
	assert.ErrorIs(t, err, ErrValidation)

	created, err := f.userSvc.CreateUser(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, testPrivilegedRole, created.Role)

	dup := base
	dup.EmployeeID = "E-2"
	_, err = f.userSvc.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateUserKeepsPasswordUnlessProvided(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "root", "secret1", f.adminRole.ID.String())
	first := "Renamed"

	_, err := f.userSvc.UpdateUser(adminCtx(), u.ID.String(), UpdateUserRequest{FirstName: &first})
	require.NoError(t, err)
	_, err = f.authSvc.Authenticate(context.Background(), "root", "secret1")
	require.NoError(t, err)

	pw := "secret2"
	_, err = f.userSvc.UpdateUser(adminCtx(), u.ID.String(), UpdateUserRequest{Password: &pw})
	require.NoError(t, err)
	_, err = f.authSvc.Authenticate(context.Background(), "root", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.authSvc.Authenticate(context.Background(), "root", "secret2")
	require.NoError(t, err)
}

func TestDeleteUserDeletesAvatarOnce(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	u := f.createUser(t, "ana", "secret1", f.adminRole.ID.String())

	withAvatar, err := f.userSvc.UploadAvatar(ctx, u.ID.String(), "me.png", bytes.NewReader(pngData(t)))
	require.NoError(t, err)
	require.NotEmpty(t, withAvatar.ImageStorageID)

	require.NoError(t, f.userSvc.DeleteUser(ctx, u.ID.String()))
	assert.Equal(t, []string{withAvatar.ImageStorageID}, f.assets.DeletedIDs())

	err = f.userSvc.DeleteUser(ctx, u.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.assets.DeletedIDs(), 1)
}

func TestDeleteUserSucceedsWhenAssetDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	u := f.createUser(t, "ana", "secret1", f.adminRole.ID.String())
	_, err := f.userSvc.UploadAvatar(ctx, u.ID.String(), "me.png", bytes.NewReader(pngData(t)))
	require.NoError(t, err)

	f.assets.DeleteErr = storagetest.ErrUploadFailed
	require.NoError(t, f.userSvc.DeleteUser(ctx, u.ID.String()))

	_, err = f.userSvc.GetUserByID(ctx, u.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadAvatarReplacesOldAsset(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	u := f.createUser(t, "ana", "secret1", f.adminRole.ID.String())

	first, err := f.userSvc.UploadAvatar(ctx, u.ID.String(), "a.png", bytes.NewReader(pngData(t)))
	require.NoError(t, err)
	second, err := f.userSvc.UploadAvatar(ctx, u.ID.String(), "b.png", bytes.NewReader(pngData(t)))
	require.NoError(t, err)

	assert.NotEqual(t, first.ImageStorageID, second.ImageStorageID)
	assert.Equal(t, []string{first.ImageStorageID}, f.assets.DeletedIDs())
}

func TestUploadAvatarFailureLeavesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	u := f.createUser(t, "ana", "secret1", f.adminRole.ID.String())
	f.assets.FailAll = true

	_, err := f.userSvc.UploadAvatar(ctx, u.ID.String(), "a.png", bytes.NewReader(pngData(t)))
	assert.ErrorIs(t, err, ErrUpstreamAsset)

	got, err := f.userSvc.GetUserByID(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.ImageURL)
	assert.Empty(t, got.ImageStorageID)
	assert.Empty(t, f.assets.DeletedIDs())
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.userSvc.EnsureBootstrapAdmin(ctx, "admin", "changeme", f.adminRole.ID))
	require.NoError(t, f.userSvc.EnsureBootstrapAdmin(ctx, "other", "changeme", f.adminRole.ID))

	users, total, err := f.userSvc.ListUsers(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "admin", users[0].Username)

	session, err := f.authSvc.Authenticate(ctx, "admin", "changeme")
	require.NoError(t, err)
	assert.True(t, session.User.Privileged)
}

func TestOnlyPrivilegedCallersManagePrivilegedAccounts(t *testing.T) {
	f := newFixture(t)
	tech := f.createRole(t, "Technician")
	_, err := f.permSvc.SetMatrix(adminCtx(), tech.ID, map[string]interface{}{
		"user": map[string]interface{}{"create": true, "edit": true, "delete": true},
	})
	require.NoError(t, err)
	self := f.createUser(t, "tech1", "secret1", tech.ID)
	root := f.createUser(t, "root", "secret1", f.adminRole.ID.String())
	caller := callerWith(
		[2]string{permission.User, permission.Create},
		[2]string{permission.User, permission.Edit},
		[2]string{permission.User, permission.Delete},
	)

	adminRole := f.adminRole.ID.String()
	_, err = f.userSvc.UpdateUser(caller, self.ID.String(), UpdateUserRequest{RoleID: &adminRole})
	assert.ErrorIs(t, err, ErrForbidden)
	session, err := f.authSvc.Authenticate(context.Background(), "tech1", "secret1")
	require.NoError(t, err)
	assert.False(t, session.User.Privileged)

	_, err = f.userSvc.CreateUser(caller, CreateUserRequest{
		FirstName: "New", LastName: "Admin", Username: "sneaky", Contact: "c",
		EmployeeID: "E-9", Password: "secret1", RoleID: adminRole,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	pw := "hijacked"
	_, err = f.userSvc.UpdateUser(caller, root.ID.String(), UpdateUserRequest{Password: &pw})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.authSvc.Authenticate(context.Background(), "root", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.userSvc.DeleteUser(caller, root.ID.String()), ErrForbidden)
	_, err = f.userSvc.UploadAvatar(caller, root.ID.String(), "a.png", bytes.NewReader(pngData(t)))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.assets.Uploaded)

	first := "Renamed"
	_, err = f.userSvc.UpdateUser(caller, self.ID.String(), UpdateUserRequest{FirstName: &first})
	require.NoError(t, err)
	_, err = f.userSvc.UpdateUser(adminCtx(), self.ID.String(), UpdateUserRequest{RoleID: &adminRole})
	require.NoError(t, err)
}
