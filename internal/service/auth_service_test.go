package service

import (
	"context"
	"testing"
	"time"

	"refurbstock/internal/permission"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateRejectsUnknownUser(t *testing.T) {
	f := newFixture(t)

	session, err := f.authSvc.Authenticate(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, session)
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	f := newFixture(t)
	role := f.createRole(t, "Technician")
	_, err := f.permSvc.SetAll(adminCtx(), role.ID, true)
	require.NoError(t, err)
	f.createUser(t, "tech", "secret1", role.ID)

	session, err := f.authSvc.Authenticate(context.Background(), "tech", "secret2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, session)
}

func TestAuthenticateMatchesUsernameExactly(t *testing.T) {
	f := newFixture(t)
	role := f.createRole(t, "Technician")
	_, err := f.permSvc.SetAll(adminCtx(), role.ID, true)
	require.NoError(t, err)
	f.createUser(t, "tech", "secret1", role.ID)

	for _, username := range []string{" tech", "tech ", "TECH"} {
		_, err := f.authSvc.Authenticate(context.Background(), username, "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials, username)
	}
	_, err = f.authSvc.Authenticate(context.Background(), "tech", "secret1")
	require.NoError(t, err)
}

func TestAuthenticateRequiresConfiguredPermissions(t *testing.T) {
	f := newFixture(t)
	role := f.createRole(t, "Intern")
	f.createUser(t, "intern", "secret1", role.ID)

	session, err := f.authSvc.Authenticate(context.Background(), "intern", "secret1")
	assert.ErrorIs(t, err, ErrPermissionsNotConfigured)
	assert.Nil(t, session)

	_, err = f.permSvc.SetMatrix(adminCtx(), role.ID, map[string]interface{}{
		"product": map[string]interface{}{"list": true},
	})
	require.NoError(t, err)

	session, err = f.authSvc.Authenticate(context.Background(), "intern", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.User.Allows(permission.Product, permission.List))
	assert.False(t, session.User.Allows(permission.Product, permission.Delete))
}

func TestPrivilegedRoleNeverNeedsMatrix(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.permRepo.DeleteByRoleID(context.Background(), f.adminRole.ID))
	f.createUser(t, "root", "secret1", f.adminRole.ID.String())

	session, err := f.authSvc.Authenticate(context.Background(), "root", "secret1")
	require.NoError(t, err)
	assert.True(t, session.User.Privileged)
	assert.Len(t, session.User.Permissions.Granted(), 19)
	assert.True(t, session.User.Allows(permission.ActivityLog, permission.Assign))
}

func TestResolveSessionReflectsCurrentMatrix(t *testing.T) {
	f := newFixture(t)
	role := f.createRole(t, "Technician")
	_, err := f.permSvc.SetAll(adminCtx(), role.ID, true)
	require.NoError(t, err)
	f.createUser(t, "tech", "secret1", role.ID)

	session, err := f.authSvc.Authenticate(context.Background(), "tech", "secret1")
	require.NoError(t, err)

	_, err = f.permSvc.SetAll(adminCtx(), role.ID, false)
	require.NoError(t, err)

	id, err := f.authSvc.ResolveSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.False(t, id.Allows(permission.Product, permission.List))
	assert.Equal(t, "Technician", id.RoleName)
}

func TestResolveSessionRejectsDeletedUser(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "root", "secret1", f.adminRole.ID.String())

	session, err := f.authSvc.Authenticate(context.Background(), "root", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.userSvc.DeleteUser(adminCtx(), u.ID.String()))

	_, err = f.authSvc.ResolveSession(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestTokenExpiry(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	userID := uuid.New()
	token, exp, err := m.Issue(userID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	now = now.Add(2 * time.Hour)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = NewTokenManager("two", time.Hour).Parse("")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
