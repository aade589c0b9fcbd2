package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "secret"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("key", Claims{UserID: "u1", TenantID: "t1", Role: RoleHR}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("key", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Empty(t, claims.EmployeeID)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("key", Claims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("key", token)
	assert.Error(t, err)
}

func TestEnforcerFollowsRolePermissions(t *testing.T) {
	e, err := NewEnforcer(RolePermissions)
	require.NoError(t, err)
	ctx := context.Background()

	for role, perms := range RolePermissions {
		for _, perm := range perms {
			ok, err := e.HasPermission(ctx, role, perm)
			require.NoError(t, err)
			assert.True(t, ok, "%s should have %s", role, perm)
		}
	}

	ok, err := e.HasPermission(ctx, RoleEmployee, PermPayrollRun)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.HasPermission(ctx, "", PermLeaveRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeUsers struct {
	users map[string]User
	seen  []string
}

func (f *fakeUsers) FindActiveUserByEmail(_ context.Context, email string) (User, error) {
	user, ok := f.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, userID string) error {
	f.seen = append(f.seen, userID)
	return nil
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	store := &fakeUsers{users: map[string]User{
		"hr@example.com":  {ID: "u1", TenantID: "t1", Email: "hr@example.com", PasswordHash: hash, Role: RoleHR},
		"ada@example.com": {ID: "u2", TenantID: "t1", Email: "ada@example.com", PasswordHash: hash, Role: RoleEmployee, EmployeeID: "e2"},
	}}
	svc := NewService(store, "key", time.Hour)

	result, err := svc.Login(context.Background(), " hr@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, []string{"u1"}, store.seen)

	claims, err := ParseToken("key", result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.TenantID)

	_, err = svc.Login(context.Background(), "hr@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	linked, err := svc.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "e2", linked.EmployeeID)
	claims, err = ParseToken("key", linked.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "e2", claims.EmployeeID)
	assert.Equal(t, RoleHR, claims.Role)
}
