package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordUser(t *testing.T) {
	t.Run("creates user owning its tenant", func(t *testing.T) {
		user, err := NewPasswordUser(" Owner@Example.COM ", "Owner", "secret123")
		require.NoError(t, err)

		assert.Equal(t, "owner@example.com", user.Email)
		assert.Equal(t, user.ID, user.TenantID)
		assert.Equal(t, AuthProviderPassword, user.Provider)
		assert.NotEqual(t, "secret123", user.PasswordHash)
		assert.True(t, user.CanLogin())
		assert.True(t, user.VerifyPassword("secret123"))
		assert.False(t, user.VerifyPassword("wrong-pass1"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserRegistered, events[0].EventType())
	})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret123"},
		{"bad email", "not-an-email", "secret123"},
		{"short password", "a@b.test", "abc1"},
		{"no digit", "a@b.test", "abcdefghij"},
		{"no letter", "a@b.test", "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPasswordUser(tt.email, "", tt.password)
			assert.Error(t, err)
		})
	}
}

func TestNewFederatedUser(t *testing.T) {
	user, err := NewFederatedUser(AuthProviderFirebase, "uid-123", "fed@example.com", "")
	require.NoError(t, err)

	assert.Equal(t, "uid-123", user.ProviderUID)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.VerifyPassword(""))
	assert.Equal(t, "fed@example.com", user.DisplayNameOrEmail())

	_, err = NewFederatedUser(AuthProviderPassword, "uid", "fed@example.com", "")
	assert.Error(t, err)
	_, err = NewFederatedUser(AuthProviderFirebase, " ", "fed@example.com", "")
	assert.Error(t, err)
}

func TestUser_ResetPassword(t *testing.T) {
	user, err := NewPasswordUser("owner@example.com", "", "secret123")
	require.NoError(t, err)
	user.ClearDomainEvents()

	require.NoError(t, user.ResetPassword("another456"))
	assert.True(t, user.VerifyPassword("another456"))
	assert.False(t, user.VerifyPassword("secret123"))
	require.Len(t, user.GetDomainEvents(), 1)

	assert.Error(t, user.ResetPassword("short"))
}

func TestUser_RecordLogin(t *testing.T) {
	user, err := NewFederatedUser(AuthProviderFirebase, "uid", "fed@example.com", "Fed")
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	user.RecordLogin(now)
	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, now, *user.LastLoginAt)

	user.Status = UserStatusDisabled
	assert.False(t, user.CanLogin())
}
