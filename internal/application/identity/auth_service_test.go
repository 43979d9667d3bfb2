package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc         *AuthService
	users       *MockUserRepository
	jwt         *auth.JWTService
	revocations *auth.InMemoryRevocationStore
	resets      *auth.InMemoryResetTokenStore
	mailer      *mail.RecordingMailer
}

func setupAuthService(verifier auth.FederatedVerifier) *authFixture {
	f := &authFixture{
		users: new(MockUserRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			RefreshSecret:          "test-refresh-secret-key-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "invoicing-test",
			MaxRefreshCount:        5,
		}),
		revocations: auth.NewInMemoryRevocationStore(),
		resets:      auth.NewInMemoryResetTokenStore(),
		mailer:      &mail.RecordingMailer{},
	}
	f.svc = NewAuthService(f.users, f.jwt, f.revocations, f.resets, verifier, f.mailer,
		AuthServiceConfig{ResetTokenTTL: time.Hour, ResetURL: "https://app.example.com/reset"}, nil)
	return f
}

func newTestUser(t *testing.T, email string) *identity.User {
	t.Helper()
	user, err := identity.NewPasswordUser(email, "Test User", "secret123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and tenant with the same id", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("ExistsByEmail", ctx, "owner@acme.test").Return(false, nil)
		f.users.On("CreateWithTenant", ctx, mock.Anything, mock.Anything).Return(nil)
		f.users.On("Save", ctx, mock.Anything).Return(nil)

		result, err := f.svc.Register(ctx, RegisterInput{
			Email:       "owner@acme.test",
			Password:    "secret123",
			CompanyName: "Acme Trading",
		})
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, result.User.ID, result.User.TenantID)

		created := f.users.Calls[1].Arguments
		user := created.Get(1).(*identity.User)
		tenant := created.Get(2).(*identity.Tenant)
		assert.Equal(t, user.ID, tenant.ID)
		assert.Equal(t, "Acme Trading", tenant.Name)
	})

	t.Run("rejects a registered email", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("ExistsByEmail", ctx, "owner@acme.test").Return(true, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Email: "owner@acme.test", Password: "secret123"})
		assertCode(t, err, "ALREADY_EXISTS")
		f.users.AssertNotCalled(t, "CreateWithTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("ExistsByEmail", ctx, "owner@acme.test").Return(false, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Email: "owner@acme.test", Password: "short"})
		assertCode(t, err, "INVALID_PASSWORD")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := newTestUser(t, "owner@acme.test")

	t.Run("success", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
		f.users.On("Save", ctx, user).Return(nil)

		result, err := f.svc.Login(ctx, LoginInput{Email: "owner@acme.test", Password: "secret123"})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.NotNil(t, user.LastLoginAt)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.TenantID.String(), claims.TenantID)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("FindByEmail", ctx, "nobody@acme.test").Return(nil, shared.ErrNotFound)
		f.users.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)

		_, unknownErr := f.svc.Login(ctx, LoginInput{Email: "nobody@acme.test", Password: "secret123"})
		_, wrongErr := f.svc.Login(ctx, LoginInput{Email: "owner@acme.test", Password: "wrong-pass1"})

		assertCode(t, unknownErr, "AUTH_FAILED")
		assertCode(t, wrongErr, "AUTH_FAILED")
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("storage errors are not disguised", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("FindByEmail", ctx, "owner@acme.test").Return(nil, errStorage)

		_, err := f.svc.Login(ctx, LoginInput{Email: "owner@acme.test", Password: "secret123"})
		assert.ErrorIs(t, err, errStorage)
	})
}

func TestAuthService_FederatedLogin(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{
		token:    "good-token",
		identity: auth.FederatedIdentity{Subject: "fb-uid-1", Email: "fed@acme.test", Name: "Fed Co"},
	}

	t.Run("provisions tenant on first sign-in", func(t *testing.T) {
		f := setupAuthService(verifier)
		f.users.On("FindByProvider", ctx, identity.AuthProviderFirebase, "fb-uid-1").Return(nil, shared.ErrNotFound)
		f.users.On("ExistsByEmail", ctx, "fed@acme.test").Return(false, nil)
		f.users.On("CreateWithTenant", ctx, mock.Anything, mock.Anything).Return(nil)
		f.users.On("Save", ctx, mock.Anything).Return(nil)

		result, err := f.svc.FederatedLogin(ctx, FederatedLoginInput{IDToken: "good-token"})
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.Equal(t, "firebase", result.User.Provider)
	})

	t.Run("returning account", func(t *testing.T) {
		f := setupAuthService(verifier)
		existing, err := identity.NewFederatedUser(identity.AuthProviderFirebase, "fb-uid-1", "fed@acme.test", "")
		require.NoError(t, err)
		f.users.On("FindByProvider", ctx, identity.AuthProviderFirebase, "fb-uid-1").Return(existing, nil)
		f.users.On("Save", ctx, existing).Return(nil)

		result, err := f.svc.FederatedLogin(ctx, FederatedLoginInput{IDToken: "good-token"})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, existing.ID, result.User.ID)
		f.users.AssertNotCalled(t, "CreateWithTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email owned by a password account", func(t *testing.T) {
		f := setupAuthService(verifier)
		f.users.On("FindByProvider", ctx, identity.AuthProviderFirebase, "fb-uid-1").Return(nil, shared.ErrNotFound)
		f.users.On("ExistsByEmail", ctx, "fed@acme.test").Return(true, nil)

		_, err := f.svc.FederatedLogin(ctx, FederatedLoginInput{IDToken: "good-token"})
		assertCode(t, err, "AUTH_FAILED")
	})

	t.Run("bad token", func(t *testing.T) {
		f := setupAuthService(verifier)
		_, err := f.svc.FederatedLogin(ctx, FederatedLoginInput{IDToken: "forged"})
		assertCode(t, err, "AUTH_FAILED")
	})

	t.Run("disabled", func(t *testing.T) {
		f := setupAuthService(nil)
		_, err := f.svc.FederatedLogin(ctx, FederatedLoginInput{IDToken: "good-token"})
		assertCode(t, err, "AUTH_FAILED")
	})
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	f := setupAuthService(nil)
	user := newTestUser(t, "owner@acme.test")

	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{TenantID: user.TenantID, UserID: user.ID, Email: user.Email})
	require.NoError(t, err)
	f.users.On("FindByID", ctx, user.ID).Return(user, nil)

	result, err := f.svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)

	_, err = f.svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assertCode(t, err, "TOKEN_REVOKED")
}

func TestAuthService_RefreshRejectsGarbage(t *testing.T) {
	f := setupAuthService(nil)
	_, err := f.svc.Refresh(context.Background(), RefreshTokenInput{RefreshToken: "not-a-jwt"})
	assertCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := setupAuthService(nil)
	user := newTestUser(t, "owner@acme.test")

	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{TenantID: user.TenantID, UserID: user.ID, Email: user.Email})
	require.NoError(t, err)
	claims, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	session, err := claims.Session()
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, LogoutInput{Session: session, RefreshToken: pair.RefreshToken}))

	revoked, err := f.revocations.IsTokenRevoked(ctx, session.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assertCode(t, err, "TOKEN_REVOKED")

	assert.ErrorIs(t, f.svc.Logout(ctx, LogoutInput{}), shared.ErrUnauthorized)
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email gets the same answer and no mail", func(t *testing.T) {
		f := setupAuthService(nil)
		f.users.On("FindByEmail", ctx, "nobody@acme.test").Return(nil, shared.ErrNotFound)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, PasswordResetRequestInput{Email: "nobody@acme.test"}))
		assert.Empty(t, f.mailer.Sent())
	})

	t.Run("request then confirm", func(t *testing.T) {
		f := setupAuthService(nil)
		user := newTestUser(t, "owner@acme.test")
		f.users.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("Save", ctx, user).Return(nil)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, PasswordResetRequestInput{Email: "owner@acme.test"}))
		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "owner@acme.test", sent[0].ToEmail)

		idx := strings.Index(sent[0].Text, "?token=")
		require.Positive(t, idx)
		token := strings.TrimSpace(sent[0].Text[idx+len("?token="):])

		require.NoError(t, f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirmInput{Token: token, NewPassword: "newsecret9"}))
		assert.True(t, user.VerifyPassword("newsecret9"))
		assert.False(t, user.VerifyPassword("secret123"))

		revoked, err := f.revocations.IsIssuedBeforeRevocation(ctx, user.ID.String(), time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, revoked, "sessions opened before the reset are ended")

		err = f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirmInput{Token: token, NewPassword: "another99"})
		assertCode(t, err, "INVALID_RESET_TOKEN")
	})

	t.Run("federated accounts get no reset mail", func(t *testing.T) {
		f := setupAuthService(nil)
		fed, err := identity.NewFederatedUser(identity.AuthProviderFirebase, "uid", "fed@acme.test", "")
		require.NoError(t, err)
		f.users.On("FindByEmail", ctx, "fed@acme.test").Return(fed, nil)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, PasswordResetRequestInput{Email: "fed@acme.test"}))
		assert.Empty(t, f.mailer.Sent())
	})
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	f := setupAuthService(nil)
	user := newTestUser(t, "owner@acme.test")
	f.users.On("FindByID", ctx, user.ID).Return(user, nil)

	info, err := f.svc.Me(ctx, &identity.Session{UserID: user.ID, TenantID: user.TenantID})
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.test", info.Email)
	assert.Equal(t, "Test User", info.DisplayName)

	_, err = f.svc.Me(ctx, nil)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
