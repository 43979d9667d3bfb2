package auth

import (
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "invoicing-test",
		MaxRefreshCount:        3,
	}
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{TenantID: uuid.New(), UserID: uuid.New(), Email: "owner@sunrise.test"}
}

// forge signs arbitrary claims with the access secret
func forge(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(input GenerateTokenInput, typ TokenType) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "invoicing-test",
			Audience:  jwt.ClaimStrings{"invoicing-test"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		TenantID:  input.TenantID.String(),
		UserID:    input.UserID.String(),
		TokenType: typ,
	}
}

func TestNewJWTService_RefreshSecretFallback(t *testing.T) {
	cfg := testJWTConfig()
	assert.Equal(t, []byte(cfg.RefreshSecret), NewJWTService(cfg).refresh.secret)

	cfg.RefreshSecret = ""
	svc := NewJWTService(cfg)
	assert.Equal(t, []byte(cfg.Secret), svc.refresh.secret)
	assert.Equal(t, cfg.RefreshTokenExpiration, svc.GetRefreshTokenExpiration())
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	input := newTestInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, input.TenantID.String(), access.TenantID)
	assert.Equal(t, input.UserID.String(), access.Subject)
	assert.Equal(t, input.Email, access.Email)
	assert.NotEmpty(t, access.ID)
	assert.InDelta(t, (15 * time.Minute).Seconds(), access.GetRemainingTTL().Seconds(), 5)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.Zero(t, refresh.RefreshCount)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	cfg := testJWTConfig()
	svc := NewJWTService(cfg)
	input := newTestInput()
	secret := []byte(cfg.Secret)

	expired := validClaims(input, TokenTypeAccess)
	expired.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	early := validClaims(input, TokenTypeAccess)
	early.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

	foreign := validClaims(input, TokenTypeAccess)
	foreign.Issuer = "someone-else"

	refreshTyped := validClaims(input, TokenTypeRefresh)
	noTenant := validClaims(input, TokenTypeAccess)
	noTenant.TenantID = ""
	noUser := validClaims(input, TokenTypeAccess)
	noUser.UserID = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"expired", forge(t, jwt.SigningMethodHS256, secret, expired), ErrExpiredToken},
		{"not yet valid", forge(t, jwt.SigningMethodHS256, secret, early), ErrTokenNotYetValid},
		{"wrong issuer", forge(t, jwt.SigningMethodHS256, secret, foreign), ErrInvalidToken},
		{"wrong secret", forge(t, jwt.SigningMethodHS256, []byte("another-secret-of-sufficient-size"), validClaims(input, TokenTypeAccess)), ErrInvalidToken},
		{"other HMAC algorithm", forge(t, jwt.SigningMethodHS512, secret, validClaims(input, TokenTypeAccess)), ErrInvalidToken},
		{"unsigned", forge(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(input, TokenTypeAccess)), ErrInvalidToken},
		{"refresh type", forge(t, jwt.SigningMethodHS256, secret, refreshTyped), ErrInvalidTokenType},
		{"missing tenant", forge(t, jwt.SigningMethodHS256, secret, noTenant), ErrMissingTenantID},
		{"missing user", forge(t, jwt.SigningMethodHS256, secret, noUser), ErrMissingUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = ""
	svc := NewJWTService(cfg)

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenPair_Chain(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	input := newTestInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		next, old, err := svc.RefreshTokenPair(pair.RefreshToken)
		require.NoError(t, err, "refresh %d", i)
		assert.Equal(t, i-1, old.RefreshCount)

		claims, err := svc.ValidateRefreshToken(next.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, i, claims.RefreshCount)
		assert.Equal(t, input.Email, claims.Email)
		pair = next
	}

	_, _, err = svc.RefreshTokenPair(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestRefreshTokenPair_InvalidInput(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, _, err = svc.RefreshTokenPair(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	bad := validClaims(newTestInput(), TokenTypeRefresh)
	bad.TenantID = "not-a-uuid"
	_, _, err = svc.RefreshTokenPair(forge(t, jwt.SigningMethodHS256, []byte(testJWTConfig().RefreshSecret), bad))
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_Session(t *testing.T) {
	input := newTestInput()
	claims := validClaims(input, TokenTypeAccess)
	claims.Email = input.Email

	session, err := claims.Session()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, session.UserID)
	assert.Equal(t, input.TenantID, session.TenantID)
	assert.Equal(t, input.Email, session.Email)
	assert.Equal(t, claims.ID, session.TokenID)
	assert.Equal(t, claims.ExpiresAt.Time, session.ExpiresAt)
	assert.Equal(t, claims.IssuedAt.Time, claims.GetIssuedAtTime())

	claims.UserID = "nope"
	_, err = claims.Session()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_ZeroTimes(t *testing.T) {
	var c Claims
	assert.True(t, c.GetIssuedAtTime().IsZero())
	assert.Zero(t, c.GetRemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, c.GetRemainingTTL())
}
