package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// clockSkew tolerated between the signing and validating hosts
const clockSkew = 5 * time.Second

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMissingTenantID    = errors.New("missing tenant_id in claims")
	ErrMissingUserID      = errors.New("missing user_id in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims are the invoicing claims carried by both token types.
// The registered jti identifies a token for revocation.
type Claims struct {
	jwt.RegisteredClaims
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

// TokenPair is returned by login, federated sign-in and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// tokenKind is the signing secret and lifetime of one token type
type tokenKind struct {
	typ    TokenType
	secret []byte
	ttl    time.Duration
}

// JWTService issues and validates HS256 session tokens
type JWTService struct {
	access          tokenKind
	refresh         tokenKind
	issuer          string
	maxRefreshCount int
	parser          *jwt.Parser
}

// NewJWTService creates the service; refresh tokens share the access secret unless one is configured
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		access:          tokenKind{typ: TokenTypeAccess, secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
		refresh:         tokenKind{typ: TokenTypeRefresh, secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		issuer:          cfg.Issuer,
		maxRefreshCount: cfg.MaxRefreshCount,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Issuer),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateTokenInput identifies the user a pair is issued to
type GenerateTokenInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Email    string
}

// GenerateTokenPair issues a fresh pair, starting the refresh chain
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	return s.issuePair(input, 0, time.Now())
}

func (s *JWTService) issuePair(input GenerateTokenInput, refreshCount int, now time.Time) (*TokenPair, error) {
	accessToken, err := s.sign(s.access, input, 0, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(s.refresh, input, refreshCount, now)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(s.access.ttl),
		RefreshTokenExpiresAt: now.Add(s.refresh.ttl),
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) sign(kind tokenKind, input GenerateTokenInput, refreshCount int, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kind.ttl)),
		},
		TenantID:     input.TenantID.String(),
		UserID:       input.UserID.String(),
		Email:        input.Email,
		TokenType:    kind.typ,
		RefreshCount: refreshCount,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(kind.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind.typ, err)
	}
	return signed, nil
}

// ValidateAccessToken verifies an access token and returns its claims
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, s.access)
}

// ValidateRefreshToken verifies a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, s.refresh)
}

func (s *JWTService) validate(token string, kind tokenKind) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return kind.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}

	switch {
	case claims.TokenType != kind.typ:
		return nil, ErrInvalidTokenType
	case claims.TenantID == "":
		return nil, ErrMissingTenantID
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// RefreshTokenPair exchanges a refresh token for a new pair and returns the old token's claims.
// A chain of refreshes is capped at the configured count; after that the user signs in again.
func (s *JWTService) RefreshTokenPair(refreshToken string) (*TokenPair, *Claims, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.RefreshCount >= s.maxRefreshCount {
		return nil, nil, ErrMaxRefreshExceeded
	}

	tenantID, errTenant := claims.GetTenantUUID()
	userID, errUser := claims.GetUserUUID()
	if errTenant != nil || errUser != nil {
		return nil, nil, ErrInvalidClaims
	}

	pair, err := s.issuePair(GenerateTokenInput{TenantID: tenantID, UserID: userID, Email: claims.Email}, claims.RefreshCount+1, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// GetRefreshTokenExpiration is the lifetime of refresh tokens, the longest a session can outlive a revocation marker
func (s *JWTService) GetRefreshTokenExpiration() time.Duration {
	return s.refresh.ttl
}

// GetTenantUUID parses the tenant claim
func (c *Claims) GetTenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// GetUserUUID parses the user claim
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Session converts access token claims into the request session
func (c *Claims) Session() (*identity.Session, error) {
	tenantID, errTenant := c.GetTenantUUID()
	userID, errUser := c.GetUserUUID()
	if errTenant != nil || errUser != nil {
		return nil, ErrInvalidClaims
	}
	session := &identity.Session{
		UserID:   userID,
		TenantID: tenantID,
		Email:    c.Email,
		TokenID:  c.ID,
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}
	return session, nil
}

// GetIssuedAtTime is the iat claim, zero when absent
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
