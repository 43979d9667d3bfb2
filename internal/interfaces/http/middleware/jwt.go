package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Request keys and header names used by the auth middleware
const (
	SessionKey     = "session"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	AccessTokenKey = "access_token" // Query fallback for EventSource clients
)

// AccessTokenValidator validates access tokens; *auth.JWTService implements it
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Tokens is required for token validation
	Tokens AccessTokenValidator
	// Revocations is optional; when set, revoked tokens and users are rejected
	Revocations auth.RevocationStore
	// QueryTokenPaths may carry the token in the access_token query parameter
	QueryTokenPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

func (cfg JWTMiddlewareConfig) withDefaults() JWTMiddlewareConfig {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// JWTAuth authenticates the bearer token and attaches an identity.Session
// to both the gin context and the request context.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	cfg = cfg.withDefaults()

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, cfg.QueryTokenPaths)
		if !ok {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.Tokens.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.Revocations != nil {
			ctx := c.Request.Context()

			// Individual logout
			revoked, err := cfg.Revocations.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				// Fail open: an unavailable store must not lock every tenant out
				cfg.Logger.Error("Failed to check token revocation",
					zap.String("jti", claims.ID),
					zap.Error(err))
			} else if revoked {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
				return
			}

			// Password reset or forced sign-out
			invalidated, err := cfg.Revocations.IsIssuedBeforeRevocation(ctx, claims.UserID, claims.GetIssuedAtTime())
			if err != nil {
				cfg.Logger.Error("Failed to check user revocation",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
			} else if invalidated {
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "User session has been invalidated")
				return
			}
		}

		session, err := claims.Session()
		if err != nil {
			handleAuthError(c, cfg, err, "Token carries malformed identifiers")
			return
		}

		c.Set(SessionKey, session)
		c.Request = c.Request.WithContext(identity.WithSession(c.Request.Context(), session))

		cfg.Logger.Debug("JWT authentication successful",
			zap.String("user_id", claims.UserID),
			zap.String("tenant_id", claims.TenantID),
		)

		c.Next()
	}
}

func bearerToken(c *gin.Context, queryPaths []string) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		return token, token != ""
	}
	for _, p := range queryPaths {
		if c.FullPath() == p {
			token := c.Query(AccessTokenKey)
			return token, token != ""
		}
	}
	return "", false
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	text := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, text = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, text = dto.ErrCodeTokenRevoked, "Session has been revoked. Please sign in again"
	case errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingTenantID),
		errors.Is(err, auth.ErrMissingUserID):
		code, text = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	abortWithError(c, http.StatusUnauthorized, code, text)
}

// GetSession returns the session attached by JWTAuth
func GetSession(c *gin.Context) (*identity.Session, bool) {
	if v, exists := c.Get(SessionKey); exists {
		if s, ok := v.(*identity.Session); ok && s != nil {
			return s, true
		}
	}
	return identity.SessionFromContext(c.Request.Context())
}
