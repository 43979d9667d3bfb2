package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/erp/invoicing/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// Sign-in failures share one code and a generic message
var (
	errSignInFailed    = shared.NewDomainError(shared.ErrAuthFailed.Code, "Sign-in failed")
	errTokenRevoked    = shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked. Please sign in again")
	errResetInvalid    = shared.NewDomainError("INVALID_RESET_TOKEN", "Password reset link is invalid or has expired")
	errEmailRegistered = shared.NewDomainError(shared.ErrAlreadyExists.Code, "An account with this email already exists")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	ResetTokenTTL time.Duration // Lifetime of password reset links
	ResetURL      string        // Front-end page receiving ?token=
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		ResetTokenTTL: time.Hour,
		ResetURL:      "http://localhost:3000/reset-password",
	}
}

// AuthService handles sign-up, sign-in and session lifetime
type AuthService struct {
	userRepo       identity.UserRepository
	jwtService     *auth.JWTService
	revocations    auth.RevocationStore
	resetTokens    auth.ResetTokenStore
	verifier       auth.FederatedVerifier
	mailer         mail.Mailer
	eventPublisher shared.EventPublisher
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service.
// verifier may be nil when federated sign-in is disabled.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.RevocationStore,
	resetTokens auth.ResetTokenStore,
	verifier auth.FederatedVerifier,
	mailer mail.Mailer,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = mail.NewLogMailer(logger)
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = DefaultAuthServiceConfig().ResetTokenTTL
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		resetTokens: resetTokens,
		verifier:    verifier,
		mailer:      mailer,
		config:      config,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates an account together with the tenant it owns
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errEmailRegistered
	}

	user, err := identity.NewPasswordUser(input.Email, input.DisplayName, input.Password)
	if err != nil {
		return nil, err
	}
	tenant, err := identity.NewTenant(user.ID, input.CompanyName, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.CreateWithTenant(ctx, user, tenant); err != nil {
		return nil, err
	}
	s.publish(ctx, user, tenant)

	s.logger.Info("Account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenant.ID.String()))

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.Created = true
	return result, nil
}

// Login authenticates with email and password.
// Unknown emails, wrong passwords and disabled accounts fail the same way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Login for unknown email")
			return nil, shared.ErrAuthFailed
		}
		return nil, err
	}

	if !user.CanLogin() || !user.VerifyPassword(input.Password) {
		s.logger.Info("Login rejected", zap.String("user_id", user.ID.String()))
		return nil, shared.ErrAuthFailed
	}

	return s.openSession(ctx, user)
}

// FederatedLogin signs in with an external ID token, provisioning tenant and user on first use
func (s *AuthService) FederatedLogin(ctx context.Context, input FederatedLoginInput) (*AuthResult, error) {
	if s.verifier == nil {
		s.logger.Warn("Federated login attempted but no verifier is configured")
		return nil, errSignInFailed
	}

	fid, err := s.verifier.Verify(ctx, input.IDToken)
	if err != nil {
		s.logger.Info("Federated token rejected", zap.Error(err))
		return nil, errSignInFailed
	}

	user, err := s.userRepo.FindByProvider(ctx, identity.AuthProviderFirebase, fid.Subject)
	if err == nil {
		if !user.CanLogin() {
			return nil, errSignInFailed
		}
		return s.openSession(ctx, user)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// An email already owned by another sign-in method is never taken over
	exists, err := s.userRepo.ExistsByEmail(ctx, fid.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Info("Federated login for an email registered with another provider")
		return nil, errSignInFailed
	}

	user, err = identity.NewFederatedUser(identity.AuthProviderFirebase, fid.Subject, fid.Email, fid.Name)
	if err != nil {
		return nil, err
	}
	tenant, err := identity.NewTenant(user.ID, fid.Name, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateWithTenant(ctx, user, tenant); err != nil {
		return nil, err
	}
	s.publish(ctx, user, tenant)

	s.logger.Info("Federated account provisioned",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", fid.Provider))

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.Created = true
	return result, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old refresh token
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, mapTokenError(auth.ErrInvalidClaims)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errSignInFailed
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, errSignInFailed
	}

	pair, _, err := s.jwtService.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if s.revocations != nil {
		if err := s.revocations.RevokeToken(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
		}
	}

	return newAuthResult(pair, user), nil
}

// Logout revokes the session's access token and, if given, its refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.Session == nil {
		return shared.ErrUnauthorized
	}
	if s.revocations == nil {
		return nil
	}

	if err := s.revocations.RevokeToken(ctx, input.Session.TokenID, input.Session.Remaining(time.Now())); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.Session.UserID.String() {
			if err := s.revocations.RevokeToken(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		}
	}

	s.logger.Info("User signed out", zap.String("user_id", input.Session.UserID.String()))
	return nil
}

// RequestPasswordReset mails a reset link. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, input PasswordResetRequestInput) error {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.CanLogin() || user.Provider != identity.AuthProviderPassword {
		return nil
	}

	token, err := s.resetTokens.Issue(ctx, user.ID, s.config.ResetTokenTTL)
	if err != nil {
		return err
	}

	link := s.config.ResetURL + "?token=" + url.QueryEscape(token)
	msg := mail.Message{
		ToName:  user.DisplayName,
		ToEmail: user.Email,
		Subject: "Reset your password",
		Text: "Use the link below to choose a new password. It expires in " +
			s.config.ResetTokenTTL.String() + ".\n\n" + link,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// ConfirmPasswordReset sets a new password and ends every existing session
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input PasswordResetConfirmInput) error {
	userID, err := s.resetTokens.Consume(ctx, input.Token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			return errResetInvalid
		}
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errResetInvalid
		}
		return err
	}
	if err := user.ResetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, user)

	if s.revocations != nil {
		if err := s.revocations.RevokeUser(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
			s.logger.Warn("Failed to revoke sessions after password reset", zap.Error(err))
		}
	}

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}

// Me returns the account behind the session
func (s *AuthService) Me(ctx context.Context, session *identity.Session) (*UserInfo, error) {
	if session == nil {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) openSession(ctx context.Context, user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Email:    user.Email,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLogin(time.Now())
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Warn("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return newAuthResult(pair, user), nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil {
		return nil
	}
	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	revoked, err = s.revocations.IsIssuedBeforeRevocation(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, aggregates ...eventSource) {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if s.eventPublisher == nil || len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish identity events", zap.Error(err))
		}
	}
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
