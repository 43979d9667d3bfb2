package identity

import (
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterInput contains the input for email/password sign-up
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	CompanyName string // Tenant name; defaults to the email
}

// LoginInput contains the input for email/password sign-in
type LoginInput struct {
	Email    string
	Password string
}

// FederatedLoginInput carries an ID token from an external identity provider
type FederatedLoginInput struct {
	IDToken string
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput ends a session. The refresh token is revoked too when given.
type LogoutInput struct {
	Session      *identity.Session
	RefreshToken string
}

// PasswordResetRequestInput starts a password reset
type PasswordResetRequestInput struct {
	Email string
}

// PasswordResetConfirmInput completes a password reset
type PasswordResetConfirmInput struct {
	Token       string
	NewPassword string
}

// UpdateTenantInput replaces the seller profile printed on documents
type UpdateTenantInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Provider    string     `json:"provider"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AuthResult is returned by every operation that opens a session
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
	Created               bool      `json:"created,omitempty"` // True when the sign-in provisioned a new tenant
}

// TenantResponse is the public view of a tenant
type TenantResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	TaxID              string    `json:"tax_id,omitempty"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToUserInfo maps a user to its public view
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		DisplayName: u.DisplayNameOrEmail(),
		Provider:    string(u.Provider),
		LastLoginAt: u.LastLoginAt,
	}
}

// ToTenantResponse maps a tenant to its public view
func ToTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{
		ID:                 t.ID,
		Name:               t.Name,
		Email:              t.Email,
		Phone:              t.Phone,
		Address:            t.Address,
		TaxID:              t.TaxID,
		SubscriptionStatus: string(t.SubscriptionStatus),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func newAuthResult(pair *auth.TokenPair, user *identity.User) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}
}
