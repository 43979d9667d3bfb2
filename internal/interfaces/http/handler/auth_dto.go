package handler

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest represents the request body for email sign-up
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=200"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"max=100"`
	CompanyName string `json:"company_name" binding:"max=200"`
}

// LoginRequest represents the request body for email sign-in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=128"`
}

// FederatedLoginRequest carries an ID token from the identity provider
type FederatedLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest starts a password reset
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email,max=200"`
}

// PasswordResetConfirmRequest completes a password reset
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UpdateTenantRequest replaces the seller profile
type UpdateTenantRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
	TaxID   string `json:"tax_id" binding:"max=50"`
}
