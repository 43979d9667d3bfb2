package handler

import (
	"context"
	"net/http"

	"github.com/erp/invoicing/internal/application/identity"
	domainidentity "github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// AuthService is the account and session API used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, input identity.RegisterInput) (*identity.AuthResult, error)
	Login(ctx context.Context, input identity.LoginInput) (*identity.AuthResult, error)
	FederatedLogin(ctx context.Context, input identity.FederatedLoginInput) (*identity.AuthResult, error)
	Refresh(ctx context.Context, input identity.RefreshTokenInput) (*identity.AuthResult, error)
	Logout(ctx context.Context, input identity.LogoutInput) error
	RequestPasswordReset(ctx context.Context, input identity.PasswordResetRequestInput) error
	ConfirmPasswordReset(ctx context.Context, input identity.PasswordResetConfirmInput) error
	Me(ctx context.Context, session *domainidentity.Session) (*identity.UserInfo, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// @Summary      Sign up with email and password
// @Description  Creates the account together with its tenant and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Account details"
// @Success      201 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// FederatedLogin godoc
// @Summary      Sign in with an identity provider token
// @Description  The first sign-in provisions the account and its tenant
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body FederatedLoginRequest true "ID token"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Success      201 {object} dto.Response{data=identity.AuthResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/federated [post]
func (h *AuthHandler) FederatedLogin(c *gin.Context) {
	var req FederatedLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.FederatedLogin(c.Request.Context(), identity.FederatedLoginInput{IDToken: req.IDToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// Refresh godoc
// @Summary      Rotate the token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), identity.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @Summary      End the current session
// @Tags         auth
// @Security     BearerAuth
// @Param        request body LogoutRequest false "Refresh token to revoke too"
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	// The body is optional
	var req LogoutRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		Session:      session,
		RefreshToken: req.RefreshToken,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RequestPasswordReset godoc
// @Summary      Email a password reset link
// @Description  Always succeeds so that registered addresses cannot be probed
// @Tags         auth
// @Param        request body PasswordResetRequest true "Account email"
// @Success      202 {object} dto.Response
// @Router       /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), identity.PasswordResetRequestInput{Email: req.Email}); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"message": "If the account exists, a reset link has been sent"}))
}

// ConfirmPasswordReset godoc
// @Summary      Set a new password with a reset token
// @Tags         auth
// @Param        request body PasswordResetConfirmRequest true "Token and new password"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), identity.PasswordResetConfirmInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me godoc
// @Summary      Current account
// @Tags         auth
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	info, err := h.authService.Me(c.Request.Context(), session)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
