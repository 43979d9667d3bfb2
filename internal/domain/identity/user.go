package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthProvider identifies how an account signs in
type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderFirebase AuthProvider = "firebase"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// User is an account able to sign in.
// The user's ID doubles as the ID of the tenant it owns.
type User struct {
	shared.TenantAggregateRoot
	Email        string
	DisplayName  string
	PasswordHash string // Empty for federated accounts
	Provider     AuthProvider
	ProviderUID  string // Subject at the external identity provider
	Status       UserStatus
	LastLoginAt  *time.Time
}

// NewPasswordUser creates an account that signs in with email and password
func NewPasswordUser(email, displayName, password string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := newUser(email, displayName, AuthProviderPassword)
	user.PasswordHash = hash
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NewFederatedUser creates an account backed by an external identity provider
func NewFederatedUser(provider AuthProvider, providerUID, email, displayName string) (*User, error) {
	if provider == AuthProviderPassword || provider == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Federated provider is required")
	}
	if strings.TrimSpace(providerUID) == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER_UID", "Provider subject cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := newUser(email, displayName, provider)
	user.ProviderUID = providerUID
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

func newUser(email, displayName string, provider AuthProvider) *User {
	id := uuid.New()
	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(id),
		Email:               strings.ToLower(strings.TrimSpace(email)),
		DisplayName:         strings.TrimSpace(displayName),
		Provider:            provider,
		Status:              UserStatusActive,
	}
	user.ID = id
	return user
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ResetPassword replaces the password after a verified reset request
func (u *User) ResetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = hash
	if u.Provider == "" {
		u.Provider = AuthProviderPassword
	}
	u.UpdatedAt = time.Now()

	u.AddDomainEvent(NewPasswordResetEvent(u))
	return nil
}

// RecordLogin stamps a successful sign-in
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// CanLogin reports whether the account may sign in
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// DisplayNameOrEmail returns a human label for the account
func (u *User) DisplayNameOrEmail() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
