package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrFederatedTokenInvalid is returned when an identity provider token cannot be verified
var ErrFederatedTokenInvalid = errors.New("federated identity token is invalid")

// FederatedIdentity is the verified identity behind a third-party sign-in
type FederatedIdentity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
	Provider      string
}

// FederatedVerifier verifies ID tokens issued by an external identity provider
type FederatedVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// FirebaseConfig selects the Firebase project used for federated sign-in
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirebaseVerifier verifies Firebase Authentication ID tokens
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes the Firebase app and its auth client
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the token signature, audience and revocation
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrFederatedTokenInvalid
	}

	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFederatedTokenInvalid, err)
	}

	identity := &FederatedIdentity{
		Subject:  token.UID,
		Provider: token.Firebase.SignInProvider,
	}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = strings.ToLower(email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrFederatedTokenInvalid)
	}
	return identity, nil
}

var _ FederatedVerifier = (*FirebaseVerifier)(nil)
