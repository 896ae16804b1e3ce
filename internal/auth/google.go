package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

var ErrInvalidGoogleToken = errors.New("invalid google id token")

// GoogleProfile is the subset of ID token claims the sign-in flow uses
type GoogleProfile struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleVerifier validates Google ID tokens issued to our OAuth client
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify validates an ID token and returns the profile claims. Tokens without
// a verified email are rejected because email is our account identifier.
func (v *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*GoogleProfile, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	var profile GoogleProfile
	if err := idToken.Claims(&profile); err != nil {
		return nil, ErrInvalidGoogleToken
	}

	if profile.Email == "" || !profile.EmailVerified {
		return nil, ErrInvalidGoogleToken
	}

	return &profile, nil
}
