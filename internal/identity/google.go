package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/idtoken"
)

var ErrMissingEmail = errors.New("email not found in claims")

// Assertion is the verified content of a third-party identity token.
type Assertion struct {
	Subject       string
	Issuer        string
	Email         string
	EmailVerified bool
	Name          string
	ExpiresAt     time.Time
}

// GoogleVerifier validates Google ID tokens for one OAuth client id.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token string, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks the signature against Google's published keys and the
// audience against the configured client id.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Assertion, error) {
	if v.clientID == "" {
		return Assertion{}, errors.New("google client id is not configured")
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return Assertion{}, fmt.Errorf("validate google id token: %w", err)
	}

	email, ok := payload.Claims["email"].(string)
	if !ok || email == "" {
		return Assertion{}, ErrMissingEmail
	}
	name, _ := payload.Claims["name"].(string)

	return Assertion{
		Subject:       payload.Subject,
		Issuer:        payload.Issuer,
		Email:         email,
		EmailVerified: claimBool(payload.Claims["email_verified"]),
		Name:          name,
		ExpiresAt:     time.Unix(payload.Expires, 0).UTC(),
	}, nil
}

// email_verified arrives as a bool or, from some endpoints, as the string "true".
func claimBool(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true"
	default:
		return false
	}
}
