package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

// Google accounts take the email as username, suffixed when a legacy local
// account already holds that name.
const maxUsernameAttempts = 3

var googleIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// GoogleAuthService signs users in with a Google ID token, creating the local
// account on first login.
type GoogleAuthService struct {
	verifier IdentityVerifier
	auth     *AuthService
}

func NewGoogleAuthService(verifier IdentityVerifier, auth *AuthService) *GoogleAuthService {
	return &GoogleAuthService{verifier: verifier, auth: auth}
}

func (s *GoogleAuthService) Login(ctx context.Context, idToken string, meta model.ClientMeta) (model.TokenPair, error) {
	assertion, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		slog.InfoContext(ctx, "google id token rejected", "error", err)
		return model.TokenPair{}, apierror.Unauthenticated.WithDetails("invalid google id token")
	}

	if _, ok := googleIssuers[assertion.Issuer]; !ok {
		return model.TokenPair{}, apierror.Unauthenticated.WithDetails("unexpected token issuer")
	}
	if !assertion.ExpiresAt.After(s.auth.now()) {
		return model.TokenPair{}, apierror.Unauthenticated.WithDetails("google id token expired")
	}
	if !assertion.EmailVerified {
		return model.TokenPair{}, apierror.Unauthenticated.WithDetails("google email is not verified")
	}

	email := strings.ToLower(strings.TrimSpace(assertion.Email))
	user, err := s.findOrCreate(ctx, email, assertion.Name)
	if err != nil {
		return model.TokenPair{}, err
	}

	if !user.Verified {
		if err := s.claimUnverified(ctx, user); err != nil {
			return model.TokenPair{}, err
		}
		user.Verified = true
	}

	return s.auth.issueSession(ctx, user, meta, "")
}

// claimUnverified hands an unverified local account to the verified Google
// identity of its email. Whoever registered it never proved the mailbox, so
// their password, sessions and pending codes are discarded first.
func (s *GoogleAuthService) claimUnverified(ctx context.Context, user model.User) error {
	hash, err := s.unusableHash()
	if err != nil {
		return err
	}
	if err := s.auth.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if _, err := s.auth.refreshTokens.RevokeAllForUser(ctx, user.ID, s.auth.now()); err != nil {
		return err
	}
	if err := s.auth.verifications.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	if err := s.auth.resets.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	if err := s.auth.users.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	slog.WarnContext(ctx, "unverified account claimed by google login", "user_id", user.ID)
	return nil
}

func (s *GoogleAuthService) findOrCreate(ctx context.Context, email string, name string) (model.User, error) {
	user, err := s.auth.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apierror.UserNotFound) {
		return model.User{}, err
	}

	// A concurrent first login may have created the user since the lookup.
	exists, err := s.auth.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return s.auth.users.FindByEmail(ctx, email)
	}

	hash, err := s.unusableHash()
	if err != nil {
		return model.User{}, err
	}

	user = model.User{
		Record:       model.NewRecord(uuid.NewString(), s.auth.now().UTC()),
		Username:     email,
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		Verified:     true,
		AuthProvider: model.AuthProviderGoogle,
		Roles:        []model.Role{{Name: model.RoleUser}},
	}

	for attempt := 0; ; attempt++ {
		err = s.auth.users.Create(ctx, user)
		if errors.Is(err, apierror.UsernameExists) && attempt < maxUsernameAttempts {
			suffix, err := newShortSuffix()
			if err != nil {
				return model.User{}, err
			}
			user.Username = email + "-" + suffix
			continue
		}
		break
	}
	if errors.Is(err, apierror.EmailExists) {
		return s.auth.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return model.User{}, err
	}

	slog.InfoContext(ctx, "user created from google login", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *GoogleAuthService) unusableHash() (string, error) {
	secret, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	return s.auth.hasher.Hash(secret)
}
