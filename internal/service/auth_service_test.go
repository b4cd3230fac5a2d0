package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arkive/internal/mailer"
	"arkive/internal/model"
	"arkive/pkg/apierror"
)

type authFixture struct {
	clock         *fakeClock
	users         *fakeUsers
	refresh       *fakeRefreshTokens
	verifications *fakeCodes
	resets        *fakeCodes
	denylist      *fakeDenylist
	mailer        *fakeMailer
	tokens        *TokenService
	auth          *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		clock:         newFakeClock(),
		users:         newFakeUsers(),
		refresh:       newFakeRefreshTokens(),
		verifications: newFakeCodes(apierror.VerificationTokenInvalid),
		resets:        newFakeCodes(apierror.ResetPasswordTokenInvalid),
		denylist:      newFakeDenylist(),
		mailer:        &fakeMailer{},
	}
	f.tokens = newTestTokenService(f.clock, f.denylist)
	f.auth = NewAuthService(f.users, f.refresh, f.verifications, f.resets, f.tokens, testHasher(), f.mailer, AuthConfig{
		VerificationCodeTTL: 10 * time.Minute,
		ResetCodeTTL:        10 * time.Minute,
		FrontendURL:         "https://app.example.com",
	})
	f.auth.now = f.clock.Now
	return f
}

func registerRequest(username string) model.RegisterRequest {
	return model.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret1!",
		FullName: "Test " + username,
	}
}

func (f *authFixture) lastCode(t *testing.T) string {
	t.Helper()
	code, ok := f.mailer.last().Data["Code"].(string)
	require.True(t, ok, "no verification code was mailed")
	return code
}

func (f *authFixture) registerVerified(t *testing.T, username string) model.UserView {
	t.Helper()
	ctx := context.Background()

	user, err := f.auth.Register(ctx, registerRequest(username))
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyEmail(ctx, f.lastCode(t)))
	return user
}

func TestAuthServiceRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates an unverified user and mails a code", func(t *testing.T) {
		f := newAuthFixture(t)

		req := registerRequest("bob")
		req.Email = "Bob@Example.com"
		user, err := f.auth.Register(ctx, req)
		require.NoError(t, err)
		require.False(t, user.Verified)
		require.Equal(t, "bob@example.com", user.Email)
		require.Equal(t, []string{model.RoleUser}, user.Roles)
		require.Equal(t, model.AuthProviderLocal, user.AuthProvider)

		sent := f.mailer.last()
		require.Equal(t, "bob@example.com", sent.To)
		require.Equal(t, mailer.TemplateVerification, sent.Template)
		require.Len(t, f.lastCode(t), 6)
		require.Equal(t, 1, f.verifications.len())

		stored, err := f.users.FindByUsername(ctx, "bob")
		require.NoError(t, err)
		require.NotEqual(t, "Secret1!", stored.PasswordHash)
	})

	t.Run("rejects duplicate username and email", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.Register(ctx, registerRequest("bob"))
		require.NoError(t, err)

		dupName := registerRequest("BOB")
		dupName.Email = "other@example.com"
		_, err = f.auth.Register(ctx, dupName)
		require.ErrorIs(t, err, apierror.UsernameExists)

		dupEmail := registerRequest("robert")
		dupEmail.Email = "bob@example.com"
		_, err = f.auth.Register(ctx, dupEmail)
		require.ErrorIs(t, err, apierror.EmailExists)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.auth.Register(ctx, model.RegisterRequest{Username: "x", Email: "nope", Password: "weak"})
		require.ErrorIs(t, err, apierror.ValidationFailed)

		var apiErr *apierror.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Contains(t, apiErr.Fields, "username")
		require.Contains(t, apiErr.Fields, "email")
		require.Contains(t, apiErr.Fields, "password")
		require.Zero(t, f.mailer.count())
	})

	t.Run("mail failure surfaces EmailSendingFailed", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.err = errors.New("smtp down")

		_, err := f.auth.Register(ctx, registerRequest("bob"))
		require.ErrorIs(t, err, apierror.EmailSendingFailed)
	})
}

func TestAuthServiceVerifyEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("code is single use", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.Register(ctx, registerRequest("bob"))
		require.NoError(t, err)
		code := f.lastCode(t)

		require.NoError(t, f.auth.VerifyEmail(ctx, code))
		require.ErrorIs(t, f.auth.VerifyEmail(ctx, code), apierror.VerificationTokenInvalid)

		user, err := f.users.FindByUsername(ctx, "bob")
		require.NoError(t, err)
		require.True(t, user.Verified)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.Register(ctx, registerRequest("bob"))
		require.NoError(t, err)

		f.clock.Advance(10 * time.Minute)
		require.ErrorIs(t, f.auth.VerifyEmail(ctx, f.lastCode(t)), apierror.VerificationTokenExpired)
	})

	t.Run("unknown code is invalid", func(t *testing.T) {
		f := newAuthFixture(t)
		require.ErrorIs(t, f.auth.VerifyEmail(ctx, "123456"), apierror.VerificationTokenInvalid)
	})

	t.Run("resend refuses verified accounts", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")

		require.ErrorIs(t, f.auth.ResendVerification(ctx, "bob@example.com"), apierror.AccountAlreadyActivated)
		require.ErrorIs(t, f.auth.ResendVerification(ctx, "nobody@example.com"), apierror.UserNotFound)
	})
}

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := model.ClientMeta{IP: "203.0.113.7", UserAgent: "test-agent"}

	t.Run("unverified account is refused whatever the password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.Register(ctx, registerRequest("bob"))
		require.NoError(t, err)

		_, err = f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.ErrorIs(t, err, apierror.AccountNotActivated)
		_, err = f.auth.Login(ctx, "bob", "Wrong1!x", meta)
		require.ErrorIs(t, err, apierror.AccountNotActivated)
	})

	t.Run("wrong password and unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")

		_, err := f.auth.Login(ctx, "bob", "Wrong1!x", meta)
		require.ErrorIs(t, err, apierror.InvalidCredentials)
		_, err = f.auth.Login(ctx, "nobody", "Secret1!", meta)
		require.ErrorIs(t, err, apierror.UserNotFound)
	})

	t.Run("issues a verifiable pair and records the session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")

		pair, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)
		require.True(t, pair.Authenticated)
		require.EqualValues(t, 3600, pair.ExpiresIn)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, f.clock.Now().Add(10*time.Hour), pair.RefreshExpiresAt)

		claims, err := f.tokens.VerifyAccessToken(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "bob", claims.Subject)

		sessions, err := f.auth.ListSessions(ctx, claims.Principal())
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Equal(t, "203.0.113.7", sessions[0].IP)
		require.Equal(t, "test-agent", sessions[0].UserAgent)

		me, err := f.auth.Me(ctx, claims.Principal())
		require.NoError(t, err)
		require.Equal(t, "bob", me.Username)
		require.True(t, me.Verified)
	})
}

func TestAuthServiceSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := model.ClientMeta{IP: "198.51.100.1"}

	f := newAuthFixture(t)

	_, err := f.auth.Register(ctx, registerRequest("alice"))
	require.NoError(t, err)
	firstCode := f.lastCode(t)

	require.NoError(t, f.auth.ResendVerification(ctx, "alice@example.com"))
	secondCode := f.lastCode(t)
	require.Equal(t, 1, f.verifications.len())
	if firstCode != secondCode {
		require.ErrorIs(t, f.auth.VerifyEmail(ctx, firstCode), apierror.VerificationTokenInvalid)
	}
	require.NoError(t, f.auth.VerifyEmail(ctx, secondCode))

	r1, err := f.auth.Login(ctx, "alice", "Secret1!", meta)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	r2, err := f.auth.Refresh(ctx, r1.RefreshToken, meta)
	require.NoError(t, err)
	require.NotEqual(t, r1.RefreshToken, r2.RefreshToken)

	f.clock.Advance(time.Minute)
	r3, err := f.auth.Refresh(ctx, r2.RefreshToken, meta)
	require.NoError(t, err)

	require.Equal(t, 2, f.refresh.countRevoked())

	first, err := f.refresh.FindByHash(ctx, HashRefreshToken(r1.RefreshToken))
	require.NoError(t, err)
	last, err := f.refresh.FindByHash(ctx, HashRefreshToken(r3.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, first.FamilyID, last.FamilyID)
	require.True(t, last.Live(f.clock.Now()))

	_, err = f.tokens.VerifyAccessToken(ctx, r3.AccessToken)
	require.NoError(t, err)
}

func TestAuthServiceRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := model.ClientMeta{}

	t.Run("rotated token cannot be used again", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		r1, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		r2, err := f.auth.Refresh(ctx, r1.RefreshToken, meta)
		require.NoError(t, err)

		_, err = f.auth.Refresh(ctx, r1.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)

		_, err = f.auth.Refresh(ctx, r2.RefreshToken, meta)
		require.NoError(t, err, "a replay inside the grace period must not revoke the family")
	})

	t.Run("late replay revokes the whole family", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		r1, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)
		r2, err := f.auth.Refresh(ctx, r1.RefreshToken, meta)
		require.NoError(t, err)

		f.clock.Advance(reuseGracePeriod + time.Second)
		_, err = f.auth.Refresh(ctx, r1.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)

		_, err = f.auth.Refresh(ctx, r2.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
	})

	t.Run("expired and unknown tokens are invalid", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		r1, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		_, err = f.auth.Refresh(ctx, "", meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
		_, err = f.auth.Refresh(ctx, "unknown", meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)

		f.clock.Advance(10 * time.Hour)
		_, err = f.auth.Refresh(ctx, r1.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
	})

	t.Run("concurrent refresh has exactly one winner", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		r1, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		const callers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []model.TokenPair
			losers  int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pair, err := f.auth.Refresh(ctx, r1.RefreshToken, meta)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winners = append(winners, pair)
					return
				}
				if errors.Is(err, apierror.RefreshTokenInvalid) {
					losers++
				}
			}()
		}
		wg.Wait()

		require.Len(t, winners, 1)
		require.Equal(t, callers-1, losers)

		_, err = f.auth.Refresh(ctx, winners[0].RefreshToken, meta)
		require.NoError(t, err)
	})
}

func TestAuthServiceLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := model.ClientMeta{}

	t.Run("revokes refresh token and denylists access token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		pair, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		require.NoError(t, f.auth.Logout(ctx, pair.RefreshToken, pair.AccessToken))

		_, err = f.auth.Refresh(ctx, pair.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
		_, err = f.tokens.VerifyAccessToken(ctx, pair.AccessToken)
		require.ErrorIs(t, err, apierror.Unauthenticated)

		result, err := f.auth.Introspect(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.False(t, result.Valid)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.auth.Logout(ctx, "", ""))
		require.NoError(t, f.auth.Logout(ctx, "unknown", "garbage"))
	})

	t.Run("logout all ends every session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		first, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)
		second, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		claims, err := f.tokens.VerifyAccessToken(ctx, second.AccessToken)
		require.NoError(t, err)
		require.NoError(t, f.auth.LogoutAll(ctx, claims.Principal()))

		for _, pair := range []model.TokenPair{first, second} {
			_, err = f.auth.Refresh(ctx, pair.RefreshToken, meta)
			require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
		}
		_, err = f.tokens.VerifyAccessToken(ctx, second.AccessToken)
		require.ErrorIs(t, err, apierror.Unauthenticated)

		sessions, err := f.auth.ListSessions(ctx, claims.Principal())
		require.NoError(t, err)
		require.Empty(t, sessions)
	})
}

func TestAuthServicePasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := model.ClientMeta{}

	resetToken := func(t *testing.T, f *authFixture) string {
		t.Helper()
		sent := f.mailer.last()
		require.Equal(t, mailer.TemplatePasswordReset, sent.Template)
		link, ok := sent.Data["ResetLink"].(string)
		require.True(t, ok)
		parsed, err := url.Parse(link)
		require.NoError(t, err)
		require.Equal(t, "/reset-password", parsed.Path)
		return parsed.Query().Get("token")
	}

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.auth.ForgotPassword(ctx, "nobody@example.com"))
		require.Zero(t, f.mailer.count())
	})

	t.Run("reset changes the password and ends sessions", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		session, err := f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.NoError(t, err)

		require.NoError(t, f.auth.ForgotPassword(ctx, "bob@example.com"))
		token := resetToken(t, f)

		require.NoError(t, f.auth.ResetPassword(ctx, token, "Changed2@"))

		_, err = f.auth.Refresh(ctx, session.RefreshToken, meta)
		require.ErrorIs(t, err, apierror.RefreshTokenInvalid)
		_, err = f.auth.Login(ctx, "bob", "Secret1!", meta)
		require.ErrorIs(t, err, apierror.InvalidCredentials)
		_, err = f.auth.Login(ctx, "bob", "Changed2@", meta)
		require.NoError(t, err)

		require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "Another3$"), apierror.ResetPasswordTokenInvalid)
	})

	t.Run("weak password and expired code are rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		f.registerVerified(t, "bob")
		require.NoError(t, f.auth.ForgotPassword(ctx, "bob@example.com"))
		token := resetToken(t, f)

		require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "weak"), apierror.PasswordInvalid)

		f.clock.Advance(11 * time.Minute)
		require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "Changed2@"), apierror.ResetPasswordTokenExpired)
	})
}

func TestAuthServiceSeedAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newAuthFixture(t)
	seed := AdminSeed{Username: "admin", Email: "admin@example.com", Password: "Admin1!x"}

	require.NoError(t, f.auth.SeedAdmin(ctx, seed))
	require.NoError(t, f.auth.SeedAdmin(ctx, seed))

	pair, err := f.auth.Login(ctx, "admin", "Admin1!x", model.ClientMeta{})
	require.NoError(t, err)

	claims, err := f.tokens.VerifyAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	principal := claims.Principal()
	require.True(t, principal.HasRole(model.RoleAdmin))
	require.True(t, principal.HasScope("USER_MANAGE"))

	require.NoError(t, f.auth.SeedAdmin(ctx, AdminSeed{}))
}
