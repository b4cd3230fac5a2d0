package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"arkive/internal/mailer"
	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const (
	maxCodeAttempts = 10

	// A token revoked less than this long ago is treated as a lost rotation
	// race, not as replay.
	reuseGracePeriod = 10 * time.Second
)

type AuthConfig struct {
	VerificationCodeTTL time.Duration
	ResetCodeTTL        time.Duration
	FrontendURL         string
}

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// AuthService is the session facade: registration, verification, login,
// refresh rotation, logout and password reset.
type AuthService struct {
	users         userStore
	refreshTokens refreshTokenStore
	verifications codeStore
	resets        codeStore
	tokens        *TokenService
	hasher        PasswordHasher
	mailer        Mailer
	cfg           AuthConfig
	now           func() time.Time
}

func NewAuthService(
	users userStore,
	refreshTokens refreshTokenStore,
	verifications codeStore,
	resets codeStore,
	tokens *TokenService,
	hasher PasswordHasher,
	mailer Mailer,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		verifications: verifications,
		resets:        resets,
		tokens:        tokens,
		hasher:        hasher,
		mailer:        mailer,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.UserView, error) {
	req.Normalize()
	if fields := req.Validate(); fields != nil {
		return model.UserView{}, apierror.Validation(fields)
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return model.UserView{}, err
	}
	if exists {
		return model.UserView{}, apierror.UsernameExists.WithDetails(req.Username)
	}

	exists, err = s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return model.UserView{}, err
	}
	if exists {
		return model.UserView{}, apierror.EmailExists.WithDetails(req.Email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.UserView{}, err
	}

	user := model.User{
		Record:       model.NewRecord(uuid.NewString(), s.now().UTC()),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		AuthProvider: model.AuthProviderLocal,
		Roles:        []model.Role{{Name: model.RoleUser}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.UserView{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)

	if err := s.sendVerificationCode(ctx, user); err != nil {
		return model.UserView{}, err
	}

	return user.View(), nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, code string) error {
	token, err := s.verifications.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if token.Expired(s.now()) {
		return apierror.VerificationTokenExpired
	}

	consumed, err := s.verifications.Consume(ctx, token.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return apierror.VerificationTokenInvalid
	}

	if err := s.users.MarkVerified(ctx, token.UserID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "email verified", "user_id", token.UserID)
	return nil
}

// ResendVerification replaces every outstanding code of the user with a new one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return apierror.AccountAlreadyActivated
	}

	if err := s.verifications.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	return s.sendVerificationCode(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, username string, password string, meta model.ClientMeta) (model.TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !user.Verified {
		return model.TokenPair{}, apierror.AccountNotActivated
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		slog.InfoContext(ctx, "login rejected", "user_id", user.ID, "reason", "invalid credentials", "ip", meta.IP)
		return model.TokenPair{}, apierror.InvalidCredentials
	}

	return s.issueSession(ctx, user, meta, "")
}

// Refresh rotates the presented refresh token. The old token is revoked by a
// single conditional update before the new pair exists, so concurrent calls
// with the same token have exactly one winner.
func (s *AuthService) Refresh(ctx context.Context, token string, meta model.ClientMeta) (model.TokenPair, error) {
	if token == "" {
		return model.TokenPair{}, apierror.RefreshTokenInvalid
	}

	now := s.now().UTC()
	hash := HashRefreshToken(token)

	old, err := s.refreshTokens.Rotate(ctx, hash, now)
	if errors.Is(err, apierror.RefreshTokenInvalid) {
		s.detectReuse(ctx, hash, now)
		return model.TokenPair{}, err
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, old.UserID)
	if errors.Is(err, apierror.UserNotFound) {
		return model.TokenPair{}, apierror.RefreshTokenInvalid
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.issueSession(ctx, user, meta, old.FamilyID)
}

// detectReuse revokes the whole family when an already rotated token is replayed.
func (s *AuthService) detectReuse(ctx context.Context, hash string, now time.Time) {
	record, err := s.refreshTokens.FindByHash(ctx, hash)
	if err != nil {
		return
	}
	if !record.Revoked || record.RevokedAt == nil || now.Sub(*record.RevokedAt) < reuseGracePeriod {
		return
	}

	revoked, err := s.refreshTokens.RevokeFamily(ctx, record.FamilyID, now)
	if err != nil {
		slog.ErrorContext(ctx, "revoke token family failed", "family_id", record.FamilyID, "error", err)
		return
	}
	slog.WarnContext(ctx, "refresh token reuse detected",
		"user_id", record.UserID, "family_id", record.FamilyID, "revoked", revoked)
}

// Logout revokes the refresh token if one is given and denylists the access
// token if it still verifies. Unknown or already revoked tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, accessToken string) error {
	if refreshToken != "" {
		if err := s.refreshTokens.Revoke(ctx, HashRefreshToken(refreshToken), s.now().UTC()); err != nil {
			return err
		}
	}

	if accessToken == "" {
		return nil
	}

	claims, err := s.tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindInternal {
			return err
		}
		return nil
	}
	return s.tokens.Invalidate(ctx, claims.TokenID, claims.ExpiresAt)
}

func (s *AuthService) LogoutAll(ctx context.Context, principal model.Principal) error {
	revoked, err := s.refreshTokens.RevokeAllForUser(ctx, principal.UserID, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.tokens.Invalidate(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return err
	}

	slog.InfoContext(ctx, "all sessions revoked", "user_id", principal.UserID, "revoked", revoked)
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, principal model.Principal) ([]model.SessionView, error) {
	tokens, err := s.refreshTokens.ListActive(ctx, principal.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	sessions := make([]model.SessionView, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, model.SessionView{
			ID:        t.ID,
			IP:        t.CreatedIP,
			UserAgent: t.UserAgent,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}
	return sessions, nil
}

func (s *AuthService) Me(ctx context.Context, principal model.Principal) (model.UserView, error) {
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return model.UserView{}, err
	}
	return user.View(), nil
}

// Introspect reports whether the access token is currently accepted.
func (s *AuthService) Introspect(ctx context.Context, token string) (model.IntrospectResult, error) {
	_, err := s.tokens.VerifyAccessToken(ctx, token)
	if err != nil && apierror.KindOf(err) == apierror.KindInternal {
		return model.IntrospectResult{}, err
	}
	return model.IntrospectResult{Valid: err == nil}, nil
}

// ForgotPassword never reveals whether the email belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, apierror.UserNotFound) {
		slog.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.resets.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}

	token, err := s.issueCode(ctx, s.resets, user.ID, s.cfg.ResetCodeTTL)
	if err != nil {
		return err
	}

	link := s.cfg.FrontendURL + "/reset-password?token=" + url.QueryEscape(token.Code)
	err = s.mailer.Send(ctx, user.Email, mailer.TemplatePasswordReset, map[string]any{
		"Email":            user.Email,
		"ResetLink":        link,
		"ExpiresInMinutes": int(s.cfg.ResetCodeTTL.Minutes()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "send password reset email failed", "user_id", user.ID, "error", err)
		return apierror.EmailSendingFailed
	}
	return nil
}

// ResetPassword consumes the code, stores the new hash and ends every session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, code string, newPassword string) error {
	if msg := model.ValidatePassword(newPassword); msg != "" {
		return apierror.PasswordInvalid
	}

	token, err := s.resets.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if token.Expired(s.now()) {
		return apierror.ResetPasswordTokenExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	consumed, err := s.resets.Consume(ctx, token.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return apierror.ResetPasswordTokenInvalid
	}

	if err := s.users.UpdatePassword(ctx, token.UserID, hash); err != nil {
		return err
	}

	revoked, err := s.refreshTokens.RevokeAllForUser(ctx, token.UserID, s.now().UTC())
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "password reset", "user_id", token.UserID, "sessions_revoked", revoked)
	return nil
}

// SeedAdmin creates the configured administrator unless the username is taken.
func (s *AuthService) SeedAdmin(ctx context.Context, seed AdminSeed) error {
	if seed.Username == "" {
		return nil
	}

	exists, err := s.users.ExistsByUsername(ctx, seed.Username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return err
	}

	admin := model.User{
		Record:       model.NewRecord(uuid.NewString(), s.now().UTC()),
		Username:     seed.Username,
		Email:        seed.Email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Verified:     true,
		AuthProvider: model.AuthProviderLocal,
		Roles:        []model.Role{{Name: model.RoleAdmin}, {Name: model.RoleUser}},
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	slog.WarnContext(ctx, "default admin account created; change its password", "username", seed.Username)
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user model.User, meta model.ClientMeta, familyID string) (model.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	raw, err := s.tokens.NewRefreshToken()
	if err != nil {
		return model.TokenPair{}, err
	}

	if familyID == "" {
		familyID = uuid.NewString()
	}

	now := s.now().UTC()
	record := model.RefreshToken{
		Record:    model.NewRecord(uuid.NewString(), now),
		UserID:    user.ID,
		TokenHash: HashRefreshToken(raw),
		FamilyID:  familyID,
		ExpiresAt: s.tokens.RefreshExpiry(now),
		CreatedIP: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:      access.Token,
		Authenticated:    true,
		ExpiresIn:        int64(s.tokens.ValidFor().Seconds()),
		RefreshToken:     raw,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

func (s *AuthService) sendVerificationCode(ctx context.Context, user model.User) error {
	token, err := s.issueCode(ctx, s.verifications, user.ID, s.cfg.VerificationCodeTTL)
	if err != nil {
		return err
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}

	err = s.mailer.Send(ctx, user.Email, mailer.TemplateVerification, map[string]any{
		"Name":             name,
		"Code":             token.Code,
		"ExpiresInMinutes": int(s.cfg.VerificationCodeTTL.Minutes()),
	})
	if err != nil {
		slog.ErrorContext(ctx, "send verification email failed", "user_id", user.ID, "error", err)
		return apierror.EmailSendingFailed
	}
	return nil
}

// issueCode stores a fresh numeric code, regenerating on collision.
func (s *AuthService) issueCode(ctx context.Context, store codeStore, userID string, ttl time.Duration) (model.EphemeralToken, error) {
	now := s.now().UTC()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newNumericCode()
		if err != nil {
			return model.EphemeralToken{}, err
		}

		taken, err := store.ExistsByCode(ctx, code)
		if err != nil {
			return model.EphemeralToken{}, err
		}
		if taken {
			continue
		}

		token := model.EphemeralToken{
			Record:    model.NewRecord(uuid.NewString(), now),
			Code:      code,
			UserID:    userID,
			ExpiresAt: now.Add(ttl),
		}
		err = store.Create(ctx, token)
		if errors.Is(err, model.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return model.EphemeralToken{}, err
		}
		return token, nil
	}

	return model.EphemeralToken{}, fmt.Errorf("issue code: no free code after %d attempts", maxCodeAttempts)
}
