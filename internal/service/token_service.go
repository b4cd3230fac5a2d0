package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

type TokenConfig struct {
	Secret              string
	Issuer              string
	ValidDuration       time.Duration
	RefreshableDuration time.Duration
}

type AccessToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

type accessClaims struct {
	UserID string `json:"userId"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens. Refresh tokens are opaque;
// only the ledger decides whether one is valid.
type TokenService struct {
	secret   []byte
	cfg      TokenConfig
	denylist denylistStore
	now      func() time.Time
}

func NewTokenService(cfg TokenConfig, denylist denylistStore) *TokenService {
	return &TokenService{secret: []byte(cfg.Secret), cfg: cfg, denylist: denylist, now: time.Now}
}

func (s *TokenService) IssueAccessToken(user model.User) (AccessToken, error) {
	now := s.now().UTC()
	id := uuid.NewString()
	expiresAt := now.Add(s.cfg.ValidDuration)

	claims := accessClaims{
		UserID: user.ID,
		Scope:  user.Scope(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        id,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return AccessToken{Token: signed, ID: id, ExpiresAt: expiresAt}, nil
}

func (s *TokenService) NewRefreshToken() (string, error) {
	return newOpaqueToken()
}

func (s *TokenService) RefreshExpiry(from time.Time) time.Time {
	return from.Add(s.cfg.RefreshableDuration)
}

func (s *TokenService) ValidFor() time.Duration {
	return s.cfg.ValidDuration
}

// VerifyAccessToken checks signature, issuer and expiry, then the denylist.
func (s *TokenService) VerifyAccessToken(ctx context.Context, token string) (model.AccessClaims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return model.AccessClaims{}, apierror.TokenExpired
	}
	if err != nil {
		return model.AccessClaims{}, apierror.Unauthenticated.WithDetails(err.Error())
	}

	if claims.ID == "" || claims.UserID == "" {
		return model.AccessClaims{}, apierror.Unauthenticated.WithDetails("token is missing required claims")
	}

	revoked, err := s.denylist.Exists(ctx, claims.ID)
	if err != nil {
		return model.AccessClaims{}, err
	}
	if revoked {
		return model.AccessClaims{}, apierror.Unauthenticated.WithDetails("token has been revoked")
	}

	out := model.AccessClaims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
		UserID:  claims.UserID,
		Scope:   claims.Scope,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Invalidate denylists the token until it would expire on its own.
func (s *TokenService) Invalidate(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || !expiresAt.After(s.now()) {
		return nil
	}
	return s.denylist.Add(ctx, model.InvalidatedToken{ID: tokenID, ExpiresAt: expiresAt})
}
