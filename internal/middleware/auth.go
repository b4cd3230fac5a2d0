package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

type tokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (model.AccessClaims, error)
}

type contextKey string

const (
	principalContextKey contextKey = "principal"
	principalSlotKey    contextKey = "principal_slot"
)

// principalSlot lets middleware that runs before authentication learn who
// the caller turned out to be.
type principalSlot struct {
	mu        sync.Mutex
	principal model.Principal
}

func (s *principalSlot) set(p model.Principal) {
	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()
}

func (s *principalSlot) get() model.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal
}

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeAPIError(w, apierror.Unauthenticated.WithDetails("missing or invalid authorization header"))
			return
		}

		claims, err := m.verifier.VerifyAccessToken(r.Context(), token)
		if err != nil {
			var apiErr *apierror.APIError
			if !errors.As(err, &apiErr) {
				apiErr = apierror.Internal
			}
			writeAPIError(w, apiErr)
			return
		}

		principal := claims.Principal()
		if slot, ok := r.Context().Value(principalSlotKey).(*principalSlot); ok {
			slot.set(principal)
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRoles admits callers holding at least one of the roles, e.g. RoleAdmin
// matches the ROLE_ADMIN scope.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.Unauthenticated)
				return
			}

			for _, role := range allowedRoles {
				if principal.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAPIError(w, apierror.Forbidden)
		})
	}
}

func WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok && principal.Authenticated()
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
