package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

func findCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatalf("response has no %s cookie", refreshCookieName)
	return nil
}

func TestWriteSessionSetsRefreshCookie(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, CookieConfig{Secure: true, RefreshTTL: 10 * time.Hour})
	rec := httptest.NewRecorder()
	h.writeSession(rec, model.TokenPair{
		AccessToken:   "access.jwt",
		Authenticated: true,
		ExpiresIn:     3600,
		RefreshToken:  "opaque-refresh",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(t, rec)
	require.Equal(t, "opaque-refresh", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 36000, cookie.MaxAge)

	require.NotContains(t, rec.Body.String(), "opaque-refresh")
	require.Contains(t, rec.Body.String(), `"token":"access.jwt"`)
	require.Contains(t, rec.Body.String(), `"expires_in":3600`)
}

func TestClearRefreshCookie(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, CookieConfig{})
	rec := httptest.NewRecorder()
	h.clearRefreshCookie(rec)

	cookie := findCookie(t, rec)
	require.Empty(t, cookie.Value)
	require.Less(t, cookie.MaxAge, 0)
	require.False(t, cookie.Secure)
}

func TestRefreshWithoutCookie(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, CookieConfig{})
	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, apierror.RefreshTokenInvalid.Code, decodeResponse(t, rec).Errors.Code)
}

func TestProtectedHandlersNeedPrincipal(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, CookieConfig{})
	for name, fn := range map[string]http.HandlerFunc{"me": h.Me, "sessions": h.Sessions, "logout-all": h.LogoutAll} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestLoginRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, CookieConfig{})
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":""}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	require.Equal(t, "Validation failed", body.Message)
	require.Contains(t, body.Errors.Validation, "username")
}
