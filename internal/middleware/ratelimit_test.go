package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_UnlimitedGeneral(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_LimitedAuth(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	req1 := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	// Burst is 1, so the immediate second call is refused.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))
	assert.Contains(t, rec2.Body.String(), `"code":9004`)

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "198.51.100.9:4567"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, other)
	assert.Equal(t, http.StatusOK, rec3.Code)
}

func TestRateLimitMiddleware_Configuration(t *testing.T) {
	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 10, mw.authRPM)
}

func TestClientIP(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, TrustProxies(nil)) })

	t.Run("forwarding headers from an untrusted peer are ignored", func(t *testing.T) {
		require.NoError(t, TrustProxies(nil))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:4567"
		assert.Equal(t, "192.0.2.1", ClientIP(req))

		req.Header.Set("X-Real-IP", "203.0.113.5")
		req.Header.Set("X-Forwarded-For", "198.51.100.2, 203.0.113.5")
		assert.Equal(t, "192.0.2.1", ClientIP(req))
	})

	t.Run("a trusted proxy supplies the nearest untrusted hop", func(t *testing.T) {
		require.NoError(t, TrustProxies([]string{"10.0.0.0/8", "192.0.2.1"}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:4567"
		assert.Equal(t, "10.1.2.3", ClientIP(req))

		req.Header.Set("X-Real-IP", "203.0.113.5")
		assert.Equal(t, "203.0.113.5", ClientIP(req))

		// The left hop is client supplied and cannot be believed.
		req.Header.Set("X-Forwarded-For", "6.6.6.6, 198.51.100.2, 10.0.0.7")
		assert.Equal(t, "198.51.100.2", ClientIP(req))

		req.Header.Set("X-Forwarded-For", "10.0.0.9, 192.0.2.1")
		assert.Equal(t, "10.0.0.9", ClientIP(req))

		direct := httptest.NewRequest(http.MethodGet, "/", nil)
		direct.RemoteAddr = "198.51.100.77:80"
		direct.Header.Set("X-Forwarded-For", "1.2.3.4")
		assert.Equal(t, "198.51.100.77", ClientIP(direct))
	})

	t.Run("rejects malformed entries", func(t *testing.T) {
		_, err := ParseProxies([]string{"10.0.0.0/33"})
		require.Error(t, err)
		_, err = ParseProxies([]string{"proxy.internal"})
		require.Error(t, err)

		prefixes, err := ParseProxies([]string{" 10.0.0.1/8 ", "", "::1"})
		require.NoError(t, err)
		require.Len(t, prefixes, 2)
		assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	})
}
