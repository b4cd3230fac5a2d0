package handler

import (
	"net/http"
	"strings"
	"time"

	"arkive/internal/middleware"
	"arkive/internal/model"
	"arkive/internal/service"
	"arkive/pkg/apierror"
)

const refreshCookieName = "refreshToken"

type CookieConfig struct {
	Secure     bool
	RefreshTTL time.Duration
}

type AuthHandler struct {
	auth   *service.AuthService
	google *service.GoogleAuthService
	cookie CookieConfig
}

func NewAuthHandler(auth *service.AuthService, google *service.GoogleAuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, google: google, cookie: cookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.auth.Login(r.Context(), strings.TrimSpace(payload.Username), payload.Password, clientMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSession(w, tokens)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var payload model.GoogleLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.google.Login(r.Context(), strings.TrimSpace(payload.IDToken), clientMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSession(w, tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, apierror.RefreshTokenInvalid.WithDetails("refresh token cookie is missing"))
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), strings.TrimSpace(cookie.Value), clientMeta(r))
	if err != nil {
		h.clearRefreshCookie(w)
		writeError(w, err)
		return
	}

	h.writeSession(w, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = strings.TrimSpace(cookie.Value)
	}

	if err := h.auth.Logout(r.Context(), refreshToken, middleware.BearerToken(r)); err != nil {
		writeError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.LogoutAll(r.Context(), principal); err != nil {
		writeError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var payload model.VerifyEmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), strings.TrimSpace(payload.Code)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"verified": true}, nil)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ResendVerification(r.Context(), normalizeEmail(payload.Email)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"sent": true}, nil)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), normalizeEmail(payload.Email)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "If the email is registered, a password reset link has been sent.",
	}, nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ResetPasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), strings.TrimSpace(payload.Token), payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"reset": true}, nil)
}

func (h *AuthHandler) Introspect(w http.ResponseWriter, r *http.Request) {
	var payload model.IntrospectRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Introspect(r.Context(), strings.TrimSpace(payload.Token))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Me(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := h.auth.ListSessions(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessions, nil)
}

// writeSession puts the refresh token in the cookie only; the JSON body never carries it.
func (h *AuthHandler) writeSession(w http.ResponseWriter, tokens model.TokenPair) {
	http.SetCookie(w, h.refreshCookie(tokens.RefreshToken, int(h.cookie.RefreshTTL.Seconds())))
	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.refreshCookie("", -1))
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
