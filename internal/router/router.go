package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arkive/internal/config"
	"arkive/internal/handler"
	"arkive/internal/middleware"
	"arkive/internal/model"
	"arkive/internal/service"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	SharedLink *handler.SharedLinkHandler
	Collection *handler.CollectionHandler
	Asset      *handler.AssetHandler
	Profile    *handler.ProfileHandler
	Audit      *handler.AuditHandler
	Auditor    *service.AuditService
	Health     func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				slog.WarnContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAuth := authMiddleware.RequireAuth
	requireAdmin := authMiddleware.RequireRoles(model.RoleAdmin)

	r.Route("/api/v1", func(api chi.Router) {
		if h.Auditor != nil {
			api.Use(middleware.Audit(h.Auditor))
		}
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/google", h.Auth.Google)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
			auth.Post("/verify-email", h.Auth.VerifyEmail)
			auth.Post("/resend-verification-code", h.Auth.ResendVerification)
			auth.Post("/forgot-password", h.Auth.ForgotPassword)
			auth.Post("/reset-password", h.Auth.ResetPassword)
			auth.Post("/introspect", h.Auth.Introspect)
			auth.With(requireAuth).Get("/me", h.Auth.Me)
			auth.With(requireAuth).Get("/sessions", h.Auth.Sessions)
			auth.With(requireAuth).Post("/logout-all", h.Auth.LogoutAll)
		})

		api.Route("/shared", func(shared chi.Router) {
			shared.Post("/access", h.SharedLink.Access)
			shared.Get("/{publicId}", h.SharedLink.AccessByPublicID)
			shared.With(requireAuth).Post("/", h.SharedLink.Create)
			shared.With(requireAuth).Get("/collection/{id}", h.SharedLink.GetByCollection)
			shared.With(requireAuth).Delete("/collection/{id}", h.SharedLink.Delete)
			shared.With(requireAuth).Patch("/collection/{id}/password", h.SharedLink.UpdatePassword)
		})

		api.Route("/collections", func(collections chi.Router) {
			collections.Use(requireAuth)
			collections.Get("/", h.Collection.List)
			collections.Post("/", h.Collection.Create)
			collections.Get("/{id}", h.Collection.Get)
			collections.Put("/{id}", h.Collection.Update)
			collections.Delete("/{id}", h.Collection.Delete)
			collections.Post("/{id}/assets/upload-url", h.Asset.UploadURL)
			collections.Post("/{id}/assets", h.Asset.Complete)
			collections.Get("/{id}/assets", h.Asset.List)
		})

		api.Route("/assets", func(assets chi.Router) {
			assets.Use(requireAuth)
			assets.Get("/deleted", h.Asset.ListDeleted)
			assets.Get("/{id}/download-url", h.Asset.DownloadURL)
			assets.Patch("/{id}", h.Asset.Update)
			assets.Delete("/{id}", h.Asset.Delete)
			assets.Post("/{id}/restore", h.Asset.Restore)
			assets.Delete("/{id}/hard", h.Asset.HardDelete)
		})

		api.With(requireAuth).Put("/users/me", h.Profile.UpdateAccount)

		api.Route("/profiles", func(profiles chi.Router) {
			profiles.Use(requireAuth)
			profiles.Post("/", h.Profile.Create)
			profiles.Get("/me", h.Profile.Get)
			profiles.Put("/me", h.Profile.Update)
			profiles.Delete("/me", h.Profile.Delete)
		})

		api.With(requireAuth, requireAdmin).Get("/audit-logs", h.Audit.List)
	})

	return r
}
