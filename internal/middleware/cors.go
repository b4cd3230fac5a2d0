package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// SharedLinkPasswordHeader carries the password of a gated shared link on GET requests.
const SharedLinkPasswordHeader = "X-Shared-Link-Password"

// CORS allows credentials unless the origin list is the wildcard.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", SharedLinkPasswordHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		MaxAge:           3600,
		AllowCredentials: !slices.Contains(origins, "*"),
	})

	return handler.Handler
}
