package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arkive/internal/middleware"
	"arkive/internal/model"
	"arkive/pkg/apierror"
)

func clientMeta(r *http.Request) model.ClientMeta {
	return model.ClientMeta{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func principalFrom(r *http.Request) (model.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return model.Principal{}, apierror.Unauthenticated.WithDetails("authentication required")
	}
	return principal, nil
}

// pathID reads the {id} route parameter. Row ids are uuids, so any other
// value is reported as notFound.
func pathID(r *http.Request, notFound *apierror.APIError) (string, error) {
	id := chi.URLParam(r, "id")
	if !isUUID(id) {
		return "", notFound.WithDetails(id)
	}
	return id, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
