package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"arkive/internal/middleware"
	"arkive/internal/model"
	"arkive/internal/service"
	"arkive/pkg/apierror"
)

type SharedLinkHandler struct {
	links *service.SharedLinkService
}

func NewSharedLinkHandler(links *service.SharedLinkService) *SharedLinkHandler {
	return &SharedLinkHandler{links: links}
}

func (h *SharedLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CreateSharedLinkRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	payload.CollectionID = strings.TrimSpace(payload.CollectionID)
	if payload.CollectionID != "" && !isUUID(payload.CollectionID) {
		writeError(w, apierror.CollectionNotFound.WithDetails(payload.CollectionID))
		return
	}

	link, err := h.links.Create(r.Context(), principal, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, link, nil)
}

func (h *SharedLinkHandler) GetByCollection(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	link, err := h.links.GetByCollection(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, link, nil)
}

func (h *SharedLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.links.Delete(r.Context(), principal, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *SharedLinkHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateSharedLinkPasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	link, err := h.links.UpdatePassword(r.Context(), principal, id, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, link, nil)
}

// Access serves the anonymous POST form with the password in the body.
func (h *SharedLinkHandler) Access(w http.ResponseWriter, r *http.Request) {
	var payload model.AccessSharedLinkRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	h.access(w, r, payload.PublicID, payload.Password)
}

// AccessByPublicID serves GET /shared/{publicId}; a gated link reads its
// password from the X-Shared-Link-Password header.
func (h *SharedLinkHandler) AccessByPublicID(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicId")
	if strings.TrimSpace(publicID) == "" {
		writeError(w, apierror.BadRequest.WithDetails("public id is required"))
		return
	}

	var password *string
	if header := r.Header.Get(middleware.SharedLinkPasswordHeader); header != "" {
		password = &header
	}

	h.access(w, r, publicID, password)
}

func (h *SharedLinkHandler) access(w http.ResponseWriter, r *http.Request, publicID string, password *string) {
	shared, err := h.links.Access(r.Context(), publicID, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, shared, nil)
}
