package handler

import (
	"net/http"

	"arkive/internal/model"
	"arkive/internal/service"
	"arkive/pkg/apierror"
)

type CollectionHandler struct {
	collections *service.CollectionService
}

func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	items, meta, err := h.collections.List(r.Context(), principal,
		parseIntOrDefault(query.Get("page"), 1),
		parseIntOrDefault(query.Get("limit"), 20),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CollectionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	collection, err := h.collections.Create(r.Context(), principal, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, collection, nil)
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	collection, err := h.collections.Get(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, collection, nil)
}

func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var payload model.CollectionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	collection, err := h.collections.Update(r.Context(), principal, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, collection, nil)
}

func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.collections.Delete(r.Context(), principal, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
