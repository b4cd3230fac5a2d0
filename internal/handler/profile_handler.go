package handler

import (
	"context"
	"net/http"

	"arkive/internal/model"
	"arkive/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateAccountRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.profiles.UpdateAccount(r.Context(), principal, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profiles.Get(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, http.StatusCreated, h.profiles.Create)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, http.StatusOK, h.profiles.Update)
}

func (h *ProfileHandler) save(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	apply func(ctx context.Context, principal model.Principal, req model.ProfileRequest) (model.Profile, error),
) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ProfileRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	profile, err := apply(r.Context(), principal, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, status, profile, nil)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.profiles.Delete(r.Context(), principal); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
