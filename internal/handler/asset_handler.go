package handler

import (
	"net/http"

	"arkive/internal/model"
	"arkive/internal/service"
	"arkive/pkg/apierror"
)

type AssetHandler struct {
	assets *service.AssetService
}

func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func (h *AssetHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	collectionID, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UploadURLRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	presigned, err := h.assets.RequestUpload(r.Context(), principal, collectionID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, presigned, nil)
}

func (h *AssetHandler) Complete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	collectionID, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CompleteUploadRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	asset, err := h.assets.CompleteUpload(r.Context(), principal, collectionID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, asset, nil)
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	collectionID, err := pathID(r, apierror.CollectionNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	items, meta, err := h.assets.List(r.Context(), principal, collectionID,
		parseIntOrDefault(query.Get("page"), 1),
		parseIntOrDefault(query.Get("limit"), 20),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}

func (h *AssetHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assetID, err := pathID(r, apierror.AssetNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	presigned, err := h.assets.DownloadURL(r.Context(), principal, assetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, presigned, nil)
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assetID, err := pathID(r, apierror.AssetNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.AssetUpdateRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	asset, err := h.assets.Update(r.Context(), principal, assetID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, asset, nil)
}

// Delete moves the asset to the trash.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assetID, err := pathID(r, apierror.AssetNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.assets.Delete(r.Context(), principal, assetID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *AssetHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	items, meta, err := h.assets.ListDeleted(r.Context(), principal,
		parseIntOrDefault(query.Get("page"), 1),
		parseIntOrDefault(query.Get("limit"), 20),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &meta)
}

func (h *AssetHandler) Restore(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assetID, err := pathID(r, apierror.AssetNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	asset, err := h.assets.Restore(r.Context(), principal, assetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, asset, nil)
}

func (h *AssetHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assetID, err := pathID(r, apierror.AssetNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.assets.HardDelete(r.Context(), principal, assetID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
