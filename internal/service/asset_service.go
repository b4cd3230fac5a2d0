package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/internal/storage"
	"arkive/internal/util"
	"arkive/pkg/apierror"
)

type AssetService struct {
	assets        assetStore
	collections   collectionStore
	objects       ObjectStorage
	allowedMIME   util.MIMEAllowList
	maxUploadSize int64
	now           func() time.Time
}

func NewAssetService(assets assetStore, collections collectionStore, objects ObjectStorage, allowedMIMETypes []string, maxUploadSize int64) *AssetService {
	return &AssetService{
		assets:        assets,
		collections:   collections,
		objects:       objects,
		allowedMIME:   util.NewMIMEAllowList(allowedMIMETypes),
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// RequestUpload validates the declared file and returns a presigned PUT URL
// under a fresh storage key in the collection prefix.
func (s *AssetService) RequestUpload(ctx context.Context, principal model.Principal, collectionID string, req model.UploadURLRequest) (model.PresignedURL, error) {
	if fields := req.Validate(); fields != nil {
		return model.PresignedURL{}, apierror.Validation(fields)
	}
	if _, err := ownedCollection(ctx, s.collections, principal, collectionID); err != nil {
		return model.PresignedURL{}, err
	}

	filename, err := util.SanitizeFilename(req.Filename)
	if err != nil {
		return model.PresignedURL{}, err
	}
	if err := s.checkFile(req.ContentType, req.Size); err != nil {
		return model.PresignedURL{}, err
	}

	key := storage.NewObjectKey(collectionID, filename)
	presigned, err := s.objects.PresignUpload(ctx, key, util.BaseMIME(req.ContentType), req.Size)
	if err != nil {
		slog.ErrorContext(ctx, "presign upload failed", "collection_id", collectionID, "error", err)
		return model.PresignedURL{}, apierror.StorageFailed
	}
	return presigned, nil
}

// CompleteUpload records an object the client has uploaded with a presigned URL.
func (s *AssetService) CompleteUpload(ctx context.Context, principal model.Principal, collectionID string, req model.CompleteUploadRequest) (model.Asset, error) {
	if fields := req.Validate(); fields != nil {
		return model.Asset{}, apierror.Validation(fields)
	}
	if _, err := ownedCollection(ctx, s.collections, principal, collectionID); err != nil {
		return model.Asset{}, err
	}

	if err := storage.ValidateKey(storage.CollectionPrefix(collectionID), req.StorageKey); err != nil {
		return model.Asset{}, err
	}
	filename, err := util.SanitizeFilename(req.Filename)
	if err != nil {
		return model.Asset{}, err
	}
	if err := s.checkFile(req.ContentType, req.Size); err != nil {
		return model.Asset{}, err
	}

	asset := model.Asset{
		Record:       model.NewRecord(uuid.NewString(), s.now().UTC()),
		CollectionID: collectionID,
		Filename:     filename,
		StorageKey:   strings.TrimSpace(req.StorageKey),
		FileType:     util.BaseMIME(req.ContentType),
		FileSize:     req.Size,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		Tags:         cleanTags(req.Tags),
	}
	err = s.assets.Create(ctx, asset)
	if errors.Is(err, model.ErrDuplicateKey) {
		return model.Asset{}, apierror.BadRequest.WithDetails("storage key already registered")
	}
	if err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}

func (s *AssetService) List(ctx context.Context, principal model.Principal, collectionID string, page int, limit int) ([]model.Asset, model.Meta, error) {
	if _, err := ownedCollection(ctx, s.collections, principal, collectionID); err != nil {
		return nil, model.Meta{}, err
	}

	page, limit = normalizePage(page, limit)
	assets, total, err := s.assets.ListByCollection(ctx, collectionID, page, limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return assets, model.NewMeta(page, limit, total), nil
}

func (s *AssetService) DownloadURL(ctx context.Context, principal model.Principal, assetID string) (model.PresignedURL, error) {
	asset, err := s.ownedAsset(ctx, principal, assetID)
	if err != nil {
		return model.PresignedURL{}, err
	}
	if asset.Deleted {
		return model.PresignedURL{}, apierror.AssetNotFound.WithDetails(assetID)
	}

	presigned, err := s.objects.PresignDownload(ctx, asset.StorageKey, asset.Filename)
	if err != nil {
		slog.ErrorContext(ctx, "presign download failed", "asset_id", assetID, "error", err)
		return model.PresignedURL{}, apierror.StorageFailed
	}
	return presigned, nil
}

// Delete soft-deletes the asset; the object stays in the bucket.
func (s *AssetService) Delete(ctx context.Context, principal model.Principal, assetID string) error {
	if _, err := s.ownedAsset(ctx, principal, assetID); err != nil {
		return err
	}

	deleted, err := s.assets.SoftDelete(ctx, assetID, s.now().UTC())
	if err != nil {
		return err
	}
	if !deleted {
		return apierror.AssetAlreadyDeleted
	}
	return nil
}

// Update applies the non-nil fields of req to a live asset.
func (s *AssetService) Update(ctx context.Context, principal model.Principal, assetID string, req model.AssetUpdateRequest) (model.Asset, error) {
	if fields := req.Validate(); fields != nil {
		return model.Asset{}, apierror.Validation(fields)
	}
	asset, err := s.ownedAsset(ctx, principal, assetID)
	if err != nil {
		return model.Asset{}, err
	}
	if asset.Deleted {
		return model.Asset{}, apierror.AssetNotFound.WithDetails(assetID)
	}

	if req.Filename != nil {
		filename, err := util.SanitizeFilename(*req.Filename)
		if err != nil {
			return model.Asset{}, err
		}
		asset.Filename = filename
	}
	if req.ThumbnailURL != nil {
		asset.ThumbnailURL = strings.TrimSpace(*req.ThumbnailURL)
	}
	if req.Tags != nil {
		asset.Tags = cleanTags(*req.Tags)
	}
	asset.UpdatedAt = s.now().UTC()

	if err := s.assets.Update(ctx, asset); err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}

// ListDeleted pages over the caller's trash across all of their collections.
func (s *AssetService) ListDeleted(ctx context.Context, principal model.Principal, page int, limit int) ([]model.Asset, model.Meta, error) {
	page, limit = normalizePage(page, limit)
	assets, total, err := s.assets.ListDeletedByOwner(ctx, principal.UserID, page, limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return assets, model.NewMeta(page, limit, total), nil
}

// Restore takes a soft-deleted asset out of the trash.
func (s *AssetService) Restore(ctx context.Context, principal model.Principal, assetID string) (model.Asset, error) {
	asset, err := s.ownedAsset(ctx, principal, assetID)
	if err != nil {
		return model.Asset{}, err
	}

	now := s.now().UTC()
	restored, err := s.assets.Restore(ctx, assetID, now)
	if err != nil {
		return model.Asset{}, err
	}
	if !restored {
		return model.Asset{}, apierror.AssetNotDeleted
	}

	asset.Deleted = false
	asset.UpdatedAt = now
	return asset, nil
}

// HardDelete removes the object from the bucket, then the row. A failed
// object delete leaves the row so the call can be retried.
func (s *AssetService) HardDelete(ctx context.Context, principal model.Principal, assetID string) error {
	asset, err := s.ownedAsset(ctx, principal, assetID)
	if err != nil {
		return err
	}

	if err := s.objects.DeleteObject(ctx, asset.StorageKey); err != nil {
		slog.ErrorContext(ctx, "delete object failed", "asset_id", assetID, "error", err)
		return apierror.StorageFailed
	}
	if err := s.assets.HardDelete(ctx, assetID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "asset permanently deleted", "asset_id", assetID, "collection_id", asset.CollectionID)
	return nil
}

func (s *AssetService) ownedAsset(ctx context.Context, principal model.Principal, assetID string) (model.Asset, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return model.Asset{}, err
	}
	if _, err := ownedCollection(ctx, s.collections, principal, asset.CollectionID); err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}

func (s *AssetService) checkFile(contentType string, size int64) error {
	if !s.allowedMIME.Allows(contentType) {
		return apierror.FileTypeInvalid.WithDetails(contentType)
	}
	if size > s.maxUploadSize {
		return apierror.FileTooLarge
	}
	return nil
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
