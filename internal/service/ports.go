package service

import (
	"context"
	"time"

	"arkive/internal/identity"
	"arkive/internal/model"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user model.User) error
	MarkVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	UpdateFullName(ctx context.Context, userID string, fullName string) error
}

type refreshTokenStore interface {
	Create(ctx context.Context, token model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Rotate(ctx context.Context, tokenHash string, now time.Time) (model.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, now time.Time) error
	RevokeFamily(ctx context.Context, familyID string, now time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error)
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}

type codeStore interface {
	Create(ctx context.Context, token model.EphemeralToken) error
	FindByCode(ctx context.Context, code string) (model.EphemeralToken, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Consume(ctx context.Context, id string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) error
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}

type denylistStore interface {
	Add(ctx context.Context, token model.InvalidatedToken) error
	Exists(ctx context.Context, id string) (bool, error)
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}

type collectionStore interface {
	Create(ctx context.Context, collection model.Collection) error
	FindByID(ctx context.Context, id string) (model.Collection, error)
	ListByOwner(ctx context.Context, ownerID string, page int, limit int) ([]model.Collection, int, error)
	Update(ctx context.Context, collection model.Collection) error
	Delete(ctx context.Context, id string) error
}

type assetStore interface {
	Create(ctx context.Context, asset model.Asset) error
	FindByID(ctx context.Context, id string) (model.Asset, error)
	ListByCollection(ctx context.Context, collectionID string, page int, limit int) ([]model.Asset, int, error)
	SoftDelete(ctx context.Context, id string, now time.Time) (bool, error)
	Update(ctx context.Context, asset model.Asset) error
	ListDeletedByOwner(ctx context.Context, ownerID string, page int, limit int) ([]model.Asset, int, error)
	Restore(ctx context.Context, id string, now time.Time) (bool, error)
	HardDelete(ctx context.Context, id string) error
}

type profileStore interface {
	Create(ctx context.Context, profile model.Profile) error
	FindByUser(ctx context.Context, userID string) (model.Profile, error)
	Update(ctx context.Context, profile model.Profile) error
	Delete(ctx context.Context, userID string) error
}

type sharedLinkStore interface {
	Create(ctx context.Context, link model.SharedLink) error
	FindByPublicID(ctx context.Context, publicID string) (model.SharedLink, error)
	FindByCollectionID(ctx context.Context, collectionID string) (model.SharedLink, error)
	ExistsByPublicID(ctx context.Context, publicID string) (bool, error)
	ExistsByCollectionID(ctx context.Context, collectionID string) (bool, error)
	UpdatePassword(ctx context.Context, id string, passwordHash *string, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) bool
}

type Mailer interface {
	Send(ctx context.Context, to string, templateName string, data map[string]any) error
}

type Presigner interface {
	PresignUpload(ctx context.Context, key string, contentType string, size int64) (model.PresignedURL, error)
	PresignDownload(ctx context.Context, key string, filename string) (model.PresignedURL, error)
}

// ObjectStorage is the bucket as seen by asset management.
type ObjectStorage interface {
	Presigner
	DeleteObject(ctx context.Context, key string) error
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (identity.Assertion, error)
}
