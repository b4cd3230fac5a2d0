package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const (
	publicIDLength       = 8
	maxPublicIDAttempts  = 10
	sharedLinkPathPrefix = "/api/v1/shared/"
)

// SharedLinkService issues and resolves public, optionally password-gated,
// read-only links to a collection. Access never creates a session.
type SharedLinkService struct {
	links       sharedLinkStore
	collections collectionStore
	assets      assetStore
	users       userStore
	hasher      PasswordHasher
	presigner   Presigner
	baseURL     string
	now         func() time.Time
}

func NewSharedLinkService(
	links sharedLinkStore,
	collections collectionStore,
	assets assetStore,
	users userStore,
	hasher PasswordHasher,
	presigner Presigner,
	baseURL string,
) *SharedLinkService {
	return &SharedLinkService{
		links:       links,
		collections: collections,
		assets:      assets,
		users:       users,
		hasher:      hasher,
		presigner:   presigner,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         time.Now,
	}
}

func (s *SharedLinkService) Create(ctx context.Context, principal model.Principal, req model.CreateSharedLinkRequest) (model.SharedLinkView, error) {
	if fields := req.Validate(); fields != nil {
		return model.SharedLinkView{}, apierror.Validation(fields)
	}

	collection, err := ownedCollection(ctx, s.collections, principal, req.CollectionID)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	exists, err := s.links.ExistsByCollectionID(ctx, collection.ID)
	if err != nil {
		return model.SharedLinkView{}, err
	}
	if exists {
		return model.SharedLinkView{}, apierror.SharedLinkAlreadyExists
	}

	passwordHash, err := s.hashOptional(req.Password)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	now := s.now().UTC()
	for attempt := 0; attempt < maxPublicIDAttempts; attempt++ {
		publicID := newPublicID()

		taken, err := s.links.ExistsByPublicID(ctx, publicID)
		if err != nil {
			return model.SharedLinkView{}, err
		}
		if taken {
			continue
		}

		link := model.SharedLink{
			Record:       model.NewRecord(uuid.NewString(), now),
			PublicID:     publicID,
			PasswordHash: passwordHash,
			CollectionID: collection.ID,
		}
		err = s.links.Create(ctx, link)
		if errors.Is(err, model.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return model.SharedLinkView{}, err
		}

		slog.InfoContext(ctx, "shared link created",
			"collection_id", collection.ID, "public_id", publicID, "password", link.HasPassword())
		return s.view(link, collection), nil
	}

	return model.SharedLinkView{}, fmt.Errorf("create shared link: no free public id after %d attempts", maxPublicIDAttempts)
}

func (s *SharedLinkService) GetByCollection(ctx context.Context, principal model.Principal, collectionID string) (model.SharedLinkView, error) {
	collection, err := ownedCollection(ctx, s.collections, principal, collectionID)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	link, err := s.links.FindByCollectionID(ctx, collection.ID)
	if err != nil {
		return model.SharedLinkView{}, err
	}
	return s.view(link, collection), nil
}

func (s *SharedLinkService) Delete(ctx context.Context, principal model.Principal, collectionID string) error {
	collection, err := ownedCollection(ctx, s.collections, principal, collectionID)
	if err != nil {
		return err
	}

	link, err := s.links.FindByCollectionID(ctx, collection.ID)
	if err != nil {
		return err
	}
	return s.links.Delete(ctx, link.ID)
}

// UpdatePassword sets, replaces or, with a nil or empty password, removes the gate.
func (s *SharedLinkService) UpdatePassword(ctx context.Context, principal model.Principal, collectionID string, password *string) (model.SharedLinkView, error) {
	collection, err := ownedCollection(ctx, s.collections, principal, collectionID)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	link, err := s.links.FindByCollectionID(ctx, collection.ID)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	passwordHash, err := s.hashOptional(password)
	if err != nil {
		return model.SharedLinkView{}, err
	}

	now := s.now().UTC()
	if err := s.links.UpdatePassword(ctx, link.ID, passwordHash, now); err != nil {
		return model.SharedLinkView{}, err
	}

	link.PasswordHash = passwordHash
	link.UpdatedAt = now
	return s.view(link, collection), nil
}

// Access resolves a public id to a read-only projection of the collection.
func (s *SharedLinkService) Access(ctx context.Context, publicID string, password *string) (model.SharedCollectionView, error) {
	link, err := s.links.FindByPublicID(ctx, strings.TrimSpace(publicID))
	if err != nil {
		return model.SharedCollectionView{}, err
	}

	if link.HasPassword() {
		if password == nil || *password == "" {
			return model.SharedCollectionView{}, apierror.SharedLinkPasswordRequired
		}
		if !s.hasher.Compare(*link.PasswordHash, *password) {
			return model.SharedCollectionView{}, apierror.SharedLinkPasswordIncorrect
		}
	}

	collection, err := s.collections.FindByID(ctx, link.CollectionID)
	if err != nil {
		return model.SharedCollectionView{}, err
	}

	owner, err := s.users.FindByID(ctx, collection.OwnerID)
	if err != nil {
		return model.SharedCollectionView{}, err
	}
	ownerName := owner.FullName
	if ownerName == "" {
		ownerName = owner.Username
	}

	assets, _, err := s.assets.ListByCollection(ctx, collection.ID, 1, 0)
	if err != nil {
		return model.SharedCollectionView{}, err
	}

	for i := range assets {
		presigned, err := s.presigner.PresignDownload(ctx, assets[i].StorageKey, assets[i].Filename)
		if err != nil {
			slog.ErrorContext(ctx, "presign shared asset failed", "asset_id", assets[i].ID, "error", err)
			return model.SharedCollectionView{}, apierror.StorageFailed
		}
		assets[i].DownloadURL = presigned.URL
	}

	return model.SharedCollectionView{
		CollectionName:        collection.Name,
		CollectionDescription: collection.Description,
		OwnerName:             ownerName,
		AssetCount:            len(assets),
		Assets:                assets,
	}, nil
}

func (s *SharedLinkService) hashOptional(password *string) (*string, error) {
	if password == nil || *password == "" {
		return nil, nil
	}
	hash, err := s.hasher.Hash(*password)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

func (s *SharedLinkService) view(link model.SharedLink, collection model.Collection) model.SharedLinkView {
	return model.SharedLinkView{
		ID:                    link.ID,
		PublicID:              link.PublicID,
		HasPassword:           link.HasPassword(),
		CollectionID:          collection.ID,
		CollectionName:        collection.Name,
		CollectionDescription: collection.Description,
		AssetCount:            collection.AssetCount,
		ShareURL:              s.baseURL + sharedLinkPathPrefix + link.PublicID,
		CreatedAt:             link.CreatedAt,
		UpdatedAt:             link.UpdatedAt,
	}
}

func newPublicID() string {
	return uuid.NewString()[:publicIDLength]
}
