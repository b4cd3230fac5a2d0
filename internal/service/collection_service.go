package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type CollectionService struct {
	collections collectionStore
	now         func() time.Time
}

func NewCollectionService(collections collectionStore) *CollectionService {
	return &CollectionService{collections: collections, now: time.Now}
}

func (s *CollectionService) Create(ctx context.Context, principal model.Principal, req model.CollectionRequest) (model.Collection, error) {
	if fields := req.Validate(); fields != nil {
		return model.Collection{}, apierror.Validation(fields)
	}

	collection := model.Collection{
		Record:      model.NewRecord(uuid.NewString(), s.now().UTC()),
		OwnerID:     principal.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return model.Collection{}, err
	}
	return collection, nil
}

func (s *CollectionService) List(ctx context.Context, principal model.Principal, page int, limit int) ([]model.Collection, model.Meta, error) {
	page, limit = normalizePage(page, limit)

	collections, total, err := s.collections.ListByOwner(ctx, principal.UserID, page, limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return collections, model.NewMeta(page, limit, total), nil
}

func (s *CollectionService) Get(ctx context.Context, principal model.Principal, id string) (model.Collection, error) {
	return s.owned(ctx, principal, id)
}

func (s *CollectionService) Update(ctx context.Context, principal model.Principal, id string, req model.CollectionRequest) (model.Collection, error) {
	if fields := req.Validate(); fields != nil {
		return model.Collection{}, apierror.Validation(fields)
	}

	collection, err := s.owned(ctx, principal, id)
	if err != nil {
		return model.Collection{}, err
	}

	collection.Name = strings.TrimSpace(req.Name)
	collection.Description = strings.TrimSpace(req.Description)
	collection.UpdatedAt = s.now().UTC()
	if err := s.collections.Update(ctx, collection); err != nil {
		return model.Collection{}, err
	}
	return collection, nil
}

func (s *CollectionService) Delete(ctx context.Context, principal model.Principal, id string) error {
	if _, err := s.owned(ctx, principal, id); err != nil {
		return err
	}
	return s.collections.Delete(ctx, id)
}

// owned loads the collection and fails with Unauthorized unless the caller owns it.
func (s *CollectionService) owned(ctx context.Context, principal model.Principal, id string) (model.Collection, error) {
	return ownedCollection(ctx, s.collections, principal, id)
}

func ownedCollection(ctx context.Context, collections collectionStore, principal model.Principal, id string) (model.Collection, error) {
	collection, err := collections.FindByID(ctx, id)
	if err != nil {
		return model.Collection{}, err
	}
	if collection.OwnerID != principal.UserID {
		return model.Collection{}, apierror.Unauthorized
	}
	return collection, nil
}

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
