package service

import (
	"context"
	"time"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

// ProfileService edits the caller's own account details and optional profile.
type ProfileService struct {
	users    userStore
	profiles profileStore
	now      func() time.Time
}

func NewProfileService(users userStore, profiles profileStore) *ProfileService {
	return &ProfileService{users: users, profiles: profiles, now: time.Now}
}

// UpdateAccount changes the display name. Username, email and password have
// their own flows.
func (s *ProfileService) UpdateAccount(ctx context.Context, principal model.Principal, req model.UpdateAccountRequest) (model.UserView, error) {
	req.Normalize()
	if fields := req.Validate(); fields != nil {
		return model.UserView{}, apierror.Validation(fields)
	}

	if err := s.users.UpdateFullName(ctx, principal.UserID, req.FullName); err != nil {
		return model.UserView{}, err
	}
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return model.UserView{}, err
	}
	return user.View(), nil
}

func (s *ProfileService) Get(ctx context.Context, principal model.Principal) (model.Profile, error) {
	return s.profiles.FindByUser(ctx, principal.UserID)
}

func (s *ProfileService) Create(ctx context.Context, principal model.Principal, req model.ProfileRequest) (model.Profile, error) {
	req.Normalize()
	if fields := req.Validate(); fields != nil {
		return model.Profile{}, apierror.Validation(fields)
	}
	if _, err := s.users.FindByID(ctx, principal.UserID); err != nil {
		return model.Profile{}, err
	}

	now := s.now().UTC()
	profile := model.Profile{
		UserID:      principal.UserID,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

// Update replaces every profile field with the request's.
func (s *ProfileService) Update(ctx context.Context, principal model.Principal, req model.ProfileRequest) (model.Profile, error) {
	req.Normalize()
	if fields := req.Validate(); fields != nil {
		return model.Profile{}, apierror.Validation(fields)
	}

	profile, err := s.profiles.FindByUser(ctx, principal.UserID)
	if err != nil {
		return model.Profile{}, err
	}
	profile.Bio = req.Bio
	profile.AvatarURL = req.AvatarURL
	profile.Address = req.Address
	profile.PhoneNumber = req.PhoneNumber
	profile.UpdatedAt = s.now().UTC()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

func (s *ProfileService) Delete(ctx context.Context, principal model.Principal) error {
	return s.profiles.Delete(ctx, principal.UserID)
}
