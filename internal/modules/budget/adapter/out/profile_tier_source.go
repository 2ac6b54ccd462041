package out

import (
	"context"

	profilein "studywarden/internal/modules/profile/port/in"
)

// ProfileTierSource reads tiers from the profile module.
type ProfileTierSource struct {
	profiles profilein.Usecase
}

func NewProfileTierSource(profiles profilein.Usecase) *ProfileTierSource {
	return &ProfileTierSource{profiles: profiles}
}

func (s *ProfileTierSource) CurrentTier(ctx context.Context, profileID string) (string, error) {
	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return "", err
	}
	return profile.Tier, nil
}
