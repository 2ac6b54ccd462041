package usecase

import (
	"context"

	"studywarden/internal/modules/profile/domain"
	"studywarden/internal/modules/profile/dto"
	profilein "studywarden/internal/modules/profile/port/in"
	"studywarden/internal/modules/profile/service"
)

type Interactor struct {
	svc *service.ProfileService
}

func NewInteractor(svc *service.ProfileService) profilein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Create(ctx context.Context, input dto.CreateInput) (dto.ProfileOutput, error) {
	profile, err := i.svc.Create(ctx, input.GuardianID, input.Name, input.Tier)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) Get(ctx context.Context, profileID string) (dto.ProfileOutput, error) {
	profile, err := i.svc.Get(ctx, profileID)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) UpdateSettings(ctx context.Context, input dto.SettingsInput) (dto.ProfileOutput, error) {
	profile, err := i.svc.Update(ctx, input.ProfileID, func(p *domain.Profile) error {
		if input.Tier != nil {
			p.Tier = *input.Tier
		}
		if input.ContinuousLimitSeconds != nil {
			p.Tunables.ContinuousLimitSeconds = *input.ContinuousLimitSeconds
		}
		if input.ForcedBreakSeconds != nil {
			p.Tunables.ForcedBreakSeconds = *input.ForcedBreakSeconds
		}
		if input.BreakCaps != nil {
			caps := make(map[string]int, len(input.BreakCaps))
			for kind, limit := range input.BreakCaps {
				caps[kind] = limit
			}
			p.Tunables.BreakCaps = caps
		}
		return nil
	})
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) AddScore(ctx context.Context, profileID string, amount float64) (dto.ScoreOutput, error) {
	before, after, err := i.svc.AddScore(ctx, profileID, amount)
	if err != nil {
		return dto.ScoreOutput{}, err
	}
	return dto.ScoreOutput{ProfileID: profileID, Before: before, After: after}, nil
}

func toOutput(p domain.Profile) dto.ProfileOutput {
	return dto.ProfileOutput{
		ID:                     p.ID,
		GuardianID:             p.GuardianID,
		Name:                   p.Name,
		Tier:                   p.Tier,
		Score:                  p.Score,
		ContinuousLimitSeconds: p.Tunables.ContinuousLimitSeconds,
		ForcedBreakSeconds:     p.Tunables.ForcedBreakSeconds,
		BreakCaps:              p.Tunables.BreakCaps,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}
