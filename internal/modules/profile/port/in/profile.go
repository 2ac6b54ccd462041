package in

import (
	"context"

	"studywarden/internal/modules/profile/dto"
)

type Usecase interface {
	Create(ctx context.Context, input dto.CreateInput) (dto.ProfileOutput, error)
	Get(ctx context.Context, profileID string) (dto.ProfileOutput, error)
	UpdateSettings(ctx context.Context, input dto.SettingsInput) (dto.ProfileOutput, error)
	AddScore(ctx context.Context, profileID string, amount float64) (dto.ScoreOutput, error)
}
