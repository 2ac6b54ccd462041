package in

import (
	"context"

	"studywarden/internal/modules/progression/dto"
)

type Usecase interface {
	Award(ctx context.Context, profileID string, amount float64) (dto.AwardOutput, error)
	Get(ctx context.Context, profileID string) (dto.ProgressionOutput, error)
}
