package in

import (
	"context"

	"studywarden/internal/modules/budget/dto"
)

type Usecase interface {
	Consume(ctx context.Context, input dto.ConsumeInput) (dto.BudgetOutput, error)
	Remaining(ctx context.Context, profileID, tier string) (dto.BudgetOutput, error)
	Allowance(tier string) int64
}
