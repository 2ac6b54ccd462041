package usecase

import (
	"context"

	"studywarden/internal/modules/budget/domain"
	"studywarden/internal/modules/budget/dto"
	budgetin "studywarden/internal/modules/budget/port/in"
	"studywarden/internal/modules/budget/service"
)

type Interactor struct {
	svc *service.LedgerService
}

func NewInteractor(svc *service.LedgerService) budgetin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Consume(ctx context.Context, input dto.ConsumeInput) (dto.BudgetOutput, error) {
	entry, err := i.svc.Consume(ctx, input.ProfileID, input.Tier, input.Seconds)
	if err != nil {
		return dto.BudgetOutput{}, err
	}
	return toOutput(entry), nil
}

func (i *Interactor) Remaining(ctx context.Context, profileID, tier string) (dto.BudgetOutput, error) {
	entry, err := i.svc.Today(ctx, profileID, tier)
	if err != nil {
		return dto.BudgetOutput{}, err
	}
	return toOutput(entry), nil
}

func (i *Interactor) Allowance(tier string) int64 {
	return i.svc.Allowance(tier)
}

func toOutput(entry domain.Entry) dto.BudgetOutput {
	return dto.BudgetOutput{
		ProfileID:        entry.ProfileID,
		Day:              entry.Day,
		AllowedSeconds:   entry.AllowedSeconds,
		ConsumedSeconds:  entry.ConsumedSeconds,
		RemainingSeconds: entry.Remaining(),
		Exhausted:        entry.Exhausted(),
	}
}
