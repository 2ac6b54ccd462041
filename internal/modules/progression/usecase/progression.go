package usecase

import (
	"context"
	"fmt"

	profilein "studywarden/internal/modules/profile/port/in"
	"studywarden/internal/modules/progression/domain"
	"studywarden/internal/modules/progression/dto"
	progressionin "studywarden/internal/modules/progression/port/in"
	"studywarden/internal/modules/progression/service"
	apperrors "studywarden/internal/platform/errors"
)

type Interactor struct {
	svc      *service.ProgressionService
	profiles profilein.Usecase
}

func NewInteractor(svc *service.ProgressionService, profiles profilein.Usecase) progressionin.Usecase {
	return &Interactor{svc: svc, profiles: profiles}
}

func (i *Interactor) Award(ctx context.Context, profileID string, amount float64) (dto.AwardOutput, error) {
	if amount < 0 {
		return dto.AwardOutput{}, fmt.Errorf("%w: award must be non-negative", apperrors.ErrInvalidInput)
	}
	score, err := i.profiles.AddScore(ctx, profileID, amount)
	if err != nil {
		return dto.AwardOutput{}, err
	}
	out := dto.AwardOutput{Progression: i.view(profileID, score.After)}
	if transition := i.svc.Compare(score.Before, score.After); transition != nil {
		out.Transition = &dto.TransitionOutput{
			ProfileID: profileID,
			Score:     score.After,
			From:      toStage(transition.From),
			To:        toStage(transition.To),
		}
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, profileID string) (dto.ProgressionOutput, error) {
	profile, err := i.profiles.Get(ctx, profileID)
	if err != nil {
		return dto.ProgressionOutput{}, err
	}
	return i.view(profileID, profile.Score), nil
}

func (i *Interactor) view(profileID string, score float64) dto.ProgressionOutput {
	thresholds := i.svc.Thresholds()
	out := dto.ProgressionOutput{
		ProfileID:  profileID,
		Score:      score,
		Stage:      toStage(domain.CurrentStage(score, thresholds)),
		StageCount: len(thresholds) + 1,
	}
	if next, ok := domain.NextThreshold(score, thresholds); ok {
		stage := toStage(domain.CurrentStage(next.MinScore, thresholds))
		out.NextStage = &stage
		out.PointsToNext = next.MinScore - score
	}
	return out
}

func toStage(stage domain.Stage) dto.StageOutput {
	return dto.StageOutput{Index: stage.Index, Name: stage.Name, MinScore: stage.MinScore}
}
