package usecase

import (
	"context"

	"studywarden/internal/modules/breaks/domain"
	"studywarden/internal/modules/breaks/dto"
	breaksin "studywarden/internal/modules/breaks/port/in"
	"studywarden/internal/modules/breaks/service"
)

type Interactor struct {
	svc *service.ArbiterService
}

func NewInteractor(svc *service.ArbiterService) breaksin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) CanBreak(ctx context.Context, input dto.CanBreakInput) (dto.Decision, error) {
	kind, err := domain.ParseKind(input.Kind)
	if err != nil {
		return dto.Decision{}, err
	}
	seconds, err := i.svc.Decide(ctx, input.ProfileID, input.Day, kind, input.OpenBreak, input.Caps, input.ForcedSeconds)
	if err != nil {
		return dto.Decision{}, err
	}
	return dto.Decision{Kind: string(kind), DurationSeconds: seconds}, nil
}

func (i *Interactor) RecordBreak(ctx context.Context, profileID, day, kind string) (int, error) {
	parsed, err := domain.ParseKind(kind)
	if err != nil {
		return 0, err
	}
	return i.svc.Record(ctx, profileID, day, parsed)
}

func (i *Interactor) Counts(ctx context.Context, profileID, day string) (map[string]int, error) {
	return i.svc.Counts(ctx, profileID, day)
}

func (i *Interactor) ObserveStudy(sessionID string, elapsedSeconds, limitSeconds int64) bool {
	return i.svc.ObserveStudy(sessionID, elapsedSeconds, limitSeconds)
}

func (i *Interactor) ResetWatch(sessionID string) {
	i.svc.ResetWatch(sessionID)
}

func (i *Interactor) ObserveAttention(sessionID string, focused, onSeat bool) (dto.Nudge, bool) {
	reason, misses, nudge := i.svc.ObserveAttention(sessionID, focused, onSeat)
	if !nudge {
		return dto.Nudge{}, false
	}
	return dto.Nudge{Reason: string(reason), Misses: misses}, true
}

func (i *Interactor) Forget(sessionID string) {
	i.svc.Forget(sessionID)
}
