package usecase

import (
	"context"

	"studywarden/internal/modules/analysis/dto"
	analysisin "studywarden/internal/modules/analysis/port/in"
	"studywarden/internal/modules/analysis/service"
)

type Interactor struct {
	scheduler *service.Scheduler
}

func NewInteractor(scheduler *service.Scheduler) analysisin.Usecase {
	return &Interactor{scheduler: scheduler}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) error {
	return i.scheduler.Start(ctx, input)
}

func (i *Interactor) Stop(sessionID string) <-chan struct{} {
	return i.scheduler.Stop(sessionID)
}

func (i *Interactor) Running(sessionID string) bool {
	return i.scheduler.Running(sessionID)
}

func (i *Interactor) PushFrame(ctx context.Context, input dto.FrameInput) error {
	return i.scheduler.PushFrame(ctx, input)
}
