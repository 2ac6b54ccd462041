package usecase

import (
	"context"
	"fmt"
	"strings"

	sessiondto "studywarden/internal/modules/session/dto"
	sessionin "studywarden/internal/modules/session/port/in"
	"studywarden/internal/modules/session/service"
	apperrors "studywarden/internal/platform/errors"
)

type Interactor struct {
	engine *service.Engine
}

func NewInteractor(engine *service.Engine) sessionin.Usecase {
	return &Interactor{engine: engine}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.SessionOutput, error) {
	if err := required("profile id", input.ProfileID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.Start(ctx, input.ProfileID)
}

func (i *Interactor) Stop(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	if err := required("session id", sessionID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.Stop(ctx, sessionID)
}

func (i *Interactor) RequestBreak(ctx context.Context, input sessiondto.BreakInput) (sessiondto.SessionOutput, error) {
	if err := required("session id", input.SessionID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if err := required("break kind", input.Kind); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.RequestBreak(ctx, input.SessionID, strings.ToLower(strings.TrimSpace(input.Kind)))
}

func (i *Interactor) Resume(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	if err := required("session id", sessionID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.Resume(ctx, sessionID)
}

func (i *Interactor) Snapshot(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	if err := required("session id", sessionID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.Snapshot(ctx, sessionID)
}

func (i *Interactor) Active(ctx context.Context, profileID string) (sessiondto.SessionOutput, error) {
	if err := required("profile id", profileID); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return i.engine.Active(ctx, profileID)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", apperrors.ErrInvalidInput, field)
	}
	return nil
}
