package usecase_test

import (
	"context"
	"errors"
	"testing"

	sessiondto "studywarden/internal/modules/session/dto"
	"studywarden/internal/modules/session/usecase"
	apperrors "studywarden/internal/platform/errors"
)

func TestRequiredFieldsRejectedBeforeEngine(t *testing.T) {
	t.Parallel()
	interactor := usecase.NewInteractor(nil)
	ctx := context.Background()

	if _, err := interactor.Start(ctx, sessiondto.StartInput{ProfileID: "  "}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank profile, got %v", err)
	}
	if _, err := interactor.Stop(ctx, ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank session, got %v", err)
	}
	if _, err := interactor.RequestBreak(ctx, sessiondto.BreakInput{SessionID: "s-1"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank kind, got %v", err)
	}
	if _, err := interactor.Resume(ctx, ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for resume, got %v", err)
	}
	if _, err := interactor.Snapshot(ctx, ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for snapshot, got %v", err)
	}
	if _, err := interactor.Active(ctx, ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for active, got %v", err)
	}
}
