package rpc_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/rpc"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestCodedErrorsRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code codes.Code
	}{
		{apperrors.ErrNoBudgetRemaining, codes.ResourceExhausted},
		{apperrors.ErrOutsideAllowedHours, codes.FailedPrecondition},
		{apperrors.ErrSessionAlreadyActive, codes.AlreadyExists},
		{apperrors.ErrBreakAlreadyActive, codes.FailedPrecondition},
		{apperrors.ErrBreakLimitExceeded, codes.ResourceExhausted},
		{apperrors.ErrInvalidTransition, codes.FailedPrecondition},
		{apperrors.ErrAnalysisUnavailable, codes.Unavailable},
		{apperrors.ErrPersistenceFailure, codes.Internal},
		{apperrors.ErrNotFound, codes.NotFound},
		{apperrors.ErrInvalidInput, codes.InvalidArgument},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("%w: session s-1", tc.err)
		st := rpc.ToStatus(wrapped)
		if got := status.Code(st); got != tc.code {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.code, got)
		}
		back := rpc.FromStatus(st)
		if !errors.Is(back, tc.err) {
			t.Fatalf("%v: rehydrated error lost its sentinel: %v", tc.err, back)
		}
	}
}

func TestContextErrorsMapToStatusCodes(t *testing.T) {
	t.Parallel()
	if got := status.Code(rpc.ToStatus(context.Canceled)); got != codes.Canceled {
		t.Fatalf("expected canceled, got %s", got)
	}
	if got := status.Code(rpc.ToStatus(fmt.Errorf("analyze: %w", context.DeadlineExceeded))); got != codes.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %s", got)
	}
	if rpc.ToStatus(nil) != nil {
		t.Fatalf("expected nil status for nil error")
	}
}

func TestUncodedStatusPassesThrough(t *testing.T) {
	t.Parallel()
	plain := status.Error(codes.Unimplemented, "nope")
	if got := rpc.FromStatus(plain); status.Code(got) != codes.Unimplemented {
		t.Fatalf("expected status unchanged, got %v", got)
	}
}

func TestGuardianFromIncomingMetadata(t *testing.T) {
	t.Parallel()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(rpc.GuardianHeader, " g-1 "))
	guardian, err := rpc.GuardianFrom(ctx)
	if err != nil || guardian != "g-1" {
		t.Fatalf("expected g-1, got %q err=%v", guardian, err)
	}
	if _, err := rpc.GuardianFrom(context.Background()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without metadata, got %v", err)
	}
}

func TestRehydratedMessageKeepsDetailOnce(t *testing.T) {
	t.Parallel()
	back := rpc.FromStatus(rpc.ToStatus(fmt.Errorf("%w: stretch", apperrors.ErrBreakLimitExceeded)))
	if got, want := back.Error(), "daily break limit reached: stretch"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
