package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	breaksout "studywarden/internal/modules/breaks/adapter/out"
	"studywarden/internal/modules/breaks/dto"
	breaksin "studywarden/internal/modules/breaks/port/in"
	"studywarden/internal/modules/breaks/service"
	"studywarden/internal/modules/breaks/usecase"
	"studywarden/internal/platform/config"
	"studywarden/internal/platform/database"
	apperrors "studywarden/internal/platform/errors"
)

func newArbiter(t *testing.T) breaksin.Usecase {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "breaks.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := breaksout.NewSQLiteCountStore(db)
	if err != nil {
		t.Fatalf("new count store: %v", err)
	}
	return usecase.NewInteractor(service.NewArbiterService(config.NewStaticPolicyStore(config.DefaultPolicy()), store))
}

func takeBreak(ctx context.Context, arbiter breaksin.Usecase, kind string) (dto.Decision, error) {
	decision, err := arbiter.CanBreak(ctx, dto.CanBreakInput{ProfileID: "p1", Day: "2026-03-02", Kind: kind})
	if err != nil {
		return dto.Decision{}, err
	}
	if _, err := arbiter.RecordBreak(ctx, "p1", "2026-03-02", kind); err != nil {
		return dto.Decision{}, err
	}
	return decision, nil
}

func TestHydrationCapIgnoresForcedBreaks(t *testing.T) {
	t.Parallel()
	arbiter := newArbiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := takeBreak(ctx, arbiter, "hydration"); err != nil {
			t.Fatalf("hydration %d: %v", i+1, err)
		}
	}
	forced, err := takeBreak(ctx, arbiter, "forced")
	if err != nil {
		t.Fatalf("forced break: %v", err)
	}
	if forced.DurationSeconds != 600 {
		t.Fatalf("expected policy forced duration 600, got %d", forced.DurationSeconds)
	}
	third, err := takeBreak(ctx, arbiter, "hydration")
	if err != nil {
		t.Fatalf("third hydration: %v", err)
	}
	if third.DurationSeconds != 300 {
		t.Fatalf("voluntary breaks share the 300s duration, got %d", third.DurationSeconds)
	}
	if _, err := takeBreak(ctx, arbiter, "hydration"); !errors.Is(err, apperrors.ErrBreakLimitExceeded) {
		t.Fatalf("expected fourth hydration to be denied, got %v", err)
	}
	if _, err := takeBreak(ctx, arbiter, "stretch"); err != nil {
		t.Fatalf("caps are per kind, stretch should pass: %v", err)
	}

	counts, err := arbiter.Counts(ctx, "p1", "2026-03-02")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["hydration"] != 3 || counts["forced"] != 1 || counts["stretch"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestProfileOverridesAndOpenBreak(t *testing.T) {
	t.Parallel()
	arbiter := newArbiter(t)
	ctx := context.Background()

	input := dto.CanBreakInput{ProfileID: "p1", Day: "2026-03-02", Kind: "restroom", Caps: map[string]int{"restroom": 0}}
	if _, err := arbiter.CanBreak(ctx, input); !errors.Is(err, apperrors.ErrBreakLimitExceeded) {
		t.Fatalf("profile cap 0 must deny, got %v", err)
	}
	input.OpenBreak = true
	if _, err := arbiter.CanBreak(ctx, input); !errors.Is(err, apperrors.ErrBreakAlreadyActive) {
		t.Fatalf("expected break already active, got %v", err)
	}
	forced, err := arbiter.CanBreak(ctx, dto.CanBreakInput{ProfileID: "p1", Day: "2026-03-02", Kind: "forced", ForcedSeconds: 120})
	if err != nil || forced.DurationSeconds != 120 {
		t.Fatalf("expected forced override 120s, got %+v err=%v", forced, err)
	}
}

func TestStudyWatchIsPerSession(t *testing.T) {
	t.Parallel()
	arbiter := newArbiter(t)
	if arbiter.ObserveStudy("s1", 50, 60) {
		t.Fatalf("must not fire below limit")
	}
	if arbiter.ObserveStudy("s2", 59, 60) {
		t.Fatalf("sessions must not share a watch")
	}
	if !arbiter.ObserveStudy("s1", 10, 60) {
		t.Fatalf("s1 should fire at 60s")
	}
	if arbiter.ObserveStudy("s1", 10, 60) {
		t.Fatalf("s1 must not fire twice")
	}
	arbiter.ResetWatch("s1")
	if !arbiter.ObserveStudy("s1", 60, 60) {
		t.Fatalf("s1 should fire again after reset")
	}
	arbiter.Forget("s1")
	if arbiter.ObserveStudy("s1", 1, 60) {
		t.Fatalf("forgotten watch restarts from zero")
	}
}
