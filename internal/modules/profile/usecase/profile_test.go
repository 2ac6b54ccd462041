package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	profileout "studywarden/internal/modules/profile/adapter/out"
	"studywarden/internal/modules/profile/dto"
	profilein "studywarden/internal/modules/profile/port/in"
	"studywarden/internal/modules/profile/service"
	"studywarden/internal/modules/profile/usecase"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/database"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type fakeID struct{}

func (fakeID) New() string { return "kid-1" }

func newProfiles(t *testing.T) profilein.Usecase {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := profileout.NewSQLiteProfileStore(db)
	if err != nil {
		t.Fatalf("new profile store: %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return usecase.NewInteractor(service.NewProfileService(clk, fakeID{}, store, tx.NewSQLManager(db)))
}

func TestCreateGetAndUpdateSettings(t *testing.T) {
	t.Parallel()
	profiles := newProfiles(t)
	ctx := context.Background()

	created, err := profiles.Create(ctx, dto.CreateInput{GuardianID: "g-1", Name: "Mia", Tier: "standard"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if created.ID != "kid-1" || created.Score != 0 {
		t.Fatalf("unexpected created profile: %+v", created)
	}

	limit := 1200
	tier := "premium"
	updated, err := profiles.UpdateSettings(ctx, dto.SettingsInput{
		ProfileID:              created.ID,
		Tier:                   &tier,
		ContinuousLimitSeconds: &limit,
		BreakCaps:              map[string]int{"hydration": 5},
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Tier != "premium" || updated.ContinuousLimitSeconds != 1200 || updated.BreakCaps["hydration"] != 5 {
		t.Fatalf("settings not applied: %+v", updated)
	}

	loaded, err := profiles.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if loaded.BreakCaps["hydration"] != 5 || loaded.ForcedBreakSeconds != 0 {
		t.Fatalf("expected persisted tunables, got %+v", loaded)
	}
}

func TestAddScoreIsMonotonicAndValidatesInput(t *testing.T) {
	t.Parallel()
	profiles := newProfiles(t)
	ctx := context.Background()
	created, err := profiles.Create(ctx, dto.CreateInput{GuardianID: "g-1", Name: "Mia", Tier: "free"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	first, err := profiles.AddScore(ctx, created.ID, 2.5)
	if err != nil {
		t.Fatalf("add score: %v", err)
	}
	second, err := profiles.AddScore(ctx, created.ID, 4)
	if err != nil {
		t.Fatalf("add score: %v", err)
	}
	if first.Before != 0 || first.After != 2.5 || second.Before != 2.5 || second.After != 6.5 {
		t.Fatalf("unexpected score progression: %+v then %+v", first, second)
	}
	if _, err := profiles.AddScore(ctx, created.ID, -1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative amount, got %v", err)
	}
	if _, err := profiles.Get(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := profiles.Create(ctx, dto.CreateInput{Name: "NoGuardian"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without guardian, got %v", err)
	}
}
