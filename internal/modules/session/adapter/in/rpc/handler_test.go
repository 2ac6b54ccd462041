package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	analysisdto "studywarden/internal/modules/analysis/dto"
	budgetdto "studywarden/internal/modules/budget/dto"
	notifydto "studywarden/internal/modules/notify/dto"
	notifyin "studywarden/internal/modules/notify/port/in"
	notifyservice "studywarden/internal/modules/notify/service"
	notifyusecase "studywarden/internal/modules/notify/usecase"
	profiledto "studywarden/internal/modules/profile/dto"
	progressiondto "studywarden/internal/modules/progression/dto"
	wardenrpc "studywarden/internal/modules/session/adapter/in/rpc"
	sessiondto "studywarden/internal/modules/session/dto"
	"studywarden/internal/platform/clock"
	apperrors "studywarden/internal/platform/errors"
	platformrpc "studywarden/internal/platform/rpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]profiledto.ProfileOutput
}

func (f *fakeProfiles) Create(_ context.Context, input profiledto.CreateInput) (profiledto.ProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := profiledto.ProfileOutput{ID: fmt.Sprintf("p-%d", len(f.profiles)+1), GuardianID: input.GuardianID, Name: input.Name, Tier: input.Tier}
	f.profiles[out.ID] = out
	return out, nil
}

func (f *fakeProfiles) Get(_ context.Context, profileID string) (profiledto.ProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.profiles[profileID]
	if !ok {
		return profiledto.ProfileOutput{}, fmt.Errorf("%w: profile %s", apperrors.ErrNotFound, profileID)
	}
	return out, nil
}

func (f *fakeProfiles) UpdateSettings(ctx context.Context, input profiledto.SettingsInput) (profiledto.ProfileOutput, error) {
	return f.Get(ctx, input.ProfileID)
}

func (f *fakeProfiles) AddScore(context.Context, string, float64) (profiledto.ScoreOutput, error) {
	return profiledto.ScoreOutput{}, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]sessiondto.SessionOutput
}

func (f *fakeSessions) Start(_ context.Context, input sessiondto.StartInput) (sessiondto.SessionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ProfileID == input.ProfileID && s.Status == "studying" {
			return sessiondto.SessionOutput{}, fmt.Errorf("%w: session %s", apperrors.ErrSessionAlreadyActive, s.ID)
		}
	}
	out := sessiondto.SessionOutput{ID: "s-" + input.ProfileID, ProfileID: input.ProfileID, Status: "studying"}
	f.sessions[out.ID] = out
	return out, nil
}

func (f *fakeSessions) Stop(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.sessions[sessionID]
	if !ok {
		return sessiondto.SessionOutput{}, apperrors.ErrNotFound
	}
	out.Status = "finished"
	out.EndReason = "stopped"
	f.sessions[sessionID] = out
	return out, nil
}

func (f *fakeSessions) RequestBreak(_ context.Context, input sessiondto.BreakInput) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{}, fmt.Errorf("%w: %s cap reached", apperrors.ErrBreakLimitExceeded, input.Kind)
}

func (f *fakeSessions) Resume(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	return f.Snapshot(ctx, sessionID)
}

func (f *fakeSessions) Snapshot(_ context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.sessions[sessionID]
	if !ok {
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return out, nil
}

func (f *fakeSessions) Active(_ context.Context, profileID string) (sessiondto.SessionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ProfileID == profileID {
			return s, nil
		}
	}
	return sessiondto.SessionOutput{}, apperrors.ErrNotFound
}

type fakeBudget struct{}

func (fakeBudget) Consume(context.Context, budgetdto.ConsumeInput) (budgetdto.BudgetOutput, error) {
	return budgetdto.BudgetOutput{}, nil
}

func (fakeBudget) Remaining(_ context.Context, profileID, tier string) (budgetdto.BudgetOutput, error) {
	allowed := int64(3600)
	if tier == "premium" {
		allowed = 4 * 3600
	}
	return budgetdto.BudgetOutput{ProfileID: profileID, AllowedSeconds: allowed, RemainingSeconds: allowed}, nil
}

func (fakeBudget) Allowance(string) int64 { return 3600 }

type fakeProgression struct{}

func (fakeProgression) Award(context.Context, string, float64) (progressiondto.AwardOutput, error) {
	return progressiondto.AwardOutput{}, nil
}

func (fakeProgression) Get(_ context.Context, profileID string) (progressiondto.ProgressionOutput, error) {
	return progressiondto.ProgressionOutput{ProfileID: profileID, Stage: progressiondto.StageOutput{Name: "initial"}}, nil
}

type fakeAnalysis struct {
	mu     sync.Mutex
	frames []analysisdto.FrameInput
}

func (f *fakeAnalysis) Start(context.Context, analysisdto.StartInput) error { return nil }

func (f *fakeAnalysis) Stop(string) <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

func (f *fakeAnalysis) Running(string) bool { return true }

func (f *fakeAnalysis) PushFrame(_ context.Context, input analysisdto.FrameInput) error {
	f.mu.Lock()
	f.frames = append(f.frames, input)
	f.mu.Unlock()
	return nil
}

type signallingNotifier struct {
	notifyin.Usecase
	subscribed chan string
}

func (n *signallingNotifier) Subscribe(profileID string) notifyin.Subscription {
	sub := n.Usecase.Subscribe(profileID)
	n.subscribed <- profileID
	return sub
}

type harness struct {
	client   *wardenrpc.Client
	notifier *signallingNotifier
	analysis *fakeAnalysis
}

func newHarness(t *testing.T) harness {
	t.Helper()
	profiles := &fakeProfiles{profiles: map[string]profiledto.ProfileOutput{
		"p-alice": {ID: "p-alice", GuardianID: "g-alice", Name: "Alice", Tier: "premium"},
		"p-bob":   {ID: "p-bob", GuardianID: "g-bob", Name: "Bob", Tier: "free"},
	}}
	notifier := &signallingNotifier{
		Usecase:    notifyusecase.NewInteractor(notifyservice.NewHub(clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)), 16, nil)),
		subscribed: make(chan string, 4),
	}
	analysis := &fakeAnalysis{}
	handler := wardenrpc.NewHandler(wardenrpc.Dependencies{
		Sessions:    &fakeSessions{sessions: map[string]sessiondto.SessionOutput{}},
		Profiles:    profiles,
		Budget:      fakeBudget{},
		Progression: fakeProgression{},
		Analysis:    analysis,
		Notifier:    notifier,
	})

	listener := bufconn.Listen(1 << 20)
	server := platformrpc.NewServer(nil)
	wardenrpc.RegisterWardenServer(server, handler)
	go func() { _ = server.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return listener.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})
	return harness{client: wardenrpc.NewClient(conn), notifier: notifier, analysis: analysis}
}

func as(guardian string) context.Context {
	return platformrpc.WithGuardian(context.Background(), guardian)
}

func TestForeignProfileLooksAbsent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.client.StartSession(as("g-bob"), "p-alice")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for foreign profile, got %v", err)
	}
	if _, err := h.client.GetRemainingBudget(as("g-bob"), "p-alice"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found budget, got %v", err)
	}

	started, err := h.client.StartSession(as("g-alice"), "p-alice")
	if err != nil {
		t.Fatalf("start own profile: %v", err)
	}
	if _, err := h.client.StopSession(as("g-bob"), started.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found stopping foreign session, got %v", err)
	}
	if err := h.client.PushFrame(as("g-bob"), started.ID, []byte{1}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found pushing to foreign session, got %v", err)
	}
}

func TestCodedErrorsSurviveTheWire(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	started, err := h.client.StartSession(as("g-alice"), "p-alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.client.StartSession(as("g-alice"), "p-alice"); !errors.Is(err, apperrors.ErrSessionAlreadyActive) {
		t.Fatalf("expected session already active, got %v", err)
	}
	if _, err := h.client.RequestBreak(as("g-alice"), started.ID, "stretch"); !errors.Is(err, apperrors.ErrBreakLimitExceeded) {
		t.Fatalf("expected break limit exceeded, got %v", err)
	}
	if _, err := h.client.StartSession(context.Background(), "p-alice"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without guardian, got %v", err)
	}

	stopped, err := h.client.StopSession(as("g-alice"), started.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Status != "finished" || stopped.EndReason != "stopped" {
		t.Fatalf("expected finished/stopped, got %s/%s", stopped.Status, stopped.EndReason)
	}
}

func TestProfileCallsUseCallerGuardian(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	created, err := h.client.CreateProfile(as("g-carol"), "Carol", "standard")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.GuardianID != "g-carol" {
		t.Fatalf("expected guardian g-carol, got %q", created.GuardianID)
	}
	budget, err := h.client.GetRemainingBudget(as("g-alice"), "p-alice")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if budget.AllowedSeconds != 4*3600 {
		t.Fatalf("expected premium allowance from profile tier, got %d", budget.AllowedSeconds)
	}
	progress, err := h.client.GetProgression(as("g-alice"), "p-alice")
	if err != nil || progress.Stage.Name != "initial" {
		t.Fatalf("expected initial stage, got %+v err=%v", progress, err)
	}

	started, err := h.client.StartSession(as("g-alice"), "p-alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	snapshot, err := h.client.GetSessionSnapshot(as("g-alice"), wardenrpc.SnapshotRequest{ProfileID: "p-alice"})
	if err != nil || snapshot.ID != started.ID {
		t.Fatalf("expected active session %s, got %+v err=%v", started.ID, snapshot, err)
	}
	if err := h.client.PushFrame(as("g-alice"), started.ID, []byte{9, 9}); err != nil {
		t.Fatalf("push frame: %v", err)
	}
	h.analysis.mu.Lock()
	defer h.analysis.mu.Unlock()
	if len(h.analysis.frames) != 1 || h.analysis.frames[0].SessionID != started.ID {
		t.Fatalf("expected one frame for %s, got %+v", started.ID, h.analysis.frames)
	}
}

func TestSubscribeStreamsProfileEvents(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithCancel(as("g-alice"))
	defer cancel()
	events, err := h.client.Subscribe(ctx, "p-alice")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	select {
	case <-h.notifier.subscribed:
	case <-time.After(5 * time.Second):
		t.Fatalf("server never subscribed")
	}

	h.notifier.Publish(notifydto.Event{Kind: notifydto.KindRemainingTimeUpdated, ProfileID: "p-bob"})
	h.notifier.Publish(notifydto.Event{
		Kind:      notifydto.KindForcedBreak,
		ProfileID: "p-alice",
		SessionID: "s-1",
		Payload:   notifydto.ForcedBreakNotice{Message: "time to rest", DurationSeconds: 600},
	})

	msg, err := events.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if msg.Kind != string(notifydto.KindForcedBreak) || msg.SessionID != "s-1" {
		t.Fatalf("expected forced break for s-1, got %+v", msg)
	}
	var notice notifydto.ForcedBreakNotice
	if err := json.Unmarshal(msg.Payload, &notice); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if notice.DurationSeconds != 600 {
		t.Fatalf("expected 600s forced break, got %d", notice.DurationSeconds)
	}
}

func TestSubscribeRejectsForeignProfile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	events, err := h.client.Subscribe(as("g-bob"), "p-alice")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if _, err := events.Recv(); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
