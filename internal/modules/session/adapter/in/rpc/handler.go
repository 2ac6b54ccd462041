package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	analysisdto "studywarden/internal/modules/analysis/dto"
	analysisin "studywarden/internal/modules/analysis/port/in"
	budgetdto "studywarden/internal/modules/budget/dto"
	budgetin "studywarden/internal/modules/budget/port/in"
	notifydto "studywarden/internal/modules/notify/dto"
	notifyin "studywarden/internal/modules/notify/port/in"
	profiledto "studywarden/internal/modules/profile/dto"
	profilein "studywarden/internal/modules/profile/port/in"
	progressiondto "studywarden/internal/modules/progression/dto"
	progressionin "studywarden/internal/modules/progression/port/in"
	sessiondto "studywarden/internal/modules/session/dto"
	sessionin "studywarden/internal/modules/session/port/in"
	apperrors "studywarden/internal/platform/errors"
	platformrpc "studywarden/internal/platform/rpc"

	"go.uber.org/zap"
)

type Dependencies struct {
	Sessions    sessionin.Usecase
	Profiles    profilein.Usecase
	Budget      budgetin.Usecase
	Progression progressionin.Usecase
	Analysis    analysisin.Usecase
	Notifier    notifyin.Usecase
	Logger      *zap.Logger
}

// Handler serves the Warden API. Every call is scoped to profiles owned by
// the calling guardian; foreign profiles look absent.
type Handler struct {
	deps   Dependencies
	logger *zap.Logger
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{deps: deps, logger: logger.Named("warden")}
}

func (h *Handler) StartSession(ctx context.Context, in *StartSessionRequest) (*sessiondto.SessionOutput, error) {
	if _, err := h.owned(ctx, in.ProfileID); err != nil {
		return nil, err
	}
	out, err := h.deps.Sessions.Start(ctx, sessiondto.StartInput{ProfileID: in.ProfileID})
	return wrap(out, err)
}

func (h *Handler) StopSession(ctx context.Context, in *SessionRequest) (*sessiondto.SessionOutput, error) {
	if err := h.ownedSession(ctx, in.SessionID); err != nil {
		return nil, err
	}
	out, err := h.deps.Sessions.Stop(ctx, in.SessionID)
	return wrap(out, err)
}

func (h *Handler) RequestBreak(ctx context.Context, in *BreakRequest) (*sessiondto.SessionOutput, error) {
	if err := h.ownedSession(ctx, in.SessionID); err != nil {
		return nil, err
	}
	out, err := h.deps.Sessions.RequestBreak(ctx, sessiondto.BreakInput{SessionID: in.SessionID, Kind: in.Kind})
	return wrap(out, err)
}

func (h *Handler) Resume(ctx context.Context, in *SessionRequest) (*sessiondto.SessionOutput, error) {
	if err := h.ownedSession(ctx, in.SessionID); err != nil {
		return nil, err
	}
	out, err := h.deps.Sessions.Resume(ctx, in.SessionID)
	return wrap(out, err)
}

func (h *Handler) GetSessionSnapshot(ctx context.Context, in *SnapshotRequest) (*sessiondto.SessionOutput, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		if _, err := h.owned(ctx, in.ProfileID); err != nil {
			return nil, err
		}
		out, err := h.deps.Sessions.Active(ctx, in.ProfileID)
		return wrap(out, err)
	}
	guardian, err := platformrpc.GuardianFrom(ctx)
	if err != nil {
		return nil, err
	}
	out, err := h.deps.Sessions.Snapshot(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if err := h.checkOwner(ctx, guardian, out.ProfileID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handler) GetRemainingBudget(ctx context.Context, in *ProfileRequest) (*budgetdto.BudgetOutput, error) {
	profile, err := h.owned(ctx, in.ProfileID)
	if err != nil {
		return nil, err
	}
	out, err := h.deps.Budget.Remaining(ctx, profile.ID, profile.Tier)
	return wrap(out, err)
}

func (h *Handler) GetProgression(ctx context.Context, in *ProfileRequest) (*progressiondto.ProgressionOutput, error) {
	if _, err := h.owned(ctx, in.ProfileID); err != nil {
		return nil, err
	}
	out, err := h.deps.Progression.Get(ctx, in.ProfileID)
	return wrap(out, err)
}

func (h *Handler) CreateProfile(ctx context.Context, in *CreateProfileRequest) (*profiledto.ProfileOutput, error) {
	guardian, err := platformrpc.GuardianFrom(ctx)
	if err != nil {
		return nil, err
	}
	out, err := h.deps.Profiles.Create(ctx, profiledto.CreateInput{GuardianID: guardian, Name: in.Name, Tier: in.Tier})
	return wrap(out, err)
}

func (h *Handler) GetProfile(ctx context.Context, in *ProfileRequest) (*profiledto.ProfileOutput, error) {
	profile, err := h.owned(ctx, in.ProfileID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (h *Handler) UpdateSettings(ctx context.Context, in *SettingsRequest) (*profiledto.ProfileOutput, error) {
	if _, err := h.owned(ctx, in.ProfileID); err != nil {
		return nil, err
	}
	out, err := h.deps.Profiles.UpdateSettings(ctx, profiledto.SettingsInput{
		ProfileID:              in.ProfileID,
		Tier:                   in.Tier,
		ContinuousLimitSeconds: in.ContinuousLimitSeconds,
		ForcedBreakSeconds:     in.ForcedBreakSeconds,
		BreakCaps:              in.BreakCaps,
	})
	return wrap(out, err)
}

func (h *Handler) PushFrame(ctx context.Context, in *FrameRequest) (*Empty, error) {
	if err := h.ownedSession(ctx, in.SessionID); err != nil {
		return nil, err
	}
	if err := h.deps.Analysis.PushFrame(ctx, analysisdto.FrameInput{SessionID: in.SessionID, Image: in.Image}); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// Subscribe forwards the profile's events until the client goes away.
func (h *Handler) Subscribe(in *SubscribeRequest, stream EventStream) error {
	ctx := stream.Context()
	if _, err := h.owned(ctx, in.ProfileID); err != nil {
		return err
	}
	sub := h.deps.Notifier.Subscribe(in.ProfileID)
	defer func() {
		if dropped := sub.Dropped(); dropped > 0 {
			h.logger.Info("subscriber dropped events", zap.String("profile_id", in.ProfileID), zap.Uint64("dropped", dropped))
		}
		sub.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			msg, err := ToEventMessage(event)
			if err != nil {
				h.logger.Warn("encode event", zap.String("kind", string(event.Kind)), zap.Error(err))
				continue
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func ToEventMessage(event notifydto.Event) (*EventMessage, error) {
	msg := &EventMessage{
		Kind:       string(event.Kind),
		ProfileID:  event.ProfileID,
		SessionID:  event.SessionID,
		OccurredAt: event.OccurredAt,
	}
	if event.Payload != nil {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event.Kind, err)
		}
		msg.Payload = payload
	}
	return msg, nil
}

func (h *Handler) owned(ctx context.Context, profileID string) (profiledto.ProfileOutput, error) {
	guardian, err := platformrpc.GuardianFrom(ctx)
	if err != nil {
		return profiledto.ProfileOutput{}, err
	}
	if strings.TrimSpace(profileID) == "" {
		return profiledto.ProfileOutput{}, fmt.Errorf("%w: profile id is required", apperrors.ErrInvalidInput)
	}
	profile, err := h.deps.Profiles.Get(ctx, profileID)
	if err != nil {
		return profiledto.ProfileOutput{}, err
	}
	if profile.GuardianID != guardian {
		return profiledto.ProfileOutput{}, fmt.Errorf("%w: profile %s", apperrors.ErrNotFound, profileID)
	}
	return profile, nil
}

func (h *Handler) ownedSession(ctx context.Context, sessionID string) error {
	guardian, err := platformrpc.GuardianFrom(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	out, err := h.deps.Sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	return h.checkOwner(ctx, guardian, out.ProfileID)
}

func (h *Handler) checkOwner(ctx context.Context, guardian, profileID string) error {
	profile, err := h.deps.Profiles.Get(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.GuardianID != guardian {
		return fmt.Errorf("%w: session of profile %s", apperrors.ErrNotFound, profileID)
	}
	return nil
}

func wrap[T any](out T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &out, nil
}
