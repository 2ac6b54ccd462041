package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	analysisdto "studywarden/internal/modules/analysis/dto"
	analysisin "studywarden/internal/modules/analysis/port/in"
	breaksdto "studywarden/internal/modules/breaks/dto"
	breaksin "studywarden/internal/modules/breaks/port/in"
	budgetdto "studywarden/internal/modules/budget/dto"
	budgetin "studywarden/internal/modules/budget/port/in"
	notifydto "studywarden/internal/modules/notify/dto"
	notifyin "studywarden/internal/modules/notify/port/in"
	profilein "studywarden/internal/modules/profile/port/in"
	progressionin "studywarden/internal/modules/progression/port/in"
	"studywarden/internal/modules/session/domain"
	sessiondto "studywarden/internal/modules/session/dto"
	sessionout "studywarden/internal/modules/session/port/out"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/config"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/id"
	"studywarden/internal/platform/tx"

	"go.uber.org/zap"
)

const (
	DefaultTickInterval = time.Second
	forcedBreakMessage  = "Time for a rest. Studying resumes automatically when the break is over."
)

type Dependencies struct {
	Clock        clock.Clock
	IDs          id.Generator
	Store        sessionout.SessionStore
	Tx           tx.Manager
	Policy       *config.PolicyStore
	Profiles     profilein.Usecase
	Budget       budgetin.Usecase
	Breaks       breaksin.Usecase
	Progression  progressionin.Usecase
	Analysis     analysisin.Usecase
	Notifier     notifyin.Usecase
	Logger       *zap.Logger
	TickInterval time.Duration
}

// Engine is the session state machine. Every mutation of a live session runs
// under that session's lock; the tick loop, analysis ingestion and commands
// never interleave for the same session.
type Engine struct {
	deps   Dependencies
	logger *zap.Logger

	starting profileLocks

	mu        sync.Mutex
	live      map[string]*liveSession
	byProfile map[string]string
}

type liveSession struct {
	mu      sync.Mutex
	session domain.Session
	// accounted is how far studying time has been charged to the ledger.
	accounted time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	tickDone chan struct{}
}

func NewEngine(deps Dependencies) *Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Tx == nil {
		deps.Tx = tx.NoopManager{}
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = DefaultTickInterval
	}
	return &Engine{
		deps:      deps,
		logger:    deps.Logger.Named("session"),
		live:      map[string]*liveSession{},
		byProfile: map[string]string{},
	}
}

func (e *Engine) Start(ctx context.Context, profileID string) (sessiondto.SessionOutput, error) {
	defer e.starting.lock(profileID)()

	profile, err := e.deps.Profiles.Get(ctx, profileID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	policy := e.deps.Policy.Current()
	now := e.deps.Clock.Now()
	if !policy.Allowed(now) {
		return sessiondto.SessionOutput{}, apperrors.ErrOutsideAllowedHours
	}
	if e.activeID(profileID) != "" {
		return sessiondto.SessionOutput{}, apperrors.ErrSessionAlreadyActive
	}
	budget, err := e.deps.Budget.Remaining(ctx, profileID, profile.Tier)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if budget.RemainingSeconds <= 0 {
		return sessiondto.SessionOutput{}, apperrors.ErrNoBudgetRemaining
	}

	session := domain.New(e.deps.IDs.New(), profileID, profile.Tier, domain.Tunables{
		ContinuousLimitSeconds: profile.ContinuousLimitSeconds,
		ForcedBreakSeconds:     profile.ForcedBreakSeconds,
		BreakCaps:              profile.BreakCaps,
	}, now)
	if err := session.Begin(now); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if err := e.deps.Store.Save(ctx, session); err != nil {
		return sessiondto.SessionOutput{}, persistenceFailure(err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{
		session:   session.Clone(),
		accounted: now,
		ctx:       loopCtx,
		cancel:    cancel,
		tickDone:  make(chan struct{}),
	}
	e.mu.Lock()
	e.live[session.ID] = ls
	e.byProfile[profileID] = session.ID
	e.mu.Unlock()

	ls.mu.Lock()
	defer ls.mu.Unlock()
	go e.runTicks(ls, e.deps.Clock.NewTicker(e.deps.TickInterval))
	e.startAnalysisLocked(ls)
	e.publishSession(ls.session, now)
	e.logger.Info("session started", zap.String("session_id", session.ID), zap.String("profile_id", profileID), zap.Int64("remaining_seconds", budget.RemainingSeconds))
	return ToOutput(ls.session, now), nil
}

// Stop finishes a live session. Stopping a finished session returns its
// snapshot unchanged.
func (e *Engine) Stop(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	ls := e.lookup(sessionID)
	if ls == nil {
		return e.stopStored(ctx, sessionID)
	}
	ls.mu.Lock()
	now := e.deps.Clock.Now()
	if !ls.session.Status.Active() {
		out := ToOutput(ls.session, now)
		ls.mu.Unlock()
		return out, nil
	}
	reason := domain.ReasonStopped
	if e.settleLocked(ctx, ls, now) {
		reason = domain.ReasonNoBudgetRemaining
	}
	waits, err := e.finishLocked(ctx, ls, reason, now)
	if err != nil {
		ls.mu.Unlock()
		return sessiondto.SessionOutput{}, err
	}
	out := ToOutput(ls.session, now)
	ls.mu.Unlock()
	awaitAll(append(waits, ls.tickDone))
	return out, nil
}

func (e *Engine) RequestBreak(ctx context.Context, sessionID, kind string) (sessiondto.SessionOutput, error) {
	if kind == domain.KindForced {
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: forced breaks are system-initiated", apperrors.ErrInvalidInput)
	}
	ls := e.lookup(sessionID)
	if ls == nil {
		return sessiondto.SessionOutput{}, e.notLive(ctx, sessionID)
	}
	ls.mu.Lock()
	if !ls.session.Status.Active() {
		ls.mu.Unlock()
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: session is %s", apperrors.ErrInvalidTransition, ls.session.Status)
	}
	now := e.deps.Clock.Now()
	day := e.deps.Policy.Current().Day(now)
	decision, err := e.deps.Breaks.CanBreak(ctx, breaksdto.CanBreakInput{
		ProfileID: ls.session.ProfileID,
		Day:       day,
		Kind:      kind,
		OpenBreak: ls.session.OpenBreak() >= 0,
		Caps:      ls.session.Tunables.BreakCaps,
	})
	if err != nil {
		ls.mu.Unlock()
		return sessiondto.SessionOutput{}, err
	}
	if e.settleLocked(ctx, ls, now) {
		waits, err := e.finishLocked(ctx, ls, domain.ReasonNoBudgetRemaining, now)
		ls.mu.Unlock()
		awaitAll(append(waits, ls.tickDone))
		if err != nil {
			return sessiondto.SessionOutput{}, err
		}
		return sessiondto.SessionOutput{}, apperrors.ErrNoBudgetRemaining
	}
	waits, err := e.openBreakLocked(ctx, ls, decision.Kind, decision.DurationSeconds, day, now)
	if err != nil {
		ls.mu.Unlock()
		return sessiondto.SessionOutput{}, err
	}
	out := ToOutput(ls.session, now)
	ls.mu.Unlock()
	awaitAll(waits)
	return out, nil
}

func (e *Engine) Resume(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	ls := e.lookup(sessionID)
	if ls == nil {
		return sessiondto.SessionOutput{}, e.notLive(ctx, sessionID)
	}
	ls.mu.Lock()
	if ls.session.Status != domain.StatusBreak {
		ls.mu.Unlock()
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: session is %s", apperrors.ErrInvalidTransition, ls.session.Status)
	}
	now := e.deps.Clock.Now()
	waits, err := e.resumeLocked(ctx, ls, now)
	out := ToOutput(ls.session, now)
	ls.mu.Unlock()
	if len(waits) > 0 {
		awaitAll(append(waits, ls.tickDone))
	}
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return out, nil
}

func (e *Engine) Snapshot(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	if ls := e.lookup(sessionID); ls != nil {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		return ToOutput(ls.session, e.deps.Clock.Now()), nil
	}
	session, err := e.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return ToOutput(session, e.deps.Clock.Now()), nil
}

func (e *Engine) Active(ctx context.Context, profileID string) (sessiondto.SessionOutput, error) {
	if sessionID := e.activeID(profileID); sessionID != "" {
		return e.Snapshot(ctx, sessionID)
	}
	session, err := e.deps.Store.LatestForProfile(ctx, profileID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return ToOutput(session, e.deps.Clock.Now()), nil
}

// Tick charges elapsed studying time and applies every time-driven
// transition: budget exhaustion, leaving the allowed hours, the forced break
// and break expiry. The tick loop calls it once per interval.
func (e *Engine) Tick(ctx context.Context, sessionID string) error {
	ls := e.lookup(sessionID)
	if ls == nil {
		return nil
	}
	ls.mu.Lock()
	if ls.ctx.Err() != nil || !ls.session.Status.Active() {
		ls.mu.Unlock()
		return nil
	}
	waits, err := e.tickLocked(ctx, ls)
	ls.mu.Unlock()
	awaitAll(waits)
	return err
}

// Ingest applies one analysis result to a studying session. Results that
// arrive after the scheduler was stopped are dropped.
func (e *Engine) Ingest(ctx context.Context, sessionID string, result analysisdto.Result) {
	ls := e.lookup(sessionID)
	if ls == nil {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ctx.Err() != nil || ls.ctx.Err() != nil || ls.session.Status != domain.StatusStudying {
		return
	}
	logger := e.logger.With(zap.String("session_id", sessionID))
	now := e.deps.Clock.Now()
	profileID := ls.session.ProfileID

	if result.CostUnits > 0 {
		award, err := e.deps.Progression.Award(ctx, profileID, result.CostUnits)
		if err != nil {
			logger.Warn("progression award failed", zap.Error(err))
		} else if award.Transition != nil {
			e.publish(notifydto.KindStageChanged, profileID, sessionID, *award.Transition)
		}
	}
	if nudge, ok := e.deps.Breaks.ObserveAttention(sessionID, result.Focused, result.OnSeat); ok {
		e.publish(notifydto.KindAttentionNudge, profileID, sessionID, notifydto.AttentionNotice{Reason: nudge.Reason, Misses: nudge.Misses})
	}

	observedAt := result.AnalyzedAt
	if observedAt.IsZero() {
		observedAt = now
	}
	next := ls.session.Clone()
	next.Observe(result.Focused, result.OnSeat, observedAt)
	if err := e.deps.Store.Save(ctx, next); err != nil {
		logger.Warn("attention not recorded", zap.Error(err))
		return
	}
	ls.session = next
	e.publishSession(ls.session, now)
}

// Recover closes sessions left non-terminal by a previous process. Their
// timers did not survive the restart, so they end as interrupted.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	sessions, err := e.deps.Store.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}
	now := e.deps.Clock.Now()
	recovered := 0
	for _, session := range sessions {
		if e.lookup(session.ID) != nil {
			continue
		}
		next := session.Clone()
		next.Interrupt(now)
		if err := e.deps.Store.Save(ctx, next); err != nil {
			return recovered, persistenceFailure(err)
		}
		recovered++
		e.logger.Info("session interrupted by restart", zap.String("session_id", session.ID), zap.String("profile_id", session.ProfileID))
	}
	return recovered, nil
}

// Shutdown finishes every live session as interrupted and waits for their
// loops to exit.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	sessions := make([]*liveSession, 0, len(e.live))
	for _, ls := range e.live {
		sessions = append(sessions, ls)
	}
	e.mu.Unlock()

	for _, ls := range sessions {
		ls.mu.Lock()
		waits := []<-chan struct{}{}
		if ls.session.Status.Active() {
			now := e.deps.Clock.Now()
			reason := domain.ReasonInterrupted
			if e.settleLocked(ctx, ls, now) {
				reason = domain.ReasonNoBudgetRemaining
			}
			finished, err := e.finishLocked(ctx, ls, reason, now)
			if err != nil {
				e.logger.Warn("session not finished at shutdown", zap.String("session_id", ls.session.ID), zap.Error(err))
				ls.cancel()
				waits = append(waits, e.deps.Analysis.Stop(ls.session.ID))
				e.release(ls)
			}
			waits = append(waits, finished...)
		}
		ls.mu.Unlock()
		awaitAll(append(waits, ls.tickDone))
	}
}

func (e *Engine) runTicks(ls *liveSession, ticker clock.Ticker) {
	defer close(ls.tickDone)
	defer ticker.Stop()
	sessionID := ls.session.ID
	for {
		select {
		case <-ls.ctx.Done():
			return
		case <-ticker.C():
			if err := e.Tick(ls.ctx, sessionID); err != nil {
				e.logger.Warn("tick failed", zap.String("session_id", sessionID), zap.Error(err))
			}
		}
	}
}

func (e *Engine) tickLocked(ctx context.Context, ls *liveSession) ([]<-chan struct{}, error) {
	now := e.deps.Clock.Now()
	policy := e.deps.Policy.Current()
	if !policy.Allowed(now) {
		e.settleLocked(ctx, ls, now)
		return e.finishLocked(ctx, ls, domain.ReasonOutsideAllowedHours, now)
	}
	switch ls.session.Status {
	case domain.StatusStudying:
		elapsed, out, err := e.chargeLocked(ctx, ls, now)
		if err != nil || elapsed == 0 {
			return nil, err
		}
		if out.Exhausted {
			return e.finishLocked(ctx, ls, domain.ReasonNoBudgetRemaining, now)
		}
		limit := int64(ls.session.Tunables.ContinuousLimitSeconds)
		if limit <= 0 {
			limit = int64(policy.Breaks.ContinuousLimitSeconds)
		}
		if e.deps.Breaks.ObserveStudy(ls.session.ID, elapsed, limit) {
			return e.forcedBreakLocked(ctx, ls, policy.Day(now), now)
		}
	case domain.StatusBreak:
		ls.accounted = now
		if current, ok := ls.session.CurrentBreak(); ok && current.Due(now) {
			waits, err := e.resumeLocked(ctx, ls, now)
			if errors.Is(err, apperrors.ErrNoBudgetRemaining) {
				err = nil
			}
			return waits, err
		}
	}
	return nil, nil
}

// chargeLocked moves whole elapsed studying seconds onto the ledger.
func (e *Engine) chargeLocked(ctx context.Context, ls *liveSession, now time.Time) (int64, budgetdto.BudgetOutput, error) {
	elapsed := int64(now.Sub(ls.accounted) / time.Second)
	if elapsed <= 0 {
		return 0, budgetdto.BudgetOutput{}, nil
	}
	out, err := e.deps.Budget.Consume(ctx, budgetdto.ConsumeInput{
		ProfileID: ls.session.ProfileID,
		Tier:      ls.session.Tier,
		Seconds:   elapsed,
	})
	if err != nil {
		return 0, budgetdto.BudgetOutput{}, err
	}
	ls.accounted = ls.accounted.Add(time.Duration(elapsed) * time.Second)
	e.publish(notifydto.KindRemainingTimeUpdated, ls.session.ProfileID, ls.session.ID, out)
	return elapsed, out, nil
}

// settleLocked charges studying time up to now before the session leaves the
// studying state and reports whether that charge used up the allowance.
// Failures are logged; the transition proceeds.
func (e *Engine) settleLocked(ctx context.Context, ls *liveSession, now time.Time) bool {
	if ls.session.Status != domain.StatusStudying {
		return false
	}
	elapsed, out, err := e.chargeLocked(ctx, ls, now)
	if err != nil {
		e.logger.Warn("studying time not charged", zap.String("session_id", ls.session.ID), zap.Error(err))
		return false
	}
	return elapsed > 0 && out.Exhausted
}

func (e *Engine) forcedBreakLocked(ctx context.Context, ls *liveSession, day string, now time.Time) ([]<-chan struct{}, error) {
	decision, err := e.deps.Breaks.CanBreak(ctx, breaksdto.CanBreakInput{
		ProfileID:     ls.session.ProfileID,
		Day:           day,
		Kind:          domain.KindForced,
		OpenBreak:     ls.session.OpenBreak() >= 0,
		ForcedSeconds: ls.session.Tunables.ForcedBreakSeconds,
	})
	if err != nil {
		return nil, err
	}
	waits, err := e.openBreakLocked(ctx, ls, decision.Kind, decision.DurationSeconds, day, now)
	if err != nil {
		return nil, err
	}
	e.publish(notifydto.KindForcedBreak, ls.session.ProfileID, ls.session.ID, notifydto.ForcedBreakNotice{
		Message:         forcedBreakMessage,
		DurationSeconds: decision.DurationSeconds,
	})
	e.logger.Info("forced break", zap.String("session_id", ls.session.ID), zap.Int("duration_seconds", decision.DurationSeconds))
	return waits, nil
}

// openBreakLocked persists the break together with the day's break count so a
// failed write leaves neither behind.
func (e *Engine) openBreakLocked(ctx context.Context, ls *liveSession, kind string, durationSeconds int, day string, now time.Time) ([]<-chan struct{}, error) {
	next := ls.session.Clone()
	if err := next.StartBreak(kind, durationSeconds, now); err != nil {
		return nil, err
	}
	err := e.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		if err := e.deps.Store.Save(txCtx, next); err != nil {
			return err
		}
		_, err := e.deps.Breaks.RecordBreak(txCtx, next.ProfileID, day, kind)
		return err
	})
	if err != nil {
		return nil, persistenceFailure(err)
	}
	ls.session = next
	ls.accounted = now
	e.deps.Breaks.ResetWatch(next.ID)
	done := e.deps.Analysis.Stop(next.ID)
	e.publishSession(ls.session, now)
	return []<-chan struct{}{done}, nil
}

// resumeLocked returns the session to studying. A session with nothing left
// of today's allowance finishes instead and ErrNoBudgetRemaining is returned
// with the channels to wait on.
func (e *Engine) resumeLocked(ctx context.Context, ls *liveSession, now time.Time) ([]<-chan struct{}, error) {
	budget, err := e.deps.Budget.Remaining(ctx, ls.session.ProfileID, ls.session.Tier)
	if err != nil {
		return nil, err
	}
	if budget.RemainingSeconds <= 0 {
		waits, err := e.finishLocked(ctx, ls, domain.ReasonNoBudgetRemaining, now)
		if err != nil {
			return nil, err
		}
		return waits, apperrors.ErrNoBudgetRemaining
	}
	next := ls.session.Clone()
	if err := next.Resume(now); err != nil {
		return nil, err
	}
	if err := e.deps.Store.Save(ctx, next); err != nil {
		return nil, persistenceFailure(err)
	}
	ls.session = next
	ls.accounted = now
	e.deps.Breaks.ResetWatch(next.ID)
	e.startAnalysisLocked(ls)
	e.publishSession(ls.session, now)
	return nil, nil
}

// finishLocked makes the session terminal and cancels its loops. The caller
// waits on the returned channels after releasing the session lock.
func (e *Engine) finishLocked(ctx context.Context, ls *liveSession, reason domain.EndReason, now time.Time) ([]<-chan struct{}, error) {
	next := ls.session.Clone()
	if err := next.Finish(reason, now); err != nil {
		return nil, err
	}
	if err := e.deps.Store.Save(ctx, next); err != nil {
		return nil, persistenceFailure(err)
	}
	ls.session = next
	ls.cancel()
	done := e.deps.Analysis.Stop(next.ID)
	e.deps.Breaks.Forget(next.ID)
	e.release(ls)
	e.publishSession(ls.session, now)
	e.logger.Info("session finished", zap.String("session_id", next.ID), zap.String("reason", string(reason)))
	return []<-chan struct{}{done}, nil
}

func (e *Engine) startAnalysisLocked(ls *liveSession) {
	interval := e.deps.Policy.Current().Cadence(ls.session.Tier)
	err := e.deps.Analysis.Start(context.Background(), analysisdto.StartInput{
		SessionID: ls.session.ID,
		ProfileID: ls.session.ProfileID,
		Interval:  interval,
		Handler:   e.Ingest,
	})
	if err != nil {
		e.logger.Warn("analysis not started", zap.String("session_id", ls.session.ID), zap.Error(err))
	}
}

func (e *Engine) stopStored(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	session, err := e.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	now := e.deps.Clock.Now()
	switch {
	case session.Status.Terminal():
		return ToOutput(session, now), nil
	case session.Status == domain.StatusIdle:
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: session was never started", apperrors.ErrInvalidTransition)
	}
	next := session.Clone()
	if err := next.Finish(domain.ReasonStopped, now); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if err := e.deps.Store.Save(ctx, next); err != nil {
		return sessiondto.SessionOutput{}, persistenceFailure(err)
	}
	e.publishSession(next, now)
	return ToOutput(next, now), nil
}

// notLive explains why a command cannot run against a session that has no
// live loops: it is unknown, or it is not in a state that accepts commands.
func (e *Engine) notLive(ctx context.Context, sessionID string) error {
	session, err := e.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: session is %s", apperrors.ErrInvalidTransition, session.Status)
}

func (e *Engine) lookup(sessionID string) *liveSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live[sessionID]
}

func (e *Engine) activeID(profileID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.byProfile[profileID]
}

// profileLocks serializes Start per profile so the active-session check and
// the insert that follows it cannot interleave.
type profileLocks struct {
	mu    sync.Mutex
	locks map[string]*profileLock
}

type profileLock struct {
	mu   sync.Mutex
	refs int
}

func (p *profileLocks) lock(profileID string) (unlock func()) {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = map[string]*profileLock{}
	}
	l, ok := p.locks[profileID]
	if !ok {
		l = &profileLock{}
		p.locks[profileID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, profileID)
		}
		p.mu.Unlock()
	}
}

func (e *Engine) release(ls *liveSession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.live, ls.session.ID)
	if e.byProfile[ls.session.ProfileID] == ls.session.ID {
		delete(e.byProfile, ls.session.ProfileID)
	}
}

func (e *Engine) publishSession(session domain.Session, now time.Time) {
	e.publish(notifydto.KindSessionUpdated, session.ProfileID, session.ID, ToOutput(session, now))
}

func (e *Engine) publish(kind notifydto.Kind, profileID, sessionID string, payload any) {
	if e.deps.Notifier == nil {
		return
	}
	e.deps.Notifier.Publish(notifydto.Event{Kind: kind, ProfileID: profileID, SessionID: sessionID, Payload: payload})
}

func awaitAll(chans []<-chan struct{}) {
	for _, ch := range chans {
		if ch != nil {
			<-ch
		}
	}
}

func persistenceFailure(err error) error {
	if errors.Is(err, apperrors.ErrPersistenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
}
