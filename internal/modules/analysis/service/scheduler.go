package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"studywarden/internal/modules/analysis/domain"
	"studywarden/internal/modules/analysis/dto"
	analysisout "studywarden/internal/modules/analysis/port/out"
	"studywarden/internal/platform/clock"
	apperrors "studywarden/internal/platform/errors"

	"go.uber.org/zap"
)

// Scheduler paces vision analysis per session: at most one call in flight,
// each bounded by the session's interval, results handed to the owner.
type Scheduler struct {
	clock    clock.Clock
	analyzer analysisout.Analyzer
	frames   analysisout.FrameBuffer
	logger   *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	sessionID string
	interval  time.Duration
	handler   dto.ResultHandler
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	inFlight  atomic.Bool

	mu      sync.Mutex
	closing bool
	calls   sync.WaitGroup
}

func NewScheduler(clk clock.Clock, analyzer analysisout.Analyzer, frames analysisout.FrameBuffer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{clock: clk, analyzer: analyzer, frames: frames, logger: logger, jobs: map[string]*job{}}
}

func (s *Scheduler) Start(_ context.Context, input dto.StartInput) error {
	if input.SessionID == "" || input.Interval <= 0 || input.Handler == nil {
		return fmt.Errorf("%w: session id, positive interval and handler are required", apperrors.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[input.SessionID]; ok {
		return fmt.Errorf("%w: analysis already running for session %s", apperrors.ErrInvalidTransition, input.SessionID)
	}
	// The loop outlives the request that started it.
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		sessionID: input.SessionID,
		interval:  input.Interval,
		handler:   input.Handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.jobs[input.SessionID] = j
	ticker := s.clock.NewTicker(input.Interval)
	go s.loop(j, ticker)
	s.logger.Debug("analysis started", zap.String("session_id", input.SessionID), zap.Duration("interval", input.Interval))
	return nil
}

func (s *Scheduler) Stop(sessionID string) <-chan struct{} {
	s.mu.Lock()
	j, ok := s.jobs[sessionID]
	delete(s.jobs, sessionID)
	s.mu.Unlock()
	s.frames.Drop(sessionID)
	if !ok {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	j.cancel()
	return j.done
}

func (s *Scheduler) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[sessionID]
	return ok
}

// PushFrame buffers the latest image for the session's next tick. Frames for
// sessions without a running scheduler are rejected.
func (s *Scheduler) PushFrame(_ context.Context, input dto.FrameInput) error {
	if input.SessionID == "" || len(input.Image) == 0 {
		return fmt.Errorf("%w: session id and image are required", apperrors.ErrInvalidInput)
	}
	if !s.Running(input.SessionID) {
		return fmt.Errorf("%w: session %s is not being analyzed", apperrors.ErrInvalidTransition, input.SessionID)
	}
	s.frames.Put(domain.Frame{SessionID: input.SessionID, Image: input.Image, CapturedAt: s.clock.Now()})
	return nil
}

func (s *Scheduler) loop(j *job, ticker clock.Ticker) {
	defer func() {
		ticker.Stop()
		j.mu.Lock()
		j.closing = true
		j.mu.Unlock()
		j.calls.Wait()
		close(j.done)
	}()
	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C():
			s.dispatch(j)
		}
	}
}

func (s *Scheduler) dispatch(j *job) bool {
	if !j.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("analysis skipped, previous call in flight", zap.String("session_id", j.sessionID))
		return false
	}
	j.mu.Lock()
	if j.closing || j.ctx.Err() != nil {
		j.mu.Unlock()
		j.inFlight.Store(false)
		return false
	}
	j.calls.Add(1)
	j.mu.Unlock()
	go func() {
		defer j.calls.Done()
		defer j.inFlight.Store(false)
		s.analyze(j)
	}()
	return true
}

func (s *Scheduler) analyze(j *job) {
	frame, ok := s.frames.Take(j.sessionID)
	if !ok {
		s.logger.Debug("analysis skipped", zap.String("session_id", j.sessionID), zap.Error(fmt.Errorf("%w: %w", apperrors.ErrAnalysisUnavailable, domain.ErrNoFrame)))
		return
	}
	callCtx, cancel := context.WithTimeout(j.ctx, j.interval)
	defer cancel()
	result, err := s.analyzer.Analyze(callCtx, frame)
	if j.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("analysis skipped", zap.String("session_id", j.sessionID), zap.Error(fmt.Errorf("%w: %w", apperrors.ErrAnalysisUnavailable, err)))
		return
	}
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = s.clock.Now()
	}
	j.handler(j.ctx, j.sessionID, dto.Result{
		Focused:    result.Focused,
		OnSeat:     result.OnSeat,
		CostUnits:  result.CostUnits,
		AnalyzedAt: result.AnalyzedAt,
	})
}
