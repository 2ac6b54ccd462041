package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	analysisoutadapter "studywarden/internal/modules/analysis/adapter/out"
	analysisdomain "studywarden/internal/modules/analysis/domain"
	analysisin "studywarden/internal/modules/analysis/port/in"
	analysisout "studywarden/internal/modules/analysis/port/out"
	analysisservice "studywarden/internal/modules/analysis/service"
	analysisusecase "studywarden/internal/modules/analysis/usecase"
	breaksoutadapter "studywarden/internal/modules/breaks/adapter/out"
	breaksservice "studywarden/internal/modules/breaks/service"
	breaksusecase "studywarden/internal/modules/breaks/usecase"
	budgetoutadapter "studywarden/internal/modules/budget/adapter/out"
	budgetin "studywarden/internal/modules/budget/port/in"
	budgetservice "studywarden/internal/modules/budget/service"
	budgetusecase "studywarden/internal/modules/budget/usecase"
	notifydto "studywarden/internal/modules/notify/dto"
	notifyin "studywarden/internal/modules/notify/port/in"
	notifyservice "studywarden/internal/modules/notify/service"
	notifyusecase "studywarden/internal/modules/notify/usecase"
	profileoutadapter "studywarden/internal/modules/profile/adapter/out"
	profilein "studywarden/internal/modules/profile/port/in"
	profileservice "studywarden/internal/modules/profile/service"
	profileusecase "studywarden/internal/modules/profile/usecase"
	progressionin "studywarden/internal/modules/progression/port/in"
	progressionservice "studywarden/internal/modules/progression/service"
	progressionusecase "studywarden/internal/modules/progression/usecase"
	wardenrpc "studywarden/internal/modules/session/adapter/in/rpc"
	sessionoutadapter "studywarden/internal/modules/session/adapter/out"
	sessionin "studywarden/internal/modules/session/port/in"
	sessionservice "studywarden/internal/modules/session/service"
	sessionusecase "studywarden/internal/modules/session/usecase"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/config"
	"studywarden/internal/platform/database"
	"studywarden/internal/platform/id"
	platformrpc "studywarden/internal/platform/rpc"
	"studywarden/internal/platform/tx"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// App is the wired daemon.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Clock       clock.Clock
	Policy      *config.PolicyStore
	Sessions    sessionin.Usecase
	Profiles    profilein.Usecase
	Budget      budgetin.Usecase
	Progression progressionin.Usecase
	Analysis    analysisin.Usecase
	Notifier    notifyin.Usecase
	Server      *grpc.Server

	engine   *sessionservice.Engine
	analyzer analysisout.Analyzer
	db       *sql.DB
}

// New opens storage, loads the policy and wires every module. The caller owns
// Close.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	return NewWithClock(cfg, logger, clock.SystemClock{})
}

func NewWithClock(cfg config.Config, logger *zap.Logger, clk clock.Clock) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := config.NewPolicyStore(cfg.PolicyPath, logger.Named("policy"))
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app, err := wire(cfg, logger, clk, policy, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func wire(cfg config.Config, logger *zap.Logger, clk clock.Clock, policy *config.PolicyStore, db *sql.DB) (*App, error) {
	ids := id.UUID{}
	txm := tx.NewSQLManager(db)

	profileStore, err := profileoutadapter.NewSQLiteProfileStore(db)
	if err != nil {
		return nil, fmt.Errorf("new profile store: %w", err)
	}
	ledgerStore, err := budgetoutadapter.NewSQLiteLedgerStore(db)
	if err != nil {
		return nil, fmt.Errorf("new ledger store: %w", err)
	}
	countStore, err := breaksoutadapter.NewSQLiteCountStore(db)
	if err != nil {
		return nil, fmt.Errorf("new break count store: %w", err)
	}
	sessionStore, err := sessionoutadapter.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, fmt.Errorf("new session store: %w", err)
	}
	analyzer, err := newAnalyzer(cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	profileUC := profileusecase.NewInteractor(profileservice.NewProfileService(clk, ids, profileStore, txm))
	budgetUC := budgetusecase.NewInteractor(budgetservice.NewLedgerService(clk, policy, ledgerStore, txm).
		WithTiers(budgetoutadapter.NewProfileTierSource(profileUC)))
	breaksUC := breaksusecase.NewInteractor(breaksservice.NewArbiterService(policy, countStore))
	progressionUC := progressionusecase.NewInteractor(progressionservice.NewProgressionService(policy), profileUC)
	notifyUC := notifyusecase.NewInteractor(notifyservice.NewHub(clk, notifyservice.DefaultBuffer, logger.Named("notify")))
	analysisUC := analysisusecase.NewInteractor(analysisservice.NewScheduler(
		clk,
		analyzer,
		analysisoutadapter.NewMemoryFrameBuffer(),
		logger.Named("analysis"),
	))

	engine := sessionservice.NewEngine(sessionservice.Dependencies{
		Clock:        clk,
		IDs:          ids,
		Store:        sessionStore,
		Tx:           txm,
		Policy:       policy,
		Profiles:     profileUC,
		Budget:       budgetUC,
		Breaks:       breaksUC,
		Progression:  progressionUC,
		Analysis:     analysisUC,
		Notifier:     notifyUC,
		Logger:       logger,
		TickInterval: cfg.TickInterval,
	})
	sessionUC := sessionusecase.NewInteractor(engine)

	policy.OnChange(func(change config.PolicyChange) {
		logger.Info("policy changed", zap.Strings("sections", change.Sections))
		notifyUC.Broadcast(notifydto.Event{
			Kind:       notifydto.KindConfigUpdated,
			OccurredAt: clk.Now(),
			Payload:    notifydto.ConfigNotice{Sections: change.Sections},
		})
	})

	server := platformrpc.NewServer(logger)
	wardenrpc.RegisterWardenServer(server, wardenrpc.NewHandler(wardenrpc.Dependencies{
		Sessions:    sessionUC,
		Profiles:    profileUC,
		Budget:      budgetUC,
		Progression: progressionUC,
		Analysis:    analysisUC,
		Notifier:    notifyUC,
		Logger:      logger,
	}))

	return &App{
		Config:      cfg,
		Logger:      logger,
		Clock:       clk,
		Policy:      policy,
		Sessions:    sessionUC,
		Profiles:    profileUC,
		Budget:      budgetUC,
		Progression: progressionUC,
		Analysis:    analysisUC,
		Notifier:    notifyUC,
		Server:      server,
		engine:      engine,
		analyzer:    analyzer,
		db:          db,
	}, nil
}

func newAnalyzer(cfg config.Config, clk clock.Clock, logger *zap.Logger) (analysisout.Analyzer, error) {
	if cfg.AnalyzerPath == "" {
		logger.Info("no analyzer plugin configured, frames are scored as focused")
		return analysisoutadapter.StaticAnalyzer{Clock: clk, CostUnits: 1}, nil
	}
	analyzer, err := analysisoutadapter.NewPluginAnalyzer(analysisdomain.Manifest{
		Name:   "vision",
		Binary: cfg.AnalyzerPath,
		SHA256: cfg.AnalyzerSum,
	}, clk, logger.Named("analysis"))
	if err != nil {
		return nil, fmt.Errorf("new analyzer: %w", err)
	}
	return analyzer, nil
}

// Recover marks sessions left open by a previous process as interrupted.
func (a *App) Recover(ctx context.Context) (int, error) {
	return a.engine.Recover(ctx)
}

// Run recovers stale sessions, then serves the API and watches the policy
// file until ctx is done. Live sessions are interrupted on the way out.
func (a *App) Run(ctx context.Context) error {
	recovered, err := a.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover sessions: %w", err)
	}
	if recovered > 0 {
		a.Logger.Info("interrupted stale sessions", zap.Int("count", recovered))
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.Logger.Info("serving", zap.String("addr", a.Config.ListenAddr))
		return platformrpc.Serve(groupCtx, a.Server, a.Config.ListenAddr, platformrpc.DefaultStopGrace)
	})
	group.Go(func() error {
		return a.Policy.Watch(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		// Subscribers hear the interruptions, then their streams end so the
		// graceful stop is not held open by watch clients.
		a.engine.Shutdown(context.Background())
		a.Notifier.Close()
		return nil
	})
	runErr := group.Wait()
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// Shutdown interrupts every live session and waits for their loops.
func (a *App) Shutdown(ctx context.Context) {
	a.engine.Shutdown(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.analyzer != nil {
		errs = append(errs, a.analyzer.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
