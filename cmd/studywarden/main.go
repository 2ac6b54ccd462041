package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"studywarden/internal/bootstrap"
	analysisoutadapter "studywarden/internal/modules/analysis/adapter/out"
	analysisdomain "studywarden/internal/modules/analysis/domain"
	wardenrpc "studywarden/internal/modules/session/adapter/in/rpc"
	sessiondto "studywarden/internal/modules/session/dto"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/config"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/logging"
	platformrpc "studywarden/internal/platform/rpc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if code := apperrors.CodeOf(err); code != apperrors.CodeInternal {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type options struct {
	dataDir     string
	dbPath      string
	listenAddr  string
	policyPath  string
	analyzer    string
	analyzerSum string
	logLevel    string
	tick        time.Duration
	guardian    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "studywarden",
		Short:         "Supervised study sessions with daily budgets and breaks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "data directory (STUDYWARDEN_DATA_DIR)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite path (STUDYWARDEN_DB_PATH)")
	flags.StringVar(&opts.listenAddr, "listen", "", "daemon address (STUDYWARDEN_LISTEN_ADDR)")
	flags.StringVar(&opts.policyPath, "policy", "", "policy YAML path (STUDYWARDEN_POLICY_PATH)")
	flags.StringVar(&opts.analyzer, "analyzer", "", "vision analyzer plugin binary (STUDYWARDEN_ANALYZER_PATH)")
	flags.StringVar(&opts.analyzerSum, "analyzer-sha256", "", "expected analyzer checksum (STUDYWARDEN_ANALYZER_SHA256)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (STUDYWARDEN_LOG_LEVEL)")
	flags.DurationVar(&opts.tick, "tick", 0, "session tick interval (STUDYWARDEN_TICK_INTERVAL)")
	flags.StringVar(&opts.guardian, "guardian", os.Getenv("STUDYWARDEN_GUARDIAN"), "guardian id sent with every request")

	root.AddCommand(newServeCmd(root, opts))
	root.AddCommand(newProfileCmd(root, opts))
	root.AddCommand(newSessionCmd(root, opts))
	root.AddCommand(newBudgetCmd(root, opts))
	root.AddCommand(newWatchCmd(root, opts))
	root.AddCommand(newPolicyCmd(root, opts))
	root.AddCommand(newAnalyzerCmd(root, opts))
	return root
}

// loadConfig reads the environment, then applies flags the user set.
func loadConfig(root *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	flags := root.PersistentFlags()
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = opts.listenAddr
	}
	if flags.Changed("policy") {
		cfg.PolicyPath = opts.policyPath
	}
	if flags.Changed("analyzer") {
		cfg.AnalyzerPath = opts.analyzer
	}
	if flags.Changed("analyzer-sha256") {
		cfg.AnalyzerSum = opts.analyzerSum
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("tick") {
		cfg.TickInterval = opts.tick
	}
	return cfg.Normalize()
}

type remote struct {
	client *wardenrpc.Client
	conn   *grpc.ClientConn
	ctx    context.Context
}

func dial(root *cobra.Command, opts *options) (*remote, error) {
	cfg, err := loadConfig(root, opts)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.guardian) == "" {
		return nil, fmt.Errorf("--guardian is required")
	}
	conn, err := grpc.NewClient(cfg.ListenAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ListenAddr, err)
	}
	return &remote{
		client: wardenrpc.NewClient(conn),
		conn:   conn,
		ctx:    platformrpc.WithGuardian(context.Background(), opts.guardian),
	}, nil
}

func (r *remote) Close() {
	_ = r.conn.Close()
}

func withRemote(root *cobra.Command, opts *options, fn func(r *remote) error) error {
	r, err := dial(root, opts)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func newServeCmd(root *cobra.Command, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the studywarden daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, opts)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			app, err := bootstrap.New(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Warn("close", zap.Error(err))
				}
			}()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

func newProfileCmd(root *cobra.Command, opts *options) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Learner profiles"}

	var name, tier string
	create := &cobra.Command{
		Use:   "create --name <name>",
		Short: "Create a learner profile owned by the guardian",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.CreateProfile(r.ctx, name, tier)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile created: %s name=%q tier=%s\n", out.ID, out.Name, out.Tier)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "learner name")
	create.Flags().StringVar(&tier, "tier", "", "subscription tier (defaults to the policy default)")

	var showID string
	show := &cobra.Command{
		Use:   "show --profile <id>",
		Short: "Show profile settings and progression",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(showID) == "" {
				return fmt.Errorf("--profile is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.GetProfile(r.ctx, showID)
				if err != nil {
					return err
				}
				progress, err := r.client.GetProgression(r.ctx, showID)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "id: %s\nname: %s\ntier: %s\nscore: %.1f\nstage: %s\n", out.ID, out.Name, out.Tier, progress.Score, progress.Stage.Name)
				if progress.NextStage != nil {
					_, _ = fmt.Fprintf(w, "next: %s in %.1f points\n", progress.NextStage.Name, progress.PointsToNext)
				}
				if out.ContinuousLimitSeconds > 0 {
					_, _ = fmt.Fprintf(w, "continuous limit: %ds\n", out.ContinuousLimitSeconds)
				}
				if out.ForcedBreakSeconds > 0 {
					_, _ = fmt.Fprintf(w, "forced break: %ds\n", out.ForcedBreakSeconds)
				}
				printCaps(w, out.BreakCaps)
				return nil
			})
		},
	}
	show.Flags().StringVar(&showID, "profile", "", "profile id")

	var settingsID, settingsTier string
	var limit, forced int
	var caps map[string]int
	settings := &cobra.Command{
		Use:   "settings --profile <id>",
		Short: "Update tier and break settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(settingsID) == "" {
				return fmt.Errorf("--profile is required")
			}
			in := wardenrpc.SettingsRequest{ProfileID: settingsID}
			if cmd.Flags().Changed("tier") {
				in.Tier = &settingsTier
			}
			if cmd.Flags().Changed("continuous-limit") {
				in.ContinuousLimitSeconds = &limit
			}
			if cmd.Flags().Changed("forced-break") {
				in.ForcedBreakSeconds = &forced
			}
			if cmd.Flags().Changed("cap") {
				in.BreakCaps = caps
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.UpdateSettings(r.ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile updated: %s tier=%s\n", out.ID, out.Tier)
				return nil
			})
		},
	}
	settings.Flags().StringVar(&settingsID, "profile", "", "profile id")
	settings.Flags().StringVar(&settingsTier, "tier", "", "subscription tier")
	settings.Flags().IntVar(&limit, "continuous-limit", 0, "seconds of continuous study before a forced break (0 uses the policy)")
	settings.Flags().IntVar(&forced, "forced-break", 0, "forced break length in seconds (0 uses the policy)")
	settings.Flags().StringToIntVar(&caps, "cap", nil, "daily break caps, e.g. stretch=2,restroom=4")

	profile.AddCommand(create, show, settings)
	return profile
}

func newSessionCmd(root *cobra.Command, opts *options) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Study session lifecycle"}

	var startProfile string
	start := &cobra.Command{
		Use:   "start --profile <id>",
		Short: "Start a supervised session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(startProfile) == "" {
				return fmt.Errorf("--profile is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.StartSession(r.ctx, startProfile)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	start.Flags().StringVar(&startProfile, "profile", "", "profile id")

	var stopID string
	stop := &cobra.Command{
		Use:   "stop --session <id>",
		Short: "Finish a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(stopID) == "" {
				return fmt.Errorf("--session is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.StopSession(r.ctx, stopID)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	stop.Flags().StringVar(&stopID, "session", "", "session id")

	var breakID, kind string
	breakCmd := &cobra.Command{
		Use:   "break --session <id> --kind <kind>",
		Short: "Request a voluntary break",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(breakID) == "" || strings.TrimSpace(kind) == "" {
				return fmt.Errorf("--session and --kind are required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.RequestBreak(r.ctx, breakID, kind)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	breakCmd.Flags().StringVar(&breakID, "session", "", "session id")
	breakCmd.Flags().StringVar(&kind, "kind", "", "break kind: stretch|hydration|restroom")

	var resumeID string
	resume := &cobra.Command{
		Use:   "resume --session <id>",
		Short: "End the current break early",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(resumeID) == "" {
				return fmt.Errorf("--session is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.Resume(r.ctx, resumeID)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	resume.Flags().StringVar(&resumeID, "session", "", "session id")

	var showSession, showProfile string
	var asJSON bool
	show := &cobra.Command{
		Use:   "show --session <id> | --profile <id>",
		Short: "Show a session snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(showSession) == "" && strings.TrimSpace(showProfile) == "" {
				return fmt.Errorf("--session or --profile is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.GetSessionSnapshot(r.ctx, wardenrpc.SnapshotRequest{SessionID: showSession, ProfileID: showProfile})
				if err != nil {
					return err
				}
				if asJSON {
					encoder := json.NewEncoder(cmd.OutOrStdout())
					encoder.SetIndent("", "  ")
					return encoder.Encode(out)
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	show.Flags().StringVar(&showSession, "session", "", "session id")
	show.Flags().StringVar(&showProfile, "profile", "", "profile id (shows the latest session)")
	show.Flags().BoolVar(&asJSON, "json", false, "print the full snapshot as JSON")

	session.AddCommand(start, stop, breakCmd, resume, show)
	return session
}

func newBudgetCmd(root *cobra.Command, opts *options) *cobra.Command {
	budget := &cobra.Command{Use: "budget", Short: "Daily study budget"}
	var profileID string
	show := &cobra.Command{
		Use:   "show --profile <id>",
		Short: "Show today's remaining study time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(profileID) == "" {
				return fmt.Errorf("--profile is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				out, err := r.client.GetRemainingBudget(r.ctx, profileID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "day=%s allowed=%s consumed=%s remaining=%s exhausted=%t\n",
					out.Day, seconds(out.AllowedSeconds), seconds(out.ConsumedSeconds), seconds(out.RemainingSeconds), out.Exhausted)
				return nil
			})
		},
	}
	show.Flags().StringVar(&profileID, "profile", "", "profile id")
	budget.AddCommand(show)
	return budget
}

func newWatchCmd(root *cobra.Command, opts *options) *cobra.Command {
	var profileID string
	watch := &cobra.Command{
		Use:   "watch --profile <id>",
		Short: "Stream realtime events as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(profileID) == "" {
				return fmt.Errorf("--profile is required")
			}
			return withRemote(root, opts, func(r *remote) error {
				ctx, stop := signal.NotifyContext(r.ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				events, err := r.client.Subscribe(ctx, profileID)
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				for {
					msg, err := events.Recv()
					if err != nil {
						if errors.Is(err, io.EOF) || ctx.Err() != nil {
							return nil
						}
						return err
					}
					if err := encoder.Encode(msg); err != nil {
						return err
					}
				}
			})
		},
	}
	watch.Flags().StringVar(&profileID, "profile", "", "profile id")
	return watch
}

func newPolicyCmd(root *cobra.Command, opts *options) *cobra.Command {
	policy := &cobra.Command{Use: "policy", Short: "Policy file operations"}
	policy.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate a policy file and print the effective values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig(root, opts)
				if err != nil {
					return err
				}
				path = cfg.PolicyPath
			}
			p, err := config.LoadPolicy(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "policy ok: %s\ntimezone: %s\nallowed hours: %s-%s\n", path, p.Timezone, p.AllowedHours.Start, p.AllowedHours.End)
			names := make([]string, 0, len(p.Tiers))
			for name := range p.Tiers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				tier := p.Tiers[name]
				marker := ""
				if name == p.DefaultTier {
					marker = " (default)"
				}
				_, _ = fmt.Fprintf(w, "tier %s%s: allowance=%s cadence=%ds\n", name, marker, seconds(tier.AllowanceSeconds), tier.CadenceSeconds)
			}
			for _, stage := range p.Stages {
				_, _ = fmt.Fprintf(w, "stage %s: %.1f\n", stage.Name, stage.MinScore)
			}
			_, _ = fmt.Fprintf(w, "breaks: voluntary=%ds forced=%ds continuous limit=%ds\n",
				p.Breaks.VoluntarySeconds, p.Breaks.ForcedSeconds, p.Breaks.ContinuousLimitSeconds)
			printCaps(w, p.Breaks.Caps)
			return nil
		},
	})
	return policy
}

func newAnalyzerCmd(root *cobra.Command, opts *options) *cobra.Command {
	analyzer := &cobra.Command{Use: "analyzer", Short: "Vision analyzer plugin"}
	analyzer.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Verify the analyzer checksum and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, opts)
			if err != nil {
				return err
			}
			if cfg.AnalyzerPath == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no analyzer configured")
				return nil
			}
			plugin, err := analysisoutadapter.NewPluginAnalyzer(analysisdomain.Manifest{
				Name:   "vision",
				Binary: cfg.AnalyzerPath,
				SHA256: cfg.AnalyzerSum,
			}, clock.SystemClock{}, nil)
			if err != nil {
				return err
			}
			defer func() { _ = plugin.Close() }()
			meta, err := plugin.Metadata(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s model=%s binary=%s ok\n", meta.Name, meta.Version, meta.Model, cfg.AnalyzerPath)
			return nil
		},
	})
	return analyzer
}

func printSession(w io.Writer, out sessiondto.SessionOutput) {
	_, _ = fmt.Fprintf(w, "session %s profile=%s status=%s studied=%s", out.ID, out.ProfileID, out.Status, seconds(out.StudiedSeconds))
	if out.CurrentBreak != nil {
		_, _ = fmt.Fprintf(w, " break=%s remaining=%s", out.CurrentBreak.Kind, seconds(out.BreakRemaining))
	}
	if out.EndReason != "" {
		_, _ = fmt.Fprintf(w, " reason=%s", out.EndReason)
	}
	_, _ = fmt.Fprintln(w)
}

func printCaps(w io.Writer, caps map[string]int) {
	kinds := make([]string, 0, len(caps))
	for kind := range caps {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		_, _ = fmt.Fprintf(w, "cap %s: %d/day\n", kind, caps[kind])
	}
}

func seconds(n int64) string {
	return (time.Duration(n) * time.Second).String()
}
