package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/arcboard/internal/adapters/server"
	"github.com/evanschultz/arcboard/internal/adapters/server/common"
	"github.com/evanschultz/arcboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/arcboard/internal/app"
	"github.com/evanschultz/arcboard/internal/config"
	"github.com/evanschultz/arcboard/internal/gesture"
	"github.com/evanschultz/arcboard/internal/layout"
	"github.com/evanschultz/arcboard/internal/logging"
	"github.com/evanschultz/arcboard/internal/platform"
	"github.com/evanschultz/arcboard/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveFunc runs the HTTP surfaces; tests swap it to avoid binding ports.
var serveFunc = server.Run

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation. Errors are printed to stderr as
// "error: ..." and returned.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(
		ctx,
		root,
		fang.WithVersion(version),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, "error:", err)
		}),
	)
}

// globalFlags are the persistent flags every command resolves paths from.
type globalFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{appName: platform.DefaultAppName}
	if envApp := strings.TrimSpace(os.Getenv("ARC_APP_NAME")); envApp != "" {
		flags.appName = envApp
	}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("ARC_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	root := &cobra.Command{
		Use:   "arc",
		Short: "A fan-shaped card board for todo and done tasks",
		Long: "arc lays tasks out on a semicircular fan: todo cards on the right, done cards on the left.\n" +
			"Drag a card left past the threshold to complete it; tap a done card to restore it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&flags.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&flags.appName, "app", flags.appName, "application name for config/data path resolution")
	pf.BoolVar(&flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(flags),
		newInitCommand(flags),
		newServeCommand(flags),
		newExportCommand(flags),
		newImportCommand(flags),
	)
	return root
}

// session is the resolved runtime state shared by the command flows.
type session struct {
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
	defaults     config.Config
	cfg          config.Config
	logger       *logging.Logger
}

// resolvePaths applies flag, then env, then platform default precedence.
func resolvePaths(flags *globalFlags) (session, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return session{}, err
	}
	s := session{paths: paths, configPath: flags.configPath, dbPath: flags.dbPath}
	s.dbOverridden = strings.TrimSpace(s.dbPath) != ""
	if strings.TrimSpace(s.configPath) == "" {
		if envPath := strings.TrimSpace(os.Getenv("ARC_CONFIG")); envPath != "" {
			s.configPath = envPath
		} else {
			s.configPath = paths.ConfigPath
		}
	}
	if !s.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("ARC_DB_PATH")); envPath != "" {
			s.dbPath = envPath
			s.dbOverridden = true
		} else {
			s.dbPath = paths.DBPath
		}
	}
	s.defaults = config.Default(s.dbPath)
	return s, nil
}

// openSession resolves paths, loads config and starts the runtime logger.
// A muted console keeps startup events in the dev-file sink only.
func openSession(cmd *cobra.Command, flags *globalFlags, muteConsole bool) (*session, error) {
	s, err := resolvePaths(flags)
	if err != nil {
		return nil, err
	}
	s.cfg, err = loadConfig(s.configPath, s.defaults, s.dbPath, s.dbOverridden)
	if err != nil {
		return nil, err
	}
	s.logger, err = logging.New(logging.Options{
		Console: cmd.ErrOrStderr(),
		AppName: s.paths.AppName,
		DevMode: flags.devMode,
		Config:  s.cfg.Logging,
	})
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	s.logger.SetConsoleEnabled(!muteConsole)
	s.logger.Info("startup configuration resolved", "app", s.paths.AppName, "dev_mode", flags.devMode, "command", cmd.Name())
	s.logger.Debug("runtime paths resolved", "config_path", s.configPath, "data_dir", s.paths.DataDir, "db_path", s.cfg.Database.Path)
	if devPath := s.logger.DevLogPath(); devPath != "" {
		s.logger.Info("dev file logging enabled", "path", devPath)
	}
	return &s, nil
}

func (s *session) close(stderr io.Writer) {
	if err := s.logger.Close(); err != nil && s.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// openStore opens the sqlite repository and loads the task list from it.
func (s *session) openStore(ctx context.Context) (*app.Store, *sqlite.Repository, error) {
	s.logger.Info("opening sqlite repository", "db_path", s.cfg.Database.Path)
	repo, err := sqlite.Open(s.cfg.Database.Path)
	if err != nil {
		s.logger.Error("sqlite open failed", "db_path", s.cfg.Database.Path, "err", err)
		return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	jitter := app.NewJitterGenerator(toJitterBounds(s.cfg.Jitter), uint64(time.Now().UnixNano()))
	store := app.NewStore(repo, uuid.NewString, time.Now, jitter, app.StoreConfig{
		StorageKey: s.cfg.Storage.Key,
		Logger:     s.logger,
	})
	source := store.Load(ctx)
	s.logger.Info("task store loaded", "source", source, "tasks", len(store.GetAll()))
	return store, repo, nil
}

func (s *session) closeRepo(repo *sqlite.Repository) {
	if err := repo.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	// runtime logs stay in the dev-file sink while the board owns the terminal
	s, err := openSession(cmd, flags, true)
	if err != nil {
		return err
	}
	defer s.close(cmd.ErrOrStderr())

	store, repo, err := s.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.closeRepo(repo)

	m := tui.NewModel(
		store,
		tui.WithRuntimeConfig(toTUIRuntimeConfig(s.cfg)),
		tui.WithReloadConfigCallback(func() (tui.RuntimeConfig, error) {
			s.logger.Info("runtime config reload requested", "config_path", s.configPath)
			reloaded, err := loadConfig(s.configPath, s.defaults, s.dbPath, s.dbOverridden)
			if err != nil {
				s.logger.Error("runtime config reload failed", "config_path", s.configPath, "err", err)
				return tui.RuntimeConfig{}, err
			}
			s.logger.Info("runtime config reload complete", "config_path", s.configPath)
			return toTUIRuntimeConfig(reloaded), nil
		}),
		tui.WithConfigWatchPath(s.configPath),
		tui.WithLogger(s.logger),
		tui.WithClipboard(clipboard.WriteAll),
	)
	s.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

func newPathsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolvePaths(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", s.paths.AppName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", flags.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", s.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", s.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", s.dbPath)
			if _, err := os.Stat(s.dbPath); err != nil {
				return nil
			}
			repo, err := sqlite.Open(s.dbPath)
			if err != nil {
				return fmt.Errorf("open sqlite repository: %w", err)
			}
			defer repo.Close()
			key := app.DefaultStorageKey
			if cfg, err := config.Load(s.configPath, s.defaults); err == nil {
				key = cfg.Storage.Key
			}
			if updated, err := repo.UpdatedAt(cmd.Context(), key); err == nil {
				_, _ = fmt.Fprintf(out, "state_updated_at: %s\n", updated.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newInitCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := resolvePaths(flags)
			if err != nil {
				return err
			}
			wrote, err := config.WriteDefault(s.configPath, s.defaults)
			if err != nil {
				return fmt.Errorf("write default config: %w", err)
			}
			if wrote {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", s.configPath)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config already exists: %s\n", s.configPath)
			return nil
		},
	}
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over REST and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags, false)
			if err != nil {
				return err
			}
			defer s.close(cmd.ErrOrStderr())

			store, repo, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.closeRepo(repo)

			if strings.TrimSpace(bind) == "" {
				bind = s.cfg.Server.HTTPBind
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = serveFunc(ctx, server.Config{
				HTTPBind:      bind,
				APIEndpoint:   s.cfg.Server.APIEndpoint,
				MCPEndpoint:   s.cfg.Server.MCPEndpoint,
				ServerName:    "arcboard",
				ServerVersion: version,
			}, server.Dependencies{
				Board:  common.NewStoreAdapter(store, toBoardConfig(s.cfg)),
				Logger: s.logger,
			})
			if err != nil {
				s.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (defaults to server.http_bind)")
	return cmd
}

func newExportCommand(flags *globalFlags) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags, false)
			if err != nil {
				return err
			}
			defer s.close(cmd.ErrOrStderr())

			store, repo, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.closeRepo(repo)

			if err := runExport(store, outPath, format, cmd.OutOrStdout()); err != nil {
				s.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (defaults from the --out extension, else json)")
	return cmd
}

func newImportCommand(flags *globalFlags) *cobra.Command {
	var (
		inPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace every task with a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			s, err := openSession(cmd, flags, false)
			if err != nil {
				return err
			}
			defer s.close(cmd.ErrOrStderr())

			store, repo, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.closeRepo(repo)

			if err := runImport(cmd.Context(), store, inPath, format); err != nil {
				s.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("run import command: %w", err)
			}
			if err := store.SyncError(); err != nil {
				return fmt.Errorf("persist imported tasks: %w", err)
			}
			s.logger.Info("command flow complete", "command", "import")
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (defaults from the file extension)")
	return cmd
}

func runExport(store *app.Store, outPath, format string, stdout io.Writer) error {
	format, err := snapshotFormat(format, outPath)
	if err != nil {
		return err
	}
	encoded, err := encodeSnapshot(store.ExportSnapshot(), format)
	if err != nil {
		return err
	}
	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func runImport(ctx context.Context, store *app.Store, inPath, format string) error {
	format, err := snapshotFormat(format, inPath)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	switch format {
	case "yaml":
		err = yaml.Unmarshal(content, &snap)
	default:
		err = json.Unmarshal(content, &snap)
	}
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", format, err)
	}
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

func encodeSnapshot(snap app.Snapshot, format string) ([]byte, error) {
	switch format {
	case "yaml":
		encoded, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return encoded, nil
	default:
		encoded, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode snapshot json: %w", err)
		}
		return append(encoded, '\n'), nil
	}
}

// snapshotFormat picks an explicit format, else infers one from the path.
func snapshotFormat(explicit, path string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "json":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	case "":
	default:
		return "", fmt.Errorf("unsupported snapshot format %q", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "json", nil
	}
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func loadConfig(configPath string, defaults config.Config, dbPath string, dbOverridden bool) (config.Config, error) {
	cfg, err := config.Load(configPath, defaults)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func toGeometry(cfg config.LayoutConfig) layout.Geometry {
	return layout.Geometry{
		Rows:           cfg.Rows,
		BaseRadius:     cfg.BaseRadius,
		RowHeight:      cfg.RowHeight,
		ArcSpacing:     cfg.ArcSpacing,
		CardWidth:      cfg.CardWidth,
		CardHeight:     cfg.CardHeight,
		MaxDoneColumns: cfg.MaxDoneColumns,
		ZBase:          cfg.ZBase,
	}
}

func toViewport(cfg config.ViewportConfig) layout.Viewport {
	return layout.Viewport{
		ReferenceHeight: cfg.ReferenceHeight,
		MinScale:        cfg.MinScale,
		MaxScale:        cfg.MaxScale,
	}
}

// toGestureConfig overrides the tunable drag fields; animation timings keep
// their defaults.
func toGestureConfig(cfg config.GestureConfig) gesture.Config {
	out := gesture.DefaultConfig()
	out.Threshold = cfg.CommitThreshold
	out.LeftResistance = cfg.LeftResistance
	out.RightResistance = cfg.RightResistance
	return out
}

func toJitterBounds(cfg config.JitterConfig) app.JitterBounds {
	return app.JitterBounds{
		Rotation:     cfg.Rotation,
		OffsetX:      cfg.OffsetX,
		OffsetY:      cfg.OffsetY,
		PeriodMin:    cfg.PeriodMinDuration(),
		PeriodMax:    cfg.PeriodMaxDuration(),
		DelayMax:     cfg.DelayMaxDuration(),
		AmplitudeMin: cfg.AmplitudeMin,
		AmplitudeMax: cfg.AmplitudeMax,
	}
}

func toTUIRuntimeConfig(cfg config.Config) tui.RuntimeConfig {
	return tui.RuntimeConfig{
		Geometry: toGeometry(cfg.Layout),
		Viewport: tui.ViewportConfig{
			Scale:      toViewport(cfg.Viewport),
			CellWidth:  cfg.Viewport.CellWidth,
			CellHeight: cfg.Viewport.CellHeight,
			PivotDepth: cfg.Viewport.PivotDepth,
		},
		Gesture: toGestureConfig(cfg.Gesture),
		Display: tui.DisplayConfig{
			LargeFont: cfg.Display.LargeFont,
			IdleFloat: cfg.Display.IdleFloat,
		},
	}
}

func toBoardConfig(cfg config.Config) common.BoardConfig {
	return common.BoardConfig{
		Geometry: toGeometry(cfg.Layout),
		Viewport: toViewport(cfg.Viewport),
		Gesture:  toGestureConfig(cfg.Gesture),
	}
}
