// Package main provides the CLI entrypoint for klondike.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/cloud"
	"github.com/verte-zerg/klondike/internal/config"
	"github.com/verte-zerg/klondike/internal/game"
	"github.com/verte-zerg/klondike/internal/logging"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/stats"
	"github.com/verte-zerg/klondike/internal/statsui"
	"github.com/verte-zerg/klondike/internal/store"
	"github.com/verte-zerg/klondike/internal/tui"
)

const (
	defaultDrawMode  = 1
	defaultLogLevel  = "info"
	defaultServeAddr = ":8787"
	closeTimeout     = 5 * time.Second
)

var (
	playProfile  string
	playDrawMode int
	playCloudURL string
	playLogLevel string
	playNewGame  bool

	statsProfile string
	statsLast    int
	statsPlain   bool

	exportProfile string
	exportFormat  string
	exportOut     string

	importProfile string
	importFormat  string

	serveAddr     string
	serveLogLevel string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "klondike",
		Short:         "Klondike solitaire in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playProfile, "profile", store.ProfileGuest, "profile namespace ([a-z0-9_]+)")
	rootCmd.Flags().IntVar(&playDrawMode, "draw", defaultDrawMode, "cards per draw (1 or 3)")
	rootCmd.Flags().StringVar(&playCloudURL, "cloud-url", "", "cloud sync base URL (empty disables sync)")
	rootCmd.Flags().StringVar(&playLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&playNewGame, "new", false, "deal a new game instead of resuming the saved one")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// loadFileConfig reads .env, the TOML file and the environment, in that
// order of increasing precedence. Flags are applied on top by the caller.
func loadFileConfig() (config.FileConfig, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg)
	return fileCfg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &playProfile, fileCfg.Game.Profile)
	applyIntConfig(cmd, "draw", &playDrawMode, fileCfg.Game.DrawMode)
	applyStringConfig(cmd, "cloud-url", &playCloudURL, fileCfg.Cloud.URL)
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Log.Level)

	mode := model.DrawMode(playDrawMode)
	if !mode.Valid() {
		return fmt.Errorf("--draw must be 1 or 3")
	}

	logPath := config.DefaultLogPath()
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		logPath = *fileCfg.Log.File
	}
	logger, err := logging.New(logging.Options{Level: playLogLevel, Path: logPath})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	gw, err := store.NewGateway(st, playProfile, logger)
	if err != nil {
		return err
	}

	var syncer *cloud.Syncer
	if url := strings.TrimSpace(playCloudURL); url != "" {
		opts := cloud.Options{Logger: logger}
		if fileCfg.Cloud.Debounce != nil {
			opts.Debounce = fileCfg.Cloud.Debounce.Duration
		}
		syncer = cloud.NewSyncer(gw, cloud.NewHTTPTransport(url, nil), opts)
		defer syncer.Close()
	}

	ctx := context.Background()
	g := game.New(game.Deps{Gateway: gw, Syncer: syncer, Logger: logger})
	opening := g.Open(ctx)
	if err := applyDrawMode(ctx, g, mode, cmd.Flags().Changed("draw"), fileCfg.Game.DrawMode != nil); err != nil {
		logErrf("failed to store draw mode: %v\n", err)
	}

	started, err := g.Start(ctx, !playNewGame)
	if err != nil {
		return fmt.Errorf("failed to deal: %w", err)
	}
	unlocked := append(opening.Unlocked, started...)

	m := tui.NewModel(ctx, g, logger, unlocked)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	_, runErr := program.Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := g.Close(closeCtx); cerr != nil {
		logErrf("failed to sync: %v\n", cerr)
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics and achievements",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsProfile, "profile", store.ProfileGuest, "profile namespace")
	cmd.Flags().IntVar(&statsLast, "last", stats.DefaultRecent, "number of recent games to show")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain text report")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &statsProfile, fileCfg.Game.Profile)
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, gw, err := openGateway(statsProfile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if statsPlain || !stats.IsTerminal(out) {
		report, err := stats.BuildReport(ctx, gw, statsLast)
		if err != nil {
			return err
		}
		return stats.WriteReport(out, report, time.Local)
	}

	m := statsui.NewModel(ctx, gw, statsLast)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile bundle",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportProfile, "profile", store.ProfileGuest, "profile namespace")
	cmd.Flags().StringVar(&exportFormat, "format", "", "json or yaml (default: from --out extension, else json)")
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &exportProfile, fileCfg.Game.Profile)

	format := exportFormat
	if format == "" {
		format = cloud.FormatFromPath(exportOut)
	}

	st, gw, err := openGateway(exportProfile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	b, err := gw.ExportMergeable(context.Background())
	if err != nil {
		return err
	}
	b.ExportedAtMs = clock.System{}.Now().UnixMilli()

	if exportOut == "" {
		return cloud.EncodeBundle(cmd.OutOrStdout(), b, format)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := cloud.EncodeBundle(f, b, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	logErrf("Wrote %s\n", exportOut)
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Overwrite the profile with an exported bundle",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importProfile, "profile", store.ProfileGuest, "profile namespace")
	cmd.Flags().StringVar(&importFormat, "format", "", "json or yaml (default: from file extension)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &importProfile, fileCfg.Game.Profile)

	path := args[0]
	format := importFormat
	if format == "" {
		format = cloud.FormatFromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	b, err := cloud.DecodeBundle(f, format)
	if err != nil {
		return err
	}

	st, gw, err := openGateway(importProfile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := gw.ApplyMergeBundle(context.Background(), b); err != nil {
		return err
	}
	logErrf("Imported %s into profile %s\n", path, gw.Profile())
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cloud sync server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().StringVar(&serveLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "log-level", &serveLogLevel, fileCfg.Log.Level)

	logger, err := logging.New(logging.Options{Level: serveLogLevel, Format: logging.FormatConsole})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cloud.NewServer(st, nil, logger).ListenAndServe(ctx, serveAddr)
}

// applyDrawMode stores the --draw flag unconditionally. A draw-mode from the
// config file only seeds a profile without settings, so the in-game toggle
// survives restarts.
func applyDrawMode(ctx context.Context, g *game.Game, mode model.DrawMode, fromFlag, fromFile bool) error {
	switch {
	case fromFlag:
		return g.SetDrawMode(ctx, mode)
	case fromFile:
		return g.SeedDrawMode(ctx, mode)
	default:
		return nil
	}
}

func openGateway(profile string) (*store.Store, *store.Gateway, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	gw, err := store.NewGateway(st, profile, nil)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return st, gw, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# klondike configuration
# Uncomment a value to enable it. CLI flags override config values,
# and KLONDIKE_* environment variables override this file.

[game]
# profile = %q         # Profile namespace ([a-z0-9_]+)
# draw-mode = %d          # Cards per draw (1 or 3)

[cloud]
# url = ""                # Sync server base URL; empty disables sync
# debounce = %q       # Delay before pushing changes

[log]
# level = %q          # debug, info, warn or error
# file = ""               # Log file (default: XDG state dir)
`,
		store.ProfileGuest,
		defaultDrawMode,
		cloud.DefaultDebounce.String(),
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
