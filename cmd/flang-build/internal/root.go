package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flang-compiler/flang-build/internal/config"
	"github.com/flang-compiler/flang-build/internal/env"
	"github.com/flang-compiler/flang-build/internal/orchestrator"
	"github.com/spf13/cobra"
)

// Exit codes for failures that happen before any build stage runs.
const (
	exitError = 1
	exitUsage = 2
)

var (
	verbose    bool
	quiet      bool
	scriptDir  string
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "flang-build",
	Short: "Configure, build and install libpgmath and flang",
	Long: `flang-build configures, builds and installs the libpgmath math runtime
and then the flang compiler with CMake. The compiler build uses the flang
installed under --install-prefix, so both stages share one prefix.`,
	Args:              usageArgs(cobra.NoArgs),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runBuild,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pf.StringVar(&scriptDir, "script-dir", "", "Directory of the build tooling inside the flang tree (default: directory of this executable)")
	pf.StringVar(&configFile, "config", "", "Defaults file (default: <script-dir>/"+config.DefaultFile+" if present)")
	pf.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file with FLANG_BUILD_* overrides")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

// usageError marks command-line mistakes.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// Execute runs the root command and returns the process exit code: the
// status of the last build stage run, or a small code for failures that
// prevent the build from starting.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) {
		return int(stageErr.Status)
	}

	slog.Error(err.Error())
	var uerr usageError
	if errors.As(err, &uerr) || errors.Is(err, config.ErrInvalid) {
		fmt.Fprintln(os.Stderr, "Run 'flang-build --help' for usage.")
		return exitUsage
	}
	return exitError
}

func setup(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return usageError{errors.New("--verbose and --quiet are mutually exclusive")}
	}
	configureLogger()
	return nil
}

// configureLogger installs the default logger for the selected verbosity.
func configureLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// layout returns the source tree layout for --script-dir.
func layout() (env.Layout, error) {
	dir := scriptDir
	if dir == "" {
		var err error
		if dir, err = env.ScriptDir(); err != nil {
			return env.Layout{}, fmt.Errorf("locating script directory: %w", err)
		}
	}
	return env.NewLayout(dir)
}

// configPath returns the defaults file to read and whether it must exist.
func configPath(l env.Layout) (string, bool) {
	if configFile != "" {
		return configFile, true
	}
	return filepath.Join(l.ScriptDir, config.DefaultFile), false
}
