package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/flang-compiler/flang-build/internal/config"
	"github.com/flang-compiler/flang-build/internal/orchestrator"
	"github.com/flang-compiler/flang-build/internal/platform"
	"github.com/flang-compiler/flang-build/pkgs/buildsys"
	"github.com/flang-compiler/flang-build/pkgs/buildsys/cmake"
	"github.com/spf13/cobra"
)

var (
	buildDir      string
	clean         bool
	buildType     string
	cmakeParams   []string
	installPrefix string
	llvmRoot      string
	toolchain     string
	target        string
	jobs          int
	cmakeBin      string
	dryRun        bool
)

func init() {
	f := rootCmd.Flags()
	f.SortFlags = false
	f.StringVar(&buildDir, "builddir", config.DefaultBuildDir, "Build directory, relative paths are taken from each project's source root")
	f.BoolVar(&clean, "clean", false, "Remove the build directory before configuring")
	f.StringVar(&buildType, "build-type", config.DefaultBuildType, "CMake build type")
	f.VarPF(debugFlag{&buildType}, "debug", "", "Debug build (alias for --build-type Debug, the later of the two wins)").NoOptDefVal = "true"
	f.StringArrayVar(&cmakeParams, "cmake-param", nil, "Extra argument passed to CMake when configuring (repeatable)")
	f.StringVar(&installPrefix, "install-prefix", "", "Install prefix, also where the LLVM toolchain is found")
	f.StringVar(&llvmRoot, "llvm-root", "", "Alias for --install-prefix")
	f.StringVar(&toolchain, "toolchain", "", "CMake toolchain file (default: cmake/toolchain_<os>_<machine>.cmake in the script directory, if present)")
	f.StringVar(&target, "target", string(config.DefaultTarget), "LLVM targets to enable ("+archList()+")")
	f.IntVarP(&jobs, "jobs", "j", config.DefaultJobs, "Number of parallel build jobs")
	f.StringVar(&cmakeBin, "cmake", config.DefaultCMake, "CMake executable")
	f.BoolVar(&dryRun, "dry-run", false, "Print the CMake commands instead of running them")
}

// debugFlag is a boolean flag storing "Debug" into the build type it
// shares with --build-type, so flag order decides between the two.
type debugFlag struct{ buildType *string }

func (d debugFlag) String() string   { return "false" }
func (d debugFlag) Type() string     { return "bool" }
func (d debugFlag) IsBoolFlag() bool { return true }

func (d debugFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*d.buildType = "Debug"
	}
	return nil
}

func archList() string {
	names := make([]string, len(config.Archs))
	for i, a := range config.Archs {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// flagOptions returns the flags the user set explicitly, so that unset
// flags do not mask the config file or environment.
func flagOptions(cmd *cobra.Command) (config.Options, error) {
	f := cmd.Flags()
	var o config.Options
	if f.Changed("builddir") {
		o.BuildDir = buildDir
	}
	o.Clean = clean
	if f.Changed("build-type") || f.Changed("debug") {
		o.BuildType = buildType
	}
	o.CMakeParams = cmakeParams
	switch {
	case f.Changed("install-prefix") && f.Changed("llvm-root") && installPrefix != llvmRoot:
		return o, usageError{errors.New("--install-prefix and --llvm-root disagree")}
	case f.Changed("install-prefix"):
		o.InstallPrefix = installPrefix
	case f.Changed("llvm-root"):
		o.InstallPrefix = llvmRoot
	}
	if f.Changed("toolchain") {
		o.Toolchain = toolchain
	}
	if f.Changed("target") {
		o.Target = target
	}
	if f.Changed("jobs") {
		if jobs < 1 {
			return o, usageError{fmt.Errorf("--jobs must be at least 1, got %d", jobs)}
		}
		o.Jobs = jobs
	}
	if f.Changed("cmake") {
		o.CMake = cmakeBin
	}
	o.DryRun = dryRun
	return o, nil
}

// loadConfig layers the defaults file, the environment and the flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	l, err := layout()
	if err != nil {
		return config.Config{}, err
	}

	var layers []config.Options
	path, required := configPath(l)
	file, err := config.LoadFile(path)
	switch {
	case err == nil:
		slog.Debug("loaded defaults", "file", path)
		layers = append(layers, file.Options())
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return config.Config{}, err
	}

	lookup, err := config.EnvLookup(envFile)
	if err != nil {
		return config.Config{}, err
	}
	envOpts, err := config.FromEnv(lookup)
	if err != nil {
		return config.Config{}, err
	}
	flagOpts, err := flagOptions(cmd)
	if err != nil {
		return config.Config{}, err
	}
	layers = append(layers, envOpts, flagOpts)

	return config.Resolve(l, platform.Detect(), platform.DirLister, layers...)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var runner buildsys.Runner
	if cfg.DryRun {
		runner = &buildsys.DryRunner{Out: cmd.OutOrStdout()}
	} else {
		runner = buildsys.NewExecRunner()
		v, err := cmake.CheckVersion(ctx, runner, cfg.CMake, cmake.MinVersion)
		if err != nil {
			return err
		}
		slog.Debug("found cmake", "path", cfg.CMake, "version", v)
	}

	slog.Info("build configuration",
		"host", cfg.Host,
		"generator", cfg.Generator(),
		"build_type", cfg.BuildType,
		"install_prefix", cfg.InstallPrefix,
		"toolchain", cfg.Toolchain,
		"target", cfg.Target,
		"jobs", cfg.Jobs,
	)

	res := orchestrator.New(cfg, runner,
		orchestrator.WithOutput(cmd.OutOrStdout()),
		orchestrator.WithLogger(slog.Default()),
	).Run(ctx)
	if res.Err != nil {
		return res.Err
	}
	return nil
}
