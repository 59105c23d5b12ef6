package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/flang-compiler/flang-build/internal/config"
	"github.com/flang-compiler/flang-build/pkgs/buildsys"
	"github.com/flang-compiler/flang-build/pkgs/buildsys/cmake"
	"github.com/gookit/color"
)

const bannerWidth = 30

// Result is the outcome of a pipeline run.
type Result struct {
	Status buildsys.Status
	State  State       // Done or Failed
	Err    *StageError // nil on success
}

// Orchestrator configures, builds and installs its targets one after the
// other, halting at the first failing stage.
type Orchestrator struct {
	cfg     config.Config
	runner  buildsys.Runner
	targets []Target
	out     io.Writer
	logger  *slog.Logger
	observe func(from, to State)
	state   State
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithOutput sets where progress lines and banners are written.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.observe = fn }
}

// WithTargets replaces the default targets.
func WithTargets(targets ...Target) Option {
	return func(o *Orchestrator) { o.targets = targets }
}

// New returns an orchestrator for cfg running commands through runner.
func New(cfg config.Config, runner buildsys.Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		runner:  runner,
		targets: Targets(cfg),
		out:     io.Discard,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State { return o.state }

// Run executes the pipeline. The returned status is that of the last stage
// run: zero if every stage succeeded.
func (o *Orchestrator) Run(ctx context.Context) Result {
	for i, t := range o.targets {
		fmt.Fprintf(o.out, "Building %s...\n", t.Name)
		o.logger.Info("building target", "target", t.Name, "source", t.SourceDir)

		status, err := o.runTarget(ctx, i, t)
		o.banner(status)
		if !status.OK() {
			o.transition(Failed)
			return Result{Status: status, State: Failed, Err: err}
		}
	}
	o.transition(Done)
	return Result{State: Done}
}

type step struct {
	stage Stage
	run   func(context.Context) (buildsys.Status, error)
}

// runTarget runs the four stages of t and returns the status of the last
// one run. A non-zero status ends the target.
func (o *Orchestrator) runTarget(ctx context.Context, i int, t Target) (buildsys.Status, *StageError) {
	o.transition(stateOf(i, StagePrepare))
	buildDir, err := o.prepare(t)
	if err != nil {
		o.logger.Error("preparing build directory", "target", t.Name, "dir", buildDir, "error", err)
		return buildsys.StatusFailure, &StageError{Target: t.Name, Stage: StagePrepare, Status: buildsys.StatusFailure, Err: err}
	}

	bs := o.newCMake(t, buildDir)
	steps := []step{
		{StageConfigure, bs.Configure},
		{StageBuild, bs.Build},
		{StageInstall, bs.Install},
	}

	var status buildsys.Status
	for _, s := range steps {
		o.transition(stateOf(i, s.stage))
		status, err = s.run(ctx)
		if err != nil && status.OK() {
			status = buildsys.StatusFailure
		}
		if !status.OK() {
			o.logger.Error("stage failed", "target", t.Name, "stage", s.stage, "status", int(status), "error", err)
			return status, &StageError{Target: t.Name, Stage: s.stage, Status: status, Err: err}
		}
		o.logger.Debug("stage done", "target", t.Name, "stage", s.stage)
	}
	o.logger.Info("target installed", "target", t.Name, "dir", bs.OutputDir())
	return status, nil
}

func (o *Orchestrator) prepare(t Target) (string, error) {
	if o.cfg.DryRun {
		dir := t.BuildDir(o.cfg.BuildDir)
		o.logger.Info("dry run: not touching build directory", "target", t.Name, "dir", dir, "clean", o.cfg.Clean)
		return dir, nil
	}
	dir, err := PrepareBuildDir(t, o.cfg.BuildDir, o.cfg.Clean)
	if err == nil {
		o.logger.Debug("build directory ready", "target", t.Name, "dir", dir, "clean", o.cfg.Clean)
	}
	return dir, err
}

func (o *Orchestrator) newCMake(t Target, buildDir string) buildsys.BuildSystem {
	cfg := o.cfg
	c := cmake.New(o.runner, cfg.CMake, t.SourceDir).
		BuildDir(buildDir).
		InstallDir(cfg.InstallPrefix).
		BuildType(cfg.BuildType).
		Toolchain(cfg.Toolchain).
		Generator(cfg.Generator()).
		Jobs(cfg.Jobs)
	c.Params(cfg.CMakeParams...)
	if t.Configure != nil {
		t.Configure(c, cfg)
	}
	return c
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	if from == to {
		return
	}
	o.state = to
	o.logger.Debug("state", "from", from, "to", to)
	if o.observe != nil {
		o.observe(from, to)
	}
}

func (o *Orchestrator) banner(status buildsys.Status) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(o.out, rule)
	if status.OK() {
		fmt.Fprintln(o.out, buildsys.Paint(o.out, color.Green, "Build succeeded!"))
	} else {
		fmt.Fprintln(o.out, buildsys.Paint(o.out, color.Red, fmt.Sprintf("Build failed with exit code: %d", status)))
	}
	fmt.Fprintln(o.out, rule)
}
