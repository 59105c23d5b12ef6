// Package config assembles the immutable build configuration from defaults,
// an optional YAML file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flang-compiler/flang-build/internal/env"
	"github.com/flang-compiler/flang-build/internal/platform"
)

// Defaults.
const (
	DefaultBuildDir  = "build"
	DefaultBuildType = "Release"
	DefaultTarget    = ArchX86
	DefaultJobs      = 1
	DefaultCMake     = "cmake"
)

var (
	// ErrInvalid marks a configuration that cannot be built.
	ErrInvalid = errors.New("invalid configuration")

	// ErrNoInstallPrefix is returned when no install prefix was given.
	ErrNoInstallPrefix = fmt.Errorf("%w: install prefix is required", ErrInvalid)
)

// Arch selects the LLVM targets the compiler is built for.
type Arch string

const (
	ArchX86     Arch = "X86"
	ArchAArch64 Arch = "AArch64"
	ArchPowerPC Arch = "PowerPC"
)

// Archs lists the accepted target architectures.
var Archs = []Arch{ArchX86, ArchAArch64, ArchPowerPC}

// ParseArch validates s against Archs. Matching is exact.
func ParseArch(s string) (Arch, error) {
	a := Arch(s)
	if slices.Contains(Archs, a) {
		return a, nil
	}
	names := make([]string, len(Archs))
	for i, a := range Archs {
		names[i] = string(a)
	}
	return "", fmt.Errorf("%w: target %q not in (%s)", ErrInvalid, s, strings.Join(names, ", "))
}

// Options is one layer of user input. Zero values mean "not set".
type Options struct {
	BuildDir      string
	Clean         bool
	BuildType     string
	CMakeParams   []string
	InstallPrefix string
	Toolchain     string
	Target        string
	Jobs          int
	CMake         string
	DryRun        bool
}

// Merge overlays the set fields of over on o. Boolean switches stay on once
// set and CMake parameters accumulate.
func (o Options) Merge(over Options) Options {
	if over.BuildDir != "" {
		o.BuildDir = over.BuildDir
	}
	o.Clean = o.Clean || over.Clean
	if over.BuildType != "" {
		o.BuildType = over.BuildType
	}
	if len(over.CMakeParams) > 0 {
		o.CMakeParams = append(slices.Clone(o.CMakeParams), over.CMakeParams...)
	}
	if over.InstallPrefix != "" {
		o.InstallPrefix = over.InstallPrefix
	}
	if over.Toolchain != "" {
		o.Toolchain = over.Toolchain
	}
	if over.Target != "" {
		o.Target = over.Target
	}
	if over.Jobs != 0 {
		o.Jobs = over.Jobs
	}
	if over.CMake != "" {
		o.CMake = over.CMake
	}
	o.DryRun = o.DryRun || over.DryRun
	return o
}

// Config is the resolved build configuration. It is computed once and
// read-only afterwards.
type Config struct {
	// BuildDir may be relative; see Target.BuildDir in the orchestrator.
	BuildDir      string
	Clean         bool
	BuildType     string
	CMakeParams   []string
	InstallPrefix string // absolute
	Toolchain     string // absolute, empty if none
	Target        Arch
	Jobs          int
	CMake         string
	DryRun        bool

	Host   platform.Host
	Layout env.Layout
}

// Generator returns the CMake generator for the configured host.
func (c Config) Generator() string {
	return platform.Generator(c.Host)
}

// CompilerPath returns the path of the compiler installed by the first
// stage, used as the Fortran compiler of the second.
func (c Config) CompilerPath() string {
	return filepath.Join(c.InstallPrefix, "bin", "flang"+platform.ExeSuffix(c.Host))
}

// Resolve applies defaults to the merged layers and validates the result.
// A missing toolchain is probed in layout.ToolchainDir through list.
func Resolve(layout env.Layout, host platform.Host, list platform.Lister, layers ...Options) (Config, error) {
	o := Options{
		BuildDir:  DefaultBuildDir,
		BuildType: DefaultBuildType,
		Target:    string(DefaultTarget),
		Jobs:      DefaultJobs,
		CMake:     DefaultCMake,
	}
	for _, l := range layers {
		o = o.Merge(l)
	}

	if o.InstallPrefix == "" {
		return Config{}, ErrNoInstallPrefix
	}
	prefix, err := filepath.Abs(o.InstallPrefix)
	if err != nil {
		return Config{}, fmt.Errorf("%w: install prefix: %w", ErrInvalid, err)
	}
	target, err := ParseArch(o.Target)
	if err != nil {
		return Config{}, err
	}
	if o.Jobs < 1 {
		return Config{}, fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, o.Jobs)
	}
	if strings.TrimSpace(o.BuildType) == "" {
		return Config{}, fmt.Errorf("%w: empty build type", ErrInvalid)
	}

	toolchain := o.Toolchain
	if toolchain == "" {
		toolchain, _ = platform.ToolchainFile(host, layout.ToolchainDir, list)
	} else if toolchain, err = filepath.Abs(toolchain); err != nil {
		return Config{}, fmt.Errorf("%w: toolchain: %w", ErrInvalid, err)
	}

	return Config{
		BuildDir:      o.BuildDir,
		Clean:         o.Clean,
		BuildType:     o.BuildType,
		CMakeParams:   slices.Clone(o.CMakeParams),
		InstallPrefix: prefix,
		Toolchain:     toolchain,
		Target:        target,
		Jobs:          o.Jobs,
		CMake:         o.CMake,
		DryRun:        o.DryRun,
		Host:          host,
		Layout:        layout,
	}, nil
}
