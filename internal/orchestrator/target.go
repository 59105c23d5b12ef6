package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/flang-compiler/flang-build/internal/config"
	"github.com/flang-compiler/flang-build/pkgs/buildsys/cmake"
)

// Target is one build unit of the pipeline.
type Target struct {
	Name      string
	SourceDir string

	// Configure adds target-specific settings on top of the shared ones.
	Configure func(c *cmake.CMake, cfg config.Config)
}

// Targets returns the math runtime and the compiler, in build order.
func Targets(cfg config.Config) []Target {
	return []Target{
		{
			Name:      "libpgmath",
			SourceDir: cfg.Layout.LibpgmathDir,
		},
		{
			Name:      "flang",
			SourceDir: cfg.Layout.FlangDir,
			Configure: configureFlang,
		},
	}
}

// flangFixed are the compiler settings that --cmake-param cannot change.
var flangFixed = []string{
	"CMAKE_Fortran_COMPILER",
	"CMAKE_Fortran_COMPILER_ID",
	"FLANG_INCLUDE_DOCS",
	"FLANG_LLVM_EXTENSIONS",
	"LLVM_TARGETS_TO_BUILD",
	"WITH_WERROR",
}

// configureFlang points the compiler build at the flang installed by the
// first stage.
func configureFlang(c *cmake.CMake, cfg config.Config) {
	c.DefineFile("CMAKE_Fortran_COMPILER", cfg.CompilerPath()).
		Define("CMAKE_Fortran_COMPILER_ID", "Flang").
		DefineBool("FLANG_INCLUDE_DOCS", true).
		DefineBool("FLANG_LLVM_EXTENSIONS", true).
		Define("LLVM_TARGETS_TO_BUILD", string(cfg.Target)).
		DefineBool("WITH_WERROR", true).
		Pin(flangFixed...)
}

// BuildDir resolves dir against the target's source root.
func (t Target) BuildDir(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(t.SourceDir, dir)
}

// PrepareBuildDir resolves dir for t, removes it first when clean is set,
// and makes sure it exists.
func PrepareBuildDir(t Target, dir string, clean bool) (string, error) {
	dir = t.BuildDir(dir)
	if clean {
		if err := os.RemoveAll(dir); err != nil {
			return dir, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}
	return dir, nil
}
