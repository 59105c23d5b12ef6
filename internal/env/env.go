package env

import (
	"os"
	"path/filepath"
)

// Layout is the fixed directory layout of a Flang source checkout, anchored
// at the directory holding the build tooling.
type Layout struct {
	ScriptDir    string // build tooling, e.g. <flang>/utils
	FlangDir     string // compiler source root
	ToolchainDir string // CMake toolchain files
	LibpgmathDir string // math runtime source root
}

// NewLayout derives the layout from scriptDir. The compiler root is the
// parent of scriptDir.
func NewLayout(scriptDir string) (Layout, error) {
	scriptDir, err := filepath.Abs(scriptDir)
	if err != nil {
		return Layout{}, err
	}
	flangDir := filepath.Dir(scriptDir)
	return Layout{
		ScriptDir:    scriptDir,
		FlangDir:     flangDir,
		ToolchainDir: filepath.Join(scriptDir, "cmake"),
		LibpgmathDir: filepath.Join(flangDir, "runtime", "libpgmath"),
	}, nil
}

// ScriptDir returns the directory containing the running executable, with
// symlinks resolved.
func ScriptDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
