package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLayout(t *testing.T) {
	root := t.TempDir()
	scriptDir := filepath.Join(root, "flang", "utils")

	layout, err := NewLayout(scriptDir)
	if err != nil {
		t.Fatalf("NewLayout() returned error: %v", err)
	}

	want := Layout{
		ScriptDir:    scriptDir,
		FlangDir:     filepath.Join(root, "flang"),
		ToolchainDir: filepath.Join(scriptDir, "cmake"),
		LibpgmathDir: filepath.Join(root, "flang", "runtime", "libpgmath"),
	}
	if layout != want {
		t.Errorf("NewLayout() = %+v, want %+v", layout, want)
	}
}

// TestNewLayoutRelative verifies that a relative script directory is
// anchored at the current working directory.
func TestNewLayoutRelative(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	layout, err := NewLayout("utils")
	if err != nil {
		t.Fatalf("NewLayout() returned error: %v", err)
	}
	if layout.ScriptDir != filepath.Join(wd, "utils") {
		t.Errorf("ScriptDir = %q, want %q", layout.ScriptDir, filepath.Join(wd, "utils"))
	}
	if layout.FlangDir != wd {
		t.Errorf("FlangDir = %q, want %q", layout.FlangDir, wd)
	}
}

func TestScriptDir(t *testing.T) {
	dir, err := ScriptDir()
	if err != nil {
		t.Fatalf("ScriptDir() returned error: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ScriptDir() = %q, want absolute path", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("ScriptDir() = %q is not a directory: %v", dir, err)
	}
}
