// Package platform describes the host a build runs on and derives the
// host-dependent CMake settings: generator and default toolchain file.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Generators selected by [Generator].
const (
	GeneratorUnix       = "Unix Makefiles"
	GeneratorWindows    = "Ninja"
	GeneratorWindowsARM = "NMake Makefiles"
)

// Host identifies the operating system and machine of a build host.
//
// OS uses GOOS spelling. Machine is the kernel's machine name as reported by
// uname(2) on Unix ("x86_64", "aarch64", "arm64") and the processor
// architecture on Windows ("AMD64", "ARM64").
type Host struct {
	OS      string
	Machine string
}

// Detect returns the running host.
func Detect() Host {
	return Host{OS: runtime.GOOS, Machine: machine()}
}

func (h Host) String() string {
	return h.OS + "/" + h.Machine
}

// IsWindows reports whether h runs Windows.
func (h Host) IsWindows() bool {
	return h.OS == "windows"
}

// Generator returns the CMake generator for h. Ninja is not available on
// Windows on ARM, so NMake is used there.
func Generator(h Host) string {
	switch {
	case h.IsWindows() && strings.EqualFold(h.Machine, "arm64"):
		return GeneratorWindowsARM
	case h.IsWindows():
		return GeneratorWindows
	default:
		return GeneratorUnix
	}
}

// ExeSuffix returns the executable file suffix on h.
func ExeSuffix(h Host) string {
	if h.IsWindows() {
		return ".exe"
	}
	return ""
}

// ToolchainName returns the toolchain file name probed for h, for example
// "toolchain_linux_x86_64.cmake".
func ToolchainName(h Host) string {
	return fmt.Sprintf("toolchain_%s_%s.cmake", strings.ToLower(h.OS), strings.ToLower(h.Machine))
}

// Lister lists the file names in a directory.
type Lister func(dir string) ([]string, error)

// DirLister lists regular files with os.ReadDir.
func DirLister(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ToolchainFile looks up the toolchain file for h in dir. It reports false
// if dir cannot be listed or holds no matching file.
func ToolchainFile(h Host, dir string, list Lister) (string, bool) {
	if list == nil {
		list = DirLister
	}
	names, err := list(dir)
	if err != nil {
		return "", false
	}
	want := ToolchainName(h)
	for _, name := range names {
		if name == want {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}
