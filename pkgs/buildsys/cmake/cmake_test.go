package cmake

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/flang-compiler/flang-build/pkgs/buildsys"
)

// fakeRunner records commands and answers them with canned results.
type fakeRunner struct {
	cmds   []buildsys.Cmd
	status buildsys.Status
	output string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, cmd buildsys.Cmd) (buildsys.Status, error) {
	f.cmds = append(f.cmds, cmd)
	return f.status, f.err
}

func (f *fakeRunner) Output(ctx context.Context, cmd buildsys.Cmd) ([]byte, error) {
	f.cmds = append(f.cmds, cmd)
	return []byte(f.output), f.err
}

func TestConfigureArgs(t *testing.T) {
	c := New(&fakeRunner{}, "", "/src/libpgmath").
		BuildDir("/src/libpgmath/build").
		InstallDir("/opt/toolchain").
		Generator("Unix Makefiles").
		BuildType("Release").
		Toolchain("/src/utils/cmake/toolchain_linux_x86_64.cmake").
		Define("LLVM_TARGETS_TO_BUILD", "X86").
		DefineBool("WITH_WERROR", true).
		DefineBool("FLANG_INCLUDE_DOCS", false).
		Params("-DFOO=bar", "--log-level=VERBOSE")

	want := []string{
		"-S", "/src/libpgmath",
		"-B", "/src/libpgmath/build",
		"-G", "Unix Makefiles",
		"-DCMAKE_BUILD_TYPE:STRING=Release",
		"-DCMAKE_INSTALL_PREFIX:PATH=/opt/toolchain",
		"-DCMAKE_TOOLCHAIN_FILE:FILEPATH=/src/utils/cmake/toolchain_linux_x86_64.cmake",
		"-DFLANG_INCLUDE_DOCS:BOOL=OFF",
		"-DLLVM_TARGETS_TO_BUILD:STRING=X86",
		"-DWITH_WERROR:BOOL=ON",
		"-DFOO=bar",
		"--log-level=VERBOSE",
	}
	if got := c.ConfigureArgs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ConfigureArgs() =\n%q\nwant\n%q", got, want)
	}
}

func TestConfigureArgsWithoutToolchain(t *testing.T) {
	c := New(&fakeRunner{}, "", "/src").BuildType("Debug")
	args := c.ConfigureArgs()
	if args[1] != "/src" {
		t.Fatalf("source dir = %q, want /src", args[1])
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, "-DCMAKE_TOOLCHAIN_FILE") {
			t.Fatalf("unexpected toolchain define %q", arg)
		}
		if arg == "-G" {
			t.Fatal("unexpected generator flag")
		}
	}
}

func TestPinnedDefinesFollowParams(t *testing.T) {
	c := New(&fakeRunner{}, "", "/src").
		BuildDir("/src/build").
		DefineBool("WITH_WERROR", true).
		Define("LLVM_TARGETS_TO_BUILD", "X86").
		Define("EXTRA", "1").
		Pin("WITH_WERROR", "LLVM_TARGETS_TO_BUILD").
		Params("-DWITH_WERROR=OFF")

	want := []string{
		"-S", "/src",
		"-B", "/src/build",
		"-DEXTRA:STRING=1",
		"-DWITH_WERROR=OFF",
		"-DLLVM_TARGETS_TO_BUILD:STRING=X86",
		"-DWITH_WERROR:BOOL=ON",
	}
	if got := c.ConfigureArgs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ConfigureArgs() =\n%q\nwant\n%q", got, want)
	}
}

func TestDefinePathUsesForwardSlashes(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("backslash is a path separator only on windows")
	}
	c := New(&fakeRunner{}, "", `C:\src`).DefinePath("CMAKE_INSTALL_PREFIX", `C:\opt\flang`)
	args := c.ConfigureArgs()
	if got := args[len(args)-1]; got != "-DCMAKE_INSTALL_PREFIX:PATH=C:/opt/flang" {
		t.Fatalf("define = %q", got)
	}
}

func TestBuildAndInstallArgs(t *testing.T) {
	c := New(&fakeRunner{}, "", "/src").BuildDir("/src/out").BuildType("Release").Jobs(4)

	if got, want := c.BuildArgs(), []string{"--build", "/src/out", "--config", "Release", "--parallel", "4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %q, want %q", got, want)
	}
	if got, want := c.InstallArgs(), []string{"--build", "/src/out", "--config", "Release", "--target", "install"}; !reflect.DeepEqual(got, want) {
		t.Errorf("InstallArgs() = %q, want %q", got, want)
	}

	c.Jobs(0)
	if got, want := c.BuildArgs(), []string{"--build", "/src/out", "--config", "Release"}; !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() without jobs = %q, want %q", got, want)
	}
}

func TestStepsGoThroughRunner(t *testing.T) {
	r := &fakeRunner{status: 3}
	c := New(r, "/usr/local/bin/cmake", "/src").BuildDir("/src/build")
	ctx := context.Background()

	for _, step := range []func(context.Context) (buildsys.Status, error){c.Configure, c.Build, c.Install} {
		status, err := step(ctx)
		if err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if status != 3 {
			t.Fatalf("step status = %d, want 3", status)
		}
	}
	if len(r.cmds) != 3 {
		t.Fatalf("ran %d commands, want 3", len(r.cmds))
	}
	for _, cmd := range r.cmds {
		if cmd.Path != "/usr/local/bin/cmake" {
			t.Errorf("command path = %q, want /usr/local/bin/cmake", cmd.Path)
		}
	}
	if r.cmds[0].Args[0] != "-S" || r.cmds[1].Args[0] != "--build" || r.cmds[2].Args[len(r.cmds[2].Args)-1] != "install" {
		t.Errorf("unexpected command order: %v", r.cmds)
	}
}

func TestOutputDirPrefersInstall(t *testing.T) {
	c := New(&fakeRunner{}, "", "src")
	if got := c.OutputDir(); got != filepath.Join("src", "build") {
		t.Fatalf("default OutputDir = %q, want %q", got, filepath.Join("src", "build"))
	}
	c.InstallDir("custom-install")
	if got := c.OutputDir(); got != "custom-install" {
		t.Fatalf("OutputDir after InstallDir = %q, want %q", got, "custom-install")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{"cmake version 3.27.4\n\nCMake suite maintained and supported by Kitware (kitware.com/cmake).\n", "3.27.4", false},
		{"cmake3 version 3.17.5\n", "3.17.5", false},
		{"cmake version 3.28.0-rc1\n", "3.28.0-rc1", false},
		{"", "", true},
		{"ninja 1.11\n", "", true},
		{"cmake version banana\n", "", true},
	}
	for _, tt := range tests {
		got, err := parseVersion([]byte(tt.out))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.out, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseVersion(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}

func TestCheckVersion(t *testing.T) {
	ctx := context.Background()

	r := &fakeRunner{output: "cmake version 3.27.4\n"}
	v, err := CheckVersion(ctx, r, "", MinVersion)
	if err != nil {
		t.Fatalf("CheckVersion(3.27.4) returned error: %v", err)
	}
	if v != "3.27.4" {
		t.Errorf("CheckVersion() version = %q", v)
	}
	if len(r.cmds) != 1 || r.cmds[0].Path != "cmake" || r.cmds[0].Args[0] != "--version" {
		t.Errorf("unexpected commands: %v", r.cmds)
	}

	r = &fakeRunner{output: "cmake version 3.10.2\n"}
	if _, err := CheckVersion(ctx, r, "", MinVersion); !errors.Is(err, ErrTooOld) {
		t.Errorf("CheckVersion(3.10.2) error = %v, want ErrTooOld", err)
	}

	r = &fakeRunner{err: errors.New("exec: not found")}
	if _, err := CheckVersion(ctx, r, "", MinVersion); err == nil || errors.Is(err, ErrTooOld) {
		t.Errorf("CheckVersion(missing) error = %v", err)
	}
}

func TestConfigureBuildInstallE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not found in PATH")
	}
	if runtime.GOOS == "windows" {
		t.Skip("Unix Makefiles generator not available")
	}

	tmp := t.TempDir()
	sourceDir := filepath.Join(tmp, "project")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lists := `cmake_minimum_required(VERSION 3.13)
project(dummy NONE)
install(FILES dummy.h DESTINATION include)
`
	if err := os.WriteFile(filepath.Join(sourceDir, "CMakeLists.txt"), []byte(lists), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "dummy.h"), []byte("#define DUMMY 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	installDir := filepath.Join(tmp, "install")
	buildDir := filepath.Join(tmp, "build")

	runner := &buildsys.ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr}
	ctx := context.Background()
	if _, err := CheckVersion(ctx, runner, "", MinVersion); err != nil {
		t.Skipf("cmake unusable: %v", err)
	}

	c := New(runner, "", sourceDir).
		BuildDir(buildDir).
		InstallDir(installDir).
		BuildType("Release").
		Generator("Unix Makefiles").
		Jobs(2).
		Define("FOO", "BAR").
		DefineBool("ENABLE", true)

	if status, err := c.Configure(ctx); err != nil || !status.OK() {
		t.Fatalf("configure: status %d, err %v", status, err)
	}
	if status, err := c.Build(ctx); err != nil || !status.OK() {
		t.Fatalf("build: status %d, err %v", status, err)
	}
	if status, err := c.Install(ctx); err != nil || !status.OK() {
		t.Fatalf("install: status %d, err %v", status, err)
	}

	if _, err := os.Stat(filepath.Join(installDir, "include", "dummy.h")); err != nil {
		t.Fatalf("installed header missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(buildDir, "CMakeCache.txt"))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	content := string(data)
	for _, snippet := range []string{
		"FOO:STRING=BAR",
		"ENABLE:BOOL=ON",
		"CMAKE_BUILD_TYPE:STRING=Release",
	} {
		if !strings.Contains(content, snippet) {
			t.Fatalf("cache missing %q", snippet)
		}
	}
}
