package cmake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/flang-compiler/flang-build/pkgs/buildsys"
	"golang.org/x/mod/semver"
)

// MinVersion is the oldest CMake accepting "-S <src> -B <build>".
const MinVersion = "3.13.0"

// InstallTarget is the build target that installs a project.
const InstallTarget = "install"

// ErrTooOld is returned by CheckVersion for an outdated CMake.
var ErrTooOld = errors.New("cmake is too old")

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps the CMake configure/build/install steps with chainable
// configuration.
type CMake struct {
	bin        string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	jobs       int
	defines    map[string]defineValue
	pinned     map[string]bool
	params     []string
	runner     buildsys.Runner
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the project in sourceDir. Commands go
// through runner; bin is the cmake executable and defaults to "cmake".
func New(runner buildsys.Runner, bin, sourceDir string) *CMake {
	if bin == "" {
		bin = "cmake"
	}
	return &CMake{
		bin:       bin,
		sourceDir: sourceDir,
		buildDir:  filepath.Join(sourceDir, "build"),
		defines:   map[string]defineValue{},
		pinned:    map[string]bool{},
		runner:    runner,
	}
}

func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

func (c *CMake) InstallDir(dir string) *CMake {
	c.installDir = dir
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Jobs sets the build parallelism. Values below 1 leave it to the native
// build tool.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

// Params appends raw arguments to the configure command line, after all
// definitions that are not pinned.
func (c *CMake) Params(args ...string) *CMake {
	c.params = append(c.params, args...)
	return c
}

// Pin renders the definitions of keys after the raw parameters. CMake keeps
// the last value given for a cache entry, so a pinned definition cannot be
// overridden through Params.
func (c *CMake) Pin(keys ...string) *CMake {
	for _, k := range keys {
		c.pinned[k] = true
	}
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// DefinePath adds a -D<key>:PATH=<value> definition. The path is written
// with forward slashes, which CMake accepts on every platform.
func (c *CMake) DefinePath(key, path string) *CMake {
	c.defines[key] = defineValue{value: filepath.ToSlash(path), typeName: "PATH"}
	return c
}

// DefineFile adds a -D<key>:FILEPATH=<value> definition.
func (c *CMake) DefineFile(key, path string) *CMake {
	c.defines[key] = defineValue{value: filepath.ToSlash(path), typeName: "FILEPATH"}
	return c
}

// ConfigureArgs returns the arguments of the configure command.
func (c *CMake) ConfigureArgs() []string {
	args := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	if c.installDir != "" {
		c.DefinePath("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	if c.toolchain != "" {
		c.DefineFile("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	args = append(args, c.definesArgs(false)...)
	args = append(args, c.params...)
	return append(args, c.definesArgs(true)...)
}

// BuildArgs returns the arguments of the build command.
func (c *CMake) BuildArgs() []string {
	args := []string{"--build", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	if c.jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(c.jobs))
	}
	return args
}

// InstallArgs returns the arguments of the install command. Installing goes
// through the build driver so that multi-config generators pick the
// configured build type.
func (c *CMake) InstallArgs() []string {
	args := []string{"--build", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	return append(args, "--target", InstallTarget)
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
func (c *CMake) Configure(ctx context.Context) (buildsys.Status, error) {
	return c.run(ctx, c.ConfigureArgs())
}

// Build runs "cmake --build <build>".
func (c *CMake) Build(ctx context.Context) (buildsys.Status, error) {
	return c.run(ctx, c.BuildArgs())
}

// Install runs "cmake --build <build> --target install".
func (c *CMake) Install(ctx context.Context) (buildsys.Status, error) {
	return c.run(ctx, c.InstallArgs())
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) run(ctx context.Context, args []string) (buildsys.Status, error) {
	return c.runner.Run(ctx, buildsys.Cmd{Path: c.bin, Args: args})
}

func (c *CMake) definesArgs(pinned bool) []string {
	var keys []string
	for k := range c.defines {
		if c.pinned[k] == pinned {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// Version runs "cmake --version" and returns the reported version without
// the "v" prefix, e.g. "3.27.4".
func Version(ctx context.Context, runner buildsys.Runner, bin string) (string, error) {
	if bin == "" {
		bin = "cmake"
	}
	out, err := runner.Output(ctx, buildsys.Cmd{Path: bin, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	return parseVersion(out)
}

// parseVersion extracts the version from the first line of "cmake --version",
// which reads "cmake version 3.27.4" (or "cmake3 version ..." on some
// distributions).
func parseVersion(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		return "", fmt.Errorf("cmake: empty version output")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 3 || fields[1] != "version" {
		return "", fmt.Errorf("cmake: unrecognized version output %q", sc.Text())
	}
	v := fields[2]
	if !semver.IsValid("v" + v) {
		return "", fmt.Errorf("cmake: invalid version %q", v)
	}
	return v, nil
}

// CheckVersion fails with ErrTooOld if the cmake at bin predates min.
func CheckVersion(ctx context.Context, runner buildsys.Runner, bin, min string) (string, error) {
	v, err := Version(ctx, runner, bin)
	if err != nil {
		return "", err
	}
	if semver.Compare("v"+v, "v"+min) < 0 {
		return v, fmt.Errorf("%w: found %s, need %s or later", ErrTooOld, v, min)
	}
	return v, nil
}
