package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the name of the defaults file looked up in the script
// directory.
const DefaultFile = "flang-build.yaml"

// File is the on-disk form of a defaults file:
//
//	install_prefix: /opt/flang
//	build_type: Release
//	target: AArch64
//	jobs: 8
//	cmake_params:
//	  - -DLLVM_ENABLE_ASSERTIONS=ON
type File struct {
	BuildDir      string   `yaml:"builddir"`
	Clean         bool     `yaml:"clean"`
	BuildType     string   `yaml:"build_type"`
	CMakeParams   []string `yaml:"cmake_params"`
	InstallPrefix string   `yaml:"install_prefix"`
	Toolchain     string   `yaml:"toolchain"`
	Target        string   `yaml:"target"`
	Jobs          int      `yaml:"jobs"`
	CMake         string   `yaml:"cmake"`
}

// Options converts f into an input layer.
func (f *File) Options() Options {
	if f == nil {
		return Options{}
	}
	return Options{
		BuildDir:      f.BuildDir,
		Clean:         f.Clean,
		BuildType:     f.BuildType,
		CMakeParams:   f.CMakeParams,
		InstallPrefix: f.InstallPrefix,
		Toolchain:     f.Toolchain,
		Target:        f.Target,
		Jobs:          f.Jobs,
		CMake:         f.CMake,
	}
}

// LoadFile reads a defaults file. Unknown keys are rejected. A missing file
// yields an error matching os.ErrNotExist.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return &f, nil
}
