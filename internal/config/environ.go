package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment keys read by FromEnv.
const (
	EnvBuildDir      = "FLANG_BUILD_DIR"
	EnvBuildType     = "FLANG_BUILD_TYPE"
	EnvInstallPrefix = "FLANG_BUILD_INSTALL_PREFIX"
	EnvToolchain     = "FLANG_BUILD_TOOLCHAIN"
	EnvTarget        = "FLANG_BUILD_TARGET"
	EnvJobs          = "FLANG_BUILD_JOBS"
	EnvCMake         = "FLANG_BUILD_CMAKE"
)

// DefaultEnvFile is the dotenv file read from the working directory.
const DefaultEnvFile = ".env"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a lookup over the process environment that falls back
// to the entries of the dotenv files at paths. Process variables win, and
// earlier files win over later ones. Missing files are skipped.
func EnvLookup(paths ...string) (LookupFunc, error) {
	dotenv := map[string]string{}
	for i := len(paths) - 1; i >= 0; i-- {
		vars, err := godotenv.Read(paths[i])
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, paths[i], err)
		}
		for k, v := range vars {
			dotenv[k] = v
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// FromEnv reads an input layer from FLANG_BUILD_* variables.
func FromEnv(lookup LookupFunc) (Options, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	o := Options{
		BuildDir:      get(EnvBuildDir),
		BuildType:     get(EnvBuildType),
		InstallPrefix: get(EnvInstallPrefix),
		Toolchain:     get(EnvToolchain),
		Target:        get(EnvTarget),
		CMake:         get(EnvCMake),
	}
	if v := get(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Options{}, fmt.Errorf("%w: %s=%q: %w", ErrInvalid, EnvJobs, v, err)
		}
		o.Jobs = n
	}
	return o, nil
}
