// Package orchestrator drives the two-stage toolchain build: the libpgmath
// math runtime first, then the flang compiler configured to use the flang
// just installed.
//
// Each target goes through prepare, configure, build and install. The
// pipeline is strictly sequential and stops at the first stage that exits
// with a non-zero status; that status becomes the result of the run.
package orchestrator
