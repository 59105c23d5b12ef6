package buildsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gookit/color"
)

// Cmd is an external command invocation.
type Cmd struct {
	Path string
	Args []string
}

// String renders c as a shell-like command line.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Runner runs external commands.
type Runner interface {
	// Run runs cmd to completion and returns its exit status. A non-zero
	// status is not an error.
	Run(ctx context.Context, cmd Cmd) (Status, error)

	// Output runs cmd and returns its standard output.
	Output(ctx context.Context, cmd Cmd) ([]byte, error)
}

// ExecRunner runs commands as child processes, forwarding their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns a runner forwarding to the process's own stdout
// and stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, c Cmd) (Status, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return exitStatus(cmd.Run())
}

func (r *ExecRunner) Output(ctx context.Context, c Cmd) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return out, fmt.Errorf("%s: %w", c.Path, err)
	}
	return out, nil
}

// exitStatus converts the result of exec.Cmd.Run into a Status. A process
// killed by a signal has no exit code and reports StatusFailure.
func exitStatus(err error) (Status, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return StatusFailure, err
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return Status(code), nil
	}
	return StatusFailure, nil
}

// DryRunner prints commands instead of running them and reports success.
type DryRunner struct {
	Out  io.Writer
	Cmds []Cmd
}

var _ Runner = (*DryRunner)(nil)

func (r *DryRunner) Run(ctx context.Context, c Cmd) (Status, error) {
	r.Cmds = append(r.Cmds, c)
	if r.Out != nil {
		fmt.Fprintln(r.Out, Paint(r.Out, color.Cyan, "+ "+c.String()))
	}
	return 0, nil
}

func (r *DryRunner) Output(ctx context.Context, c Cmd) ([]byte, error) {
	return nil, errors.New("dry run: no output for " + c.Path)
}
