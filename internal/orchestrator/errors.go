package orchestrator

import (
	"errors"
	"fmt"

	"github.com/flang-compiler/flang-build/pkgs/buildsys"
)

// ErrStageFailed matches every StageError.
var ErrStageFailed = errors.New("build stage failed")

// StageError reports the stage that halted the pipeline.
type StageError struct {
	Target string
	Stage  Stage
	Status buildsys.Status
	Err    error // cause when the stage could not run, nil for a plain non-zero exit
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s failed with exit code %d: %v", e.Target, e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s failed with exit code %d", e.Target, e.Stage, e.Status)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Is(target error) bool { return target == ErrStageFailed }
