package buildsys

import "context"

// Status is the exit status of an external build step. Zero means success.
type Status int

// StatusFailure is reported when a step fails without an exit status of its
// own, for example when the tool cannot be started.
const StatusFailure Status = 1

// OK reports whether s denotes success.
func (s Status) OK() bool { return s == 0 }

// BuildSystem captures the configure/build/install lifecycle of a build
// helper. Each step reports the exit status of the underlying tool; a
// non-nil error means the tool could not be run at all.
type BuildSystem interface {
	Configure(ctx context.Context) (Status, error)
	Build(ctx context.Context) (Status, error)
	Install(ctx context.Context) (Status, error)

	// Where artifacts land.
	OutputDir() string
}
