package orchestrator

import "fmt"

// State is a step of the two-target pipeline. States only move forward;
// Failed and Done are terminal.
type State int

const (
	NotStarted State = iota
	ConfiguringA
	BuildingA
	InstallingA
	ConfiguringB
	BuildingB
	InstallingB
	Done
	Failed
)

var stateNames = [...]string{
	NotStarted:   "NotStarted",
	ConfiguringA: "ConfiguringA",
	BuildingA:    "BuildingA",
	InstallingA:  "InstallingA",
	ConfiguringB: "ConfiguringB",
	BuildingB:    "BuildingB",
	InstallingB:  "InstallingB",
	Done:         "Done",
	Failed:       "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stage is one step of a single target's pipeline.
type Stage int

const (
	StagePrepare Stage = iota
	StageConfigure
	StageBuild
	StageInstall
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageConfigure:
		return "configure"
	case StageBuild:
		return "build"
	case StageInstall:
		return "install"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// stateOf maps a stage of the target at index i to its pipeline state.
// Preparing the build directory is part of configuring.
func stateOf(i int, s Stage) State {
	base := ConfiguringA + State(3*i)
	if s == StagePrepare {
		return base
	}
	return base + State(s-StageConfigure)
}
