package scheduler

import (
	"time"

	"github.com/diamondbo/rustgine"
)

type SystemReport struct {
	Name     string
	Duration time.Duration
}

type StageReport struct {
	Index   int
	Wall    time.Duration
	Systems []SystemReport
}

// FrameReport is what RunFrame hands back to the application loop.
type FrameReport struct {
	Frame    uint64
	Duration time.Duration
	Stages   []StageReport
	// Faults are ordered by stage, then by scheduling order within the stage;
	// command faults of a stage follow its system faults.
	Faults []Fault
	// Faulted is set when any fault was recorded.
	Faulted bool
	// Aborted is set when AbortFrameOnFault skipped stages.
	Aborted bool
	// Created lists the entities created by buffered commands, in apply order.
	Created []Created
}

// Created ties an entity created by a buffered command to the system that
// queued it.
type Created struct {
	System string
	Stage  int
	Entity rustgine.Entity
}

// SystemDuration returns the recorded duration of the named system.
func (r *FrameReport) SystemDuration(name string) (time.Duration, bool) {
	for _, st := range r.Stages {
		for _, sys := range st.Systems {
			if sys.Name == name {
				return sys.Duration, true
			}
		}
	}
	return 0, false
}
