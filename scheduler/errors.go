package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShutdown is returned by RunFrame once the shutdown signal was observed.
var ErrShutdown = errors.New("scheduler is shutting down")

// CycleError reports explicit ordering constraints that form a cycle. It is
// fatal: startup must not continue with such a system set.
type CycleError struct {
	Systems []string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("ordering constraints form a cycle among: %s", strings.Join(e.Systems, ", "))
}

type UnknownSystemError struct {
	System    string
	Reference string
}

func (e UnknownSystemError) Error() string {
	return fmt.Sprintf("system %q is ordered against unknown system %q", e.System, e.Reference)
}

type DuplicateSystemError struct {
	System string
}

func (e DuplicateSystemError) Error() string {
	return fmt.Sprintf("system %q already registered", e.System)
}

// StateError reports an operation the scheduler's current state does not
// allow, such as registering after compilation without a Reset.
type StateError struct {
	Op    string
	State State
}

func (e StateError) Error() string {
	return fmt.Sprintf("cannot %s while scheduler is %s", e.Op, e.State)
}

type TooManyTypesError struct {
	Kind string
}

func (e TooManyTypesError) Error() string {
	return fmt.Sprintf("too many distinct %s types declared (max %d)", e.Kind, maxDeclaredTypes)
}

// Fault records a system that failed during a frame: it returned an error,
// panicked, or one of its buffered commands could not be applied.
type Fault struct {
	System  string
	Stage   int
	Err     error
	Panic   any
	Command bool
}

func (f Fault) Error() string {
	switch {
	case f.Panic != nil:
		return fmt.Sprintf("system %q panicked in stage %d: %v", f.System, f.Stage, f.Panic)
	case f.Command:
		return fmt.Sprintf("system %q command failed in stage %d: %v", f.System, f.Stage, f.Err)
	default:
		return fmt.Sprintf("system %q failed in stage %d: %v", f.System, f.Stage, f.Err)
	}
}

func (f Fault) Unwrap() error {
	return f.Err
}
