package scheduler

// State is the scheduler's lifecycle state.
type State int

const (
	// Unbuilt accepts registrations; no plan exists.
	Unbuilt State = iota
	// Built holds a compiled plan and accepts RunFrame.
	Built
	// Running is executing a frame.
	Running
	// Faulted follows a failed compilation or a detected access violation.
	// Only Reset leaves it.
	Faulted
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "Unbuilt"
	case Built:
		return "Built"
	case Running:
		return "Running"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// FaultPolicy decides what a frame does after a stage recorded a fault.
type FaultPolicy int

const (
	// ContinueOnFault runs the remaining stages; later stages may still be
	// meaningful in a headless or test run.
	ContinueOnFault FaultPolicy = iota
	// AbortFrameOnFault skips the remaining stages of the frame.
	AbortFrameOnFault
)

func (p FaultPolicy) String() string {
	switch p {
	case ContinueOnFault:
		return "continue"
	case AbortFrameOnFault:
		return "abort"
	default:
		return "unknown"
	}
}

// ParseFaultPolicy maps "continue" and "abort" to their policies.
func ParseFaultPolicy(s string) (FaultPolicy, bool) {
	switch s {
	case "", "continue":
		return ContinueOnFault, true
	case "abort":
		return AbortFrameOnFault, true
	default:
		return ContinueOnFault, false
	}
}
