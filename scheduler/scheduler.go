package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/diamondbo/rustgine"
	"github.com/sirupsen/logrus"
)

// Signal is a broadcast shutdown notification. context.Context satisfies it.
type Signal interface {
	Done() <-chan struct{}
}

type Options struct {
	// Workers bounds how many systems of a stage run at once. Defaults to
	// GOMAXPROCS.
	Workers     int
	FaultPolicy FaultPolicy
	// Shutdown, once closed, makes RunFrame refuse new frames.
	Shutdown Signal
	Logger   logrus.FieldLogger
}

// Scheduler compiles registered systems into a stage plan and runs it one
// frame at a time.
//
// States move Unbuilt -> Built on Compile, Built -> Running -> Built around
// each frame, and to Faulted when compilation finds an ordering cycle or a
// frame trips the debug access guard. Reset returns to Unbuilt so the system
// set can change.
type Scheduler struct {
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	state   State
	systems []System
	names   map[string]struct{}
	plan    *Plan
	err     error
	frame   uint64

	stopping atomic.Bool
}

func New(opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Scheduler{
		opts:  opts,
		log:   opts.Logger.WithField("component", "scheduler"),
		names: make(map[string]struct{}),
	}
}

// Register adds systems in order. Registration order is the tie-break for
// stage assignment. It fails once a plan exists; call Reset first.
func (s *Scheduler) Register(systems ...System) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unbuilt {
		return StateError{Op: "register a system", State: s.state}
	}
	for _, sys := range systems {
		name := sys.Name()
		if _, dup := s.names[name]; dup {
			return DuplicateSystemError{System: name}
		}
		s.names[name] = struct{}{}
		s.systems = append(s.systems, sys)
	}
	return nil
}

// Compile builds the conflict graph, rejects ordering cycles and assigns
// stages. Compiling a Built scheduler returns the plan it already has.
func (s *Scheduler) Compile() (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Built:
		return s.plan, nil
	case Faulted:
		return nil, s.err
	case Running:
		return nil, StateError{Op: "compile", State: s.state}
	}

	g, err := buildGraph(s.systems)
	if err != nil {
		return nil, err
	}
	if cycle := g.findCycle(); cycle != nil {
		s.state = Faulted
		s.err = CycleError{Systems: cycle}
		s.log.WithField("systems", cycle).Error("ordering cycle, schedule not built")
		return nil, s.err
	}
	s.plan = assignStages(g)
	s.state = Built
	s.log.WithFields(logrus.Fields{
		"systems": len(s.systems),
		"stages":  len(s.plan.Stages),
		"plan":    s.plan.String(),
	}).Info("schedule compiled")
	return s.plan, nil
}

// Reset drops the plan and any fault so systems can be registered again.
func (s *Scheduler) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return StateError{Op: "reset", State: s.state}
	}
	s.state = Unbuilt
	s.plan = nil
	s.err = nil
	return nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Plan returns the compiled plan, or nil before Compile.
func (s *Scheduler) Plan() *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Systems returns the registered systems in registration order.
func (s *Scheduler) Systems() []System {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]System(nil), s.systems...)
}

// Shutdown makes every later RunFrame fail with ErrShutdown. A frame in
// flight runs to completion.
func (s *Scheduler) Shutdown() {
	if s.stopping.CompareAndSwap(false, true) {
		s.log.Info("shutdown requested, refusing new frames")
	}
}

// ShuttingDown reports whether Shutdown was called or the shutdown signal
// fired.
func (s *Scheduler) ShuttingDown() bool {
	if s.stopping.Load() {
		return true
	}
	if s.opts.Shutdown == nil {
		return false
	}
	select {
	case <-s.opts.Shutdown.Done():
		s.Shutdown()
		return true
	default:
		return false
	}
}

// Teardown drops the compiled plan at engine shutdown. The scheduler refuses
// frames afterwards.
func (s *Scheduler) Teardown() error {
	s.Shutdown()
	return s.Reset()
}

// RunFrame executes the plan once against world and resources.
//
// Per-system faults never abort sibling systems; they are collected in the
// report and the FaultPolicy decides whether later stages run. The returned
// error is non-nil only when the frame could not start or the debug access
// guard caught overlapping access, which leaves the scheduler Faulted.
func (s *Scheduler) RunFrame(world *rustgine.World, resources *rustgine.Resources) (*FrameReport, error) {
	if s.ShuttingDown() {
		return nil, ErrShutdown
	}
	s.mu.Lock()
	if s.state != Built {
		state := s.state
		s.mu.Unlock()
		return nil, StateError{Op: "run a frame", State: state}
	}
	s.state = Running
	s.frame++
	frame, plan := s.frame, s.plan
	s.mu.Unlock()

	report, fatal := s.execute(plan, frame, world, resources)

	s.mu.Lock()
	if fatal != nil {
		s.state = Faulted
		s.err = fatal
	} else {
		s.state = Built
	}
	s.mu.Unlock()
	return report, fatal
}
