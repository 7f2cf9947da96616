package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TheBitDrifter/table"
	"github.com/diamondbo/rustgine"
	"github.com/diamondbo/rustgine/pkg/logger"
)

type X struct{ V int }
type Y struct{ V int }
type Z struct{ V int }
type Score struct{ N int }

var (
	xComp = rustgine.FactoryNewComponent[X]()
	yComp = rustgine.FactoryNewComponent[Y]()
	zComp = rustgine.FactoryNewComponent[Z]()
)

func noop(*Context) error { return nil }

func newScheduler(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return New(opts)
}

func newWorld(debug bool) *rustgine.World {
	return rustgine.Factory.NewWorld(table.Factory.NewSchema(), rustgine.WorldOptions{DebugAccessChecks: debug})
}

func compile(t *testing.T, s *Scheduler, systems ...System) *Plan {
	t.Helper()
	if err := s.Register(systems...); err != nil {
		t.Fatalf("Register: %v", err)
	}
	plan, err := s.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return plan
}

func TestStageAssignment(t *testing.T) {
	score := rustgine.ResourceOf[Score]()
	tests := []struct {
		name    string
		systems []System
		want    [][]string
	}{
		{
			name: "writer and reader split, disjoint writer joins",
			systems: []System{
				NewSystem("A", Access{}.Writes(xComp), noop),
				NewSystem("B", Access{}.Reads(xComp), noop),
				NewSystem("C", Access{}.Writes(yComp), noop),
			},
			want: [][]string{{"A", "C"}, {"B"}},
		},
		{
			name: "readers share a stage",
			systems: []System{
				NewSystem("A", Access{}.Reads(xComp), noop),
				NewSystem("B", Access{}.Reads(xComp, yComp), noop),
			},
			want: [][]string{{"A", "B"}},
		},
		{
			name: "two writers never share",
			systems: []System{
				NewSystem("A", Access{}.Writes(xComp), noop),
				NewSystem("B", Access{}.Writes(xComp), noop),
				NewSystem("C", Access{}.Writes(xComp), noop),
			},
			want: [][]string{{"A"}, {"B"}, {"C"}},
		},
		{
			name: "resource conflicts",
			systems: []System{
				NewSystem("A", Access{}.WritesResource(score), noop),
				NewSystem("B", Access{}.ReadsResource(score), noop),
				NewSystem("C", Access{}.ReadsResource(score), noop),
			},
			want: [][]string{{"A"}, {"B", "C"}},
		},
		{
			name: "explicit ordering without data overlap",
			systems: []System{
				NewSystem("A", Access{}.Writes(xComp).After("B"), noop),
				NewSystem("B", Access{}.Writes(yComp), noop),
				NewSystem("C", Access{}.Writes(zComp).Before("B"), noop),
			},
			want: [][]string{{"C"}, {"B"}, {"A"}},
		},
		{
			name: "exclusive runs alone",
			systems: []System{
				NewSystem("A", Access{}.Reads(xComp), noop),
				NewSystem("E", Access{}.ExclusiveWorld(), noop),
				NewSystem("B", Access{}.Reads(yComp), noop),
			},
			want: [][]string{{"A", "B"}, {"E"}},
		},
		{
			name:    "empty",
			systems: nil,
			want:    [][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := compile(t, newScheduler(Options{}), tt.systems...)
			if got := plan.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("plan = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExclusiveStageFlag(t *testing.T) {
	plan := compile(t, newScheduler(Options{}),
		NewSystem("A", Access{}, noop),
		NewSystem("E", Access{}.ExclusiveWorld(), noop),
	)
	if plan.Stages[0].Exclusive || !plan.Stages[1].Exclusive {
		t.Errorf("exclusive flags = %v, %v", plan.Stages[0].Exclusive, plan.Stages[1].Exclusive)
	}
	if plan.String() != "{A} -> {E}" {
		t.Errorf("String() = %q", plan.String())
	}
}

func TestCycleIsRejected(t *testing.T) {
	s := newScheduler(Options{})
	err := s.Register(
		NewSystem("A", Access{}.Before("B"), noop),
		NewSystem("B", Access{}.Before("A"), noop),
		NewSystem("C", Access{}, noop),
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Compile()
	var cycle CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Compile error = %v, want CycleError", err)
	}
	if !reflect.DeepEqual(cycle.Systems, []string{"A", "B"}) {
		t.Errorf("cycle = %v", cycle.Systems)
	}
	if s.State() != Faulted {
		t.Errorf("state = %v, want Faulted", s.State())
	}
	if _, err := s.RunFrame(newWorld(false), rustgine.NewResources()); !errors.As(err, new(StateError)) {
		t.Errorf("RunFrame on faulted scheduler = %v", err)
	}
	if err := s.Reset(); err != nil || s.State() != Unbuilt {
		t.Errorf("Reset = %v, state %v", err, s.State())
	}
}

func TestCompileErrors(t *testing.T) {
	s := newScheduler(Options{})
	if err := s.Register(NewSystem("A", Access{}.After("ghost"), noop)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Compile(); !errors.As(err, new(UnknownSystemError)) {
		t.Errorf("Compile = %v, want UnknownSystemError", err)
	}

	s = newScheduler(Options{})
	err := s.Register(NewSystem("A", Access{}, noop), NewSystem("A", Access{}, noop))
	if !errors.As(err, new(DuplicateSystemError)) {
		t.Errorf("Register = %v, want DuplicateSystemError", err)
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	s := newScheduler(Options{})
	first := compile(t, s,
		NewSystem("A", Access{}.Writes(xComp), noop),
		NewSystem("B", Access{}.Reads(xComp), noop),
	)
	second, err := s.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Compile rebuilt the plan")
	}
	if err := s.Register(NewSystem("C", Access{}, noop)); !errors.As(err, new(StateError)) {
		t.Errorf("Register after Compile = %v, want StateError", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(NewSystem("C", Access{}.Writes(xComp), noop)); err != nil {
		t.Fatalf("Register after Reset: %v", err)
	}
	plan, err := s.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := plan.Names(); !reflect.DeepEqual(got, [][]string{{"A"}, {"B"}, {"C"}}) {
		t.Errorf("plan after Reset = %v", got)
	}
}

// Random declarations must always compile to a deterministic plan where no
// stage holds a conflicting pair and every ordering edge points forward.
func TestRandomPlansAreSound(t *testing.T) {
	comps := []rustgine.Component{xComp, yComp, zComp}
	rng := rand.New(rand.NewSource(1))
	for round := range 50 {
		n := 2 + rng.Intn(8)
		build := func() []System {
			r := rand.New(rand.NewSource(int64(round)))
			systems := make([]System, n)
			for i := range systems {
				access := Access{}
				for _, c := range comps {
					switch r.Intn(3) {
					case 1:
						access = access.Reads(c)
					case 2:
						access = access.Writes(c)
					}
				}
				if i > 0 && r.Intn(4) == 0 {
					access = access.After(fmt.Sprintf("s%d", r.Intn(i)))
				}
				systems[i] = NewSystem(fmt.Sprintf("s%d", i), access, noop)
			}
			return systems
		}
		first := compile(t, newScheduler(Options{}), build()...)
		second := compile(t, newScheduler(Options{}), build()...)
		if !reflect.DeepEqual(first.Names(), second.Names()) {
			t.Fatalf("round %d: plans differ: %v vs %v", round, first, second)
		}

		stageOf := map[string]int{}
		for _, stage := range first.Stages {
			for _, n := range stage.nodes {
				stageOf[n.system.Name()] = stage.Index
			}
			for i, a := range stage.nodes {
				for _, b := range stage.nodes[i+1:] {
					if dataConflict(a, b) {
						t.Fatalf("round %d: %s and %s conflict in stage %d", round, a.system.Name(), b.system.Name(), stage.Index)
					}
				}
			}
		}
		for _, stage := range first.Stages {
			for _, n := range stage.nodes {
				for _, after := range n.access.RunsAfter {
					if stageOf[after] >= stage.Index {
						t.Fatalf("round %d: %s not after %s", round, n.system.Name(), after)
					}
				}
				// Minimality: every earlier stage the system was eligible for
				// holds an earlier-registered system it conflicts with.
				ready := 0
				for _, p := range n.predecessors {
					ready = max(ready, stageOf[first.systemName(p)]+1)
				}
				for j := ready; j < stage.Index; j++ {
					blocked := false
					for _, m := range first.Stages[j].nodes {
						if m.index < n.index && dataConflict(m, n) {
							blocked = true
						}
					}
					if !blocked {
						t.Fatalf("round %d: %s could have joined stage %d", round, n.system.Name(), j)
					}
				}
			}
		}
	}
}

func TestStageRunsSystemsInParallel(t *testing.T) {
	aStarted, bStarted := make(chan struct{}), make(chan struct{})
	rendezvous := func(mine, other chan struct{}) func(*Context) error {
		return func(*Context) error {
			close(mine)
			select {
			case <-other:
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("sibling never started")
			}
		}
	}
	s := newScheduler(Options{Workers: 2})
	compile(t, s,
		NewSystem("A", Access{}.Writes(xComp), rendezvous(aStarted, bStarted)),
		NewSystem("B", Access{}.Writes(yComp), rendezvous(bStarted, aStarted)),
	)
	report, err := s.RunFrame(newWorld(true), rustgine.NewResources())
	if err != nil {
		t.Fatal(err)
	}
	if report.Faulted {
		t.Errorf("faults: %v", report.Faults)
	}
}

func TestFaultIsolation(t *testing.T) {
	var ran [3]atomic.Bool
	boom := errors.New("boom")
	systems := func() []System {
		return []System{
			NewSystem("failing", Access{}.Writes(xComp), func(*Context) error { ran[0].Store(true); return boom }),
			NewSystem("panicking", Access{}.Writes(yComp), func(*Context) error { ran[1].Store(true); panic("kaput") }),
			NewSystem("later", Access{}.Reads(xComp, yComp), func(*Context) error { ran[2].Store(true); return nil }),
		}
	}

	tests := []struct {
		name        string
		policy      FaultPolicy
		wantLater   bool
		wantAborted bool
	}{
		{"continue", ContinueOnFault, true, false},
		{"abort", AbortFrameOnFault, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range ran {
				ran[i].Store(false)
			}
			s := newScheduler(Options{FaultPolicy: tt.policy})
			compile(t, s, systems()...)
			report, err := s.RunFrame(newWorld(false), rustgine.NewResources())
			if err != nil {
				t.Fatalf("RunFrame: %v", err)
			}
			if !ran[0].Load() || !ran[1].Load() {
				t.Error("a sibling did not run")
			}
			if ran[2].Load() != tt.wantLater {
				t.Errorf("later stage ran = %v, want %v", ran[2].Load(), tt.wantLater)
			}
			if !report.Faulted || report.Aborted != tt.wantAborted {
				t.Errorf("Faulted = %v, Aborted = %v", report.Faulted, report.Aborted)
			}
			if len(report.Faults) != 2 {
				t.Fatalf("faults = %v", report.Faults)
			}
			if !errors.Is(report.Faults[0], boom) || report.Faults[0].System != "failing" {
				t.Errorf("first fault = %v", report.Faults[0])
			}
			if report.Faults[1].Panic != "kaput" {
				t.Errorf("second fault = %v", report.Faults[1])
			}
			if s.State() != Built {
				t.Errorf("state = %v, want Built", s.State())
			}
		})
	}
}

func TestCommandsApplyAtStageBoundary(t *testing.T) {
	world := newWorld(false)
	doomed, _ := world.CreateEntity(xComp.With(X{V: 1}))

	var seenInStage, seenAfter int
	count := func() int { return world.Count(rustgine.Factory.NewQuery().And(xComp)) }
	s := newScheduler(Options{})
	compile(t, s,
		NewSystem("reaper", Access{}.Writes(xComp), func(ctx *Context) error {
			ctx.Commands.DestroyEntity(doomed)
			ctx.Commands.CreateEntity(xComp.With(X{V: 2}))
			if err := ctx.World.DestroyEntity(doomed); !errors.As(err, new(rustgine.LockedWorldError)) {
				return fmt.Errorf("direct destroy during stage: %v", err)
			}
			return nil
		}),
		NewSystem("observer", Access{}.Reads(yComp), func(ctx *Context) error {
			seenInStage = ctx.World.Len()
			return nil
		}),
		NewSystem("after", Access{}.Reads(xComp), func(ctx *Context) error {
			seenAfter = count()
			return nil
		}),
	)
	report, err := s.RunFrame(world, rustgine.NewResources())
	if err != nil {
		t.Fatal(err)
	}
	if report.Faulted {
		t.Fatalf("faults: %v", report.Faults)
	}
	if seenInStage != 1 {
		t.Errorf("same-stage system saw %d entities, want 1", seenInStage)
	}
	if seenAfter != 1 || world.Alive(doomed) {
		t.Errorf("next stage saw %d entities, doomed alive = %v", seenAfter, world.Alive(doomed))
	}
	if len(report.Created) != 1 || report.Created[0].System != "reaper" || report.Created[0].Stage != 0 {
		t.Errorf("created = %+v", report.Created)
	}
	v, _ := xComp.Get(world, report.Created[0].Entity)
	if v.V != 2 {
		t.Errorf("created value = %v", v)
	}
}

func TestCommandBuffersFlushInSchedulingOrder(t *testing.T) {
	world := newWorld(false)
	e, _ := world.CreateEntity(xComp.With(X{}))
	s := newScheduler(Options{})
	compile(t, s,
		NewSystem("first", Access{}.Writes(xComp), func(ctx *Context) error {
			ctx.Commands.AddComponent(e, yComp.With(Y{V: 1}))
			return nil
		}),
		NewSystem("second", Access{}.Writes(zComp), func(ctx *Context) error {
			ctx.Commands.RemoveComponent(e, yComp)
			return nil
		}),
	)
	report, err := s.RunFrame(world, rustgine.NewResources())
	if err != nil {
		t.Fatal(err)
	}
	if report.Faulted || world.Has(e, yComp) {
		t.Errorf("faults %v, has Y = %v", report.Faults, world.Has(e, yComp))
	}
}

func TestCommandFailureIsAFault(t *testing.T) {
	world := newWorld(false)
	e, _ := world.CreateEntity(xComp.With(X{}))
	s := newScheduler(Options{})
	compile(t, s, NewSystem("twice", Access{}.Writes(xComp), func(ctx *Context) error {
		ctx.Commands.DestroyEntity(e)
		ctx.Commands.DestroyEntity(e)
		return nil
	}))
	report, err := s.RunFrame(world, rustgine.NewResources())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Faults) != 1 || !report.Faults[0].Command {
		t.Fatalf("faults = %+v", report.Faults)
	}
	if !errors.Is(report.Faults[0], rustgine.ErrNotFound) {
		t.Errorf("fault %v does not wrap ErrNotFound", report.Faults[0])
	}
}

func TestExclusiveSystemMutatesDirectly(t *testing.T) {
	world := newWorld(true)
	s := newScheduler(Options{})
	compile(t, s,
		NewSystem("spawn", Access{}.ExclusiveWorld(), func(ctx *Context) error {
			e, err := ctx.World.CreateEntity(xComp.With(X{}))
			if err != nil {
				return err
			}
			_, err = yComp.GetMut(ctx.World, e)
			if !errors.As(err, new(rustgine.MissingComponentError)) {
				return fmt.Errorf("GetMut = %v", err)
			}
			return nil
		}),
	)
	report, err := s.RunFrame(world, rustgine.NewResources())
	if err != nil || report.Faulted {
		t.Fatalf("err %v faults %v", err, report.Faults)
	}
	if world.Len() != 1 {
		t.Errorf("Len() = %d", world.Len())
	}
}

func TestUndeclaredAccessFaultsTheScheduler(t *testing.T) {
	world := newWorld(true)
	e, _ := world.CreateEntity(xComp.With(X{}), yComp.With(Y{}))
	s := newScheduler(Options{})
	compile(t, s, NewSystem("sneaky", Access{}.Writes(xComp), func(ctx *Context) error {
		_, err := yComp.GetMut(ctx.World, e)
		return err
	}))

	_, err := s.RunFrame(world, rustgine.NewResources())
	if !errors.As(err, new(rustgine.AccessViolationError)) {
		t.Fatalf("RunFrame = %v, want AccessViolationError", err)
	}
	if s.State() != Faulted {
		t.Errorf("state = %v, want Faulted", s.State())
	}
	if _, err := s.RunFrame(world, rustgine.NewResources()); !errors.As(err, new(StateError)) {
		t.Errorf("RunFrame after fault = %v", err)
	}
}

func TestViolationKeepsSiblingFaults(t *testing.T) {
	world := newWorld(true)
	e, _ := world.CreateEntity(xComp.With(X{}), zComp.With(Z{}))
	s := newScheduler(Options{})
	plan := compile(t, s,
		NewSystem("sneaky", Access{}.Writes(xComp), func(ctx *Context) error {
			_, err := zComp.GetMut(ctx.World, e)
			return err
		}),
		NewSystem("panicking", Access{}.Writes(yComp), func(*Context) error { panic("kaput") }),
	)
	if len(plan.Stages) != 1 {
		t.Fatalf("plan = %v, want one stage", plan)
	}

	report, err := s.RunFrame(world, rustgine.NewResources())
	if !errors.As(err, new(rustgine.AccessViolationError)) {
		t.Fatalf("RunFrame = %v, want AccessViolationError", err)
	}
	if report == nil || !report.Faulted {
		t.Fatalf("report = %+v", report)
	}
	var sawPanic bool
	for _, f := range report.Faults {
		if f.System == "panicking" && f.Panic == "kaput" {
			sawPanic = true
		}
	}
	if !sawPanic {
		t.Errorf("panic missing from faults %v", report.Faults)
	}
}

func TestShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newScheduler(Options{Shutdown: ctx})
	compile(t, s, NewSystem("A", Access{}, noop))
	world, res := newWorld(false), rustgine.NewResources()

	if _, err := s.RunFrame(world, res); err != nil {
		t.Fatal(err)
	}
	cancel()
	if _, err := s.RunFrame(world, res); !errors.Is(err, ErrShutdown) {
		t.Errorf("RunFrame after signal = %v, want ErrShutdown", err)
	}
	if !s.ShuttingDown() {
		t.Error("ShuttingDown() = false")
	}

	s = newScheduler(Options{})
	compile(t, s, NewSystem("A", Access{}, noop))
	if err := s.Teardown(); err != nil {
		t.Fatal(err)
	}
	if s.Plan() != nil || s.State() != Unbuilt {
		t.Errorf("after Teardown: plan %v, state %v", s.Plan(), s.State())
	}
	if _, err := s.RunFrame(world, res); !errors.Is(err, ErrShutdown) {
		t.Errorf("RunFrame after Teardown = %v", err)
	}
}

func TestRunFrameStates(t *testing.T) {
	s := newScheduler(Options{})
	if _, err := s.RunFrame(newWorld(false), rustgine.NewResources()); !errors.As(err, new(StateError)) {
		t.Errorf("RunFrame before Compile = %v", err)
	}

	var inFrame State
	var self *Scheduler
	self = newScheduler(Options{})
	compile(t, self, NewSystem("observer", Access{}, func(*Context) error {
		inFrame = self.State()
		if err := self.Reset(); !errors.As(err, new(StateError)) {
			return fmt.Errorf("Reset while running = %v", err)
		}
		return nil
	}))
	report, err := self.RunFrame(newWorld(false), rustgine.NewResources())
	if err != nil || report.Faulted {
		t.Fatalf("err %v faults %v", err, report.Faults)
	}
	if inFrame != Running {
		t.Errorf("state during frame = %v", inFrame)
	}
	if _, ok := report.SystemDuration("observer"); report.Frame != 1 || !ok {
		t.Errorf("report = %+v", report)
	}
}

func TestStateStrings(t *testing.T) {
	for state, want := range map[State]string{Unbuilt: "Unbuilt", Built: "Built", Running: "Running", Faulted: "Faulted"} {
		if state.String() != want {
			t.Errorf("%d.String() = %q", int(state), state.String())
		}
	}
	for in, want := range map[string]FaultPolicy{"": ContinueOnFault, "continue": ContinueOnFault, "abort": AbortFrameOnFault} {
		got, ok := ParseFaultPolicy(in)
		if !ok || got != want {
			t.Errorf("ParseFaultPolicy(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseFaultPolicy("retry"); ok {
		t.Error("ParseFaultPolicy accepted an unknown policy")
	}
}

func (p *Plan) systemName(index int) string {
	for _, stage := range p.Stages {
		for _, n := range stage.nodes {
			if n.index == index {
				return n.system.Name()
			}
		}
	}
	return ""
}
