package scheduler

import (
	"strings"
)

// Stage is a set of systems proven free of pairwise conflicts. Its systems
// run concurrently; their order here is the order their command buffers are
// applied in.
type Stage struct {
	Index     int
	Exclusive bool
	nodes     []*node
}

// Systems returns the stage's systems in scheduling order.
func (s Stage) Systems() []System {
	out := make([]System, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.system
	}
	return out
}

// Names returns the stage's system names in scheduling order.
func (s Stage) Names() []string {
	out := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.system.Name()
	}
	return out
}

// Plan is the compiled, totally ordered list of stages.
type Plan struct {
	Stages []Stage
}

// Names returns every stage's system names, stage by stage.
func (p *Plan) Names() [][]string {
	out := make([][]string, len(p.Stages))
	for i, s := range p.Stages {
		out[i] = s.Names()
	}
	return out
}

func (p *Plan) String() string {
	var b strings.Builder
	for i, s := range p.Stages {
		if i > 0 {
			b.WriteString(" -> ")
		}
		b.WriteByte('{')
		b.WriteString(strings.Join(s.Names(), ", "))
		b.WriteByte('}')
	}
	return b.String()
}

// assignStages builds stages greedily. Each round walks the unscheduled
// systems in registration order and admits a system when all of its ordering
// predecessors sit in earlier stages and it conflicts with nothing admitted
// so far in the round. The result depends only on the registration order and
// the declarations.
func assignStages(g *conflictGraph) *Plan {
	const unscheduled = -1
	stageOf := make([]int, len(g.nodes))
	for i := range stageOf {
		stageOf[i] = unscheduled
	}
	plan := &Plan{}
	remaining := len(g.nodes)
	for remaining > 0 {
		current := len(plan.Stages)
		stage := Stage{Index: current}
		for i, n := range g.nodes {
			if stageOf[i] != unscheduled {
				continue
			}
			if !predecessorsDone(n, stageOf, current) {
				continue
			}
			if conflictsWithStage(g, i, stage.nodes) {
				continue
			}
			stage.nodes = append(stage.nodes, n)
			stageOf[i] = current
		}
		if len(stage.nodes) == 0 {
			// Unreachable for an acyclic ordering; findCycle runs first.
			break
		}
		stage.Exclusive = len(stage.nodes) == 1 && stage.nodes[0].exclusive
		remaining -= len(stage.nodes)
		plan.Stages = append(plan.Stages, stage)
	}
	return plan
}

func predecessorsDone(n *node, stageOf []int, current int) bool {
	for _, p := range n.predecessors {
		if stageOf[p] < 0 || stageOf[p] >= current {
			return false
		}
	}
	return true
}

func conflictsWithStage(g *conflictGraph, i int, members []*node) bool {
	for _, m := range members {
		if g.conflicts(i, m.index) {
			return true
		}
	}
	return false
}
