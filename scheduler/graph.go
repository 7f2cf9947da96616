package scheduler

import (
	"github.com/TheBitDrifter/mask"
	"github.com/diamondbo/rustgine"
)

// maxDeclaredTypes bounds the distinct component types, and separately the
// distinct resource types, one scheduler can reason about.
const maxDeclaredTypes = rustgine.MaxComponentTypes

// node is a registered system with its declaration folded into masks. Write
// masks are also marked in the read masks, so one ContainsAny test per
// direction covers both write/write and read/write overlap.
type node struct {
	index  int
	system System
	access Access

	componentReads  mask.Mask
	componentWrites mask.Mask
	resourceReads   mask.Mask
	resourceWrites  mask.Mask
	exclusive       bool

	// predecessors are the systems that must finish in an earlier stage.
	predecessors []int
	commands     *rustgine.Commands
}

// typeBits hands out dense bits for the component and resource types named
// in declarations. Bits are local to one compilation.
type typeBits struct {
	components map[uint32]uint32
	resources  map[rustgine.ResourceKey]uint32
}

func newTypeBits() *typeBits {
	return &typeBits{
		components: make(map[uint32]uint32),
		resources:  make(map[rustgine.ResourceKey]uint32),
	}
}

func (tb *typeBits) component(c rustgine.Component) (uint32, error) {
	id := rustgine.ComponentIdentity(c)
	if bit, ok := tb.components[id]; ok {
		return bit, nil
	}
	bit := uint32(len(tb.components))
	if bit >= maxDeclaredTypes {
		return 0, TooManyTypesError{Kind: "component"}
	}
	tb.components[id] = bit
	return bit, nil
}

func (tb *typeBits) resource(k rustgine.ResourceKey) (uint32, error) {
	if bit, ok := tb.resources[k]; ok {
		return bit, nil
	}
	bit := uint32(len(tb.resources))
	if bit >= maxDeclaredTypes {
		return 0, TooManyTypesError{Kind: "resource"}
	}
	tb.resources[k] = bit
	return bit, nil
}

func (n *node) fold(tb *typeBits) error {
	for _, c := range n.access.ComponentReads {
		bit, err := tb.component(c)
		if err != nil {
			return err
		}
		n.componentReads.Mark(bit)
	}
	for _, c := range n.access.ComponentWrites {
		bit, err := tb.component(c)
		if err != nil {
			return err
		}
		n.componentWrites.Mark(bit)
		n.componentReads.Mark(bit)
	}
	for _, k := range n.access.ResourceReads {
		bit, err := tb.resource(k)
		if err != nil {
			return err
		}
		n.resourceReads.Mark(bit)
	}
	for _, k := range n.access.ResourceWrites {
		bit, err := tb.resource(k)
		if err != nil {
			return err
		}
		n.resourceWrites.Mark(bit)
		n.resourceReads.Mark(bit)
	}
	n.exclusive = n.access.Exclusive
	return nil
}

// dataConflict reports whether a and b may not run in the same stage
// because of their declared data access.
func dataConflict(a, b *node) bool {
	if a.exclusive || b.exclusive {
		return true
	}
	if a.componentWrites.ContainsAny(b.componentReads) || b.componentWrites.ContainsAny(a.componentReads) {
		return true
	}
	return a.resourceWrites.ContainsAny(b.resourceReads) || b.resourceWrites.ContainsAny(a.resourceReads)
}

// conflictGraph is the derived graph over registered systems: an edge joins
// two systems that overlap in declared access or are explicitly ordered.
type conflictGraph struct {
	nodes []*node
	// edges[i][j] is set for every conflicting pair, in both directions.
	edges [][]bool
	// successors[i] lists the systems explicitly ordered after i.
	successors [][]int
}

func buildGraph(systems []System) (*conflictGraph, error) {
	g := &conflictGraph{
		nodes:      make([]*node, len(systems)),
		edges:      make([][]bool, len(systems)),
		successors: make([][]int, len(systems)),
	}
	byName := make(map[string]int, len(systems))
	tb := newTypeBits()
	for i, sys := range systems {
		n := &node{
			index:    i,
			system:   sys,
			access:   sys.Access().clone(),
			commands: rustgine.NewCommands(sys.Name()),
		}
		if err := n.fold(tb); err != nil {
			return nil, err
		}
		g.nodes[i] = n
		g.edges[i] = make([]bool, len(systems))
		byName[sys.Name()] = i
	}

	order := func(before, after int) {
		if before == after {
			return
		}
		for _, s := range g.successors[before] {
			if s == after {
				return
			}
		}
		g.successors[before] = append(g.successors[before], after)
		g.nodes[after].predecessors = append(g.nodes[after].predecessors, before)
		g.edges[before][after] = true
		g.edges[after][before] = true
	}
	for i, n := range g.nodes {
		for _, name := range n.access.RunsBefore {
			j, ok := byName[name]
			if !ok {
				return nil, UnknownSystemError{System: n.system.Name(), Reference: name}
			}
			order(i, j)
		}
		for _, name := range n.access.RunsAfter {
			j, ok := byName[name]
			if !ok {
				return nil, UnknownSystemError{System: n.system.Name(), Reference: name}
			}
			order(j, i)
		}
	}

	for i := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			if dataConflict(g.nodes[i], g.nodes[j]) {
				g.edges[i][j] = true
				g.edges[j][i] = true
			}
		}
	}
	return g, nil
}

// findCycle runs Kahn's algorithm over the ordering edges only; data
// conflicts are symmetric and carry no direction. It returns the names of
// the systems left on a cycle, in registration order.
func (g *conflictGraph) findCycle() []string {
	indegree := make([]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n.index] = len(n.predecessors)
	}
	queue := make([]int, 0, len(g.nodes))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		visited++
		for _, s := range g.successors[i] {
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if visited == len(g.nodes) {
		return nil
	}
	var cycle []string
	for i, d := range indegree {
		if d > 0 {
			cycle = append(cycle, g.nodes[i].system.Name())
		}
	}
	return cycle
}

// Conflicts reports whether the systems at registration indices i and j may
// not share a stage.
func (g *conflictGraph) conflicts(i, j int) bool {
	return g.edges[i][j]
}
