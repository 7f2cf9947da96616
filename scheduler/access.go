package scheduler

import (
	"slices"

	"github.com/diamondbo/rustgine"
)

// Access is the data contract a system declares at registration: what it
// reads and writes, whether it needs the World to itself, and which named
// systems it must run before or after. Writing a type implies reading it.
type Access struct {
	ResourceReads   []rustgine.ResourceKey
	ResourceWrites  []rustgine.ResourceKey
	ComponentReads  []rustgine.Component
	ComponentWrites []rustgine.Component
	// Exclusive systems run alone in their own stage with the World
	// unlocked, so they may mutate structure directly.
	Exclusive  bool
	RunsBefore []string
	RunsAfter  []string
}

// Reads returns a copy of a that also reads components.
func (a Access) Reads(components ...rustgine.Component) Access {
	a.ComponentReads = append(slices.Clone(a.ComponentReads), components...)
	return a
}

// Writes returns a copy of a that also writes components.
func (a Access) Writes(components ...rustgine.Component) Access {
	a.ComponentWrites = append(slices.Clone(a.ComponentWrites), components...)
	return a
}

func (a Access) ReadsResource(keys ...rustgine.ResourceKey) Access {
	a.ResourceReads = append(slices.Clone(a.ResourceReads), keys...)
	return a
}

func (a Access) WritesResource(keys ...rustgine.ResourceKey) Access {
	a.ResourceWrites = append(slices.Clone(a.ResourceWrites), keys...)
	return a
}

// Before returns a copy of a ordered before the named systems.
func (a Access) Before(names ...string) Access {
	a.RunsBefore = append(slices.Clone(a.RunsBefore), names...)
	return a
}

// After returns a copy of a ordered after the named systems.
func (a Access) After(names ...string) Access {
	a.RunsAfter = append(slices.Clone(a.RunsAfter), names...)
	return a
}

// ExclusiveWorld returns a copy of a that needs the World to itself.
func (a Access) ExclusiveWorld() Access {
	a.Exclusive = true
	return a
}

func (a Access) clone() Access {
	return Access{
		ResourceReads:   slices.Clone(a.ResourceReads),
		ResourceWrites:  slices.Clone(a.ResourceWrites),
		ComponentReads:  slices.Clone(a.ComponentReads),
		ComponentWrites: slices.Clone(a.ComponentWrites),
		Exclusive:       a.Exclusive,
		RunsBefore:      slices.Clone(a.RunsBefore),
		RunsAfter:       slices.Clone(a.RunsAfter),
	}
}

// readOnly returns the declared component reads that are not also writes,
// which is what the debug access guard expects.
func (a Access) readOnly() []rustgine.Component {
	out := make([]rustgine.Component, 0, len(a.ComponentReads))
	for _, r := range a.ComponentReads {
		id := rustgine.ComponentIdentity(r)
		written := slices.ContainsFunc(a.ComponentWrites, func(w rustgine.Component) bool {
			return rustgine.ComponentIdentity(w) == id
		})
		already := slices.ContainsFunc(out, func(o rustgine.Component) bool {
			return rustgine.ComponentIdentity(o) == id
		})
		if !written && !already {
			out = append(out, r)
		}
	}
	return out
}
