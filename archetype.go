package rustgine

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

type archetypeID uint32

var _ Archetype = &archetype{}

type archetype struct {
	id         archetypeID
	mask       mask.Mask
	bits       []uint32
	components []Component
	columns    [MaxComponentTypes]column
	entities   []Entity
}

type archetypes struct {
	nextID           archetypeID
	asSlice          []*archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newArchetypes() *archetypes {
	return &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
}

func (as *archetypes) find(m mask.Mask) (*archetype, bool) {
	id, ok := as.idsGroupedByMask[m]
	if !ok {
		return nil, false
	}
	return as.asSlice[id-1], true
}

// newArchetype builds an empty table for the given components, which must
// already be registered under the bits passed alongside them.
func newArchetype(id archetypeID, m mask.Mask, bits []uint32, components []Component) *archetype {
	arch := &archetype{
		id:         id,
		mask:       m,
		bits:       make([]uint32, len(bits)),
		components: make([]Component, len(components)),
	}
	order := make([]int, len(bits))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return int(bits[a]) - int(bits[b])
	})
	for i, j := range order {
		arch.bits[i] = bits[j]
		arch.components[i] = components[j]
		arch.columns[bits[j]] = components[j].newColumn()
	}
	return arch
}

func (a *archetype) ID() uint32 {
	return uint32(a.id)
}

func (a *archetype) Len() int {
	return len(a.entities)
}

// Components returns the archetype's component types ordered by bit, which is
// the canonical signature order.
func (a *archetype) Components() []Component {
	return slices.Clone(a.components)
}

func (a *archetype) has(bit uint32) bool {
	return a.columns[bit] != nil
}

// swapRemove drops row by moving the last row into it. When a different
// entity was moved, it is returned so its index record can follow.
func (a *archetype) swapRemove(row int) (Entity, bool) {
	for _, bit := range a.bits {
		a.columns[bit].swapRemove(row)
	}
	last := len(a.entities) - 1
	var moved Entity
	relocated := false
	if row != last {
		moved = a.entities[last]
		a.entities[row] = moved
		relocated = true
	}
	a.entities = a.entities[:last]
	return moved, relocated
}
