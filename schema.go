package rustgine

import (
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// MaxComponentTypes bounds the number of component types a single World can
// register; it matches the width of a signature mask.
const MaxComponentTypes = 256

// componentRegistry assigns every component type seen by a World its bit in
// the World's table schema. Registration can happen while systems run
// queries concurrently, so it is the one piece of World metadata behind a
// lock.
type componentRegistry struct {
	mu     sync.RWMutex
	schema table.Schema
	bits   map[uint32]uint32
}

func newComponentRegistry(schema table.Schema) *componentRegistry {
	return &componentRegistry{
		schema: schema,
		bits:   make(map[uint32]uint32),
	}
}

func (r *componentRegistry) lookup(c Component) (uint32, bool) {
	r.mu.RLock()
	bit, ok := r.bits[c.componentID()]
	r.mu.RUnlock()
	return bit, ok
}

// bitFor returns the bit for c, registering it on first use.
func (r *componentRegistry) bitFor(c Component) (uint32, error) {
	if bit, ok := r.lookup(c); ok {
		return bit, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if bit, ok := r.bits[c.componentID()]; ok {
		return bit, nil
	}
	r.schema.Register(c)
	bit := r.schema.RowIndexFor(c)
	if bit >= MaxComponentTypes {
		return 0, TooManyComponentsError{Component: c}
	}
	r.bits[c.componentID()] = bit
	return bit, nil
}

// maskFor builds the signature of components, rejecting repeats.
func (r *componentRegistry) maskFor(components []Component) (mask.Mask, []uint32, error) {
	var m mask.Mask
	bits := make([]uint32, len(components))
	seen := make(map[uint32]struct{}, len(components))
	for i, c := range components {
		bit, err := r.bitFor(c)
		if err != nil {
			return m, nil, err
		}
		if _, dup := seen[bit]; dup {
			return m, nil, DuplicateComponentError{Component: c}
		}
		seen[bit] = struct{}{}
		m.Mark(bit)
		bits[i] = bit
	}
	return m, bits, nil
}
