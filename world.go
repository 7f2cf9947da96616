package rustgine

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// World owns entities and their components, laid out in archetype tables.
//
// World performs no locking on component data. Running systems concurrently
// against one World is safe only when their accesses have been proven
// disjoint, which is the scheduler's job; DebugAccessChecks verifies that
// proof at runtime.
type World struct {
	opts       WorldOptions
	locked     bool
	registry   *componentRegistry
	archetypes *archetypes
	entities   entityIndex
	queries    *queryCache
	guard      *accessGuard
	empty      *archetype
}

func newWorld(schema table.Schema, opts WorldOptions) *World {
	opts = opts.withDefaults()
	w := &World{
		opts:       opts,
		registry:   newComponentRegistry(schema),
		archetypes: newArchetypes(),
		entities:   newEntityIndex(opts.InitialEntityCapacity),
		queries:    newQueryCache(opts.QueryCacheCapacity),
	}
	if opts.DebugAccessChecks {
		w.guard = newAccessGuard()
	}
	w.empty = w.archetypeFor(mask.Mask{}, nil, nil)
	return w
}

// CreateEntity creates an entity holding values and returns its handle.
func (w *World) CreateEntity(values ...Value) (Entity, error) {
	if w.locked {
		return Entity{}, LockedWorldError{}
	}
	components := make([]Component, len(values))
	for i, v := range values {
		components[i] = v.Component()
	}
	m, bits, err := w.registry.maskFor(components)
	if err != nil {
		return Entity{}, err
	}
	arch := w.archetypeFor(m, bits, components)
	for i, v := range values {
		v.write(arch.columns[bits[i]])
	}
	e, rec := w.entities.allocate()
	rec.archetype = arch
	rec.row = len(arch.entities)
	arch.entities = append(arch.entities, e)
	return e, nil
}

// DestroyEntity removes e. The last row of e's archetype moves into the freed
// row. A stale or unknown handle yields NotFoundError and changes nothing.
func (w *World) DestroyEntity(e Entity) error {
	if w.locked {
		return LockedWorldError{}
	}
	rec, err := w.entities.lookup(e)
	if err != nil {
		return err
	}
	w.removeRow(rec.archetype, rec.row)
	w.entities.release(e)
	return nil
}

// AddComponent attaches v to e, migrating e to the archetype that has the
// extra component.
func (w *World) AddComponent(e Entity, v Value) error {
	if w.locked {
		return LockedWorldError{}
	}
	rec, err := w.entities.lookup(e)
	if err != nil {
		return err
	}
	c := v.Component()
	bit, err := w.registry.bitFor(c)
	if err != nil {
		return err
	}
	origin := rec.archetype
	if origin.has(bit) {
		return DuplicateComponentError{Component: c}
	}

	destMask := origin.mask
	destMask.Mark(bit)
	dest, ok := w.archetypes.find(destMask)
	if !ok {
		bits := append(append([]uint32(nil), origin.bits...), bit)
		components := append(append([]Component(nil), origin.components...), c)
		dest = w.archetypeFor(destMask, bits, components)
	}

	for _, b := range origin.bits {
		dest.columns[b].appendFrom(origin.columns[b], rec.row)
	}
	v.write(dest.columns[bit])
	w.migrate(e, rec, dest)
	return nil
}

// RemoveComponent detaches c from e, migrating e to the archetype without it.
func (w *World) RemoveComponent(e Entity, c Component) error {
	if w.locked {
		return LockedWorldError{}
	}
	rec, err := w.entities.lookup(e)
	if err != nil {
		return err
	}
	bit, ok := w.registry.lookup(c)
	origin := rec.archetype
	if !ok || !origin.has(bit) {
		return MissingComponentError{Component: c}
	}

	destMask := origin.mask
	destMask.Unmark(bit)
	dest, found := w.archetypes.find(destMask)
	if !found {
		bits := make([]uint32, 0, len(origin.bits)-1)
		components := make([]Component, 0, len(origin.components)-1)
		for i, b := range origin.bits {
			if b != bit {
				bits = append(bits, b)
				components = append(components, origin.components[i])
			}
		}
		dest = w.archetypeFor(destMask, bits, components)
	}

	for _, b := range dest.bits {
		dest.columns[b].appendFrom(origin.columns[b], rec.row)
	}
	w.migrate(e, rec, dest)
	return nil
}

// migrate finishes a row move whose column values are already appended to
// dest: it appends e's back-reference, drops the origin row and repoints the
// index record.
func (w *World) migrate(e Entity, rec *entityRecord, dest *archetype) {
	origin, row := rec.archetype, rec.row
	destRow := len(dest.entities)
	dest.entities = append(dest.entities, e)
	w.removeRow(origin, row)
	rec.archetype = dest
	rec.row = destRow
}

func (w *World) removeRow(arch *archetype, row int) {
	moved, relocated := arch.swapRemove(row)
	if relocated {
		w.entities.records[moved.Index].row = row
	}
}

// archetypeFor returns the archetype for m, creating it and updating every
// cached query when it does not exist yet.
func (w *World) archetypeFor(m mask.Mask, bits []uint32, components []Component) *archetype {
	if arch, ok := w.archetypes.find(m); ok {
		return arch
	}
	arch := newArchetype(w.archetypes.nextID, m, bits, components)
	w.archetypes.asSlice = append(w.archetypes.asSlice, arch)
	w.archetypes.idsGroupedByMask[m] = arch.id
	w.archetypes.nextID++
	w.queries.archetypeCreated(arch)
	return arch
}

// Alive reports whether e refers to a live entity.
func (w *World) Alive(e Entity) bool {
	_, err := w.entities.lookup(e)
	return err == nil
}

// Has reports whether e is alive and carries c.
func (w *World) Has(e Entity, c Component) bool {
	rec, err := w.entities.lookup(e)
	if err != nil {
		return false
	}
	bit, ok := w.registry.lookup(c)
	return ok && rec.archetype.has(bit)
}

// Signature returns the component types of e's archetype in canonical order.
func (w *World) Signature(e Entity) ([]Component, error) {
	rec, err := w.entities.lookup(e)
	if err != nil {
		return nil, err
	}
	return rec.archetype.Components(), nil
}

// ArchetypeOf returns the archetype currently holding e.
func (w *World) ArchetypeOf(e Entity) (Archetype, error) {
	rec, err := w.entities.lookup(e)
	if err != nil {
		return nil, err
	}
	return rec.archetype, nil
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.alive
}

// ArchetypeCount returns the number of archetypes created so far, including
// the empty one.
func (w *World) ArchetypeCount() int {
	return len(w.archetypes.asSlice)
}

func (w *World) Locked() bool {
	return w.locked
}

// Lock rejects direct structural mutation until Unlock. The scheduler holds
// the lock while non-exclusive systems run in parallel.
func (w *World) Lock() {
	w.locked = true
}

func (w *World) Unlock() {
	w.locked = false
}

// column resolves the column of c for e, or the error a typed accessor
// returns for it.
func (w *World) column(e Entity, c Component) (column, int, uint32, error) {
	rec, err := w.entities.lookup(e)
	if err != nil {
		return nil, 0, 0, err
	}
	bit, ok := w.registry.lookup(c)
	if !ok || !rec.archetype.has(bit) {
		return nil, 0, 0, MissingComponentError{Component: c}
	}
	return rec.archetype.columns[bit], rec.row, bit, nil
}

func (w *World) String() string {
	return fmt.Sprintf("World{entities: %d, archetypes: %d}", w.Len(), w.ArchetypeCount())
}
