package rustgine

import "fmt"

// Entity is an opaque handle to a row in a World. Index names a slot in the
// entity index and Generation tells apart successive occupants of that slot,
// so a handle kept after DestroyEntity never resolves to a newer entity.
type Entity struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether e is the zero handle, which no World ever issues.
func (e Entity) IsZero() bool {
	return e.Generation == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index, e.Generation)
}

// entityRecord locates a live entity. It is kept in step with the archetype's
// row to entity back-reference on every row move.
type entityRecord struct {
	archetype  *archetype
	row        int
	generation uint32
	alive      bool
}

type entityIndex struct {
	records []entityRecord
	free    []uint32
	alive   int
}

func newEntityIndex(capacity int) entityIndex {
	return entityIndex{
		records: make([]entityRecord, 0, capacity),
		free:    make([]uint32, 0, capacity),
	}
}

// allocate hands out the most recently freed slot, or a fresh one.
func (idx *entityIndex) allocate() (Entity, *entityRecord) {
	var index uint32
	if n := len(idx.free); n > 0 {
		index = idx.free[n-1]
		idx.free = idx.free[:n-1]
	} else {
		index = uint32(len(idx.records))
		idx.records = append(idx.records, entityRecord{generation: 1})
	}
	rec := &idx.records[index]
	rec.alive = true
	idx.alive++
	return Entity{Index: index, Generation: rec.generation}, rec
}

// release frees the slot and bumps its generation. Generation 0 is skipped
// because it marks the zero handle.
func (idx *entityIndex) release(e Entity) {
	rec := &idx.records[e.Index]
	rec.alive = false
	rec.archetype = nil
	rec.row = -1
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	idx.free = append(idx.free, e.Index)
	idx.alive--
}

// lookup resolves e, failing for unknown indices and stale generations.
func (idx *entityIndex) lookup(e Entity) (*entityRecord, error) {
	if int(e.Index) >= len(idx.records) {
		return nil, NotFoundError{Entity: e}
	}
	rec := &idx.records[e.Index]
	if !rec.alive || rec.generation != e.Generation {
		return nil, NotFoundError{Entity: e}
	}
	return rec, nil
}
