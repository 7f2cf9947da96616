package rustgine

// Get returns e's value of c for reading. It fails with NotFoundError for a
// stale handle and MissingComponentError when e's archetype lacks c.
func (c ComponentType[T]) Get(w *World, e Entity) (*T, error) {
	col, row, bit, err := w.column(e, c)
	if err != nil {
		return nil, err
	}
	if w.guard != nil {
		w.guard.touch(c, bit, false)
	}
	return col.(*typedColumn[T]).at(row), nil
}

// GetMut returns e's value of c for writing. With debug access checks it
// also verifies that some running system declared a write of c.
func (c ComponentType[T]) GetMut(w *World, e Entity) (*T, error) {
	col, row, bit, err := w.column(e, c)
	if err != nil {
		return nil, err
	}
	if w.guard != nil {
		if err := w.guard.touch(c, bit, true); err != nil {
			return nil, err
		}
	}
	return col.(*typedColumn[T]).at(row), nil
}

// Set overwrites e's value of c.
func (c ComponentType[T]) Set(w *World, e Entity, v T) error {
	ptr, err := c.GetMut(w, e)
	if err != nil {
		return err
	}
	*ptr = v
	return nil
}

// GetFromCursor returns the value of c for the entity under the cursor. The
// cursor's query must require c; use GetFromCursorSafe otherwise. It panics
// with a MissingComponentError when the current archetype has no c column.
func (c ComponentType[T]) GetFromCursor(cursor *Cursor) *T {
	return fromCursor(c, cursor, true)
}

// ReadFromCursor is GetFromCursor for systems that only declared a read of c.
func (c ComponentType[T]) ReadFromCursor(cursor *Cursor) *T {
	return fromCursor(c, cursor, false)
}

func fromCursor[T any](c ComponentType[T], cursor *Cursor, write bool) *T {
	bit, ok := cursor.world.registry.lookup(c)
	if !ok || cursor.currentArchetype == nil || !cursor.currentArchetype.has(bit) {
		panic(MissingComponentError{Component: c})
	}
	if g := cursor.world.guard; g != nil {
		g.touch(c, bit, write)
	}
	col := cursor.currentArchetype.columns[bit].(*typedColumn[T])
	return col.at(cursor.row)
}

// GetFromCursorSafe reports whether the archetype under the cursor carries c
// and, if so, returns its value.
func (c ComponentType[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the cursor position
func (c ComponentType[T]) CheckCursor(cursor *Cursor) bool {
	if cursor.currentArchetype == nil {
		return false
	}
	bit, ok := cursor.world.registry.lookup(c)
	return ok && cursor.currentArchetype.has(bit)
}
