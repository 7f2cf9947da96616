package rustgine

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

// NewWorld creates a World whose component bits are assigned by schema.
func (f factory) NewWorld(schema table.Schema, opts WorldOptions) *World {
	return newWorld(schema, opts)
}

// NewDefaultWorld creates a World with a fresh schema and default options.
func (f factory) NewDefaultWorld() *World {
	return newWorld(table.Factory.NewSchema(), WorldOptions{})
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(query Query, world *World) *Cursor {
	return newCursor(query, world)
}

func (f factory) NewResources() *Resources {
	return NewResources()
}

func FactoryNewComponent[T any]() ComponentType[T] {
	return ComponentType[T]{
		ElementType: table.FactoryNewElementType[T](),
		id:          nextComponentID.Add(1),
	}
}

func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
