package rustgine

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Component identifies a registered component type. Values of a component
// type are stored by value in the columns of every archetype that carries it.
type Component interface {
	table.ElementType
	componentID() uint32
	typeName() string
	newColumn() column
}

// Value is a component value waiting to be placed into a column, produced by
// ComponentType.With.
type Value interface {
	Component() Component
	write(col column)
}

type Archetype interface {
	ID() uint32
	Len() int
	Components() []Component
}

type iCursor interface {
	Entities() iter.Seq2[int, Entity]
	Next() bool
	Entity() Entity
	Reset()
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	Register(string, T) (int, error)
	Len() int
}

// Warning: internal Dependencies abound!
type Cursor struct {
	world *World
	query Query

	// Current iteration state
	currentArchetype *archetype
	archetypeIndex   int
	row              int
	remaining        int

	// Initialization state
	initialized bool
	matched     []*archetype
}

// ComponentType is the typed handle for a component. It is cheap to copy and
// is shared by every World that stores the type.
type ComponentType[T any] struct {
	table.ElementType
	id uint32
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// Query describes which archetypes a cursor visits: every component passed
// to And is required, every component passed to Not is excluded, and when Or
// is used at least one of its components must be present.
type Query struct {
	required []Component
	excluded []Component
	anyOf    []Component
}
