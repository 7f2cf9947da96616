package rustgine

import (
	"reflect"
	"sync/atomic"
)

var nextComponentID atomic.Uint32

var _ Component = ComponentType[struct{}]{}

func (c ComponentType[T]) componentID() uint32 {
	return c.id
}

func (c ComponentType[T]) typeName() string {
	return reflect.TypeFor[T]().String()
}

func (c ComponentType[T]) newColumn() column {
	return &typedColumn[T]{}
}

// String returns the Go type name of the component.
func (c ComponentType[T]) String() string {
	return c.typeName()
}

// With pairs the component type with a value for CreateEntity, AddComponent
// and their buffered counterparts on Commands.
func (c ComponentType[T]) With(v T) Value {
	return componentValue[T]{typ: c, value: v}
}

// ComponentIdentity returns the process-wide identity of a component type.
// It is stable for the lifetime of the ComponentType and independent of any
// World's bit assignment.
func ComponentIdentity(c Component) uint32 {
	return c.componentID()
}

type componentValue[T any] struct {
	typ   ComponentType[T]
	value T
}

func (v componentValue[T]) Component() Component {
	return v.typ
}

func (v componentValue[T]) write(col column) {
	tc := col.(*typedColumn[T])
	tc.data = append(tc.data, v.value)
}
