package rustgine

import (
	"fmt"
	"reflect"
)

// ResourceKey identifies a resource type in access declarations.
type ResourceKey = reflect.Type

// ResourceOf returns the key of resource type T.
func ResourceOf[T any]() ResourceKey {
	return reflect.TypeFor[T]()
}

// Resources holds singleton values shared across systems, at most one per
// type. Like World it performs no locking: concurrent systems must declare
// their resource reads and writes so the scheduler can keep them apart.
type Resources struct {
	items map[reflect.Type]any
}

// NewResources returns an empty resource container.
func NewResources() *Resources {
	return &Resources{items: make(map[reflect.Type]any)}
}

// AddResource stores v as the resource of type T. It fails when one is
// already present.
func AddResource[T any](r *Resources, v *T) error {
	if v == nil {
		return fmt.Errorf("cannot add nil resource %s", ResourceOf[T]())
	}
	t := ResourceOf[T]()
	if r.items == nil {
		r.items = make(map[reflect.Type]any)
	}
	if _, ok := r.items[t]; ok {
		return fmt.Errorf("resource %s already exists", t)
	}
	r.items[t] = v
	return nil
}

// SetResource stores v as the resource of type T, replacing any previous one.
func SetResource[T any](r *Resources, v *T) {
	if r.items == nil {
		r.items = make(map[reflect.Type]any)
	}
	r.items[ResourceOf[T]()] = v
}

// GetResource returns the resource of type T, if present.
func GetResource[T any](r *Resources) (*T, bool) {
	v, ok := r.items[ResourceOf[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// MustResource returns the resource of type T and panics when it is missing.
// Systems use it for resources their registration guarantees.
func MustResource[T any](r *Resources) *T {
	v, ok := GetResource[T](r)
	if !ok {
		panic(fmt.Sprintf("resource %s not present", ResourceOf[T]()))
	}
	return v
}

// RemoveResource drops the resource of type T.
func RemoveResource[T any](r *Resources) {
	delete(r.items, ResourceOf[T]())
}

// HasResource reports whether a resource of type T is present.
func HasResource[T any](r *Resources) bool {
	_, ok := r.items[ResourceOf[T]()]
	return ok
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	return len(r.items)
}
