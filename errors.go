package rustgine

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by NotFoundError through errors.Is.
var ErrNotFound = errors.New("entity not found")

type NotFoundError struct {
	Entity Entity
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("entity %v not found or stale", e.Entity)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is locked for a parallel stage"
}

type DuplicateComponentError struct {
	Component Component
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("component already exists on entity: %s", e.Component.typeName())
}

type MissingComponentError struct {
	Component Component
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %s", e.Component.typeName())
}

type TooManyComponentsError struct {
	Component Component
}

func (e TooManyComponentsError) Error() string {
	return fmt.Sprintf("cannot register %s: world already holds %d component types", e.Component.typeName(), MaxComponentTypes)
}

// AccessViolationError reports two concurrently running systems touching
// overlapping columns, or a system touching a column it never declared. It
// only occurs with WorldOptions.DebugAccessChecks and always indicates a
// scheduling defect.
type AccessViolationError struct {
	Component Component
	Reason    string
}

func (e AccessViolationError) Error() string {
	return fmt.Sprintf("access violation on %s: %s", e.Component.typeName(), e.Reason)
}

type QueryCacheFullError struct {
	Capacity int
}

func (e QueryCacheFullError) Error() string {
	return fmt.Sprintf("query cache at maximum capacity (%d)", e.Capacity)
}

type DuplicateCacheKeyError struct {
	Key string
}

func (e DuplicateCacheKeyError) Error() string {
	return fmt.Sprintf("cache key already registered: %q", e.Key)
}
