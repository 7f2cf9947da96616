package rustgine

const (
	defaultEntityCapacity     = 1024
	defaultQueryCacheCapacity = 1024
)

// WorldOptions holds per-World settings. The zero value is usable.
type WorldOptions struct {
	// InitialEntityCapacity pre-sizes the entity index.
	InitialEntityCapacity int
	// QueryCacheCapacity bounds the number of distinct query signatures the
	// World keeps matched archetype lists for.
	QueryCacheCapacity int
	// DebugAccessChecks enables the per-type access counters that turn a
	// scheduling defect into an AccessViolationError.
	DebugAccessChecks bool
}

func (o WorldOptions) withDefaults() WorldOptions {
	if o.InitialEntityCapacity <= 0 {
		o.InitialEntityCapacity = defaultEntityCapacity
	}
	if o.QueryCacheCapacity <= 0 {
		o.QueryCacheCapacity = defaultQueryCacheCapacity
	}
	return o
}
