/*
Package rustgine is the data side of the rustgine simulation core: an
archetype-based entity/component store, its query engine, singleton
resources and the command buffer used to defer structural mutation.

Core Concepts:

  - Entity: an (index, generation) handle; stale handles are detected, never reused.
  - Component: a plain value type registered with FactoryNewComponent.
  - Archetype: a table of columns for one exact set of component types.
  - Query: required, excluded and any-of component sets matched against archetypes.
  - Commands: a per-system buffer of create/destroy/add/remove applied between stages.

Basic Usage:

	world := rustgine.Factory.NewDefaultWorld()

	position := rustgine.FactoryNewComponent[Position]()
	velocity := rustgine.FactoryNewComponent[Velocity]()

	e, _ := world.CreateEntity(position.With(Position{}), velocity.With(Velocity{X: 1}))

	cursor := world.Query(rustgine.Factory.NewQuery().And(position, velocity))
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	_ = world.RemoveComponent(e, velocity)

The World does no locking of its own. Systems that run in parallel are kept
apart by the scheduler package, which proves from declared accesses that no
two systems in a stage touch the same column or resource.
*/
package rustgine
