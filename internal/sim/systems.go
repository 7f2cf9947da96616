package sim

import (
	"github.com/diamondbo/rustgine"
	"github.com/diamondbo/rustgine/scheduler"
)

const (
	SpawnerSystem  = "spawner"
	GravitySystem  = "gravity"
	MovementSystem = "movement"
	AgingSystem    = "aging"
	StatsSystem    = "stats"
)

var (
	moving = rustgine.Factory.NewQuery().And(PositionComponent, VelocityComponent)
	mortal = rustgine.Factory.NewQuery().And(LifetimeComponent)
)

// Spawner queues a new falling body whenever its timer runs out.
func Spawner() scheduler.System {
	access := scheduler.Access{}.WritesResource(rustgine.ResourceOf[SpawnTimer]())
	return scheduler.NewSystem(SpawnerSystem, access, func(ctx *scheduler.Context) error {
		timer := rustgine.MustResource[SpawnTimer](ctx.Resources)
		if timer.Every <= 0 {
			return nil
		}
		timer.Countdown--
		if timer.Countdown > 0 {
			return nil
		}
		timer.Countdown = timer.Every
		ctx.Commands.CreateEntity(
			PositionComponent.With(Position{}),
			VelocityComponent.With(Velocity{X: 1}),
			LifetimeComponent.With(Lifetime{Frames: timer.Lifetime}),
		)
		return nil
	})
}

// Gravity accelerates every moving body.
func Gravity() scheduler.System {
	access := scheduler.Access{}.
		Writes(VelocityComponent).
		ReadsResource(rustgine.ResourceOf[GravityField](), rustgine.ResourceOf[Clock]())
	return scheduler.NewSystem(GravitySystem, access, func(ctx *scheduler.Context) error {
		g := rustgine.MustResource[GravityField](ctx.Resources)
		clock := rustgine.MustResource[Clock](ctx.Resources)
		cursor := ctx.World.Query(moving)
		for cursor.Next() {
			vel := VelocityComponent.GetFromCursor(cursor)
			vel.Y += g.Y * clock.DT
		}
		return cursor.Err()
	})
}

// Movement integrates velocity into position after gravity was applied.
func Movement() scheduler.System {
	access := scheduler.Access{}.
		Reads(VelocityComponent).
		Writes(PositionComponent).
		ReadsResource(rustgine.ResourceOf[Clock]()).
		After(GravitySystem)
	return scheduler.NewSystem(MovementSystem, access, func(ctx *scheduler.Context) error {
		clock := rustgine.MustResource[Clock](ctx.Resources)
		cursor := ctx.World.Query(moving)
		for cursor.Next() {
			pos := PositionComponent.GetFromCursor(cursor)
			vel := VelocityComponent.ReadFromCursor(cursor)
			pos.X += vel.X * clock.DT
			pos.Y += vel.Y * clock.DT
		}
		return cursor.Err()
	})
}

// Aging counts lifetimes down and queues the destruction of expired
// entities.
func Aging() scheduler.System {
	access := scheduler.Access{}.Writes(LifetimeComponent)
	return scheduler.NewSystem(AgingSystem, access, func(ctx *scheduler.Context) error {
		cursor := ctx.World.Query(mortal)
		for cursor.Next() {
			life := LifetimeComponent.GetFromCursor(cursor)
			life.Frames--
			if life.Frames <= 0 {
				ctx.Commands.DestroyEntity(cursor.Entity())
			}
		}
		return cursor.Err()
	})
}

// Stats runs alone at the end of the frame and snapshots the world.
func Stats() scheduler.System {
	access := scheduler.Access{}.
		WritesResource(rustgine.ResourceOf[FrameStats]()).
		After(MovementSystem, AgingSystem).
		ExclusiveWorld()
	return scheduler.NewSystem(StatsSystem, access, func(ctx *scheduler.Context) error {
		stats := rustgine.MustResource[FrameStats](ctx.Resources)
		stats.Frame = ctx.Frame
		stats.Entities = ctx.World.Len()
		stats.Archetypes = ctx.World.ArchetypeCount()
		return nil
	})
}

// Register adds the demo systems to s in their canonical order.
func Register(s *scheduler.Scheduler) error {
	return s.Register(Spawner(), Gravity(), Movement(), Aging(), Stats())
}
