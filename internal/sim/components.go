package sim

import "github.com/diamondbo/rustgine"

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

// Lifetime counts down one per frame; the entity is destroyed at zero.
type Lifetime struct {
	Frames int
}

var (
	PositionComponent = rustgine.FactoryNewComponent[Position]()
	VelocityComponent = rustgine.FactoryNewComponent[Velocity]()
	LifetimeComponent = rustgine.FactoryNewComponent[Lifetime]()
)

// Clock is the fixed timestep of one frame, in seconds.
type Clock struct {
	DT float64
}

type GravityField struct {
	Y float64
}

// SpawnTimer creates one new body every Every frames.
type SpawnTimer struct {
	Every     int
	Countdown int
	Lifetime  int
}

// FrameStats is refreshed at the end of every frame.
type FrameStats struct {
	Frame      uint64
	Entities   int
	Archetypes int
}
