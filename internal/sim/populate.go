package sim

import (
	"fmt"

	"github.com/diamondbo/rustgine"
)

// Options sizes the demo scene.
type Options struct {
	Bodies     int
	SpawnEvery int
	Lifetime   int
	DT         float64
	Gravity    float64
}

func DefaultOptions() Options {
	return Options{
		Bodies:     1000,
		SpawnEvery: 10,
		Lifetime:   120,
		DT:         1.0 / 60,
		Gravity:    -9.81,
	}
}

// Populate installs the demo resources and creates the initial bodies. Every
// third body is static and every second one is mortal, so the world starts
// with several archetypes.
func Populate(w *rustgine.World, r *rustgine.Resources, opts Options) error {
	resources := []error{
		rustgine.AddResource(r, &Clock{DT: opts.DT}),
		rustgine.AddResource(r, &GravityField{Y: opts.Gravity}),
		rustgine.AddResource(r, &SpawnTimer{Every: opts.SpawnEvery, Countdown: opts.SpawnEvery, Lifetime: opts.Lifetime}),
		rustgine.AddResource(r, &FrameStats{}),
	}
	for _, err := range resources {
		if err != nil {
			return err
		}
	}
	for i := range opts.Bodies {
		values := []rustgine.Value{PositionComponent.With(Position{X: float64(i)})}
		if i%3 != 0 {
			values = append(values, VelocityComponent.With(Velocity{X: 1}))
		}
		if i%2 == 0 {
			values = append(values, LifetimeComponent.With(Lifetime{Frames: opts.Lifetime + i%10}))
		}
		if _, err := w.CreateEntity(values...); err != nil {
			return fmt.Errorf("populate body %d: %w", i, err)
		}
	}
	return nil
}
