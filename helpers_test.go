package rustgine

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

type Position struct {
	X float64
	Y float64
}

type Velocity struct {
	X float64
	Y float64
}

type Health struct {
	Current int
	Max     int
}

type Name struct {
	Value string
}

var (
	positionComp = FactoryNewComponent[Position]()
	velocityComp = FactoryNewComponent[Velocity]()
	healthComp   = FactoryNewComponent[Health]()
	nameComp     = FactoryNewComponent[Name]()
)

func newTestWorld(t testing.TB, opts WorldOptions) *World {
	t.Helper()
	return Factory.NewWorld(table.Factory.NewSchema(), opts)
}

func mustCreate(t testing.TB, w *World, values ...Value) Entity {
	t.Helper()
	e, err := w.CreateEntity(values...)
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	return e
}
