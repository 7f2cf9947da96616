package rustgine

import (
	"errors"
	"testing"
)

func TestEntityIndexReusesSlotsWithNewGeneration(t *testing.T) {
	w := newTestWorld(t, WorldOptions{})

	first := mustCreate(t, w, positionComp.With(Position{}))
	if first.IsZero() {
		t.Fatal("World issued the zero handle")
	}
	if err := w.DestroyEntity(first); err != nil {
		t.Fatalf("DestroyEntity: %v", err)
	}

	second := mustCreate(t, w, positionComp.With(Position{}))
	if second.Index != first.Index {
		t.Errorf("slot not reused: %v then %v", first, second)
	}
	if second.Generation == first.Generation {
		t.Errorf("generation not bumped: %v then %v", first, second)
	}
	if w.Alive(first) {
		t.Error("stale handle reported alive")
	}
	if !w.Alive(second) {
		t.Error("new handle reported dead")
	}
	if _, err := positionComp.Get(w, first); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on stale handle = %v, want ErrNotFound", err)
	}
}

func TestEntityIndexFreeListIsLIFO(t *testing.T) {
	w := newTestWorld(t, WorldOptions{})
	entities := make([]Entity, 4)
	for i := range entities {
		entities[i] = mustCreate(t, w)
	}
	for _, i := range []int{1, 3} {
		if err := w.DestroyEntity(entities[i]); err != nil {
			t.Fatal(err)
		}
	}
	if got := mustCreate(t, w); got.Index != entities[3].Index {
		t.Errorf("first reuse took slot %d, want %d", got.Index, entities[3].Index)
	}
	if got := mustCreate(t, w); got.Index != entities[1].Index {
		t.Errorf("second reuse took slot %d, want %d", got.Index, entities[1].Index)
	}
	if got := mustCreate(t, w); got.Index != 4 {
		t.Errorf("fresh slot = %d, want 4", got.Index)
	}
}

func TestEntityGenerationSkipsZero(t *testing.T) {
	idx := newEntityIndex(1)
	e, _ := idx.allocate()
	idx.records[e.Index].generation = ^uint32(0)
	e.Generation = ^uint32(0)
	idx.release(e)
	if got := idx.records[e.Index].generation; got != 1 {
		t.Errorf("generation after wrap = %d, want 1", got)
	}
}

func TestStaleHandleOperations(t *testing.T) {
	w := newTestWorld(t, WorldOptions{})
	stale := mustCreate(t, w, positionComp.With(Position{}))
	if err := w.DestroyEntity(stale); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, w, positionComp.With(Position{}))

	tests := []struct {
		name string
		op   func() error
	}{
		{"destroy", func() error { return w.DestroyEntity(stale) }},
		{"add", func() error { return w.AddComponent(stale, velocityComp.With(Velocity{})) }},
		{"remove", func() error { return w.RemoveComponent(stale, positionComp) }},
		{"get mut", func() error { _, err := positionComp.GetMut(w, stale); return err }},
		{"signature", func() error { _, err := w.Signature(stale); return err }},
		{"out of range", func() error { return w.DestroyEntity(Entity{Index: 99, Generation: 1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			var nf NotFoundError
			if !errors.As(err, &nf) {
				t.Errorf("error = %v, want NotFoundError", err)
			}
		})
	}
	if w.Len() != 1 {
		t.Errorf("Len() = %d, want 1", w.Len())
	}
}

func TestEntityString(t *testing.T) {
	if got := (Entity{Index: 3, Generation: 2}).String(); got != "3v2" {
		t.Errorf("String() = %q", got)
	}
}
