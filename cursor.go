package rustgine

import (
	"iter"
)

var _ iCursor = &Cursor{}

func newCursor(query Query, world *World) *Cursor {
	return &Cursor{
		query: query,
		world: world,
	}
}

// Next advances to the next matching entity, moving on to the next matching
// archetype when the current one is exhausted. After the last entity it
// resets the cursor and returns false, so the cursor can be ranged again.
func (c *Cursor) Next() bool {
	if c.row+1 < c.remaining {
		c.row++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
		c.row = -1
	} else {
		c.archetypeIndex++
		c.row = -1
	}
	for c.archetypeIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archetypeIndex]
		c.remaining = c.currentArchetype.Len()
		if c.remaining > 0 {
			c.row = 0
			return true
		}
		c.archetypeIndex++
	}
	c.Reset()
	return false
}

// Entities yields every matching entity together with its row in its
// archetype. It resets the cursor when done or when the caller stops early.
func (c *Cursor) Entities() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		defer c.Reset()
		for c.Next() {
			if !yield(c.row, c.currentArchetype.entities[c.row]) {
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	matched, err := c.world.match(c.query)
	if err != nil {
		c.matched = nil
	} else {
		c.matched = matched
	}
	c.archetypeIndex = 0
	c.currentArchetype = nil
	c.remaining = 0
	c.initialized = true
}

// Reset rewinds the cursor. The next call to Next re-resolves the matching
// archetypes, so entities moved by structural mutation since the last pass
// are picked up.
func (c *Cursor) Reset() {
	c.archetypeIndex = 0
	c.row = 0
	c.remaining = 0
	c.currentArchetype = nil
	c.matched = nil
	c.initialized = false
}

// Entity returns the entity under the cursor.
func (c *Cursor) Entity() Entity {
	return c.currentArchetype.entities[c.row]
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.row - 1
}

// TotalMatched counts the entities the query currently matches.
func (c *Cursor) TotalMatched() int {
	matched, err := c.world.match(c.query)
	if err != nil {
		return 0
	}
	total := 0
	for _, arch := range matched {
		total += arch.Len()
	}
	return total
}

// Err reports why the query could not be resolved, such as a World that ran
// out of component bits. A cursor that cannot resolve yields nothing.
func (c *Cursor) Err() error {
	_, err := c.world.match(c.query)
	return err
}

// Entities returns a restartable sequence over the entities q matches, in
// archetype creation order then row order.
func (w *World) Entities(q Query) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		matched, err := w.match(q)
		if err != nil {
			return
		}
		for _, arch := range matched {
			for _, e := range arch.entities {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Query returns a cursor over the entities q matches.
func (w *World) Query(q Query) *Cursor {
	return newCursor(q, w)
}

// Count returns how many entities q matches.
func (w *World) Count(q Query) int {
	return w.Query(q).TotalMatched()
}
