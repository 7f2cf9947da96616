package rustgine

// column is the type-erased view of one component column in an archetype.
// Row i of every column in an archetype belongs to the same entity.
type column interface {
	len() int
	appendFrom(src column, row int)
	swapRemove(row int)
}

type typedColumn[T any] struct {
	data []T
}

func (c *typedColumn[T]) len() int {
	return len(c.data)
}

// appendFrom copies the value at row of src onto the end of c. Both columns
// must hold the same component type.
func (c *typedColumn[T]) appendFrom(src column, row int) {
	c.data = append(c.data, src.(*typedColumn[T]).data[row])
}

func (c *typedColumn[T]) swapRemove(row int) {
	last := len(c.data) - 1
	if row != last {
		c.data[row] = c.data[last]
	}
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *typedColumn[T]) at(row int) *T {
	return &c.data[row]
}
