package recordcsv

import (
	"fmt"
	"iter"
	"slices"
)

// ColumnCollection is an ordered, mutable list of columns. Order matters:
// the first matching column wins when a reader resolves physical positions.
// Colliding headers or indices are not rejected.
type ColumnCollection[T any] struct {
	cols []Column[T]
}

// NewColumnCollection returns a collection holding cols.
func NewColumnCollection[T any](cols ...Column[T]) *ColumnCollection[T] {
	c := &ColumnCollection[T]{}
	c.Add(cols...)
	return c
}

// Add appends cols. Zero columns are ignored.
func (c *ColumnCollection[T]) Add(cols ...Column[T]) {
	for _, col := range cols {
		if col.isZero() {
			continue
		}
		c.cols = append(c.cols, col)
	}
}

// AddRange appends every column of cols.
func (c *ColumnCollection[T]) AddRange(cols []Column[T]) {
	c.Add(cols...)
}

// Insert places col at position i, shifting later columns.
func (c *ColumnCollection[T]) Insert(i int, col Column[T]) error {
	if i < 0 || i > len(c.cols) {
		return fmt.Errorf("%w: insert position %d out of range [0,%d]", ErrInvalidArgument, i, len(c.cols))
	}
	if col.isZero() {
		return fmt.Errorf("%w: zero column", ErrInvalidArgument)
	}
	c.cols = slices.Insert(c.cols, i, col)
	return nil
}

// RemoveAt deletes the column at position i.
func (c *ColumnCollection[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(c.cols) {
		return fmt.Errorf("%w: position %d out of range [0,%d)", ErrInvalidArgument, i, len(c.cols))
	}
	c.cols = slices.Delete(c.cols, i, i+1)
	return nil
}

// Remove deletes the first occurrence of col and reports whether it was present.
func (c *ColumnCollection[T]) Remove(col Column[T]) bool {
	i := c.IndexOf(col)
	if i < 0 {
		return false
	}
	c.cols = slices.Delete(c.cols, i, i+1)
	return true
}

// At returns the column at position i. It panics if i is out of range.
func (c *ColumnCollection[T]) At(i int) Column[T] {
	return c.cols[i]
}

// Set replaces the column at position i.
func (c *ColumnCollection[T]) Set(i int, col Column[T]) error {
	if i < 0 || i >= len(c.cols) {
		return fmt.Errorf("%w: position %d out of range [0,%d)", ErrInvalidArgument, i, len(c.cols))
	}
	if col.isZero() {
		return fmt.Errorf("%w: zero column", ErrInvalidArgument)
	}
	c.cols[i] = col
	return nil
}

// IndexOf returns the position of col, or -1.
func (c *ColumnCollection[T]) IndexOf(col Column[T]) int {
	return slices.IndexFunc(c.cols, func(x Column[T]) bool { return x.id == col.id })
}

// Contains reports whether col is in the collection.
func (c *ColumnCollection[T]) Contains(col Column[T]) bool {
	return c.IndexOf(col) >= 0
}

// Clear removes every column.
func (c *ColumnCollection[T]) Clear() {
	c.cols = nil
}

// Len returns the number of columns.
func (c *ColumnCollection[T]) Len() int {
	return len(c.cols)
}

// All iterates over positions and columns in order.
func (c *ColumnCollection[T]) All() iter.Seq2[int, Column[T]] {
	return slices.All(c.cols)
}

func (c *ColumnCollection[T]) snapshot() []Column[T] {
	return slices.Clone(c.cols)
}

// effectiveColumns returns the columns an operation uses under policy: the
// columns synthesized from T's fields followed by explicit, or explicit
// alone, keeping only those accepted by keep. explicit must be a snapshot.
func effectiveColumns[T any](explicit []Column[T], policy AutoGenerate, keep func(Column[T]) bool) []Column[T] {
	cols := explicit
	if policy == AutoAlways || (policy == AutoDefault && len(explicit) == 0) {
		cols = append(fieldColumns[T](), explicit...)
	}
	return slices.DeleteFunc(cols, func(c Column[T]) bool { return !keep(c) })
}
