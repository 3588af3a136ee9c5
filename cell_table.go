package gridsync

import (
	"github.com/llxisdsh/pb"
)

// CellTable holds lock cells allocated on first use, keyed by tile
// coordinate or any other comparable identity. Use it when the set of
// synchronizing tiles is sparse or not known before launch.
//
// Every key maps to exactly one cell for the lifetime of the table, so
// groups that look up the same key concurrently share a cell.
//
// It is zero-value usable.
type CellTable[K comparable] struct {
	_ noCopy
	m pb.MapOf[K, *Cell]
}

// Cell returns the cell for key, allocating it at phase 0 if absent.
func (t *CellTable[K]) Cell(key K) *Cell {
	if c, ok := t.m.Load(key); ok {
		return c
	}
	c, _ := t.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Cell]) (*pb.EntryOf[K, *Cell], *Cell, bool) {
			if l != nil {
				return l, l.Value, true
			}
			c := &Cell{}
			return &pb.EntryOf[K, *Cell]{Value: c}, c, false
		},
	)
	return c
}

// Len returns the number of allocated cells.
func (t *CellTable[K]) Len() int {
	return t.m.Size()
}

// Range calls yield for every allocated cell until yield returns false.
func (t *CellTable[K]) Range(yield func(key K, c *Cell) bool) {
	t.m.Range(yield)
}

// Reset stores v into every allocated cell.
// It must not run concurrently with a launch using the table.
func (t *CellTable[K]) Reset(v int32) {
	t.m.Range(func(_ K, c *Cell) bool {
		c.Store(v)
		return true
	})
}
