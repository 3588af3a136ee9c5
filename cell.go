package gridsync

import (
	"github.com/llxisdsh/gridsync/internal/opt"
)

// LockCell is the globally visible memory location a Semaphore
// synchronizes on. It is owned by the caller, not by any Semaphore.
//
// Load must have acquire semantics and always observe the latest value
// made visible by Store; Store must have release semantics. A plain,
// unordered memory access does not satisfy this contract.
//
// Only load and store are required. The protocol built on top never
// performs a read-modify-write on the cell and relies on callers writing
// each phase value from exactly one group.
type LockCell interface {
	Load() int32
	Store(v int32)
}

// Cell is the standard LockCell: an int32 accessed only through
// sync/atomic, padded to a cache line on 64-bit platforms.
//
// Go atomics are sequentially consistent, which subsumes the
// acquire/release pair the protocol needs.
//
// The zero value holds phase 0.
type Cell struct {
	_ noCopy
	v opt.Cell_
}

// Load returns the latest globally visible phase.
func (c *Cell) Load() int32 {
	return c.v.V.Load()
}

// Store publishes phase v.
func (c *Cell) Store(v int32) {
	c.v.V.Store(v)
}
