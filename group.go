package gridsync

import (
	"sync/atomic"

	"github.com/llxisdsh/gridsync/internal/opt"
)

// Barrier is the group-wide synchronization a Semaphore needs from the
// kernel layer: a plain barrier and a barrier that reduces a predicate
// with logical AND across every thread of the group.
type Barrier interface {
	// Sync blocks until every thread of the group has called it.
	Sync()
	// SyncAnd is Sync that also returns true iff pred was true in
	// every thread. All threads observe the same result.
	SyncAnd(pred bool) bool
}

// Group is a thread-group: a fixed party of goroutines that advance
// through barriers together, like the threads of one CTA.
//
// It is reusable: once all threads have arrived the barrier resets for
// the next generation. Memory effects that precede a barrier call in any
// thread happen before the return of that call in every thread.
//
// Size: 40 bytes on 64-bit (8 byte state + 2*4 votes + 2*4 results + 2*4 sema + 8 byte threads).
type Group struct {
	_ noCopy
	// state 64-bit:
	//   High 32: Generation
	//   Low 32: Current Arrival Count
	state atomic.Uint64

	// votes[gen%2] counts the true predicates of generation gen.
	votes [2]atomic.Int32
	// result[gen%2] is votes of generation gen, frozen by the last arrival.
	result [2]atomic.Int32

	// sema is a double-buffered semaphore to prevent "signal stealing"
	// between generations.
	// Generation N waits on sema[N%2].
	sema [2]opt.Sema

	threads int
}

// NewGroup creates a barrier for a group of threads.
//
// panic if threads <= 0.
func NewGroup(threads int) *Group {
	if threads <= 0 {
		panic("gridsync: threads must be positive")
	}
	return &Group{threads: threads}
}

// Threads returns the size of the group.
func (g *Group) Threads() int {
	return g.threads
}

// Sync blocks until all threads of the group have called a barrier
// method for the current generation (__syncthreads).
func (g *Group) Sync() {
	g.reduce(true)
}

// SyncAnd reports whether pred was true in every thread.
func (g *Group) SyncAnd(pred bool) bool {
	return g.reduce(pred) == g.threads
}

// SyncOr reports whether pred was true in at least one thread.
func (g *Group) SyncOr(pred bool) bool {
	return g.reduce(pred) > 0
}

// SyncCount returns the number of threads whose pred was true.
func (g *Group) SyncCount(pred bool) int {
	return g.reduce(pred)
}

// reduce is one barrier generation. It returns the number of threads
// that arrived with a true predicate.
func (g *Group) reduce(pred bool) int {
	if g.threads == 1 {
		if pred {
			return 1
		}
		return 0
	}

	// The generation cannot advance before this thread arrives, so the
	// slot read here stays valid for the whole call.
	gen := g.state.Load() >> 32
	slot := gen % 2
	if pred {
		g.votes[slot].Add(1)
	}

	var spins int
	for {
		s := g.state.Load()
		count := uint32(s)

		if count == uint32(g.threads)-1 {
			// Last to arrive: freeze the vote, reset for the generation
			// after next, then wake everyone waiting on this slot.
			if g.state.CompareAndSwap(s, (gen+1)<<32) {
				v := g.votes[slot].Load()
				g.votes[slot].Store(0)
				g.result[slot].Store(v)
				semaPtr := &g.sema[slot]
				for i := 0; i < int(count); i++ {
					semaPtr.Release()
				}
				return int(v)
			}
		} else if g.state.CompareAndSwap(s, s+1) {
			g.sema[slot].Acquire()
			return int(g.result[slot].Load())
		}
		delay(&spins)
	}
}
