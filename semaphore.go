package gridsync

import (
	"fmt"

	"github.com/llxisdsh/gridsync/internal/opt"
)

// StateInvalid is the cached state of a Semaphore that has not fetched
// yet. Valid phases are non-negative.
const StateInvalid int32 = -1

// Semaphore lets thread-groups wait for a shared phase counter to reach a
// value and advance it, without leaving the kernel.
//
// Every thread of a group constructs its own Semaphore over the same lock
// cell and the group's Barrier. One thread of the group, the wait thread,
// performs all reads and writes of the cell; the others learn the outcome
// through the group barrier.
//
// Typical use, a serial reduction where the group owning phase k runs
// after the groups owning phases 0..k-1:
//
//	s := NewSemaphore(lock, group, threadIdx)
//	s.Wait(k)
//	// accumulate partial result
//	s.Release(k + 1)
//
// Semaphore performs no validation. A phase that is never released makes
// every group waiting for it spin forever, and a wait on a phase owned by
// a group that is not yet scheduled can never complete: launches must
// keep every group a waiter depends on resident. Correctness also depends
// on exactly one group writing each phase value; the cell is only ever
// loaded and stored, never updated with a read-modify-write.
//
// Built with the gridsync_debug tag, Wait panics once it has polled more
// than opt.SpinLimit_ times.
type Semaphore struct {
	lock       LockCell
	bar        Barrier
	waitThread bool
	state      int32
}

// NewSemaphore binds a Semaphore to lock for the calling thread.
//
// thread is the caller's index within its group. Index 0 is the wait
// thread; a negative index makes every thread a wait thread, which avoids
// divergent single-thread paths at the cost of one load per thread.
// Construction does not touch lock.
func NewSemaphore(lock LockCell, bar Barrier, thread int) Semaphore {
	return Semaphore{
		lock:       lock,
		bar:        bar,
		waitThread: thread < 0 || thread == 0,
		state:      StateInvalid,
	}
}

// IsWaitThread reports whether this thread reads and writes the lock cell.
func (s *Semaphore) IsWaitThread() bool {
	return s.waitThread
}

// Fetch refreshes the cached state from the lock cell on the wait thread.
// Other threads keep their cached state. Calling it ahead of Wait starts
// the load early.
func (s *Semaphore) Fetch() {
	if s.waitThread {
		s.state = s.lock.Load()
	}
}

// State returns the cached state without reading the lock cell or
// synchronizing the group.
func (s *Semaphore) State() int32 {
	return s.state
}

// Wait blocks the whole group until the wait thread observes status in
// the lock cell. It must be called by every thread of the group.
//
// It is a busy poll: each round is a group-wide AND over
// "state != status", and only the wait thread reloads between rounds.
// A final barrier makes the effects of the releasing group visible to
// every thread before Wait returns.
func (s *Semaphore) Wait(status int32) {
	var spins, polls int
	for s.bar.SyncAnd(s.state != status) {
		if polls > 0 && s.waitThread {
			delay(&spins)
		}
		s.Fetch()
		polls++
		if opt.Debug_ && polls > opt.SpinLimit_ {
			panic(fmt.Sprintf(
				"gridsync: wait for phase %d exceeded %d polls (last seen %d)",
				status, opt.SpinLimit_, s.state,
			))
		}
	}

	s.bar.Sync()
}

// Release publishes status in the lock cell once every thread of the
// group has reached it. It must be called by every thread of the group.
func (s *Semaphore) Release(status int32) {
	s.bar.Sync()

	if s.waitThread {
		s.lock.Store(status)
	}
}
