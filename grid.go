package gridsync

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Grid describes a launch: Blocks thread-groups of Threads threads each.
//
// Resident caps how many groups run at the same time; the rest are
// started in block order as earlier groups finish, like waves on a device
// with limited occupancy. Resident <= 0 runs every group at once.
type Grid struct {
	Blocks   int
	Threads  int
	Resident int
}

// Validate panics if the grid has no blocks or no threads.
func (g Grid) Validate() {
	if g.Blocks <= 0 {
		panic("gridsync: blocks must be positive")
	}
	if g.Threads <= 0 {
		panic("gridsync: threads must be positive")
	}
}

// Thread identifies one goroutine of a launch.
type Thread struct {
	// Block is the index of the thread's group in the grid.
	Block int
	// Index is the thread's index within its group.
	Index int
	// Group is the barrier shared by the thread's group.
	Group *Group
}

// Semaphore returns a Semaphore over lock for this thread, with thread 0
// of the group as its wait thread.
func (t Thread) Semaphore(lock LockCell) Semaphore {
	return NewSemaphore(lock, t.Group, t.Index)
}

// Kernel is the body run by every thread of a launch.
//
// All threads of a group must reach the same sequence of barriers. A
// thread that returns while the rest of its group waits at a barrier
// stalls that group forever.
type Kernel func(t Thread) error

// Launch runs kernel on every thread of grid and waits for all of them.
//
// Groups are started in block order, at most grid.Resident at a time. It
// returns the first error returned by a kernel. Once ctx is done or a
// kernel has failed, no further group is started; groups already running
// are never interrupted. If no kernel failed but groups were skipped
// because ctx was done, the cause of ctx is returned.
//
// Launch does not return while a running group waits for a phase that
// only a group not yet started would release.
func Launch(ctx context.Context, grid Grid, kernel Kernel) error {
	grid.Validate()

	eg, egCtx := errgroup.WithContext(ctx)
	if grid.Resident > 0 {
		eg.SetLimit(grid.Resident)
	}

	launched := 0
	for b := range grid.Blocks {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return runBlock(b, grid.Threads, kernel)
		})
		launched++
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	if launched < grid.Blocks {
		return context.Cause(ctx)
	}
	return nil
}

func runBlock(block, threads int, kernel Kernel) error {
	g := NewGroup(threads)
	if threads == 1 {
		return kernel(Thread{Block: block, Group: g})
	}

	var eg errgroup.Group
	for i := range threads {
		eg.Go(func() error {
			return kernel(Thread{Block: block, Index: i, Group: g})
		})
	}
	return eg.Wait()
}
