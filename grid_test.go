package gridsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLaunch_AllThreads(t *testing.T) {
	grid := Grid{Blocks: 5, Threads: 7}
	var seen [5][7]atomic.Int32

	err := Launch(context.Background(), grid, func(th Thread) error {
		if th.Group.Threads() != grid.Threads {
			return errors.New("wrong group size")
		}
		seen[th.Block][th.Index].Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for b := range seen {
		for i := range seen[b] {
			if n := seen[b][i].Load(); n != 1 {
				t.Errorf("thread (%d,%d) ran %d times", b, i, n)
			}
		}
	}
}

func TestLaunch_SharedGroupPerBlock(t *testing.T) {
	grid := Grid{Blocks: 3, Threads: 4}
	groups := make([][]*Group, grid.Blocks)
	for b := range groups {
		groups[b] = make([]*Group, grid.Threads)
	}

	err := Launch(context.Background(), grid, func(th Thread) error {
		groups[th.Block][th.Index] = th.Group
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for b := range groups {
		for i, g := range groups[b] {
			if g != groups[b][0] {
				t.Errorf("block %d thread %d has a different group", b, i)
			}
		}
		if b > 0 && groups[b][0] == groups[b-1][0] {
			t.Errorf("blocks %d and %d share a group", b-1, b)
		}
	}
}

func TestLaunch_ResidentWaves(t *testing.T) {
	const resident = 2
	var lock Cell
	var active, peak atomic.Int32

	grid := Grid{Blocks: 8, Threads: 3, Resident: resident}
	err := Launch(context.Background(), grid, func(th Thread) error {
		if th.Index == 0 {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
		}
		// Phases follow block order, so the group owning the next phase
		// is always resident or already done.
		s := th.Semaphore(&lock)
		s.Wait(int32(th.Block))
		time.Sleep(time.Millisecond)
		if th.Index == 0 {
			active.Add(-1)
		}
		s.Release(int32(th.Block + 1))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > resident {
		t.Fatalf("peak resident groups = %d, want <= %d", p, resident)
	}
	if v := lock.Load(); v != 8 {
		t.Fatalf("final phase = %d, want 8", v)
	}
}

func TestLaunch_KernelError(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int32

	grid := Grid{Blocks: 8, Threads: 2, Resident: 1}
	err := Launch(context.Background(), grid, func(th Thread) error {
		if th.Index == 0 {
			started.Add(1)
		}
		if th.Block == 0 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Launch = %v, want %v", err, boom)
	}
	// The block queued behind the failing one may still start.
	if n := started.Load(); n > 2 {
		t.Fatalf("%d groups started after the first failed", n)
	}
}

func TestLaunch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var started atomic.Int32
	err := Launch(ctx, Grid{Blocks: 4, Threads: 2}, func(Thread) error {
		started.Add(1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Launch = %v, want %v", err, context.Canceled)
	}
	if n := started.Load(); n != 0 {
		t.Fatalf("%d threads ran under a cancelled context", n)
	}
}

func TestGrid_Validate(t *testing.T) {
	for _, g := range []Grid{
		{Blocks: 0, Threads: 1},
		{Blocks: 1, Threads: 0},
		{Blocks: -1, Threads: -1},
	} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%+v: expected panic", g)
				}
			}()
			g.Validate()
		}()
	}
}
