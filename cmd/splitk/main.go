// Command splitk runs a split-K matrix-vector product on gridsync.
//
// Each output row is a tile. Its dot product is split over -splits
// groups, and the groups of a tile accumulate their partial sums in phase
// order through one lock cell per tile, inside a single launch. The
// result is checked against a sequential product.
//
// Usage:
//
//	splitk [-rows n] [-cols n] [-splits n] [-threads n] [-resident n] [-seed n] [-shuffle] [-v]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/llxisdsh/gridsync"
)

type config struct {
	rows     int
	cols     int
	splits   int
	threads  int
	resident int
	seed     uint64
	shuffle  bool
}

func (c config) validate() error {
	if c.rows <= 0 || c.cols <= 0 || c.splits <= 0 || c.threads <= 0 {
		return errors.New("rows, cols, splits and threads must be positive")
	}
	if c.splits > c.cols {
		return fmt.Errorf("%d splits exceed %d columns", c.splits, c.cols)
	}
	// With shuffled phases a resident group may wait on one that has not
	// started yet.
	if c.shuffle && c.resident > 0 && c.resident < c.rows*c.splits {
		return fmt.Errorf("shuffled phases need all %d groups resident, got %d", c.rows*c.splits, c.resident)
	}
	return nil
}

// problem is a rows×cols matrix and a cols vector of small integers.
type problem struct {
	a [][]int64
	x []int64
}

func newProblem(cfg config) problem {
	r := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	p := problem{a: make([][]int64, cfg.rows), x: make([]int64, cfg.cols)}
	for i := range p.a {
		p.a[i] = make([]int64, cfg.cols)
		for j := range p.a[i] {
			p.a[i][j] = r.Int64N(201) - 100
		}
	}
	for j := range p.x {
		p.x[j] = r.Int64N(201) - 100
	}
	return p
}

func (p problem) sequential() []int64 {
	y := make([]int64, len(p.a))
	for i, row := range p.a {
		for j, v := range row {
			y[i] += v * p.x[j]
		}
	}
	return y
}

// phases returns the phase of each split of a tile. Without shuffle split
// k owns phase k; with it the assignment is a seeded permutation, so the
// accumulation order differs from the launch order.
func phases(cfg config) []int32 {
	ph := make([]int32, cfg.splits)
	for i := range ph {
		ph[i] = int32(i)
	}
	if cfg.shuffle {
		r := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
		r.Shuffle(len(ph), func(i, j int) { ph[i], ph[j] = ph[j], ph[i] })
	}
	return ph
}

func run(ctx context.Context, cfg config, log *zap.Logger) ([]int64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := newProblem(cfg)
	ph := phases(cfg)
	chunk := (cfg.cols + cfg.splits - 1) / cfg.splits

	locks := gridsync.NewWorkspace(cfg.rows)
	locks.Reset(0)
	y := make([]int64, cfg.rows)
	partials := make([][]int64, cfg.rows*cfg.splits)
	for i := range partials {
		partials[i] = make([]int64, cfg.threads)
	}

	grid := gridsync.Grid{Blocks: cfg.rows * cfg.splits, Threads: cfg.threads, Resident: cfg.resident}
	log.Info("launching",
		zap.Int("groups", grid.Blocks),
		zap.Int("threads", grid.Threads),
		zap.Int("resident", grid.Resident),
		zap.Int32s("phases", ph),
	)

	err := gridsync.Launch(ctx, grid, func(t gridsync.Thread) error {
		row, split := t.Block/cfg.splits, t.Block%cfg.splits
		lo, hi := split*chunk, min((split+1)*chunk, cfg.cols)

		var sum int64
		for j := lo + t.Index; j < hi; j += cfg.threads {
			sum += p.a[row][j] * p.x[j]
		}
		partials[t.Block][t.Index] = sum

		s := t.Semaphore(locks.At(row))
		s.Wait(ph[split])
		if t.Index == 0 {
			for _, v := range partials[t.Block] {
				y[row] += v
			}
			log.Debug("accumulated",
				zap.Int("row", row),
				zap.Int("split", split),
				zap.Int32("phase", ph[split]),
				zap.Int64("acc", y[row]),
			)
		}
		s.Release(ph[split] + 1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}

	want := p.sequential()
	for i := range y {
		if y[i] != want[i] {
			return y, fmt.Errorf("row %d: got %d, want %d", i, y[i], want[i])
		}
		if v := locks.At(i).Load(); v != int32(cfg.splits) {
			return y, fmt.Errorf("row %d: lock at phase %d, want %d", i, v, cfg.splits)
		}
	}
	return y, nil
}

func main() {
	var cfg config
	flag.IntVar(&cfg.rows, "rows", 4, "output rows (tiles)")
	flag.IntVar(&cfg.cols, "cols", 1024, "reduction length")
	flag.IntVar(&cfg.splits, "splits", 8, "groups per row")
	flag.IntVar(&cfg.threads, "threads", 32, "threads per group")
	flag.IntVar(&cfg.resident, "resident", 0, "max concurrently running groups (0: all)")
	flag.Uint64Var(&cfg.seed, "seed", 1, "input seed")
	flag.BoolVar(&cfg.shuffle, "shuffle", false, "assign phases to splits in random order")
	verbose := flag.Bool("v", false, "log every accumulation")
	flag.Parse()

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := zcfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	y, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("splitk failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("done", zap.Int64s("y", y))
}
