package match

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// Direction tells the scan which end of the score range is better.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// better reports whether candidate strictly improves on best. Equal scores
// never replace, which keeps the first offset in row-major order.
func (d Direction) better(candidate, best float64) bool {
	if d == Maximize {
		return candidate > best
	}
	return candidate < best
}

// kernel scores every window of one row of offsets. scoreRow must be safe
// to call concurrently for distinct y.
type kernel interface {
	scoreRow(y int, dst []float64)
}

// ScanBackend identifies how the offset rows are distributed.
type ScanBackend int

const (
	ScanBackendSerial ScanBackend = iota
	ScanBackendParallel
)

func (b ScanBackend) String() string {
	switch b {
	case ScanBackendSerial:
		return "serial"
	case ScanBackendParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ProgressFunc is told how many offset rows are finished out of total. In
// the parallel backend it is called from worker goroutines.
type ProgressFunc func(done, total int)

// Options tunes a search. The zero value is the canonical serial scan.
type Options struct {
	// Workers is the number of row bands scanned concurrently. 0 or 1 scans
	// serially; a negative value uses GOMAXPROCS.
	Workers int
	// SlidingHistogram updates the window histogram column by column
	// instead of recounting every window. Scores are identical.
	SlidingHistogram bool
	// Progress, if set, is called after each finished offset row.
	Progress ProgressFunc
}

func (o Options) workers(rows int) int {
	n := o.Workers
	if n < 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > rows {
		n = rows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Result is the best offset found by a search.
type Result struct {
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Score      float64  `json:"score"`
	Strategy   Strategy `json:"strategy"`
	Candidates int      `json:"candidates"`
}

// best is a running best-offset accumulator. Parallel workers each own one,
// padded so neighbours do not share a cache line.
type best struct {
	x, y  int
	score float64
	found bool
	_     cpu.CacheLinePad
}

func (b *best) offer(x, y int, score float64, dir Direction) {
	if !b.found || dir.better(score, b.score) {
		b.x, b.y, b.score, b.found = x, y, score, true
	}
}

// scanRows evaluates rows [from, to) of offsets into acc.
func scanRows(ctx context.Context, k kernel, from, to, cols int, dir Direction, acc *best, step func()) error {
	scores := make([]float64, cols)
	for y := from; y < to; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		k.scoreRow(y, scores)
		for x, s := range scores {
			acc.offer(x, y, s, dir)
		}
		step()
	}
	return nil
}

// scan enumerates every offset (x, y) with 0 <= x < cols and 0 <= y < rows
// and returns the best one under dir.
func scan(ctx context.Context, k kernel, rows, cols int, dir Direction, opts Options) (best, error) {
	workers := opts.workers(rows)
	backend := ScanBackendSerial
	if workers > 1 {
		backend = ScanBackendParallel
	}
	slog.Debug("Scanning offsets", "backend", backend, "rows", rows, "cols", cols, "workers", workers)

	var done atomic.Int64
	step := func() {
		n := done.Add(1)
		if opts.Progress != nil {
			opts.Progress(int(n), rows)
		}
	}

	if backend == ScanBackendSerial {
		var acc best
		err := scanRows(ctx, k, 0, rows, cols, dir, &acc, step)
		return acc, err
	}

	// Contiguous bands merged in band order keep the row-major tie-break.
	bands := make([]best, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		from := rows * w / workers
		to := rows * (w + 1) / workers
		acc := &bands[w]
		g.Go(func() error {
			return scanRows(gctx, k, from, to, cols, dir, acc, step)
		})
	}
	if err := g.Wait(); err != nil {
		return best{}, err
	}

	var acc best
	for i := range bands {
		if bands[i].found {
			acc.offer(bands[i].x, bands[i].y, bands[i].score, dir)
		}
	}
	return acc, nil
}
