package fanout

import (
	"context"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultWidth is the number of tasks a bounded pool runs at once.
const DefaultWidth = 5

// ErrDeadlineExceeded is returned when a pool stops waiting for its tasks.
// It is distinct from the per-task errors, which only describe one task.
var ErrDeadlineExceeded = platformerrors.New(platformerrors.CodeTimeout, "fan-out deadline exceeded")

// Task is one unit of work dispatched by a Pool.
type Task func(ctx context.Context) error

// Pool runs a batch of tasks and waits for them.
//
// Run returns one error per task, in task order, once every task finished.
// The second return value is fatal for the batch: the timeout elapsed or
// the parent context was cancelled before all tasks completed. In that case
// the per-task slice is nil.
type Pool interface {
	Run(ctx context.Context, tasks []Task, timeout time.Duration) ([]error, error)
}

// boundedPool runs tasks on an errgroup limited to width goroutines.
type boundedPool struct {
	width int
}

// NewBounded returns a pool that runs at most width tasks concurrently.
// A non-positive width falls back to DefaultWidth.
func NewBounded(width int) Pool {
	if width <= 0 {
		width = DefaultWidth
	}
	return &boundedPool{width: width}
}

// Run implements Pool. Each call uses a fresh group, so no goroutines
// outlive the call except tasks still running after a deadline.
func (p *boundedPool) Run(ctx context.Context, tasks []Task, timeout time.Duration) ([]error, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	var g errgroup.Group
	g.SetLimit(p.width)

	// Each task owns one slot; the slice is read only after Wait returns.
	errs := make([]error, len(tasks))
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i, task := range tasks {
			g.Go(func() error {
				errs[i] = task(ctx)
				return nil
			})
		}
		_ = g.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return errs, nil
	case <-timer.C:
		return nil, platformerrors.Wrapf(ErrDeadlineExceeded, platformerrors.CodeTimeout, "gave up after %s", timeout)
	case <-ctx.Done():
		return nil, platformerrors.Wrap(ctx.Err(), platformerrors.CodeTimeout, "fan-out cancelled")
	}
}

// immediatePool runs tasks one after another on the calling goroutine.
type immediatePool struct{}

// Immediate returns a pool that executes tasks sequentially in order and
// ignores the timeout. It makes fan-out deterministic in tests.
func Immediate() Pool {
	return immediatePool{}
}

// Run implements Pool.
func (immediatePool) Run(ctx context.Context, tasks []Task, _ time.Duration) ([]error, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	errs := make([]error, len(tasks))
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, platformerrors.Wrap(err, platformerrors.CodeTimeout, "fan-out cancelled")
		}
		errs[i] = task(ctx)
	}
	return errs, nil
}

// Result is the outcome of one node's task in Collect.
type Result[R any] struct {
	Value R
	Err   error
}

// Collect runs fn once per node on pool and returns the value and error per
// node. Values are written to per-node slots by the tasks and merged into
// the map on the calling goroutine after the pool drains.
func Collect[T comparable, R any](
	ctx context.Context,
	pool Pool,
	nodes []T,
	timeout time.Duration,
	fn func(ctx context.Context, node T) (R, error),
) (map[T]Result[R], error) {
	values := make([]R, len(nodes))
	tasks := make([]Task, len(nodes))
	for i, node := range nodes {
		tasks[i] = func(ctx context.Context) error {
			v, err := fn(ctx, node)
			values[i] = v
			return err
		}
	}

	errs, err := pool.Run(ctx, tasks, timeout)
	if err != nil {
		return nil, err
	}

	results := make(map[T]Result[R], len(nodes))
	for i, node := range nodes {
		results[node] = Result[R]{Value: values[i], Err: errs[i]}
	}
	return results, nil
}

// Each runs fn once per node on pool and returns the error per node.
func Each[T comparable](
	ctx context.Context,
	pool Pool,
	nodes []T,
	timeout time.Duration,
	fn func(ctx context.Context, node T) error,
) (map[T]error, error) {
	results, err := Collect(ctx, pool, nodes, timeout, func(ctx context.Context, node T) (struct{}, error) {
		return struct{}{}, fn(ctx, node)
	})
	if err != nil {
		return nil, err
	}

	errs := make(map[T]error, len(results))
	for node, r := range results {
		errs[node] = r.Err
	}
	return errs, nil
}
