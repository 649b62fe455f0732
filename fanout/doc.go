// Package fanout dispatches one unit of work per mirror node.
//
// A Pool runs a batch of tasks and blocks until they all complete or a
// deadline elapses. NewBounded runs at most a fixed number of tasks at once
// on a fresh errgroup per batch; Immediate runs them one by one on the
// calling goroutine for deterministic tests.
//
// A deadline expiry stops the wait, not the tasks: tasks already running
// keep going in the background and their results are discarded. Callers
// receive ErrDeadlineExceeded, which is separate from the per-task errors.
//
// Each adapts a Pool to a list of comparable nodes:
//
//	results, err := fanout.Each(ctx, pool, mirrors, 30*time.Minute,
//	    func(ctx context.Context, m Mirror) error {
//	        return push(ctx, m)
//	    })
//	if err != nil {
//	    return err // deadline
//	}
//	for m, pushErr := range results {
//	    ...
//	}
package fanout
