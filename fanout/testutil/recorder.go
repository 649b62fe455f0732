// Package testutil provides pool decorators for testing code built on the
// fanout package.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/jmgilman/go/localgit/fanout"
)

// Recorder is a fanout.Pool decorator that counts batches and tasks. It is
// safe for concurrent use.
type Recorder struct {
	Pool fanout.Pool

	mu      sync.Mutex
	batches int
	tasks   int
}

// Run implements fanout.Pool.
func (r *Recorder) Run(ctx context.Context, tasks []fanout.Task, timeout time.Duration) ([]error, error) {
	r.mu.Lock()
	r.batches++
	r.tasks += len(tasks)
	r.mu.Unlock()

	return r.Pool.Run(ctx, tasks, timeout)
}

// Counts returns the number of batches and tasks seen so far.
func (r *Recorder) Counts() (batches, tasks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches, r.tasks
}
