package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedPool(t *testing.T) {
	t.Run("returns per task errors in order", func(t *testing.T) {
		boom := errors.New("boom")
		tasks := []Task{
			func(context.Context) error { return nil },
			func(context.Context) error { return boom },
			func(context.Context) error { return nil },
		}

		errs, err := NewBounded(2).Run(context.Background(), tasks, time.Minute)
		require.NoError(t, err)
		require.Len(t, errs, 3)
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], boom)
		assert.NoError(t, errs[2])
	})

	t.Run("limits concurrency", func(t *testing.T) {
		var running, peak int32
		tasks := make([]Task, 20)
		for i := range tasks {
			tasks[i] = func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			}
		}

		_, err := NewBounded(3).Run(context.Background(), tasks, time.Minute)
		require.NoError(t, err)
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
		assert.Positive(t, atomic.LoadInt32(&peak))
	})

	t.Run("deadline is fatal and distinct", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		tasks := []Task{
			func(context.Context) error {
				<-release
				return nil
			},
		}

		errs, err := NewBounded(1).Run(context.Background(), tasks, 10*time.Millisecond)
		require.Error(t, err)
		assert.Nil(t, errs)
		assert.ErrorIs(t, err, ErrDeadlineExceeded)
		assert.Equal(t, platformerrors.CodeTimeout, platformerrors.GetCode(err))
		assert.True(t, platformerrors.IsRetryable(err))
	})

	t.Run("parent cancellation stops the wait", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewBounded(1).Run(ctx, []Task{func(context.Context) error {
			<-release
			return nil
		}}, time.Minute)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty batch", func(t *testing.T) {
		errs, err := NewBounded(0).Run(context.Background(), nil, time.Minute)
		require.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestImmediatePool(t *testing.T) {
	var order []int
	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			order = append(order, i)
			return nil
		}
	}

	errs, err := Immediate().Run(context.Background(), tasks, 0)
	require.NoError(t, err)
	assert.Len(t, errs, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestEach(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	fail := errors.New("unreachable")

	var mu sync.Mutex
	visited := map[string]int{}

	results, err := Each(context.Background(), NewBounded(DefaultWidth), nodes, time.Minute,
		func(_ context.Context, node string) error {
			mu.Lock()
			visited[node]++
			mu.Unlock()
			if node == "b" {
				return fail
			}
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, visited)
	require.Len(t, results, 3)
	assert.NoError(t, results["a"])
	assert.ErrorIs(t, results["b"], fail)
	assert.NoError(t, results["c"])
}

func TestCollect(t *testing.T) {
	nodes := []string{"m0", "m1", "m2"}
	fail := errors.New("list failed")

	results, err := Collect(context.Background(), NewBounded(2), nodes, time.Minute,
		func(_ context.Context, node string) (int, error) {
			if node == "m1" {
				return 0, fail
			}
			return len(node) * 10, nil
		})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, Result[int]{Value: 20}, results["m0"])
	assert.ErrorIs(t, results["m1"].Err, fail)
	assert.Equal(t, 20, results["m2"].Value)
}

func TestCollectDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := Collect(context.Background(), NewBounded(1), []int{1}, 10*time.Millisecond,
		func(context.Context, int) (string, error) {
			<-release
			return "late", nil
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}
