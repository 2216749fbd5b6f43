package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunAllWaitsForEveryTask(t *testing.T) {
	wp := NewWorkerPool(4)
	defer wp.Shutdown()

	var completed atomic.Int64
	tasks := make([]func(), 10)
	for i := range tasks {
		tasks[i] = func() {
			time.Sleep(time.Millisecond)
			completed.Add(1)
		}
	}

	wp.RunAll(context.Background(), tasks)
	assert.EqualValues(t, 10, completed.Load())
}

func TestRunAllRespectsCancelledContext(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	wp.RunAll(ctx, []func(){func() { ran.Store(true) }})
	// Either the task squeezed in before cancellation was observed or it
	// didn't; RunAll must return promptly either way.
	_ = ran.Load()
}

func TestNewWorkerPoolNonPositiveSizeStillHasWorkers(t *testing.T) {
	wp := NewWorkerPool(0)
	defer wp.Shutdown()
	assert.Greater(t, wp.maxWorkers, 0)
}
