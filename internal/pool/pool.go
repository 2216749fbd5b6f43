// Package pool hosts the goroutines that run the heuristic driver's K
// replicas, reused round after round rather than spawned fresh on every
// call: a driver instance backing a long-lived C ABI handle may see
// call_algorithm invoked many times over its lifetime, and paying goroutine
// startup cost on every one of those calls would dwarf the cost of a single
// fix-and-propagate dive for small problems.
package pool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkerPool manages exactly `replicas` goroutines pulling from a shared
// task channel. The channel is sized to `replicas`, not some generic
// multiple: RunAll is this pool's only caller, and it never submits more
// than one task per replica in a single round, so a buffer any larger would
// just be unused capacity and a buffer any smaller would make Submit block
// on a worker instead of an empty slot for no benefit.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a pool sized to host exactly replicas goroutines,
// one per replica the driver's Setup allocated. replicas <= 0 is treated as
// a single worker: a pool backing zero replicas would never run anything,
// and resolveReplicaCount already guarantees at least 1.
func NewWorkerPool(replicas int) *WorkerPool {
	if replicas <= 0 {
		replicas = 1
	}

	wp := &WorkerPool{
		maxWorkers:   replicas,
		taskChan:     make(chan func(), replicas),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < replicas; i++ {
		wp.workerWg.Add(1)
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()
	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit enqueues task, blocking until a buffer slot is available, ctx is
// cancelled, or the pool is shut down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops accepting tasks and waits for running workers to drain.
// Called once, from Driver.Close, when a driver's handle is released.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		close(wp.taskChan)
		wp.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned by Submit once the pool has been shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// RunAll is the join-barrier entry point the driver uses once per dive
// round: it submits one task per replica and blocks until every one of them
// has returned, regardless of submission order. Replicas never communicate
// with each other during this call; each tasks[i] closure owns its own
// replica's view and result exclusively, so there is nothing to synchronise
// beyond the join itself. len(tasks) is expected to be at most the pool's
// replica count — RunAll does not grow the pool to match a larger batch,
// it is not a general-purpose scheduler. A cancelled ctx only stops tasks
// that have not yet been dispatched to a worker; it never interrupts one
// already running.
func (wp *WorkerPool) RunAll(ctx context.Context, tasks []func()) {
	var g errgroup.Group
	for _, task := range tasks {
		t := task
		g.Go(func() error {
			done := make(chan struct{})
			if err := wp.Submit(ctx, func() {
				t()
				close(done)
			}); err != nil {
				return err
			}
			<-done
			return nil
		})
	}
	_ = g.Wait()
}
