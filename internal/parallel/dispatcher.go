package parallel

import (
	"sync"
	"sync/atomic"
)

// Dispatcher is a fixed-size pool of worker goroutines executing fork-join
// batches: tasks are queued with Add and Join blocks until the batch is done.
//
// A Dispatcher is created once per model and reused for every layer. Batches
// must not overlap: callers add a batch, Join it, and only then add the next.
// Add and Join are meant to be called from a single goroutine.
//
// Tasks cannot report failure. A panicking task is a defect and takes the
// process down, exactly as an unrecovered panic in any goroutine would.
type Dispatcher struct {
	threads  int
	unroll   bool
	tasks    chan func()
	wg       sync.WaitGroup // Tracks tasks of the current batch
	stopOnce sync.Once
	closed   atomic.Bool
}

// NewDispatcher starts cfg's worker goroutines.
//
// Example:
//
//	d := parallel.NewDispatcher(parallel.DefaultConfig())
//	defer d.Close()
func NewDispatcher(cfg Config) *Dispatcher {
	n := cfg.threads()
	d := &Dispatcher{
		threads: n,
		unroll:  cfg.Unroll,
		tasks:   make(chan func(), n),
	}
	for i := 0; i < n; i++ {
		go d.worker()
	}
	return d
}

// worker runs tasks until the queue is closed.
func (d *Dispatcher) worker() {
	for task := range d.tasks {
		task()
		d.wg.Done()
	}
}

// Threads returns the number of worker goroutines.
func (d *Dispatcher) Threads() int {
	return d.threads
}

// Unroll reports whether kernels may use the double-vector arithmetic tier.
func (d *Dispatcher) Unroll() bool {
	return d.unroll
}

// Add queues task in the current batch. It may block until a worker is free.
// Panics if the dispatcher is closed.
func (d *Dispatcher) Add(task func()) {
	if d.closed.Load() {
		panic("parallel: Add on closed dispatcher")
	}
	d.wg.Add(1) // Increment counter BEFORE submitting
	d.tasks <- task
}

// Join blocks until every task added since the previous Join has completed.
func (d *Dispatcher) Join() {
	d.wg.Wait()
}

// Close waits for in-flight tasks and stops the workers.
// Calling Close more than once is safe.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		d.wg.Wait()
		d.closed.Store(true)
		close(d.tasks)
	})
}
