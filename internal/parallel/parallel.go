// Package parallel provides the fork-join worker pool used by layer kernels.
package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// DefaultMaxThreads bounds the pool size when Config.MaxThreads is unset.
const DefaultMaxThreads = 64

// Config controls parallel execution behavior.
type Config struct {
	Threads    int  // Worker goroutines to start; 0 means one per logical core.
	MaxThreads int  // Upper bound on Threads; 0 means DefaultMaxThreads.
	Unroll     bool // Enables the double-vector arithmetic tier.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		Threads:    HostThreads(),
		MaxThreads: DefaultMaxThreads,
		Unroll:     true,
	}
}

// HostThreads reports the number of logical cores available to the process.
func HostThreads() int {
	n := runtime.NumCPU()
	if lc := cpuid.CPU.LogicalCores; lc > 0 && lc < n {
		// NumCPU honours the affinity mask; cpuid reports the package.
		// Take the smaller so containers pinned to a subset are respected.
		n = lc
	}
	return max(n, 1)
}

// threads resolves the effective worker count for cfg.
func (cfg Config) threads() int {
	limit := cfg.MaxThreads
	if limit <= 0 {
		limit = DefaultMaxThreads
	}
	n := cfg.Threads
	if n <= 0 {
		n = HostThreads()
	}
	return min(max(n, 1), limit)
}

// Range returns the half-open iteration range [begin, end) owned by thread t
// when its iterations are split across threads workers. Every thread gets
// its/threads iterations; the last one also absorbs the remainder, so the
// ranges are disjoint and cover [0, its) exactly once.
func Range(its, threads, t int) (begin, end int) {
	chunk := its / threads
	begin = chunk * t
	if t == threads-1 {
		return begin, its
	}
	return begin, begin + chunk
}

// For executes fn over [0, its) split into one contiguous range per
// dispatcher thread, then waits for all of them.
// Threads whose range is empty are not dispatched.
//
// fn must only write state owned by its range.
func For(d *Dispatcher, its int, fn func(begin, end int)) {
	threads := d.Threads()
	for t := 0; t < threads; t++ {
		begin, end := Range(its, threads, t)
		if begin == end {
			continue
		}
		d.Add(func() {
			fn(begin, end)
		})
	}
	d.Join()
}
