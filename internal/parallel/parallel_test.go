package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	tests := []struct {
		its, threads, t int
		begin, end      int
	}{
		{10, 3, 0, 0, 3},
		{10, 3, 1, 3, 6},
		{10, 3, 2, 6, 10}, // last thread absorbs the remainder
		{4, 4, 3, 3, 4},
		{2, 4, 0, 0, 0},
		{2, 4, 3, 0, 2},
		{0, 2, 1, 0, 0},
	}

	for _, tt := range tests {
		begin, end := Range(tt.its, tt.threads, tt.t)
		assert.Equal(t, tt.begin, begin, "Range(%d, %d, %d) begin", tt.its, tt.threads, tt.t)
		assert.Equal(t, tt.end, end, "Range(%d, %d, %d) end", tt.its, tt.threads, tt.t)
	}
}

func TestRangeCoversExactlyOnce(t *testing.T) {
	for its := 0; its <= 70; its++ {
		for threads := 1; threads <= 9; threads++ {
			hits := make([]int, its)
			prevEnd := 0
			for tid := 0; tid < threads; tid++ {
				begin, end := Range(its, threads, tid)
				require.LessOrEqual(t, begin, end)
				if begin != end {
					require.Equal(t, prevEnd, begin, "ranges must be contiguous")
					prevEnd = end
				}
				for i := begin; i < end; i++ {
					hits[i]++
				}
			}
			for i, h := range hits {
				require.Equal(t, 1, h, "its=%d threads=%d index %d", its, threads, i)
			}
		}
	}
}

func TestFor(t *testing.T) {
	d := NewDispatcher(Config{Threads: 4})
	defer d.Close()

	var counter int64
	n := 1000

	For(d, n, func(begin, end int) {
		atomic.AddInt64(&counter, int64(end-begin))
	})

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_DisjointWrites(t *testing.T) {
	d := NewDispatcher(Config{Threads: 3})
	defer d.Close()

	out := make([]int, 101)
	For(d, len(out), func(begin, end int) {
		for i := begin; i < end; i++ {
			out[i] += i
		}
	})

	for i, v := range out {
		assert.Equal(t, i, v)
	}
}

func TestFor_SkipsEmptyRanges(t *testing.T) {
	d := NewDispatcher(Config{Threads: 8})
	defer d.Close()

	var calls int64
	For(d, 3, func(begin, end int) {
		assert.Less(t, begin, end)
		atomic.AddInt64(&calls, 1)
	})

	// 3/8 == 0, so only the last thread owns any work.
	assert.Equal(t, int64(1), calls)

	For(d, 0, func(_, _ int) {
		atomic.AddInt64(&calls, 1)
	})
	assert.Equal(t, int64(1), calls)
}

func TestDispatcher_RepeatedBatches(t *testing.T) {
	d := NewDispatcher(Config{Threads: 4})
	defer d.Close()

	var counter int64
	for batch := 1; batch <= 50; batch++ {
		for i := 0; i < 10; i++ {
			d.Add(func() {
				atomic.AddInt64(&counter, 1)
			})
		}
		d.Join()
		require.Equal(t, int64(batch*10), atomic.LoadInt64(&counter))
	}
}

func TestDispatcher_Threads(t *testing.T) {
	tests := []struct {
		cfg  Config
		want int
	}{
		{Config{Threads: 1}, 1},
		{Config{Threads: 6}, 6},
		{Config{Threads: 6, MaxThreads: 2}, 2},
		{Config{Threads: 500}, DefaultMaxThreads},
		{Config{Threads: -3, MaxThreads: 1}, 1},
	}

	for _, tt := range tests {
		d := NewDispatcher(tt.cfg)
		assert.Equal(t, tt.want, d.Threads(), "%+v", tt.cfg)
		d.Close()
	}
}

func TestDispatcher_DefaultThreadsWithinBounds(t *testing.T) {
	d := NewDispatcher(Config{})
	defer d.Close()

	assert.GreaterOrEqual(t, d.Threads(), 1)
	assert.LessOrEqual(t, d.Threads(), DefaultMaxThreads)
}

func TestDispatcher_CloseIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Threads: 2})
	d.Close()
	d.Close()

	assert.Panics(t, func() { d.Add(func() {}) })
}

func TestDispatcher_CloseFromOtherGoroutine(t *testing.T) {
	d := NewDispatcher(Config{Threads: 2})

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	<-closed

	panicked := make(chan bool)
	go func() {
		defer func() { panicked <- recover() != nil }()
		d.Add(func() {})
	}()
	assert.True(t, <-panicked, "Add after Close in another goroutine must panic")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.GreaterOrEqual(t, cfg.Threads, 1)
	assert.Equal(t, DefaultMaxThreads, cfg.MaxThreads)
	assert.True(t, cfg.Unroll)
	assert.GreaterOrEqual(t, HostThreads(), 1)
}

func BenchmarkFor(b *testing.B) {
	n := 10000
	data := make([]float32, n)

	b.Run("parallel", func(b *testing.B) {
		d := NewDispatcher(DefaultConfig())
		defer d.Close()
		for i := 0; i < b.N; i++ {
			For(d, n, func(begin, end int) {
				for j := begin; j < end; j++ {
					data[j] += 1
				}
			})
		}
	})

	b.Run("sequential", func(b *testing.B) {
		d := NewDispatcher(Config{Threads: 1})
		defer d.Close()
		for i := 0; i < b.N; i++ {
			For(d, n, func(begin, end int) {
				for j := begin; j < end; j++ {
					data[j] += 1
				}
			})
		}
	})
}
