// Package sampler executes workloads while timing them, reducing each
// run to one latency-per-access figure. Every timed region is bounded by
// memory fences and runs with the goroutine locked to its OS thread, so
// the counter readings bracket exactly the accesses under test.
package sampler

import (
	"runtime"

	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// A Sampler times workload traversals against one counter. Samplers are
// cheap values; probes create one per run.
type Sampler struct {
	source timing.Source
}

// New returns a Sampler reading the finest counter the machine offers.
func New() Sampler {
	return Sampler{source: timing.BestSource()}
}

// NewWithSource returns a Sampler reading src. Tests use it to feed
// scripted counter values.
func NewWithSource(src timing.Source) Sampler {
	if src == nil {
		panic("a sampler needs a timing source")
	}

	return Sampler{source: src}
}

// Source returns the counter the sampler reads.
func (s Sampler) Source() timing.Source {
	return s.source
}

// TimeChase follows the chain of next-slot links for iterations
// traversals of accesses steps each, back to back in one timed region,
// and returns the average ticks per access. Each load's address depends
// on the previous load's value, so the region serializes on memory
// latency. The accesses count is a multiple of the cycle length for
// every probe, so every traversal begins at the same element.
func (s Sampler) TimeChase(
	links []uint64,
	start uint64,
	accesses, iterations int,
) float64 {
	steps := accesses * iterations
	idx := start

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timing.Fence()
	begin := s.source.Now()
	timing.Fence()

	for i := 0; i < steps; i++ {
		idx = links[idx]
	}

	timing.Fence()
	end := s.source.Now()

	timing.KeepSink(idx)
	runtime.KeepAlive(links)

	return float64(end-begin) / float64(steps)
}

// TimeStride reads one byte every stride bytes across buf, iterations
// passes back to back in one timed region, and returns the average ticks
// per access. The reads accumulate into a sum that is published after
// the region, so none of them can be elided.
func (s Sampler) TimeStride(buf []byte, stride, iterations int) float64 {
	accesses := workload.StrideScan{Buf: buf, Stride: stride}.Accesses()
	limit := accesses * stride

	var sum byte

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timing.Fence()
	begin := s.source.Now()
	timing.Fence()

	for it := 0; it < iterations; it++ {
		for off := 0; off < limit; off += stride {
			sum += buf[off]
		}
	}

	timing.Fence()
	end := s.source.Now()

	timing.KeepSink(uint64(sum))
	runtime.KeepAlive(buf)

	return float64(end-begin) / float64(iterations*accesses)
}

// TimeConflict reads the set's way addresses round-robin, passes times
// per iteration, iterations iterations in one timed region, and returns
// the average ticks per access. With more ways than the cache's
// associativity the set's lines evict each other on every lap.
func (s Sampler) TimeConflict(
	set workload.ConflictSet,
	passes, iterations int,
) float64 {
	buf := set.Buf
	laps := iterations * passes

	var sum byte

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timing.Fence()
	begin := s.source.Now()
	timing.Fence()

	for lap := 0; lap < laps; lap++ {
		for w := 0; w < set.Ways; w++ {
			sum += buf[w*set.SetStride]
		}
	}

	timing.Fence()
	end := s.source.Now()

	timing.KeepSink(uint64(sum))
	runtime.KeepAlive(buf)

	return float64(end-begin) / float64(laps*set.Ways)
}
