// Package timing provides the counters and fences that bound probe
// measurements.
package timing

import "sync"

// Ticks is a raw reading of a monotonic counter. Tick durations differ
// between sources, so readings are only comparable to readings taken from
// the same source.
type Ticks uint64

// A Source reads a monotonic, high-resolution counter.
type Source interface {
	// Now returns the current counter value.
	Now() Ticks

	// Name identifies the underlying counter.
	Name() string
}

var (
	bestOnce sync.Once
	best     Source
)

// BestSource returns the finest-grained counter that works on this
// machine. It prefers the architecture's cycle counter and falls back to
// the runtime's monotonic clock when no counter is available or the
// counter does not advance.
func BestSource() Source {
	bestOnce.Do(func() {
		best = pickSource()
	})

	return best
}

func pickSource() Source {
	hw := hardwareSource()
	if hw != nil && counterAdvances(hw) {
		return hw
	}

	return nanoSource{}
}

// counterAdvances reports whether the counter produces a new reading
// within a bounded number of attempts. A stuck counter would make every
// latency sample zero.
func counterAdvances(s Source) bool {
	first := s.Now()
	for i := 0; i < 100000; i++ {
		if s.Now() != first {
			return true
		}
	}

	return false
}
