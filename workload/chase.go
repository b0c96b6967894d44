// Package workload constructs the access sequences that probes traverse:
// randomized pointer chases, strided scans, and set-conflict address sets.
package workload

import "math/rand"

// A Chase is a cyclic pointer chase. The value at index i is the index of
// the element visited after i, and the links form a single cycle that
// covers every element exactly once. Each element occupies 8 bytes, so the
// footprint of a chase is 8 bytes per element.
//
// Visiting elements in random order defeats the address-arithmetic
// prefetching that would otherwise hide the latency of a predictable scan.
type Chase []uint64

// BuildChase returns a chase over count elements. The cycle visits the
// elements in the order of a Fisher-Yates shuffle drawn from rng, so a
// fixed seed reproduces the same chase.
func BuildChase(count int, rng *rand.Rand) Chase {
	if count < 1 {
		panic("a chase needs at least one element")
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}

	rng.Shuffle(count, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	chase := make(Chase, count)
	for i := 0; i < count-1; i++ {
		chase[order[i]] = uint64(order[i+1])
	}
	chase[order[count-1]] = uint64(order[0])

	return chase
}

// Walk follows the chase for steps links starting at start and returns
// the index it lands on. Probes use it for untimed warm-up laps.
func (c Chase) Walk(start uint64, steps int) uint64 {
	idx := start
	for i := 0; i < steps; i++ {
		idx = c[idx]
	}

	return idx
}
