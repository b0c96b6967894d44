package workload

import "math/rand"

// A PageChase is a pointer chase laid out at page granularity. The slots
// slice spans many pages, and the chase touches the first slot of each
// page exactly once per lap, in random page order. The first-slot rule
// keeps the cache footprint to one line per page, so traversal cost is
// dominated by address translation rather than data caching.
type PageChase struct {
	// Slots is the backing array. Only the first slot of each chased page
	// carries a link; the rest of the page is untouched padding.
	Slots []uint64

	// Start is the slot index where a traversal begins.
	Start uint64
}

// BuildPageChase writes a cyclic chase over the first n pages of slots,
// where each page holds slotsPerPage slots. The links visit the pages in
// the order of a Fisher-Yates shuffle drawn from rng. Links are written
// in place, so reusing the same slots slice across calls avoids
// reallocating the backing pages.
func BuildPageChase(slots []uint64, n, slotsPerPage int, rng *rand.Rand) PageChase {
	if n < 1 {
		panic("a page chase needs at least one page")
	}

	if slotsPerPage < 1 {
		panic("a page must hold at least one slot")
	}

	if len(slots) < n*slotsPerPage {
		panic("slot slice is smaller than the chased pages")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for i := 0; i < n-1; i++ {
		slots[order[i]*slotsPerPage] = uint64(order[i+1] * slotsPerPage)
	}
	slots[order[n-1]*slotsPerPage] = uint64(order[0] * slotsPerPage)

	return PageChase{
		Slots: slots,
		Start: uint64(order[0] * slotsPerPage),
	}
}

// Walk follows the chase for steps links from its start slot and returns
// the slot index it lands on. Probes use it for untimed warm-up laps.
func (p PageChase) Walk(steps int) uint64 {
	idx := p.Start
	for i := 0; i < steps; i++ {
		idx = p.Slots[idx]
	}

	return idx
}
