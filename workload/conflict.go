package workload

// A ConflictSet is a group of addresses that all map to the same cache set
// on a conventionally indexed cache. The addresses sit SetStride bytes
// apart in Buf, so with a set stride that is a multiple of the cache's
// way size they compete for the same set's ways. Reading Ways such
// addresses in a loop stays fast while Ways is at most the associativity
// and slows once the set overflows.
type ConflictSet struct {
	Buf       []byte
	Ways      int
	SetStride int
}

// NewConflictSet allocates a buffer large enough for maxWays conflicting
// addresses setStride bytes apart and returns a set over the first ways
// of them. Every byte of the buffer is written so the backing pages are
// populated.
func NewConflictSet(ways, maxWays, setStride int) ConflictSet {
	if ways < 1 {
		panic("a conflict set needs at least one way")
	}

	if ways > maxWays {
		panic("conflict set ways exceed the buffer capacity")
	}

	if setStride < 1 {
		panic("set stride must be positive")
	}

	return ConflictSet{
		Buf:       NewScanBuffer(maxWays * setStride),
		Ways:      ways,
		SetStride: setStride,
	}
}

// Resize returns a set over the first ways addresses of the same buffer.
func (c ConflictSet) Resize(ways int) ConflictSet {
	if ways < 1 {
		panic("a conflict set needs at least one way")
	}

	if ways*c.SetStride > len(c.Buf) {
		panic("conflict set ways exceed the buffer capacity")
	}

	c.Ways = ways

	return c
}

// Addresses returns the byte offsets the set reads.
func (c ConflictSet) Addresses() []int {
	addrs := make([]int, c.Ways)
	for w := 0; w < c.Ways; w++ {
		addrs[w] = w * c.SetStride
	}

	return addrs
}
