package workload

// A StrideScan reads one byte every Stride bytes across Buf, wrapping at
// the end. Sequential strided reads expose the line-fill and
// page-translation cost of the level being probed.
type StrideScan struct {
	Buf    []byte
	Stride int
}

// Accesses returns how many reads one pass of the scan performs.
func (s StrideScan) Accesses() int {
	if s.Stride < 1 {
		panic("scan stride must be positive")
	}

	return len(s.Buf) / s.Stride
}

// NewScanBuffer allocates a buffer of n bytes and writes every byte, so
// that the pages backing it are populated before any timed pass.
func NewScanBuffer(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}

	return buf
}

// TouchPages writes one byte every step bytes across buf, forcing the
// kernel to populate the backing pages without filling the caches the way
// a full write would.
func TouchPages(buf []byte, step int) {
	if step < 1 {
		panic("touch step must be positive")
	}

	for i := 0; i < len(buf); i += step {
		buf[i] = byte(i)
	}
}
