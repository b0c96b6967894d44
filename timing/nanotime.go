package timing

import (
	_ "unsafe" // for go:linkname
)

//go:linkname nanotime runtime.nanotime
func nanotime() int64

// nanoSource reads the runtime's monotonic clock. It is coarser than a
// cycle counter and each reading costs a call, but it exists on every
// platform, so it serves as the portable fallback.
type nanoSource struct{}

func (nanoSource) Now() Ticks {
	return Ticks(nanotime())
}

func (nanoSource) Name() string {
	return "nanotime"
}
