package timing

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// FallbackLineSize is the compile-time estimate of the cache line size in
// bytes, used when probing finds no signal. CacheLinePad is sized to the
// target architecture's line; on platforms where its size is zero the
// estimate is 64.
const FallbackLineSize = max(
	int(unsafe.Sizeof(cpu.CacheLinePad{})),
	64-65*int(unsafe.Sizeof(cpu.CacheLinePad{})),
)
