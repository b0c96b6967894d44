//go:build !amd64 && !arm64

package timing

import "sync/atomic"

func hardwareSource() Source {
	return nil
}

var fenceWord uint32

// Fence orders all memory operations issued before the call ahead of all
// operations issued after it. Without an architecture backend it uses a
// sequentially consistent read-modify-write, the strongest ordering
// portable Go can express.
func Fence() {
	atomic.AddUint32(&fenceWord, 0)
}
