package timing

// cntvctSource reads the virtual counter-timer, the monotonic counter
// that arm64 exposes to user space.
type cntvctSource struct{}

func (cntvctSource) Now() Ticks {
	return Ticks(readCNTVCT())
}

func (cntvctSource) Name() string {
	return "cntvct"
}

func hardwareSource() Source {
	return cntvctSource{}
}

// readCNTVCT returns CNTVCT_EL0. An instruction barrier before the read
// keeps it from being hoisted above earlier memory operations.
func readCNTVCT() uint64

// Fence orders all memory operations issued before the call ahead of all
// operations issued after it.
func Fence()
