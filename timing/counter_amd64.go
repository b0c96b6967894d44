package timing

// tscSource reads the processor's time-stamp counter.
type tscSource struct{}

func (tscSource) Now() Ticks {
	return Ticks(readTSC())
}

func (tscSource) Name() string {
	return "tsc"
}

func hardwareSource() Source {
	return tscSource{}
}

// readTSC returns the time-stamp counter. The read is preceded by a load
// fence so that it cannot complete before earlier memory operations.
func readTSC() uint64

// Fence orders all memory operations issued before the call ahead of all
// operations issued after it.
func Fence()
