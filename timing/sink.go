package timing

// Sink absorbs the values that measurement loops accumulate. Publishing
// the running value here keeps the compiler from discarding the memory
// reads that produced it, which would empty the timed region.
var Sink uint64

// KeepSink publishes v to Sink.
func KeepSink(v uint64) {
	Sink = v
}
