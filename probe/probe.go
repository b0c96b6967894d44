// Package probe infers the memory hierarchy of the machine it runs on by
// timing deliberately shaped access patterns. Each probe sweeps one
// hardware parameter over a list of candidate configurations, records the
// average access latency of each, and hands the resulting curve to a
// breakpoint detector. Probes report hardware's behavior, not its
// datasheet: a parameter that produces no clear breakpoint yields the
// probe's documented default.
package probe

import (
	"github.com/sarchlab/memprobe/detect"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	Named
	Hookable
	InvokeHook(ctx HookCtx)
}

// A Sweep describes one probe run: the parameter being swept and the
// candidate configurations, in sweep order.
type Sweep struct {
	Probe      string
	Unit       string
	Candidates []int
}

// A CurvePoint is the latency measured for one configuration of a sweep.
// For probes that normalize their measurements, Latency is the normalized
// value, the one the detector sees.
type CurvePoint struct {
	Config  int
	Latency float64
}

// A SweepResult carries the full latency curve of a completed sweep and
// the value the detector picked from it. Heuristic marks values whose
// measurement rests on an assumption the probe cannot verify.
type SweepResult struct {
	Sweep

	Curve     detect.Curve
	Value     int
	Heuristic bool
}

// ProbeBase provides the naming and hooking shared by all probes.
type ProbeBase struct {
	HookableBase
	name string
}

// NewProbeBase creates a ProbeBase with the given name.
func NewProbeBase(name string) *ProbeBase {
	b := new(ProbeBase)
	b.name = name
	return b
}

// Name returns the name of the probe.
func (b *ProbeBase) Name() string {
	return b.name
}

// Sizes holds the detected capacity of each cache level in bytes. A level
// that produced no detectable breakpoint is 0.
type Sizes struct {
	L1 int
	L2 int
	L3 int
}

// LineSize measures the cache line size in bytes.
func LineSize() int {
	p := MakeLineSizeProbeBuilder().Build("LineSizeProbe")
	return p.Run()
}

// CacheSizes measures the capacity of the data cache levels.
func CacheSizes() Sizes {
	p := MakeCacheSizeProbeBuilder().Build("CacheSizeProbe")
	return p.Run()
}

// Associativity measures the associativity of the L1 data cache in ways.
func Associativity() int {
	p := MakeAssociativityProbeBuilder().Build("AssociativityProbe")
	return p.Run()
}

// PageSize measures the virtual memory page size in bytes.
func PageSize() int {
	p := MakePageSizeProbeBuilder().Build("PageSizeProbe")
	return p.Run()
}

// TLBEntries measures how many pages the TLB covers. Translation latency
// is noisier than cache latency, so the measurement runs ten sweeps and
// returns the most common answer.
func TLBEntries(pageSize int) int {
	p := MakeTLBProbeBuilder().
		WithPageSize(pageSize).
		Build("TLBProbe")

	return MajorityVote{Trials: 10}.Decide(p.Run)
}
