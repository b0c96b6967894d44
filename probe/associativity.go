package probe

import (
	"github.com/sarchlab/memprobe/detect"
	"github.com/sarchlab/memprobe/sampler"
	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// An AssociativityProbe measures the associativity of the L1 data cache.
// It reads growing groups of addresses that alias into the same cache set
// and watches for the way count whose latency jumps the most: one past
// that count, the set overflows and every lap evicts its own lines.
//
// The probe addresses a set by spacing reads one page apart, which aliases
// correctly on caches whose way size is one page, the common L1 geometry.
// On other geometries the jump washes out and the fallback is reported.
type AssociativityProbe struct {
	*ProbeBase

	sampler    sampler.Sampler
	setStride  int
	slots      int
	ways       []int
	passes     int
	iterations int
	threshold  float64
	fallback   int
	budget     int
}

// AssociativityProbeBuilder can build associativity probes.
type AssociativityProbeBuilder struct {
	source     timing.Source
	setStride  int
	slots      int
	ways       []int
	passes     int
	iterations int
	threshold  float64
	fallback   int
	budget     int
}

// MakeAssociativityProbeBuilder returns a builder with the default sweep:
// 2 to 32 ways over page-spaced addresses.
func MakeAssociativityProbeBuilder() AssociativityProbeBuilder {
	return AssociativityProbeBuilder{
		setStride:  4096,
		slots:      48,
		ways:       []int{2, 4, 6, 8, 10, 12, 14, 16, 20, 24, 32},
		passes:     10000,
		iterations: 100,
		threshold:  1.3,
		fallback:   8,
	}
}

// WithSource sets the counter the probe times against.
func (b AssociativityProbeBuilder) WithSource(src timing.Source) AssociativityProbeBuilder {
	b.source = src
	return b
}

// WithSetStride sets the spacing of the conflicting addresses in bytes.
func (b AssociativityProbeBuilder) WithSetStride(n int) AssociativityProbeBuilder {
	b.setStride = n
	return b
}

// WithWays sets the candidate way counts, in ascending order.
func (b AssociativityProbeBuilder) WithWays(ways []int) AssociativityProbeBuilder {
	b.ways = ways
	return b
}

// WithPasses sets how many laps over the conflicting addresses one
// iteration times.
func (b AssociativityProbeBuilder) WithPasses(n int) AssociativityProbeBuilder {
	b.passes = n
	return b
}

// WithIterations sets how many timed iterations one sample accumulates.
func (b AssociativityProbeBuilder) WithIterations(n int) AssociativityProbeBuilder {
	b.iterations = n
	return b
}

// WithFallback sets the value reported when no way count stands out.
func (b AssociativityProbeBuilder) WithFallback(n int) AssociativityProbeBuilder {
	b.fallback = n
	return b
}

// WithMemoryBudget caps the probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b AssociativityProbeBuilder) WithMemoryBudget(n int) AssociativityProbeBuilder {
	b.budget = n
	return b
}

// Build creates an associativity probe.
func (b AssociativityProbeBuilder) Build(name string) *AssociativityProbe {
	if len(b.ways) == 0 {
		panic("an associativity probe needs at least one way count")
	}

	if b.ways[len(b.ways)-1] > b.slots {
		panic("way counts exceed the conflict buffer capacity")
	}

	if b.passes < 1 || b.iterations < 1 {
		panic("an associativity probe needs at least one timed pass")
	}

	budget := b.budget
	if budget == 0 {
		budget = availableMemory()
	}

	p := &AssociativityProbe{
		ProbeBase:  NewProbeBase(name),
		sampler:    makeSampler(b.source),
		setStride:  b.setStride,
		slots:      b.slots,
		ways:       b.ways,
		passes:     b.passes,
		iterations: b.iterations,
		threshold:  b.threshold,
		fallback:   b.fallback,
		budget:     budget,
	}

	return p
}

// Run sweeps the way counts and returns the detected associativity.
func (p *AssociativityProbe) Run() int {
	if p.slots*p.setStride > p.budget {
		return p.fallback
	}

	sweep := Sweep{Probe: p.Name(), Unit: "ways", Candidates: p.ways}
	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepStart, Item: sweep})

	set := workload.NewConflictSet(p.ways[0], p.slots, p.setStride)
	curve := make(detect.Curve, len(p.ways))

	for i, ways := range p.ways {
		set = set.Resize(ways)

		var warm byte
		for _, off := range set.Addresses() {
			warm += set.Buf[off]
		}
		timing.KeepSink(uint64(warm))

		curve[i] = p.sampler.TimeConflict(set, p.passes, p.iterations)

		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPoint,
			Item: CurvePoint{Config: ways, Latency: curve[i]}})
	}

	value := detect.MaxRatio(curve, p.ways, p.threshold, p.fallback)

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepDone,
		Item: SweepResult{Sweep: sweep, Curve: curve, Value: value,
			Heuristic: true}})

	return value
}
