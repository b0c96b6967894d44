package probe

import (
	"math/rand"

	"github.com/sarchlab/memprobe/detect"
	"github.com/sarchlab/memprobe/sampler"
	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// A CacheSizeProbe measures the capacity of the data cache levels. It
// times randomized pointer chases over growing footprints; the average
// access latency steps up each time a footprint outgrows a cache level,
// and the footprint just before each step is that level's capacity.
type CacheSizeProbe struct {
	*ProbeBase

	sampler    sampler.Sampler
	footprints []int
	iterations int
	seed       int64
	tiers      []detect.Tier
}

// A SizesResult carries the latency curve of a completed cache size sweep
// and the per-level capacities picked from it.
type SizesResult struct {
	Sweep

	Curve detect.Curve
	Sizes Sizes
}

// CacheSizeProbeBuilder can build cache size probes.
type CacheSizeProbeBuilder struct {
	source     timing.Source
	footprints []int
	iterations int
	seed       int64
	budget     int
}

// MakeCacheSizeProbeBuilder returns a builder with the default sweep:
// footprints from 4 KiB to 32 MiB, spaced so that common power-of-two and
// intermediate capacities both land exactly on a candidate.
func MakeCacheSizeProbeBuilder() CacheSizeProbeBuilder {
	return CacheSizeProbeBuilder{
		footprints: []int{
			4 * 1024, 8 * 1024, 16 * 1024, 32 * 1024, 48 * 1024,
			64 * 1024, 96 * 1024, 128 * 1024, 192 * 1024, 256 * 1024,
			384 * 1024, 512 * 1024, 768 * 1024, 1024 * 1024, 1536 * 1024,
			2 * 1024 * 1024, 3 * 1024 * 1024, 4 * 1024 * 1024,
			6 * 1024 * 1024, 8 * 1024 * 1024, 12 * 1024 * 1024,
			16 * 1024 * 1024, 24 * 1024 * 1024, 32 * 1024 * 1024,
		},
		iterations: 5,
		seed:       12345,
	}
}

// WithSource sets the counter the probe times against.
func (b CacheSizeProbeBuilder) WithSource(src timing.Source) CacheSizeProbeBuilder {
	b.source = src
	return b
}

// WithFootprints sets the candidate footprints in bytes, in ascending
// order.
func (b CacheSizeProbeBuilder) WithFootprints(footprints []int) CacheSizeProbeBuilder {
	b.footprints = footprints
	return b
}

// WithIterations sets how many chase traversals one sample times.
func (b CacheSizeProbeBuilder) WithIterations(n int) CacheSizeProbeBuilder {
	b.iterations = n
	return b
}

// WithSeed sets the seed of the chase layouts, so a run can be reproduced.
func (b CacheSizeProbeBuilder) WithSeed(seed int64) CacheSizeProbeBuilder {
	b.seed = seed
	return b
}

// WithMemoryBudget caps the probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b CacheSizeProbeBuilder) WithMemoryBudget(n int) CacheSizeProbeBuilder {
	b.budget = n
	return b
}

// Build creates a cache size probe. Footprints beyond the memory budget
// are dropped from the sweep.
func (b CacheSizeProbeBuilder) Build(name string) *CacheSizeProbe {
	if b.iterations < 1 {
		panic("a cache size probe needs at least one iteration")
	}

	budget := b.budget
	if budget == 0 {
		budget = availableMemory()
	}

	footprints := make([]int, 0, len(b.footprints))
	for _, f := range b.footprints {
		if f <= budget {
			footprints = append(footprints, f)
		}
	}

	p := &CacheSizeProbe{
		ProbeBase:  NewProbeBase(name),
		sampler:    makeSampler(b.source),
		footprints: footprints,
		iterations: b.iterations,
		seed:       b.seed,
		tiers: []detect.Tier{
			{MaxFootprint: 192 * 1024, Threshold: 1.3},
			{MinFootprint: 192 * 1024, MaxFootprint: 16 * 1024 * 1024, Threshold: 1.3},
			{MinFootprint: 4 * 1024 * 1024, Threshold: 1.5},
		},
	}

	return p
}

// Run sweeps the footprints and returns the detected cache sizes. Levels
// without a clear latency step report 0.
func (p *CacheSizeProbe) Run() Sizes {
	if len(p.footprints) == 0 {
		return Sizes{}
	}

	sweep := Sweep{Probe: p.Name(), Unit: "bytes", Candidates: p.footprints}
	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepStart, Item: sweep})

	rng := rand.New(rand.NewSource(p.seed))
	curve := make(detect.Curve, len(p.footprints))

	for i, footprint := range p.footprints {
		count := footprint / 8
		chase := workload.BuildChase(count, rng)
		chase.Walk(0, count)

		curve[i] = p.sampler.TimeChase(chase, 0, 4*count, p.iterations)

		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPoint,
			Item: CurvePoint{Config: footprint, Latency: curve[i]}})
	}

	levels := detect.Knee(curve, p.footprints, p.tiers)
	sizes := Sizes{L1: levels[0], L2: levels[1], L3: levels[2]}

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepDone,
		Item: SizesResult{Sweep: sweep, Curve: curve, Sizes: sizes}})

	return sizes
}
