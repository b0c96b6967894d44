package probe

import (
	"math/rand"

	"github.com/sarchlab/memprobe/detect"
	"github.com/sarchlab/memprobe/sampler"
	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// A TLBProbe measures how many pages the TLB covers. It chases pointers
// across growing sets of pages, touching one line per page so that data
// caching contributes little, and watches for the page count whose
// latency jumps the most: one past that count, translations start missing
// the TLB on every access.
type TLBProbe struct {
	*ProbeBase

	sampler      sampler.Sampler
	pageSize     int
	maxPages     int
	counts       []int
	accessFactor int
	iterations   int
	seed         int64
	threshold    float64
	fallback     int
}

// TLBProbeBuilder can build TLB probes.
type TLBProbeBuilder struct {
	source       timing.Source
	pageSize     int
	maxPages     int
	counts       []int
	accessFactor int
	iterations   int
	seed         int64
	fallback     int
	budget       int
}

// MakeTLBProbeBuilder returns a builder with the default sweep: 8 to 4096
// pages of 4 KiB.
func MakeTLBProbeBuilder() TLBProbeBuilder {
	return TLBProbeBuilder{
		pageSize:     4096,
		maxPages:     4096,
		counts:       []int{8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096},
		accessFactor: 200,
		iterations:   5,
		seed:         54321,
		fallback:     64,
	}
}

// WithSource sets the counter the probe times against.
func (b TLBProbeBuilder) WithSource(src timing.Source) TLBProbeBuilder {
	b.source = src
	return b
}

// WithPageSize sets the page size in bytes, normally the value the page
// size probe detected.
func (b TLBProbeBuilder) WithPageSize(n int) TLBProbeBuilder {
	b.pageSize = n
	return b
}

// WithMaxPages sets the largest page count the sweep may reach.
func (b TLBProbeBuilder) WithMaxPages(n int) TLBProbeBuilder {
	b.maxPages = n
	return b
}

// WithCounts sets the candidate page counts, in ascending order.
func (b TLBProbeBuilder) WithCounts(counts []int) TLBProbeBuilder {
	b.counts = counts
	return b
}

// WithAccessFactor sets how many accesses per chased page one iteration
// times.
func (b TLBProbeBuilder) WithAccessFactor(n int) TLBProbeBuilder {
	b.accessFactor = n
	return b
}

// WithIterations sets how many timed iterations one sample accumulates.
func (b TLBProbeBuilder) WithIterations(n int) TLBProbeBuilder {
	b.iterations = n
	return b
}

// WithSeed sets the seed of the page orders, so a run can be reproduced.
func (b TLBProbeBuilder) WithSeed(seed int64) TLBProbeBuilder {
	b.seed = seed
	return b
}

// WithFallback sets the value reported when no page count stands out.
func (b TLBProbeBuilder) WithFallback(n int) TLBProbeBuilder {
	b.fallback = n
	return b
}

// WithMemoryBudget caps the probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b TLBProbeBuilder) WithMemoryBudget(n int) TLBProbeBuilder {
	b.budget = n
	return b
}

// Build creates a TLB probe. Page counts beyond the memory budget are
// dropped from the sweep.
func (b TLBProbeBuilder) Build(name string) *TLBProbe {
	if b.pageSize < 8 || b.pageSize%8 != 0 {
		panic("page size must be a positive multiple of 8")
	}

	if b.accessFactor < 1 || b.iterations < 1 {
		panic("a TLB probe needs at least one timed access per page")
	}

	budget := b.budget
	if budget == 0 {
		budget = availableMemory()
	}

	maxPages := min(b.maxPages, budget/b.pageSize)

	counts := make([]int, 0, len(b.counts))
	for _, c := range b.counts {
		if c <= maxPages {
			counts = append(counts, c)
		}
	}

	p := &TLBProbe{
		ProbeBase:    NewProbeBase(name),
		sampler:      makeSampler(b.source),
		pageSize:     b.pageSize,
		maxPages:     maxPages,
		counts:       counts,
		accessFactor: b.accessFactor,
		iterations:   b.iterations,
		seed:         b.seed,
		threshold:    1.25,
		fallback:     b.fallback,
	}

	return p
}

// Run sweeps the page counts and returns the detected TLB coverage in
// pages. A budget too small for any candidate yields the fallback
// directly.
func (p *TLBProbe) Run() int {
	if len(p.counts) == 0 {
		return p.fallback
	}

	sweep := Sweep{Probe: p.Name(), Unit: "pages", Candidates: p.counts}
	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepStart, Item: sweep})

	slotsPerPage := p.pageSize / 8
	slots := make([]uint64, p.maxPages*slotsPerPage)

	// Map every page up front so later, larger counts pay no fault cost.
	for s := 0; s < len(slots); s += slotsPerPage {
		slots[s] = 0
	}

	rng := rand.New(rand.NewSource(p.seed))
	curve := make(detect.Curve, len(p.counts))

	for i, count := range p.counts {
		chase := workload.BuildPageChase(slots, count, slotsPerPage, rng)
		chase.Walk(4 * count)

		curve[i] = p.sampler.TimeChase(
			chase.Slots, chase.Start, p.accessFactor*count, p.iterations)

		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPoint,
			Item: CurvePoint{Config: count, Latency: curve[i]}})
	}

	value := detect.MaxRatio(curve, p.counts, p.threshold, p.fallback)

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepDone,
		Item: SweepResult{Sweep: sweep, Curve: curve, Value: value}})

	return value
}
