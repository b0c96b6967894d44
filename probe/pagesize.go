package probe

import (
	"github.com/sarchlab/memprobe/detect"
	"github.com/sarchlab/memprobe/sampler"
	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// A PageSizeProbe measures the virtual memory page size. It scans a
// buffer far larger than the TLB's reach at growing strides and times the
// average access. While the stride is below the page size several
// accesses share each translation; once it reaches the page size every
// access translates a fresh page, and the cost per access stops being
// diluted. The probe reports the stride just before the first sharp
// per-access drop, the last stride that still packed multiple accesses
// into one page.
type PageSizeProbe struct {
	*ProbeBase

	sampler    sampler.Sampler
	bufferSize int
	touchStep  int
	strides    []int
	iterations int
	drop       float64
	fallback   int
}

// PageSizeProbeBuilder can build page size probes.
type PageSizeProbeBuilder struct {
	source     timing.Source
	bufferSize int
	touchStep  int
	strides    []int
	iterations int
	drop       float64
	fallback   int
	budget     int
}

// MakePageSizeProbeBuilder returns a builder with the default sweep: a
// 128 MiB buffer scanned at strides from 512 B to 16 KiB.
func MakePageSizeProbeBuilder() PageSizeProbeBuilder {
	return PageSizeProbeBuilder{
		bufferSize: 128 * 1024 * 1024,
		touchStep:  4096,
		strides:    []int{512, 1024, 2048, 4096, 8192, 16384},
		iterations: 3,
		drop:       0.6,
		fallback:   4096,
	}
}

// WithSource sets the counter the probe times against.
func (b PageSizeProbeBuilder) WithSource(src timing.Source) PageSizeProbeBuilder {
	b.source = src
	return b
}

// WithBufferSize sets the size of the scanned buffer in bytes.
func (b PageSizeProbeBuilder) WithBufferSize(n int) PageSizeProbeBuilder {
	b.bufferSize = n
	return b
}

// WithStrides sets the candidate strides in bytes, in ascending order.
func (b PageSizeProbeBuilder) WithStrides(strides []int) PageSizeProbeBuilder {
	b.strides = strides
	return b
}

// WithIterations sets how many passes over the buffer one sample times.
func (b PageSizeProbeBuilder) WithIterations(n int) PageSizeProbeBuilder {
	b.iterations = n
	return b
}

// WithFallback sets the value reported when no latency drop is found.
func (b PageSizeProbeBuilder) WithFallback(n int) PageSizeProbeBuilder {
	b.fallback = n
	return b
}

// WithMemoryBudget caps the probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b PageSizeProbeBuilder) WithMemoryBudget(n int) PageSizeProbeBuilder {
	b.budget = n
	return b
}

// Build creates a page size probe.
func (b PageSizeProbeBuilder) Build(name string) *PageSizeProbe {
	if len(b.strides) == 0 {
		panic("a page size probe needs at least one stride")
	}

	if b.iterations < 1 {
		panic("a page size probe needs at least one iteration")
	}

	budget := b.budget
	if budget == 0 {
		budget = availableMemory()
	}

	p := &PageSizeProbe{
		ProbeBase:  NewProbeBase(name),
		sampler:    makeSampler(b.source),
		bufferSize: min(b.bufferSize, budget),
		touchStep:  b.touchStep,
		strides:    b.strides,
		iterations: b.iterations,
		drop:       b.drop,
		fallback:   b.fallback,
	}

	return p
}

// Run sweeps the strides and returns the detected page size in bytes. A
// buffer too small to outreach the TLB yields the fallback directly.
func (p *PageSizeProbe) Run() int {
	if p.bufferSize < pageSizeBufferFloor {
		return p.fallback
	}

	sweep := Sweep{Probe: p.Name(), Unit: "bytes", Candidates: p.strides}
	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepStart, Item: sweep})

	// Map the pages without warming every line the way a full write
	// would.
	buf := make([]byte, p.bufferSize)
	workload.TouchPages(buf, p.touchStep)

	curve := make(detect.Curve, len(p.strides))

	for i, stride := range p.strides {
		curve[i] = p.sampler.TimeStride(buf, stride, p.iterations)

		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPoint,
			Item: CurvePoint{Config: stride, Latency: curve[i]}})
	}

	value := detect.PlateauDrop(curve, p.strides, p.drop, p.fallback)

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepDone,
		Item: SweepResult{Sweep: sweep, Curve: curve, Value: value}})

	return value
}

// pageSizeBufferFloor is the smallest buffer that still spans more pages
// than the TLB covers.
const pageSizeBufferFloor = 1024 * 1024
