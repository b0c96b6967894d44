package probe

import (
	"github.com/sarchlab/memprobe/detect"
	"github.com/sarchlab/memprobe/sampler"
	"github.com/sarchlab/memprobe/timing"
	"github.com/sarchlab/memprobe/workload"
)

// A LineSizeProbe measures the cache line size. It scans a buffer far
// larger than any cache at growing strides and times the average access,
// scaled by the stride to give the cost per byte advanced. That cost
// settles into a plateau once the stride reaches the line size, because
// every access from then on fetches a fresh line.
type LineSizeProbe struct {
	*ProbeBase

	sampler    sampler.Sampler
	bufferSize int
	strides    []int
	iterations int
	rise       float64
	fallback   int
}

// LineSizeProbeBuilder can build line size probes.
type LineSizeProbeBuilder struct {
	source     timing.Source
	bufferSize int
	strides    []int
	iterations int
	rise       float64
	fallback   int
	budget     int
}

// MakeLineSizeProbeBuilder returns a builder with the default sweep: a
// 32 MiB buffer scanned at strides from 8 B to 1 KiB.
func MakeLineSizeProbeBuilder() LineSizeProbeBuilder {
	return LineSizeProbeBuilder{
		bufferSize: 32 * 1024 * 1024,
		strides:    []int{8, 16, 32, 64, 128, 256, 512, 1024},
		iterations: 3,
		rise:       1.3,
		fallback:   timing.FallbackLineSize,
	}
}

// WithSource sets the counter the probe times against.
func (b LineSizeProbeBuilder) WithSource(src timing.Source) LineSizeProbeBuilder {
	b.source = src
	return b
}

// WithBufferSize sets the size of the scanned buffer in bytes.
func (b LineSizeProbeBuilder) WithBufferSize(n int) LineSizeProbeBuilder {
	b.bufferSize = n
	return b
}

// WithStrides sets the candidate strides in bytes, in ascending order.
func (b LineSizeProbeBuilder) WithStrides(strides []int) LineSizeProbeBuilder {
	b.strides = strides
	return b
}

// WithIterations sets how many passes over the buffer one sample times.
func (b LineSizeProbeBuilder) WithIterations(n int) LineSizeProbeBuilder {
	b.iterations = n
	return b
}

// WithFallback sets the value reported when no plateau is found.
func (b LineSizeProbeBuilder) WithFallback(n int) LineSizeProbeBuilder {
	b.fallback = n
	return b
}

// WithMemoryBudget caps the probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b LineSizeProbeBuilder) WithMemoryBudget(n int) LineSizeProbeBuilder {
	b.budget = n
	return b
}

// Build creates a line size probe.
func (b LineSizeProbeBuilder) Build(name string) *LineSizeProbe {
	if len(b.strides) == 0 {
		panic("a line size probe needs at least one stride")
	}

	if b.iterations < 1 {
		panic("a line size probe needs at least one iteration")
	}

	budget := b.budget
	if budget == 0 {
		budget = availableMemory()
	}

	p := &LineSizeProbe{
		ProbeBase:  NewProbeBase(name),
		sampler:    makeSampler(b.source),
		bufferSize: min(b.bufferSize, budget),
		strides:    b.strides,
		iterations: b.iterations,
		rise:       b.rise,
		fallback:   b.fallback,
	}

	return p
}

// Run sweeps the strides and returns the detected line size in bytes. A
// buffer too small to pressure the caches yields the fallback directly.
func (p *LineSizeProbe) Run() int {
	if p.bufferSize < lineSizeBufferFloor {
		return p.fallback
	}

	sweep := Sweep{Probe: p.Name(), Unit: "bytes", Candidates: p.strides}
	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepStart, Item: sweep})

	buf := workload.NewScanBuffer(p.bufferSize)
	curve := make(detect.Curve, len(p.strides))

	for i, stride := range p.strides {
		latency := p.sampler.TimeStride(buf, stride, p.iterations)
		curve[i] = latency * float64(stride)

		p.InvokeHook(HookCtx{Domain: p, Pos: HookPosPoint,
			Item: CurvePoint{Config: stride, Latency: curve[i]}})
	}

	value := detect.PlateauRise(curve, p.strides, p.rise, p.fallback)

	p.InvokeHook(HookCtx{Domain: p, Pos: HookPosSweepDone,
		Item: SweepResult{Sweep: sweep, Curve: curve, Value: value}})

	return value
}

// lineSizeBufferFloor is the smallest buffer that still defeats the
// caches well enough for the stride plateau to show.
const lineSizeBufferFloor = 1024 * 1024

// makeSampler wraps the source in a sampler, falling back to the
// machine's best counter when no source is given.
func makeSampler(src timing.Source) sampler.Sampler {
	if src == nil {
		return sampler.New()
	}

	return sampler.NewWithSource(src)
}
