package probe

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memprobe/detect"
)

var _ = Describe("HookableBase", func() {
	It("should invoke hooks in registration order", func() {
		hookable := NewHookableBase()

		first := &recordingHook{}
		second := &recordingHook{}
		hookable.AcceptHook(first)
		hookable.AcceptHook(second)

		ctx := HookCtx{Pos: HookPosSweepStart, Item: 1}
		hookable.InvokeHook(ctx)

		Expect(first.ctxs).To(HaveLen(1))
		Expect(second.ctxs).To(HaveLen(1))
		Expect(first.ctxs[0]).To(Equal(ctx))
	})
})

var _ = Describe("CurveLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *CurveLogger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger = NewCurveLogger(log.New(buf, "", 0))
	})

	It("should log sweep starts", func() {
		logger.Func(HookCtx{
			Pos: HookPosSweepStart,
			Item: Sweep{
				Probe:      "LineSizeProbe",
				Unit:       "bytes",
				Candidates: []int{8, 16},
			},
		})

		Expect(buf.String()).To(
			ContainSubstring("LineSizeProbe: sweeping 2 candidates (bytes)"))
	})

	It("should log curve points with the probe name", func() {
		p := NewProbeBase("TLBProbe")

		logger.Func(HookCtx{
			Domain: p,
			Pos:    HookPosPoint,
			Item:   CurvePoint{Config: 64, Latency: 12.5},
		})

		Expect(buf.String()).To(ContainSubstring("TLBProbe: 64 -> 12.500 ticks"))
	})

	It("should log single-value results", func() {
		logger.Func(HookCtx{
			Pos: HookPosSweepDone,
			Item: SweepResult{
				Sweep: Sweep{Probe: "PageSizeProbe", Unit: "bytes"},
				Curve: detect.Curve{1, 2},
				Value: 4096,
			},
		})

		Expect(buf.String()).To(
			ContainSubstring("PageSizeProbe: detected 4096 bytes"))
	})

	It("should mark heuristic results", func() {
		logger.Func(HookCtx{
			Pos: HookPosSweepDone,
			Item: SweepResult{
				Sweep:     Sweep{Probe: "AssociativityProbe", Unit: "ways"},
				Value:     8,
				Heuristic: true,
			},
		})

		Expect(buf.String()).To(
			ContainSubstring("AssociativityProbe: detected 8 ways (heuristic)"))
	})

	It("should log per-level cache sizes", func() {
		logger.Func(HookCtx{
			Pos: HookPosSweepDone,
			Item: SizesResult{
				Sweep: Sweep{Probe: "CacheSizeProbe", Unit: "bytes"},
				Sizes: Sizes{L1: 32768, L2: 1048576},
			},
		})

		Expect(buf.String()).To(ContainSubstring(
			"CacheSizeProbe: detected L1 32768, L2 1048576, L3 0 bytes"))
	})

	It("should ignore items it does not understand", func() {
		logger.Func(HookCtx{Pos: HookPosSweepStart, Item: 3})

		Expect(buf.String()).To(BeEmpty())
	})
})
