package probe

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from
// the probes
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// A CurveLogger is a hook that prints sweep progress and results.
type CurveLogger struct {
	LogHookBase
}

// NewCurveLogger returns a CurveLogger which will write into the logger
func NewCurveLogger(logger *log.Logger) *CurveLogger {
	h := new(CurveLogger)
	h.Logger = logger
	return h
}

// Func writes the sweep information into the logger
func (h *CurveLogger) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosSweepStart:
		sweep, ok := ctx.Item.(Sweep)
		if !ok {
			return
		}

		h.Printf("%s: sweeping %d candidates (%s)",
			sweep.Probe, len(sweep.Candidates), sweep.Unit)
	case HookPosPoint:
		point, ok := ctx.Item.(CurvePoint)
		if !ok {
			return
		}

		h.Printf("%s: %d -> %.3f ticks",
			domainName(ctx.Domain), point.Config, point.Latency)
	case HookPosSweepDone:
		switch result := ctx.Item.(type) {
		case SweepResult:
			note := ""
			if result.Heuristic {
				note = " (heuristic)"
			}

			h.Printf("%s: detected %d %s%s",
				result.Probe, result.Value, result.Unit, note)
		case SizesResult:
			h.Printf("%s: detected L1 %d, L2 %d, L3 %d bytes",
				result.Probe, result.Sizes.L1, result.Sizes.L2,
				result.Sizes.L3)
		}
	}
}

func domainName(domain Hookable) string {
	if named, ok := domain.(Named); ok {
		return named.Name()
	}

	return "probe"
}
