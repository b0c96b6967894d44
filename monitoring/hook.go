package monitoring

import (
	"sync"

	"github.com/sarchlab/memprobe/probe"
)

// A sweepWatch accumulates what one probe has reported through its hooks,
// so that the HTTP handlers can serve a sweep that is still in progress.
type sweepWatch struct {
	lock sync.Mutex

	sweep  probe.Sweep
	points []probe.CurvePoint
	result *probeResult
}

type curveRsp struct {
	Probe      string     `json:"probe"`
	Unit       string     `json:"unit"`
	Candidates []int      `json:"candidates"`
	Points     []pointRsp `json:"points"`
}

type pointRsp struct {
	Config  int     `json:"config"`
	Latency float64 `json:"latency"`
}

type probeResult struct {
	Probe     string         `json:"probe"`
	Unit      string         `json:"unit"`
	Heuristic bool           `json:"heuristic,omitempty"`
	Values    map[string]int `json:"values"`
}

func (s *sweepWatch) start(sweep probe.Sweep) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sweep = sweep
	s.points = nil
	s.result = nil
}

func (s *sweepWatch) add(point probe.CurvePoint) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.points = append(s.points, point)
}

func (s *sweepWatch) finish(name string, item any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch result := item.(type) {
	case probe.SweepResult:
		s.result = &probeResult{
			Probe:     name,
			Unit:      result.Unit,
			Heuristic: result.Heuristic,
			Values:    map[string]int{"value": result.Value},
		}
	case probe.SizesResult:
		s.result = &probeResult{
			Probe: name,
			Unit:  result.Unit,
			Values: map[string]int{
				"l1": result.Sizes.L1,
				"l2": result.Sizes.L2,
				"l3": result.Sizes.L3,
			},
		}
	}
}

func (s *sweepWatch) curveRsp(name string) curveRsp {
	s.lock.Lock()
	defer s.lock.Unlock()

	rsp := curveRsp{
		Probe:      name,
		Unit:       s.sweep.Unit,
		Candidates: s.sweep.Candidates,
		Points:     make([]pointRsp, 0, len(s.points)),
	}
	for _, p := range s.points {
		rsp.Points = append(rsp.Points,
			pointRsp{Config: p.Config, Latency: p.Latency})
	}

	return rsp
}

func (s *sweepWatch) resultRsp() (probeResult, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.result == nil {
		return probeResult{}, false
	}

	return *s.result, true
}

// A sweepHook follows one probe's hooks, driving the probe's progress bar
// and its sweep watch.
type sweepHook struct {
	monitor *Monitor
	probe   probe.NamedHookable
	bar     *ProgressBar
}

func (h *sweepHook) Func(ctx probe.HookCtx) {
	watch := h.monitor.watch(h.probe.Name())

	switch ctx.Pos {
	case probe.HookPosSweepStart:
		sweep, ok := ctx.Item.(probe.Sweep)
		if !ok {
			return
		}

		h.bar = h.monitor.CreateProgressBar(
			h.probe.Name(), uint64(len(sweep.Candidates)))
		watch.start(sweep)
	case probe.HookPosPoint:
		point, ok := ctx.Item.(probe.CurvePoint)
		if !ok {
			return
		}

		if h.bar != nil {
			h.bar.IncrementFinished(1)
		}
		watch.add(point)
	case probe.HookPosSweepDone:
		if h.bar != nil {
			h.monitor.CompleteProgressBar(h.bar)
			h.bar = nil
		}

		watch.finish(h.probe.Name(), ctx.Item)
	}
}
