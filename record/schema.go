package record

import (
	"github.com/sarchlab/memprobe/probe"
)

// Table names of one probing run's database.
const (
	ProbeResultsTable  = "probe_results"
	LatencyCurvesTable = "latency_curves"
)

// A ProbeResult is one row of the probe_results table: one parameter a
// probe settled on, with the timing of the run that produced it.
type ProbeResult struct {
	RunID     string
	Probe     string
	CoreClass string
	Parameter string
	Value     int
	Unit      string
	StartedAt int64
	ElapsedMS int64
}

// A CurveSample is one row of the latency_curves table: one sampled
// point of a probe's latency curve.
type CurveSample struct {
	RunID   string
	Probe   string
	Config  int
	Latency float64
}

// A CurveHook records every curve point a probe samples. Attach one to
// each probe whose curves should survive the run.
type CurveHook struct {
	recorder Recorder
	runID    string
}

// NewCurveHook creates a CurveHook writing into recorder under the given
// run ID, creating the curves table if this is the recorder's first.
func NewCurveHook(recorder Recorder, runID string) *CurveHook {
	for _, name := range recorder.ListTables() {
		if name == LatencyCurvesTable {
			return &CurveHook{recorder: recorder, runID: runID}
		}
	}

	recorder.CreateTable(LatencyCurvesTable, CurveSample{})

	return &CurveHook{recorder: recorder, runID: runID}
}

// Func records curve points and ignores every other hook position.
func (h *CurveHook) Func(ctx probe.HookCtx) {
	if ctx.Pos != probe.HookPosPoint {
		return
	}

	point, ok := ctx.Item.(probe.CurvePoint)
	if !ok {
		return
	}

	h.recorder.InsertData(LatencyCurvesTable, CurveSample{
		RunID:   h.runID,
		Probe:   domainName(ctx.Domain),
		Config:  point.Config,
		Latency: point.Latency,
	})
}

func domainName(domain probe.Hookable) string {
	if named, ok := domain.(probe.Named); ok {
		return named.Name()
	}

	return "probe"
}
