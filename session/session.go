// Package session drives one probing run end to end: it steers the run
// onto a core class, runs the probes in a fixed order, and feeds every
// measurement to the recorder and the monitor.
package session

import (
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/monitoring"
	"github.com/sarchlab/memprobe/probe"
	"github.com/sarchlab/memprobe/record"
	"github.com/sarchlab/memprobe/timing"
)

// Names of the probes a session runs, in run order.
const (
	LineSizeProbeName      = "LineSizeProbe"
	CacheSizeProbeName     = "CacheSizeProbe"
	AssociativityProbeName = "AssociativityProbe"
	PageSizeProbeName      = "PageSizeProbe"
	TLBProbeName           = "TLBProbe"
)

var knownProbeNames = map[string]bool{
	LineSizeProbeName:      true,
	CacheSizeProbeName:     true,
	AssociativityProbeName: true,
	PageSizeProbeName:      true,
	TLBProbeName:           true,
}

// Results holds every parameter one probing run inferred. A parameter
// whose probe was skipped is zero.
type Results struct {
	RunID      string
	CoreClass  coreclass.Class
	LineSize   int
	L1         int
	L2         int
	L3         int
	Ways       int
	PageSize   int
	TLBEntries int
}

// A Session provides the services required to run one probing run.
type Session struct {
	id        string
	coreClass coreclass.Class
	source    timing.Source

	recorder    record.Recorder
	monitor     *monitoring.Monitor
	curveHook   *record.CurveHook
	curveLogger *probe.CurveLogger

	tlbTrials    int
	seed         int64
	seedSet      bool
	memoryBudget int
	skip         map[string]bool
}

// ID returns the ID of the session.
func (s *Session) ID() string {
	return s.id
}

// GetRecorder returns the recorder used in the session, nil when the
// session does not record.
func (s *Session) GetRecorder() record.Recorder {
	return s.recorder
}

// GetMonitor returns the monitor used in the session, nil when monitoring
// is disabled.
func (s *Session) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Run executes the probes in order and returns what they inferred. The
// probes share nothing: each one allocates its buffers when it runs and
// releases them when it is done.
func (s *Session) Run() Results {
	restore, err := coreclass.Steer(s.coreClass)
	if err != nil {
		fmt.Fprintf(os.Stderr,
			"Steering to %s cores failed (%s). Probing unsteered.\n",
			s.coreClass, err)
	} else {
		defer restore()
	}

	results := Results{RunID: s.id, CoreClass: s.coreClass}

	if !s.skip[LineSizeProbeName] {
		p := s.lineSizeProbe()
		started := time.Now()
		results.LineSize = p.Run()
		s.recordResult(LineSizeProbeName,
			"line_size", results.LineSize, "bytes", started)
	}

	if !s.skip[CacheSizeProbeName] {
		p := s.cacheSizeProbe()
		started := time.Now()
		sizes := p.Run()
		results.L1, results.L2, results.L3 = sizes.L1, sizes.L2, sizes.L3
		s.recordResult(CacheSizeProbeName, "l1_size", sizes.L1, "bytes", started)
		s.recordResult(CacheSizeProbeName, "l2_size", sizes.L2, "bytes", started)
		s.recordResult(CacheSizeProbeName, "l3_size", sizes.L3, "bytes", started)
	}

	if !s.skip[AssociativityProbeName] {
		p := s.associativityProbe()
		started := time.Now()
		results.Ways = p.Run()
		s.recordResult(AssociativityProbeName,
			"l1_ways", results.Ways, "ways", started)
	}

	if !s.skip[PageSizeProbeName] {
		p := s.pageSizeProbe()
		started := time.Now()
		results.PageSize = p.Run()
		s.recordResult(PageSizeProbeName,
			"page_size", results.PageSize, "bytes", started)
	}

	if !s.skip[TLBProbeName] {
		pageSize := results.PageSize
		if pageSize == 0 {
			pageSize = 4096
		}

		p := s.tlbProbe(pageSize)
		started := time.Now()
		results.TLBEntries =
			probe.MajorityVote{Trials: s.tlbTrials}.Decide(p.Run)
		s.recordResult(TLBProbeName,
			"tlb_entries", results.TLBEntries, "entries", started)
	}

	if s.recorder != nil {
		s.recorder.Flush()
	}

	return results
}

// Terminate terminates the session.
func (s *Session) Terminate() {
	if s.recorder != nil {
		s.recorder.Close()
	}
}

func (s *Session) lineSizeProbe() *probe.LineSizeProbe {
	p := probe.MakeLineSizeProbeBuilder().
		WithSource(s.source).
		WithMemoryBudget(s.memoryBudget).
		Build(LineSizeProbeName)

	s.instrument(p)

	return p
}

func (s *Session) cacheSizeProbe() *probe.CacheSizeProbe {
	b := probe.MakeCacheSizeProbeBuilder().
		WithSource(s.source).
		WithMemoryBudget(s.memoryBudget)
	if s.seedSet {
		b = b.WithSeed(s.seed)
	}

	p := b.Build(CacheSizeProbeName)
	s.instrument(p)

	return p
}

func (s *Session) associativityProbe() *probe.AssociativityProbe {
	p := probe.MakeAssociativityProbeBuilder().
		WithSource(s.source).
		WithMemoryBudget(s.memoryBudget).
		Build(AssociativityProbeName)

	s.instrument(p)

	return p
}

func (s *Session) pageSizeProbe() *probe.PageSizeProbe {
	p := probe.MakePageSizeProbeBuilder().
		WithSource(s.source).
		WithMemoryBudget(s.memoryBudget).
		Build(PageSizeProbeName)

	s.instrument(p)

	return p
}

func (s *Session) tlbProbe(pageSize int) *probe.TLBProbe {
	b := probe.MakeTLBProbeBuilder().
		WithSource(s.source).
		WithPageSize(pageSize).
		WithMemoryBudget(s.memoryBudget)
	if s.seedSet {
		b = b.WithSeed(s.seed)
	}

	p := b.Build(TLBProbeName)
	s.instrument(p)

	return p
}

// instrument attaches the session's observers to a freshly built probe.
func (s *Session) instrument(p probe.NamedHookable) {
	if s.monitor != nil {
		s.monitor.RegisterProbe(p)
	}

	if s.curveHook != nil {
		p.AcceptHook(s.curveHook)
	}

	if s.curveLogger != nil {
		p.AcceptHook(s.curveLogger)
	}
}

func (s *Session) recordResult(
	probeName, parameter string,
	value int,
	unit string,
	started time.Time,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.InsertData(record.ProbeResultsTable, record.ProbeResult{
		RunID:     s.id,
		Probe:     probeName,
		CoreClass: s.coreClass.String(),
		Parameter: parameter,
		Value:     value,
		Unit:      unit,
		StartedAt: started.UnixMilli(),
		ElapsedMS: time.Since(started).Milliseconds(),
	})
}
