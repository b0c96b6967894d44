package session

import (
	"log"
	"os"

	"github.com/rs/xid"
	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/monitoring"
	"github.com/sarchlab/memprobe/probe"
	"github.com/sarchlab/memprobe/record"
	"github.com/sarchlab/memprobe/timing"
)

// Builder can be used to build a session.
type Builder struct {
	coreClass      coreclass.Class
	source         timing.Source
	recordOn       bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
	verbose        bool
	tlbTrials      int
	seed           int64
	seedSet        bool
	memoryBudget   int
	skip           []string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
		tlbTrials: 10,
	}
}

// WithCoreClass steers the probes to the given core class.
func (b Builder) WithCoreClass(class coreclass.Class) Builder {
	b.coreClass = class
	return b
}

// WithSource sets the counter every probe times against.
func (b Builder) WithSource(src timing.Source) Builder {
	b.source = src
	return b
}

// WithRecording sets the session to record its measurements into a
// SQLite database.
func (b Builder) WithRecording() Builder {
	b.recordOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the recorder.
// Setting a name turns recording on.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename
	return b
}

// WithoutMonitoring sets the session to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithVerbose sets the session to log every sampled latency to stderr.
func (b Builder) WithVerbose() Builder {
	b.verbose = true
	return b
}

// WithTLBTrials sets how many sweeps the TLB measurement votes over.
func (b Builder) WithTLBTrials(n int) Builder {
	b.tlbTrials = n
	return b
}

// WithSeed overrides the seed of the randomized access orders.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	b.seedSet = true
	return b
}

// WithMemoryBudget caps every probe's buffer allocation in bytes. The
// default of 0 reads the budget from the machine's available memory.
func (b Builder) WithMemoryBudget(n int) Builder {
	b.memoryBudget = n
	return b
}

// WithSkippedProbes sets probes the session should not run. The names
// are the probe name constants of this package.
func (b Builder) WithSkippedProbes(names ...string) Builder {
	b.skip = append(b.skip, names...)
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.tlbTrials < 1 {
		panic("a session needs at least one TLB trial")
	}

	for _, name := range b.skip {
		if !knownProbeNames[name] {
			panic("unknown probe name: " + name)
		}
	}
}

// Build builds the session.
func (b Builder) Build() *Session {
	b.parametersMustBeValid()

	s := &Session{
		coreClass:    b.coreClass,
		source:       b.source,
		tlbTrials:    b.tlbTrials,
		seed:         b.seed,
		seedSet:      b.seedSet,
		memoryBudget: b.memoryBudget,
		skip:         make(map[string]bool),
	}

	for _, name := range b.skip {
		s.skip[name] = true
	}

	s.id = xid.New().String()

	if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "memprobe_" + s.id
		}

		s.recorder = record.New(outputPath)
		s.recorder.CreateTable(record.ProbeResultsTable, record.ProbeResult{})
		s.curveHook = record.NewCurveHook(s.recorder, s.id)
	}

	if b.verbose {
		s.curveLogger = probe.NewCurveLogger(log.New(os.Stderr, "", 0))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterRun(s.id, s.coreClass.String())
		s.monitor.StartServer()
	}

	return s
}
