// Package monitoring turns a probing run into a web server so that the
// sweeps can be watched from a browser while they run.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sarchlab/memprobe/monitoring/web"
	"github.com/sarchlab/memprobe/probe"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor can turn a probing run into a server and allows external
// watching of the sweeps while they run.
type Monitor struct {
	portNumber int

	runID     string
	coreClass string

	// Probes register while the run progresses, so handlers and the run
	// share this lock.
	probesLock sync.Mutex
	probes     []probe.NamedHookable
	watches    map[string]*sweepWatch

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		watches: make(map[string]*sweepWatch),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRun tells the monitor which probing run it is serving.
func (m *Monitor) RegisterRun(id, coreClass string) {
	m.runID = id
	m.coreClass = coreClass
}

// RegisterProbe registers a probe to be monitored. The monitor hooks the
// probe and follows its sweep from the candidate list to the result.
func (m *Monitor) RegisterProbe(p probe.NamedHookable) {
	m.probesLock.Lock()
	defer m.probesLock.Unlock()

	m.probes = append(m.probes, p)
	m.watches[p.Name()] = &sweepWatch{}

	p.AcceptHook(&sweepHook{monitor: m, probe: p})
}

// registeredProbes returns a point-in-time copy of the registered probes.
func (m *Monitor) registeredProbes() []probe.NamedHookable {
	m.probesLock.Lock()
	defer m.probesLock.Unlock()

	probes := make([]probe.NamedHookable, len(m.probes))
	copy(probes, m.probes)

	return probes
}

func (m *Monitor) watch(name string) *sweepWatch {
	m.probesLock.Lock()
	defer m.probesLock.Unlock()

	return m.watches[name]
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars)-1)
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/probes", m.listProbes)
	r.HandleFunc("/api/probe/{name}", m.listProbeDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/curves/{name}", m.listCurve)
	r.HandleFunc("/api/results", m.listResults)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring the probing run with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

type statusRsp struct {
	RunID     string   `json:"run_id"`
	CoreClass string   `json:"core_class"`
	Probes    []string `json:"probes"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	probes := m.registeredProbes()

	rsp := statusRsp{
		RunID:     m.runID,
		CoreClass: m.coreClass,
		Probes:    make([]string, 0, len(probes)),
	}
	for _, p := range probes {
		rsp.Probes = append(rsp.Probes, p.Name())
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listProbes(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, p := range m.registeredProbes() {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", p.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listProbeDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p := m.findProbeOr404(w, name)
	if p == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(p)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	ProbeName string `json:"probe_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	name := req.ProbeName
	fields := strings.Split(req.FieldName, ".")

	p := m.findProbeOr404(w, name)
	if p == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(p)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listCurve(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	watch := m.watch(name)
	if watch == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Probe not found"))
		dieOnErr(err)

		return
	}

	bytes, err := json.Marshal(watch.curveRsp(name))
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listResults(w http.ResponseWriter, _ *http.Request) {
	probes := m.registeredProbes()

	results := make([]probeResult, 0, len(probes))
	for _, p := range probes {
		if result, ok := m.watch(p.Name()).resultRsp(); ok {
			results = append(results, result)
		}
	}

	bytes, err := json.Marshal(results)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findProbeOr404(
	w http.ResponseWriter,
	name string,
) probe.NamedHookable {
	var found probe.NamedHookable
	for _, p := range m.registeredProbes() {
		if p.Name() == name {
			found = p
		}
	}

	if found == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Probe not found"))
		dieOnErr(err)
	}

	return found
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
