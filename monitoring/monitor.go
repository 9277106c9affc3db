// Package monitoring turns a long-running search into a small HTTP server so
// that its progress can be watched from outside the process.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/partsim/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// An Inspectable exposes a read-only view of its state to the monitor.
type Inspectable interface {
	sim.Named

	// Snapshot returns a pointer to a struct that is safe to serialize while
	// the owner keeps running.
	Snapshot() any
}

// Monitor serves progress bars, inspectable state and process resources.
type Monitor struct {
	portNumber  int
	openBrowser bool

	inspectablesLock sync.Mutex
	inspectables     []Inspectable

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// not allowed and fall back to a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterInspectable makes the state of i available under its name.
func (m *Monitor) RegisterInspectable(i Inspectable) {
	m.inspectablesLock.Lock()
	defer m.inspectablesLock.Unlock()

	for _, existing := range m.inspectables {
		if existing.Name() == i.Name() {
			panic("inspectable " + i.Name() + " already registered")
		}
	}

	m.inspectables = append(m.inspectables, i)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := NewProgressBar(name, total)

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list being served.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/inspect", m.listInspectables)
	r.HandleFunc("/api/inspect/{name}", m.inspect)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring search with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panic(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url + "/api/progress"); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url, nil
}

// StopServer shuts the server down, if it was started.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	snapshots := make([]ProgressSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		snapshots = append(snapshots, b.Snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, snapshots)
}

func (m *Monitor) listInspectables(w http.ResponseWriter, _ *http.Request) {
	m.inspectablesLock.Lock()
	names := make([]string, 0, len(m.inspectables))
	for _, i := range m.inspectables {
		names = append(names, i.Name())
	}
	m.inspectablesLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) inspect(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	target := m.findInspectableOr404(w, name)
	if target == nil {
		return
	}

	snapshot := target.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(snapshot)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findInspectableOr404(
	w http.ResponseWriter,
	name string,
) Inspectable {
	m.inspectablesLock.Lock()
	defer m.inspectablesLock.Unlock()

	for _, i := range m.inspectables {
		if i.Name() == name {
			return i
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Inspectable not found"))
	dieOnErr(err)

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
