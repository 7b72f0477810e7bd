// Package monitoring turns a running FTL simulation into an HTTP server so
// its wear state and live CPU profile can be inspected from outside the
// process while a workload is being replayed against it.
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
	"sync"
	"time"

	// Registers the net/http/pprof handlers on the default mux.
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"

	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/ftl"
)

// Monitor exposes a running *ftl.Comp over HTTP: wear-state snapshots,
// progress bars for long-running demo workloads, and on-demand CPU
// profiles.
type Monitor struct {
	portNumber int
	comp       *ftl.Comp
	dev        *device.NAND

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
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

// RegisterFTL registers the FTL component whose wear state is reported.
func (m *Monitor) RegisterFTL(c *ftl.Comp) {
	m.comp = c
}

// RegisterDevice registers the NAND device whose erase counts are reported.
func (m *Monitor) RegisterDevice(d *device.NAND) {
	m.dev = d
}

// CreateProgressBar creates a new progress bar, to be shown until
// CompleteProgressBar is called on it.
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

// CompleteProgressBar removes a bar from the set shown by /api/progress.
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

// StartServer starts the monitor as a web server on the configured port (or
// a random free port if none was set).
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/blocks", m.blocks)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring FTL simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

type statusRsp struct {
	UsablePages         uint64 `json:"usable_pages"`
	NumLogicalBlocks    uint64 `json:"num_logical_blocks"`
	NumPhysicalBlocks   uint64 `json:"num_physical_blocks"`
	PoolBlocksAvailable int    `json:"pool_blocks_available"`
	TotalWritesObserved uint64 `json:"total_writes_observed"`
	TotalErasesObserved uint64 `json:"total_erases_observed"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	if m.comp == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	g := m.comp.Geometry()
	rsp := statusRsp{
		UsablePages:         g.Usable(),
		NumLogicalBlocks:    g.NumLogicalBlocks(),
		NumPhysicalBlocks:   g.NumPhysicalBlocks(),
		PoolBlocksAvailable: m.comp.PoolSize(),
	}

	if m.dev != nil {
		rsp.TotalWritesObserved = m.dev.TotalWritesObserved()
		rsp.TotalErasesObserved = m.dev.TotalErasesPerformed()
	}

	bs, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bs)
	dieOnErr(err)
}

type blockRsp struct {
	Block      uint64 `json:"block"`
	EraseCount uint64 `json:"erase_count"`
}

func (m *Monitor) blocks(w http.ResponseWriter, _ *http.Request) {
	if m.comp == nil || m.dev == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	g := m.comp.Geometry()
	rsp := make([]blockRsp, g.NumPhysicalBlocks())
	for b := uint64(0); b < g.NumPhysicalBlocks(); b++ {
		rsp[b] = blockRsp{Block: b, EraseCount: m.dev.EraseCountAt(b)}
	}

	bs, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bs)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bs, err := json.Marshal(m.progressBars)
	m.progressBarsLock.Unlock()
	dieOnErr(err)

	_, err = w.Write(bs)
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

	bs, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bs)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
