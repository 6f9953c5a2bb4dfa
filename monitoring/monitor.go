// Package monitoring turns a running simulation into a web server, so that
// the state of the bridge and the bus can be inspected while traffic flows.
package monitoring

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"sync"
	"time"
	"unsafe"

	// Registers the /debug/pprof handlers on http.DefaultServeMux.
	_ "net/http/pprof"

	"github.com/gorilla/mux"

	"github.com/sarchlab/axi2wb/monitoring/web"
	"github.com/sarchlab/axi2wb/sim"
)

// Monitor serves the state of a simulation over HTTP and lets a user pause,
// continue, and poke it.
type Monitor struct {
	engine     sim.Engine
	components []sim.Component
	buffers    []sim.Buffer
	portNumber int

	barsMu sync.Mutex
	bars   []*ProgressBar
}

// NewMonitor creates a Monitor with nothing registered.
func NewMonitor() *Monitor {
	return &Monitor{bars: []*ProgressBar{}}
}

// WithPortNumber picks the port to listen on. Ports below 1000 are refused
// and a random port is used instead.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Refusing monitor port %d, using a random port.\n", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine sets the engine that the monitor controls.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterSimulation registers the engine and every component of the
// simulation.
func (m *Monitor) RegisterSimulation(s *sim.Simulation) {
	m.RegisterEngine(s.GetEngine())

	for _, c := range s.Components() {
		m.RegisterComponent(c)
	}
}

// RegisterComponent makes a component and the buffers it holds directly
// visible to the monitor.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.components = append(m.components, c)
	m.buffers = append(m.buffers, buffersOf(c)...)
}

var bufferType = reflect.TypeOf((*sim.Buffer)(nil)).Elem()

// buffersOf returns the non-nil sim.Buffer fields of a struct pointer,
// exported or not.
func buffersOf(c sim.Component) []sim.Buffer {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil
	}

	v = v.Elem()

	var buffers []sim.Buffer

	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() != bufferType || f.IsNil() {
			continue
		}

		readable := reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr()))
		buffers = append(buffers, readable.Elem().Interface().(sim.Buffer))
	}

	return buffers
}

// CreateProgressBar creates a bar that is shown until it is completed.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.barsMu.Lock()
	m.bars = append(m.bars, bar)
	m.barsMu.Unlock()

	return bar
}

// CompleteProgressBar stops showing a bar.
func (m *Monitor) CompleteProgressBar(bar *ProgressBar) {
	m.barsMu.Lock()
	defer m.barsMu.Unlock()

	kept := make([]*ProgressBar, 0, len(m.bars))
	for _, b := range m.bars {
		if b != bar {
			kept = append(kept, b)
		}
	}

	m.bars = kept
}

// Handler returns the router that serves the API under /api, the Go
// profiler under /debug/pprof, and the web page.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pause", m.pauseEngine)
	api.HandleFunc("/continue", m.continueEngine)
	api.HandleFunc("/now", m.now)
	api.HandleFunc("/run", m.run)
	api.HandleFunc("/tick/{name}", m.tick)
	api.HandleFunc("/list_components", m.listComponents)
	api.HandleFunc("/component/{name}", m.componentDetails)
	api.HandleFunc("/field/{json}", m.fieldValue)
	api.HandleFunc("/stats/{name}", m.stats)
	api.HandleFunc("/buffers", m.listBuffers)
	api.HandleFunc("/progress", m.listProgressBars)
	api.HandleFunc("/resource", m.resources)
	api.HandleFunc("/profile", m.profile)

	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer serves Handler in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		panic(err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		if err := http.Serve(listener, m.Handler()); err != nil {
			panic(err)
		}
	}()

	return url
}
