package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/axi2wb/sim"
)

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, `{"now":%.10f}`, m.engine.CurrentTime())
}

func (m *Monitor) run(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := m.engine.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "simulation stopped: %v\n", err)
		}
	}()

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

// component looks a component up by the name in the route. It answers 404
// and returns nil if there is none.
func (m *Monitor) component(w http.ResponseWriter, name string) sim.Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	http.Error(w, "Component not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) tick(w http.ResponseWriter, r *http.Request) {
	c := m.component(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	ticker, ok := c.(interface{ TickLater() })
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ticker.TickLater()
	w.WriteHeader(http.StatusOK)
}

func serializeComponent(
	w http.ResponseWriter,
	c sim.Component,
	fieldPath []string,
) {
	s := goseth.NewSerializer()
	s.SetRoot(c)
	s.SetMaxDepth(1)

	if fieldPath != nil {
		if err := s.SetEntryPoint(fieldPath); err != nil {
			http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	var buf bytes.Buffer
	if err := s.Serialize(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = buf.WriteTo(w)
}

func (m *Monitor) componentDetails(w http.ResponseWriter, r *http.Request) {
	c := m.component(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	serializeComponent(w, c, nil)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}
	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	c := m.component(w, req.CompName)
	if c == nil {
		return
	}

	serializeComponent(w, c, strings.Split(req.FieldName, "."))
}

// stats serves the result of a component's Stats method.
func (m *Monitor) stats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c := m.component(w, name)
	if c == nil {
		return
	}

	method := reflect.ValueOf(c).MethodByName("Stats")
	if !method.IsValid() ||
		method.Type().NumIn() != 0 ||
		method.Type().NumOut() != 1 {
		http.Error(w, fmt.Sprintf("Component %s does not report stats", name),
			http.StatusNotFound)

		return
	}

	writeJSON(w, method.Call(nil)[0].Interface())
}

type bufferRsp struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Cap    int    `json:"cap"`
}

type bufferQuery struct {
	sortBy        string
	limit, offset int
}

func parseBufferQuery(values url.Values) (bufferQuery, error) {
	q := bufferQuery{sortBy: values.Get("sort")}

	switch q.sortBy {
	case "":
		q.sortBy = "percent"
	case "level", "percent":
	default:
		return q, fmt.Errorf("invalid sort method %q, use level or percent",
			q.sortBy)
	}

	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &q.limit}, {"offset", &q.offset}} {
		s := values.Get(p.key)
		if s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %w", p.key, err)
		}

		*p.dst = n
	}

	if q.limit < 0 || q.offset < 0 {
		return q, errors.New("limit and offset must not be negative")
	}

	return q, nil
}

func (m *Monitor) listBuffers(w http.ResponseWriter, r *http.Request) {
	q, err := parseBufferQuery(r.URL.Query())
	if err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	selected := m.sortAndSelectBuffers(q.sortBy, q.limit, q.offset)

	rsp := make([]bufferRsp, 0, len(selected))
	for _, b := range selected {
		rsp = append(rsp, bufferRsp{
			Buffer: b.Name(),
			Level:  b.Size(),
			Cap:    b.Capacity(),
		})
	}

	writeJSON(w, rsp)
}

func fill(b sim.Buffer) float64 {
	return float64(b.Size()) / float64(b.Capacity())
}

// sortAndSelectBuffers returns a page of the buffers, fullest first. sortBy
// picks whether the level or the fill ratio counts first. A limit of 0 means
// no limit.
func (m *Monitor) sortAndSelectBuffers(
	sortBy string,
	limit, offset int,
) []sim.Buffer {
	sorted := append([]sim.Buffer(nil), m.buffers...)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		keysA := [2]float64{fill(a), float64(a.Size())}
		keysB := [2]float64{fill(b), float64(b.Size())}

		if sortBy == "level" {
			keysA[0], keysA[1] = keysA[1], keysA[0]
			keysB[0], keysB[1] = keysB[1], keysB[0]
		}

		if keysA[0] != keysB[0] {
			return keysA[0] > keysB[0]
		}

		return keysA[1] > keysB[1]
	})

	offset = min(offset, len(sorted))

	end := len(sorted)
	if limit > 0 {
		end = min(end, offset+limit)
	}

	return sorted[offset:end]
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.barsMu.Lock()
	defer m.barsMu.Unlock()

	writeJSON(w, m.bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) resources(w http.ResponseWriter, _ *http.Request) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{CPUPercent: cpu, MemorySize: mem.RSS})
}

// profile samples the CPU for one second and serves the parsed profile.
func (m *Monitor) profile(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer

	if err := pprof.StartCPUProfile(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}
