// Package stats is the optional diagnostics collector of SPEC_FULL §2 item
// 11: step/propagation counters and a bounded per-thread action trace,
// toggleable from config.Trace/config.Statistics. Grounded on the teacher's
// vm.PerformanceStatistics (vm/statistics.go) and vm.ExecutionTrace
// (vm/trace.go), scaled down to this interpreter's much smaller action
// vocabulary: there are no cycles, branches or function calls to track,
// only local steps and buffer propagations per thread.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/K-dizzled/isa-interprerter/machine"
)

// Collector accumulates step counts and an optional trace of every action
// applied, in the spirit of the teacher's PerformanceStatistics.Enabled
// gate: a disabled Collector's Record is a no-op.
type Collector struct {
	Enabled bool

	TotalSteps     uint64
	LocalSteps     uint64
	PropagateSteps uint64
	PerThread      map[int]uint64

	startTime     time.Time
	executionTime time.Duration

	trace    []string
	maxTrace int
}

// NewCollector creates a Collector. maxTrace bounds the retained action
// trace (0 disables trace retention while still counting steps).
func NewCollector(enabled bool, maxTrace int) *Collector {
	return &Collector{
		Enabled:   enabled,
		PerThread: map[int]uint64{},
		startTime: time.Time{},
		maxTrace:  maxTrace,
	}
}

// Start resets all counters and begins timing.
func (c *Collector) Start() {
	c.startTime = timeNow()
	c.TotalSteps = 0
	c.LocalSteps = 0
	c.PropagateSteps = 0
	c.PerThread = map[int]uint64{}
	c.trace = nil
}

// Record logs one applied action (spec §4.4's enabled-action menu entries).
func (c *Collector) Record(a machine.Action) {
	if !c.Enabled {
		return
	}

	c.TotalSteps++
	c.PerThread[a.Thread]++
	if a.Kind == machine.ActionLocal {
		c.LocalSteps++
	} else {
		c.PropagateSteps++
	}

	if c.maxTrace > 0 {
		c.trace = append(c.trace, a.Describe())
		if len(c.trace) > c.maxTrace {
			c.trace = c.trace[len(c.trace)-c.maxTrace:]
		}
	}
}

// Finalize stops timing; call once before reading ExecutionTime or
// exporting.
func (c *Collector) Finalize() {
	if !c.startTime.IsZero() {
		c.executionTime = timeNow().Sub(c.startTime)
	}
}

// Trace returns a copy of the retained action trace, oldest first.
func (c *Collector) Trace() []string {
	return append([]string(nil), c.trace...)
}

// ExportJSON writes a summary of the collected statistics as JSON (spec's
// config.Statistics.OutputFile), mirroring the shape of the teacher's
// PerformanceStatistics.ExportJSON.
func (c *Collector) ExportJSON(w io.Writer) error {
	c.Finalize()

	perThread := make(map[string]uint64, len(c.PerThread))
	for t, n := range c.PerThread {
		perThread[fmt.Sprintf("%d", t)] = n
	}

	data := map[string]interface{}{
		"total_steps":       c.TotalSteps,
		"local_steps":       c.LocalSteps,
		"propagate_steps":   c.PropagateSteps,
		"per_thread_steps":  perThread,
		"execution_time_ms": c.executionTime.Milliseconds(),
		"trace_length":      len(c.trace),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// String renders a short human-readable summary, in the spirit of the
// teacher's PerformanceStatistics.String.
func (c *Collector) String() string {
	c.Finalize()

	var sb strings.Builder
	sb.WriteString("Diagnostics\n")
	sb.WriteString("===========\n")
	fmt.Fprintf(&sb, "Total steps:     %d\n", c.TotalSteps)
	fmt.Fprintf(&sb, "Local steps:     %d\n", c.LocalSteps)
	fmt.Fprintf(&sb, "Propagations:    %d\n", c.PropagateSteps)
	fmt.Fprintf(&sb, "Execution time:  %v\n", c.executionTime)

	threads := make([]int, 0, len(c.PerThread))
	for t := range c.PerThread {
		threads = append(threads, t)
	}
	sort.Ints(threads)
	for _, t := range threads {
		fmt.Fprintf(&sb, "  thread %d: %d steps\n", t, c.PerThread[t])
	}
	return sb.String()
}

// timeNow is a thin indirection so tests can avoid depending on wall-clock
// behavior beyond "Finalize advances past Start".
var timeNow = time.Now
