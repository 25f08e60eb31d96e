package machine

import "github.com/K-dizzled/isa-interprerter/program"

// EventKind tags what an Event represents (spec §3).
type EventKind int

const (
	EventRead EventKind = iota
	EventWrite
	EventLocal
	EventPropagatedWrite
)

func (k EventKind) String() string {
	switch k {
	case EventRead:
		return "R"
	case EventWrite:
		return "W"
	case EventLocal:
		return "Local"
	case EventPropagatedWrite:
		return "PropagatedW"
	default:
		return "?"
	}
}

// EventID is a monotonically increasing event identifier, never reused.
type EventID int

// Event is one node of the ExecutionGraph (spec §3).
type Event struct {
	ID      EventID
	Thread  int
	InstIdx int
	Kind    EventKind
	Loc     string // valid for R/W/PropagatedW
	Value   int64  // valid for R/W
	Mode    program.AccessMode
}

// EdgeKind is one of the five edge kinds spec.md §3 defines.
type EdgeKind int

const (
	EdgePO EdgeKind = iota // program order
	EdgeRF                 // reads-from
	EdgeMO                 // modification order
	EdgeFR                 // from-read (derived)
	EdgeSW                 // synchronizes-with (derived)
)

// ExecutionGraph is an append-only arena of events plus per-kind edge sets,
// grounded on spec §9's design note: "never hold direct inter-event
// pointers", and on the teacher's append-only trace style
// (vm/trace.go, vm/coverage.go) generalized from a single flat log to a
// graph with several concurrent edge relations.
type ExecutionGraph struct {
	events []Event
	// po/rf/sw are stored as direct edges: edges[kind][from] = []to.
	edges map[EdgeKind]map[EventID][]EventID
	// mo is per-location, a total order recorded as a simple ordered slice
	// of write-event ids that have reached memory.
	mo map[string][]EventID
	// rfSource maps a read event to the write event it reads from, when
	// one exists (absent iff the read observed the default value).
	rfSource map[EventID]EventID
}

func newExecutionGraph() *ExecutionGraph {
	return &ExecutionGraph{
		edges: map[EdgeKind]map[EventID][]EventID{
			EdgePO: {}, EdgeRF: {}, EdgeMO: {}, EdgeFR: {}, EdgeSW: {},
		},
		mo:       map[string][]EventID{},
		rfSource: map[EventID]EventID{},
	}
}

// clone deep-copies the graph so snapshots handed to a front end never
// alias the live state (spec §5).
func (g *ExecutionGraph) clone() *ExecutionGraph {
	out := newExecutionGraph()
	out.events = append(out.events, g.events...)
	for kind, m := range g.edges {
		cp := make(map[EventID][]EventID, len(m))
		for k, v := range m {
			cp[k] = append([]EventID(nil), v...)
		}
		out.edges[kind] = cp
	}
	for loc, order := range g.mo {
		out.mo[loc] = append([]EventID(nil), order...)
	}
	for r, w := range g.rfSource {
		out.rfSource[r] = w
	}
	return out
}

func (g *ExecutionGraph) nextID() EventID { return EventID(len(g.events)) }

// append adds a new event to the arena and returns its id.
func (g *ExecutionGraph) append(e Event) EventID {
	e.ID = g.nextID()
	g.events = append(g.events, e)
	return e.ID
}

func (g *ExecutionGraph) addEdge(kind EdgeKind, from, to EventID) {
	g.edges[kind][from] = append(g.edges[kind][from], to)
}

// addPO links the previous event of a thread to its newly appended event,
// if a previous event exists.
func (g *ExecutionGraph) addPO(prev EventID, has bool, next EventID) {
	if has {
		g.addEdge(EdgePO, prev, next)
	}
}

// addRF records a reads-from edge and derives sw when the modes require it
// (spec §4.3: sw from source REL/SC to sink ACQ/SC, bound strictly to rf
// per spec.md §9 Open Question (a)).
func (g *ExecutionGraph) addRF(writeID, readID EventID) {
	g.addEdge(EdgeRF, writeID, readID)
	g.rfSource[readID] = writeID

	w := g.events[writeID]
	r := g.events[readID]
	srcSync := w.Mode == program.REL || w.Mode == program.SC
	dstSync := r.Mode == program.ACQ || r.Mode == program.SC
	if srcSync && dstSync {
		g.addEdge(EdgeSW, writeID, readID)
	}
}

// extendMO appends a write event to its location's modification order,
// moving it, and its derived fr edges, into place.
func (g *ExecutionGraph) extendMO(writeID EventID) {
	g.extendMOAs(writeID, g.events[writeID].Loc)
}

// extendMOAs extends mo for loc with the given event id. Used directly by
// Propagate, which promotes the *original* W event's mo position rather
// than the PropagatedW marker it also appends (spec §4.3).
func (g *ExecutionGraph) extendMOAs(writeID EventID, loc string) {
	g.mo[loc] = append(g.mo[loc], writeID)
	g.recomputeFR(loc)
}

// recomputeFR derives R --fr--> W edges for a location lazily from rf and
// mo (spec §9: "recomputed lazily from rf and mo to avoid
// cache-invalidation hazards").
func (g *ExecutionGraph) recomputeFR(loc string) {
	order := g.mo[loc]
	indexOf := make(map[EventID]int, len(order))
	for i, w := range order {
		indexOf[w] = i
	}
	for _, e := range g.events {
		if e.Kind != EventRead || e.Loc != loc {
			continue
		}
		delete(g.edges[EdgeFR], e.ID)
		w0, ok := g.rfSource[e.ID]
		if !ok {
			continue
		}
		w0idx, ok := indexOf[w0]
		if !ok {
			continue
		}
		for _, w := range order[w0idx+1:] {
			g.addEdge(EdgeFR, e.ID, w)
		}
	}
}

// Snapshot is a read-only, non-aliasing view of the graph handed to front
// ends (spec §4.2, §5).
type Snapshot struct {
	Events []Event
	PO     map[EventID][]EventID
	RF     map[EventID][]EventID
	MO     map[string][]EventID
	FR     map[EventID][]EventID
	SW     map[EventID][]EventID
}

// Snapshot returns a deep copy of the graph for read-only inspection.
func (g *ExecutionGraph) Snapshot() Snapshot {
	return g.clone().asSnapshot()
}

func (g *ExecutionGraph) asSnapshot() Snapshot {
	return Snapshot{
		Events: g.events,
		PO:     g.edges[EdgePO],
		RF:     g.edges[EdgeRF],
		MO:     g.mo,
		FR:     g.edges[EdgeFR],
		SW:     g.edges[EdgeSW],
	}
}
