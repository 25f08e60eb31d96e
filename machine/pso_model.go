package machine

import (
	"sort"

	"github.com/K-dizzled/isa-interprerter/program"
)

// bufferKey identifies one (thread, loc) FIFO bucket under PSO (spec §3).
type bufferKey struct {
	Thread int
	Loc    string
}

// psoModel implements Model for partial-store-order: one FIFO store
// buffer per (thread, loc) pair. Distinct locations may propagate out of
// issue order across different buckets; an SC-mode access requires all of
// a thread's buckets to be empty (spec §4.3).
type psoModel struct {
	buffers map[bufferKey]*fifoBuffer
	// order lists each thread's bucket locations in creation order.
	// EnabledMemoryActions sorts them by location so enabled-action
	// listings are deterministic (spec §4.4: "propagations ordered by
	// (loc, buffer-head age)" — a thread has one bucket per location, so
	// the location alone decides the order among its propagations).
	order map[int][]string
}

func newPSOModel(numThreads int) *psoModel {
	return &psoModel{
		buffers: map[bufferKey]*fifoBuffer{},
		order:   map[int][]string{},
	}
}

func (m *psoModel) bucket(t int, loc string) *fifoBuffer {
	key := bufferKey{t, loc}
	b, ok := m.buffers[key]
	if !ok {
		b = &fifoBuffer{}
		m.buffers[key] = b
		m.order[t] = append(m.order[t], loc)
	}
	return b
}

func (m *psoModel) EnabledMemoryActions(s *State, t int) []MemAction {
	var actions []MemAction
	locs := append([]string(nil), m.order[t]...)
	sort.Strings(locs)
	for _, loc := range locs {
		if !m.buffers[bufferKey{t, loc}].empty() {
			actions = append(actions, MemAction{Kind: MemActionPropagate, Propagate: propagateTarget{Loc: loc}})
		}
	}
	return actions
}

func (m *psoModel) IssueLoad(s *State, t int, loc string, mode program.AccessMode) (int64, EventID) {
	if v, ok := m.bucket(t, loc).forward(loc); ok {
		id := s.recordEvent(Event{Thread: t, Kind: EventRead, Loc: loc, Value: v, Mode: mode})
		s.Graph.addRF(m.bufferedWriteEvent(t, loc), id)
		return v, id
	}
	value := s.Memory.read(loc)
	id := s.recordEvent(Event{Thread: t, Kind: EventRead, Loc: loc, Value: value, Mode: mode})
	if order := s.Graph.mo[loc]; len(order) > 0 {
		s.Graph.addRF(order[len(order)-1], id)
	}
	return value, id
}

func (m *psoModel) bufferedWriteEvent(t int, loc string) EventID {
	entries := m.buffers[bufferKey{t, loc}].entries
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Loc == loc {
			return entries[i].EventID
		}
	}
	panic("machine: forwarded read with no matching buffered write")
}

func (m *psoModel) IssueStore(s *State, t int, loc string, value int64, mode program.AccessMode) EventID {
	id := s.recordEvent(Event{Thread: t, Kind: EventWrite, Loc: loc, Value: value, Mode: mode})
	m.bucket(t, loc).push(bufferEntry{Loc: loc, Value: value, Mode: mode, EventID: id})
	return id
}

func (m *psoModel) Propagate(s *State, t int, target propagateTarget) EventID {
	b := m.buffers[bufferKey{t, target.Loc}]
	entry := b.popHead()
	id := s.recordEvent(Event{Thread: t, Kind: EventPropagatedWrite, Loc: entry.Loc, Value: entry.Value, Mode: entry.Mode})
	s.Memory.write(entry.Loc, entry.Value)
	s.Graph.extendMOAs(entry.EventID, entry.Loc)
	return id
}

func (m *psoModel) scFlushed(s *State, t int) bool {
	for _, loc := range m.order[t] {
		if !m.buffers[bufferKey{t, loc}].empty() {
			return false
		}
	}
	return true
}

func (m *psoModel) clone() Model {
	out := &psoModel{buffers: map[bufferKey]*fifoBuffer{}, order: map[int][]string{}}
	for k, b := range m.buffers {
		out.buffers[k] = b.clone()
	}
	for t, locs := range m.order {
		out.order[t] = append([]string(nil), locs...)
	}
	return out
}
