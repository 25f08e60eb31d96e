package machine

import "github.com/K-dizzled/isa-interprerter/program"

// tsoModel implements Model for total-store-order: one FIFO store buffer
// per thread. Loads forward from the issuing thread's own buffer before
// falling back to memory; an SC-mode access is enabled only when that
// thread's buffer is empty (spec §4.3).
type tsoModel struct {
	buffers []*fifoBuffer // indexed by thread
}

func newTSOModel(numThreads int) *tsoModel {
	bufs := make([]*fifoBuffer, numThreads)
	for i := range bufs {
		bufs[i] = &fifoBuffer{}
	}
	return &tsoModel{buffers: bufs}
}

func (m *tsoModel) EnabledMemoryActions(s *State, t int) []MemAction {
	if m.buffers[t].empty() {
		return nil
	}
	return []MemAction{{Kind: MemActionPropagate}}
}

func (m *tsoModel) IssueLoad(s *State, t int, loc string, mode program.AccessMode) (int64, EventID) {
	if v, ok := m.buffers[t].forward(loc); ok {
		id := s.recordEvent(Event{Thread: t, Kind: EventRead, Loc: loc, Value: v, Mode: mode})
		// rf points at the buffered write's own event id; it was
		// appended at issue time even though it has not reached memory.
		writeID := m.bufferedWriteEvent(t, loc)
		s.Graph.addRF(writeID, id)
		return v, id
	}
	value := s.Memory.read(loc)
	id := s.recordEvent(Event{Thread: t, Kind: EventRead, Loc: loc, Value: value, Mode: mode})
	if order := s.Graph.mo[loc]; len(order) > 0 {
		s.Graph.addRF(order[len(order)-1], id)
	}
	return value, id
}

// bufferedWriteEvent finds the event id of the newest buffered entry for
// loc in thread t's buffer (the same entry forward just matched).
func (m *tsoModel) bufferedWriteEvent(t int, loc string) EventID {
	entries := m.buffers[t].entries
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Loc == loc {
			return entries[i].EventID
		}
	}
	panic("machine: forwarded read with no matching buffered write")
}

func (m *tsoModel) IssueStore(s *State, t int, loc string, value int64, mode program.AccessMode) EventID {
	id := s.recordEvent(Event{Thread: t, Kind: EventWrite, Loc: loc, Value: value, Mode: mode})
	m.buffers[t].push(bufferEntry{Loc: loc, Value: value, Mode: mode, EventID: id})
	return id
}

func (m *tsoModel) Propagate(s *State, t int, target propagateTarget) EventID {
	entry := m.buffers[t].popHead()
	id := s.recordEvent(Event{Thread: t, Kind: EventPropagatedWrite, Loc: entry.Loc, Value: entry.Value, Mode: entry.Mode})
	s.Memory.write(entry.Loc, entry.Value)
	s.Graph.extendMOAs(entry.EventID, entry.Loc)
	return id
}

func (m *tsoModel) scFlushed(s *State, t int) bool {
	return m.buffers[t].empty()
}

func (m *tsoModel) clone() Model {
	bufs := make([]*fifoBuffer, len(m.buffers))
	for i, b := range m.buffers {
		bufs[i] = b.clone()
	}
	return &tsoModel{buffers: bufs}
}
