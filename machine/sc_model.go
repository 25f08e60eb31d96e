package machine

import "github.com/K-dizzled/isa-interprerter/program"

// scModel implements Model for sequential consistency: no buffers, every
// Store writes memory immediately, every Load reads the current memory
// value (spec §4.3).
type scModel struct{}

func newSCModel() *scModel { return &scModel{} }

func (m *scModel) EnabledMemoryActions(s *State, t int) []MemAction {
	// SC never blocks a Load/Store and has no buffers to propagate; the
	// engine's local-step enablement already covers the single Load/Store
	// action, so the memory subsystem itself contributes nothing extra.
	return nil
}

func (m *scModel) IssueLoad(s *State, t int, loc string, mode program.AccessMode) (int64, EventID) {
	value := s.Memory.read(loc)
	id := s.recordEvent(Event{Thread: t, Kind: EventRead, Loc: loc, Value: value, Mode: mode})
	if order := s.Graph.mo[loc]; len(order) > 0 {
		s.Graph.addRF(order[len(order)-1], id)
	}
	return value, id
}

func (m *scModel) IssueStore(s *State, t int, loc string, value int64, mode program.AccessMode) EventID {
	id := s.recordEvent(Event{Thread: t, Kind: EventWrite, Loc: loc, Value: value, Mode: mode})
	s.Memory.write(loc, value)
	s.Graph.extendMO(id)
	return id
}

func (m *scModel) Propagate(s *State, t int, target propagateTarget) EventID {
	panic("machine: SC model has no buffers to propagate")
}

func (m *scModel) scFlushed(s *State, t int) bool { return true }

func (m *scModel) clone() Model { return &scModel{} }
