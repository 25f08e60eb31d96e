// Package machine is the operational core: per-thread local state, the
// memory subsystem variants, the step engine, and the execution graph
// (spec §2 components 2-5). Grounded structurally on the teacher's vm
// package (vm/cpu.go's per-entity state struct with an explicit Reset,
// vm/memory.go's lazily-defaulted storage, vm/executor.go's step loop).
package machine

import "github.com/K-dizzled/isa-interprerter/program"

// ThreadState is the per-thread local state of spec §3: a program counter,
// a register file, and an alive flag.
type ThreadState struct {
	PC        int
	Registers map[string]int64
	Alive     bool
}

// Get returns a register's value, defaulting uninitialized registers to 0
// without recording any read (spec §4.2).
func (t *ThreadState) Get(name string) int64 {
	return t.Registers[name]
}

func (t *ThreadState) set(name string, v int64) {
	t.Registers[name] = v
}

func (t *ThreadState) clone() ThreadState {
	regs := make(map[string]int64, len(t.Registers))
	for k, v := range t.Registers {
		regs[k] = v
	}
	return ThreadState{PC: t.PC, Registers: regs, Alive: t.Alive}
}

// Memory is the shared mN -> int64 mapping. Locations are abstract (spec
// §3: "no address arithmetic"); they spring into existence, defaulted to
// 0, on first access. It is deliberately not a segmented byte array the
// way the teacher's vm.Memory is, since this ISA has no addressing.
type Memory struct {
	values map[string]int64
}

func newMemory() *Memory {
	return &Memory{values: map[string]int64{}}
}

func (m *Memory) read(loc string) int64 {
	v, ok := m.values[loc]
	if !ok {
		m.values[loc] = 0
	}
	return v
}

func (m *Memory) write(loc string, v int64) {
	m.values[loc] = v
}

func (m *Memory) clone() *Memory {
	cp := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		cp[k] = v
	}
	return &Memory{values: cp}
}

// Snapshot returns a read-only copy of the locations that have been
// written or read at least once.
func (m *Memory) Snapshot() map[string]int64 {
	cp := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		cp[k] = v
	}
	return cp
}

// lastEvent tracks, per thread, the id of the most recently appended event
// so the engine can wire program-order edges (spec §3: po is issue order).
type lastEvent struct {
	id  EventID
	has bool
}

// State is the complete machine configuration of spec §3: threads,
// memory, model-specific buffers, and the execution graph.
type State struct {
	Programs []*program.Program
	Threads  []ThreadState
	Memory   *Memory
	Graph    *ExecutionGraph
	Model    Model

	last []lastEvent
}

// NewState builds the initial configuration for a set of per-thread
// programs under the given memory-model variant (spec §4.2, §4.3).
func NewState(programs []*program.Program, model ModelKind) *State {
	threads := make([]ThreadState, len(programs))
	for i := range threads {
		threads[i] = ThreadState{PC: 0, Registers: map[string]int64{}, Alive: true}
	}
	s := &State{
		Programs: programs,
		Threads:  threads,
		Memory:   newMemory(),
		Graph:    newExecutionGraph(),
		last:     make([]lastEvent, len(programs)),
	}
	s.Model = newModel(model, len(programs))
	return s
}

// finished reports whether thread t's pc has walked past its program.
func (s *State) finished(t int) bool {
	return s.Threads[t].PC >= s.Programs[t].Length()
}

// RegistersOf returns a read-only copy of thread t's registers that have
// been assigned at least once (spec §6 "registers" command).
func (s *State) RegistersOf(t int) map[string]int64 {
	cp := make(map[string]int64, len(s.Threads[t].Registers))
	for k, v := range s.Threads[t].Registers {
		cp[k] = v
	}
	return cp
}

// MemorySnapshot returns a read-only copy of initialized memory locations
// (spec §6 "memory" command).
func (s *State) MemorySnapshot() map[string]int64 {
	return s.Memory.Snapshot()
}

// GraphSnapshot returns a read-only, non-aliasing view of the execution
// graph (spec §4.5, §5).
func (s *State) GraphSnapshot() Snapshot {
	return s.Graph.Snapshot()
}

// clone deep-copies the whole configuration, used so Apply never mutates
// the state a caller is still holding a reference to (spec §5).
func (s *State) clone() *State {
	threads := make([]ThreadState, len(s.Threads))
	for i := range threads {
		threads[i] = s.Threads[i].clone()
	}
	out := &State{
		Programs: s.Programs, // immutable, shared
		Threads:  threads,
		Memory:   s.Memory.clone(),
		Graph:    s.Graph.clone(),
		Model:    s.Model.clone(),
		last:     append([]lastEvent(nil), s.last...),
	}
	return out
}

// recordEvent appends an event, wires its po edge, and updates the
// thread's last-event pointer. Returns the new event's id. InstIdx is
// stamped from the issuing thread's current PC, so every R, W and Local
// event carries the instruction that produced it (spec §3). A PropagatedW
// event carries the thread's PC at the time the propagation fires, not the
// index of the Store whose value it propagates.
func (s *State) recordEvent(e Event) EventID {
	e.InstIdx = s.Threads[e.Thread].PC
	id := s.Graph.append(e)
	s.Graph.addPO(s.last[e.Thread].id, s.last[e.Thread].has, id)
	s.last[e.Thread] = lastEvent{id: id, has: true}
	return id
}
