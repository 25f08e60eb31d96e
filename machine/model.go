package machine

import (
	"strings"

	"github.com/K-dizzled/isa-interprerter/program"
)

// ModelKind selects which memory-consistency variant a State runs under
// (spec §3).
type ModelKind int

const (
	ModelSC ModelKind = iota
	ModelTSO
	ModelPSO
)

func (k ModelKind) String() string {
	switch k {
	case ModelSC:
		return "SC"
	case ModelTSO:
		return "TSO"
	case ModelPSO:
		return "PSO"
	default:
		return "?"
	}
}

// ParseModelKind maps a case-insensitive CLI flag value to a ModelKind
// (spec §6 "-m" flag).
func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToUpper(s) {
	case "SC":
		return ModelSC, nil
	case "TSO":
		return ModelTSO, nil
	case "PSO":
		return ModelPSO, nil
	default:
		return 0, &UnsupportedModelError{Value: s}
	}
}

// UnsupportedModelError is a usage error (spec §6, exit code 1).
type UnsupportedModelError struct{ Value string }

func (e *UnsupportedModelError) Error() string {
	return "unsupported memory model: " + e.Value + " (want SC, TSO or PSO)"
}

// MemAction is one fireable memory-originating action reported by a Model
// (spec §4.3): either "attempt the thread's next Load/Store" or "propagate
// a specific buffered write".
type MemAction struct {
	Kind      MemActionKind
	Propagate propagateTarget // valid when Kind == MemActionPropagate
}

type MemActionKind int

const (
	MemActionIssue MemActionKind = iota
	MemActionPropagate
)

// propagateTarget identifies which buffer head a propagation action would
// drain: the thread is implicit (Model methods are always called for one
// thread at a time) and Loc distinguishes PSO's per-location buckets from
// TSO's single per-thread buffer (where Loc is unused).
type propagateTarget struct {
	Loc string
}

// Model is the memory subsystem's capability set (spec §4.3, §9: "Dispatch
// is static; there is no plugin surface" — SC/TSO/PSO are the only
// implementations, chosen once at State construction). Grounded on the
// teacher's CPSR (vm/cpu.go) variant-by-struct pattern, generalized here
// from a value type to an interface because each mode owns real behavior
// (buffer topology and flush rules), not just a bit layout.
type Model interface {
	// EnabledMemoryActions lists the fireable memory actions for thread t
	// given the current state: only buffer propagations. The thread's local
	// step (Assign, IfGoto, Load or Store) is not included; the engine
	// computes it independently.
	EnabledMemoryActions(s *State, t int) []MemAction

	// IssueLoad appends a Load's R event, resolving its source per the
	// reads-from rule (spec §4.3), and returns the observed value.
	IssueLoad(s *State, t int, loc string, mode program.AccessMode) (int64, EventID)

	// IssueStore appends a Store's W event, either writing memory
	// immediately (SC) or enqueuing into the model's buffer (TSO/PSO).
	IssueStore(s *State, t int, loc string, value int64, mode program.AccessMode) EventID

	// Propagate drains the given buffer head into memory and extends mo.
	Propagate(s *State, t int, target propagateTarget) EventID

	// scFlushed reports whether thread t's buffers are all empty, the
	// condition spec §4.3 requires before an SC-mode access is enabled.
	scFlushed(s *State, t int) bool

	clone() Model
}

func newModel(kind ModelKind, numThreads int) Model {
	switch kind {
	case ModelSC:
		return newSCModel()
	case ModelTSO:
		return newTSOModel(numThreads)
	case ModelPSO:
		return newPSOModel(numThreads)
	default:
		panic("machine: unknown model kind")
	}
}
