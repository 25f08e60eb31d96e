// Step engine: computes the enabled-action menu for a State and applies a
// chosen action to produce a successor State (spec §4.4). Grounded on the
// teacher's vm/executor.go Step/Execute loop shape: a switch over
// instruction kind, each case mutating state and appending history — here
// kept pure with respect to I/O, returning a new State rather than
// mutating in place, so the front end can hold onto prior states freely
// (spec §5).
package machine

import (
	"fmt"

	"github.com/K-dizzled/isa-interprerter/program"
	"github.com/K-dizzled/isa-interprerter/program/eval"
)

// ActionKind distinguishes a thread's local step from a buffer
// propagation (spec §4.4).
type ActionKind int

const (
	ActionLocal ActionKind = iota
	ActionPropagate
)

// Action is one numbered entry of the enabled-action menu (spec §4.4,
// §6). Describe renders it for the interactive front end.
type Action struct {
	Kind      ActionKind
	Thread    int
	inst      program.Instruction // valid when Kind == ActionLocal
	memAction MemAction           // valid when Kind == ActionPropagate
}

// Describe renders the action the way the interactive front end's numbered
// menu shows it (spec §6).
func (a Action) Describe() string {
	if a.Kind == ActionPropagate {
		if a.memAction.Propagate.Loc != "" {
			return fmt.Sprintf("T%d: propagate %s", a.Thread, a.memAction.Propagate.Loc)
		}
		return fmt.Sprintf("T%d: propagate", a.Thread)
	}
	switch a.inst.Kind {
	case program.InstAssign:
		return fmt.Sprintf("T%d: %s = <expr>", a.Thread, a.inst.Dst)
	case program.InstLoad:
		return fmt.Sprintf("T%d: load %s #%s %s", a.Thread, a.inst.Mode, a.inst.Loc, a.inst.Reg)
	case program.InstStore:
		return fmt.Sprintf("T%d: store %s %s #%s", a.Thread, a.inst.Mode, a.inst.Reg, a.inst.Loc)
	case program.InstIfGoto:
		return fmt.Sprintf("T%d: if %s goto %s", a.Thread, a.inst.Cond, a.inst.Label)
	default:
		return fmt.Sprintf("T%d: <local step>", a.Thread)
	}
}

// ArithmeticError and UnknownLabelError are re-exported here so callers
// that only import "machine" can still type-switch on them; they are the
// same values the program and eval packages raise.
type ArithmeticError = eval.ArithmeticError
type UnknownLabelError = program.UnknownLabelError

// EnabledActions computes the global enabled-action list for s, in the
// stable order spec §4.4 requires: threads ascending; within a thread,
// local step before propagations.
func EnabledActions(s *State) []Action {
	var actions []Action
	for t := range s.Threads {
		if !s.finished(t) {
			if a, ok := localAction(s, t); ok {
				actions = append(actions, a)
			}
		}
		for _, mem := range s.Model.EnabledMemoryActions(s, t) {
			actions = append(actions, Action{Kind: ActionPropagate, Thread: t, memAction: mem})
		}
	}
	return actions
}

// localAction reports the single enabled local-step action for thread t,
// or ok=false if the next instruction is a Load/Store blocked by the
// memory model's SC-flush rule (spec §4.3, §4.4).
func localAction(s *State, t int) (Action, bool) {
	inst, ok := s.Programs[t].InstructionAt(s.Threads[t].PC)
	if !ok {
		return Action{}, false
	}
	if inst.Kind == program.InstLoad || inst.Kind == program.InstStore {
		if inst.Mode == program.SC && !s.Model.scFlushed(s, t) {
			return Action{}, false
		}
	}
	return Action{Kind: ActionLocal, Thread: t, inst: inst}, true
}

// Apply applies the action at the given index in EnabledActions(s)'s
// result to s, returning the successor state. s itself is left untouched
// (spec §5): on success a cloned, mutated state is returned; on
// ArithmeticError or UnknownLabelError the clone is discarded and s's
// caller should treat the session as aborted (spec §7).
func Apply(s *State, index int) (*State, error) {
	actions := EnabledActions(s)
	if index < 0 || index >= len(actions) {
		return nil, fmt.Errorf("action index %d out of range [0,%d)", index, len(actions))
	}
	next := s.clone()
	if err := apply(next, actions[index]); err != nil {
		return nil, err
	}
	return next, nil
}

func apply(s *State, a Action) error {
	if a.Kind == ActionPropagate {
		s.Model.Propagate(s, a.Thread, a.memAction.Propagate)
		return nil
	}
	t := a.Thread
	th := &s.Threads[t]
	switch a.inst.Kind {
	case program.InstAssign:
		v, err := eval.Eval(a.inst.Expr, th)
		if err != nil {
			return err
		}
		th.set(a.inst.Dst, v)
		s.recordEvent(Event{Thread: t, Kind: EventLocal})
		th.PC++

	case program.InstIfGoto:
		s.recordEvent(Event{Thread: t, Kind: EventLocal})
		if th.Get(a.inst.Cond) != 0 {
			idx, err := s.Programs[t].ResolveLabel(a.inst.Label)
			if err != nil {
				return err
			}
			th.PC = idx
		} else {
			th.PC++
		}

	case program.InstLoad:
		value, _ := s.Model.IssueLoad(s, t, a.inst.Loc, a.inst.Mode)
		th.set(a.inst.Reg, value)
		th.PC++

	case program.InstStore:
		value := th.Get(a.inst.Reg)
		s.Model.IssueStore(s, t, a.inst.Loc, value, a.inst.Mode)
		th.PC++

	default:
		return fmt.Errorf("machine: cannot apply instruction kind %v", a.inst.Kind)
	}

	if s.finished(t) {
		th.Alive = false
	}
	return nil
}

// Terminated reports whether no thread contributes any action — the
// interpreter's stopping condition (spec §4.4).
func Terminated(s *State) bool {
	return len(EnabledActions(s)) == 0
}
