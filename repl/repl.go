package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/K-dizzled/isa-interprerter/config"
	"github.com/K-dizzled/isa-interprerter/export"
	"github.com/K-dizzled/isa-interprerter/machine"
	"github.com/K-dizzled/isa-interprerter/machine/stats"
)

// REPL drives the step engine interactively: print the enabled-action
// menu, read one command, apply it, repeat (spec §6). It never mutates
// the engine's rules — it only calls machine.EnabledActions/machine.Apply
// — matching spec §4.4's "pure step function" design note.
type REPL struct {
	state        *machine.State
	in           *bufio.Scanner
	out          io.Writer
	history      *History
	stats        *stats.Collector
	numberFormat string
}

// New creates a REPL reading commands from in and writing menus/output to
// out.
func New(state *machine.State, in io.Reader, out io.Writer, historySize int) *REPL {
	return &REPL{
		state:        state,
		in:           bufio.NewScanner(in),
		out:          out,
		history:      NewHistory(historySize),
		numberFormat: "dec",
	}
}

// WithStats attaches a diagnostics collector (config's Statistics/Trace
// toggles, SPEC_FULL §2 item 11); every applied action is recorded to it,
// and the "stats" command dumps a summary.
func (r *REPL) WithStats(c *stats.Collector) *REPL {
	r.stats = c
	return r
}

// WithNumberFormat sets the display.number_format config value ("hex" or
// "dec") used by the memory/registers dumps (SPEC_FULL §2 item 7).
func (r *REPL) WithNumberFormat(format string) *REPL {
	r.numberFormat = format
	return r
}

// Run drives the interactive loop until the user exits, the interpreter
// terminates (no enabled actions), or a runtime error aborts the session
// (spec §7). It returns the error to surface as the process's exit cause,
// or nil on a clean exit/termination.
func (r *REPL) Run() error {
	for {
		if machine.Terminated(r.state) {
			fmt.Fprintln(r.out, "no enabled actions; interpreter terminated")
			return nil
		}

		actions := machine.EnabledActions(r.state)
		r.printMenu(actions)

		if !r.in.Scan() {
			return nil // EOF on stdin behaves like "exit"
		}
		line := strings.TrimSpace(r.in.Text())
		r.history.Add(line)

		done, err := r.dispatch(line, actions)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *REPL) printMenu(actions []machine.Action) {
	fmt.Fprintln(r.out, "enabled actions:")
	for i, a := range actions {
		fmt.Fprintf(r.out, "  [%d] %s\n", i, a.Describe())
	}
}

func (r *REPL) dispatch(line string, actions []machine.Action) (done bool, err error) {
	switch {
	case line == "exit":
		return true, nil

	case line == "memory":
		r.dumpMemory()
		return false, nil

	case line == "registers":
		r.dumpRegisters()
		return false, nil

	case line == "stats":
		if r.stats == nil {
			fmt.Fprintln(r.out, "diagnostics collection is disabled")
		} else {
			fmt.Fprint(r.out, r.stats.String())
		}
		return false, nil

	case strings.HasPrefix(line, "graph"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "graph"))
		if path == "" {
			fmt.Fprintln(r.out, "usage: graph <path>")
			return false, nil
		}
		if err := export.ToFile(path, r.state.GraphSnapshot()); err != nil {
			fmt.Fprintln(r.out, "error:", err)
		}
		return false, nil

	default:
		idx, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintf(r.out, "unrecognized command %q\n", line)
			return false, nil
		}
		next, applyErr := machine.Apply(r.state, idx)
		if applyErr != nil {
			if isRuntimeError(applyErr) {
				fmt.Fprintf(r.out, "runtime error: %v\n", applyErr)
				return true, applyErr
			}
			fmt.Fprintln(r.out, "error:", applyErr)
			return false, nil
		}
		if r.stats != nil {
			r.stats.Record(actions[idx])
		}
		r.state = next
		return false, nil
	}
}

// isRuntimeError reports whether err is one of the session-aborting kinds
// named in spec §7 (ArithmeticError, UnknownLabelError) as opposed to a
// plain out-of-range index, which the user can simply retry.
func isRuntimeError(err error) bool {
	var arith *machine.ArithmeticError
	var unknownLabel *machine.UnknownLabelError
	return errors.As(err, &arith) || errors.As(err, &unknownLabel)
}

func (r *REPL) dumpMemory() {
	snap := r.state.MemorySnapshot()
	locs := make([]string, 0, len(snap))
	for loc := range snap {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	for _, loc := range locs {
		fmt.Fprintf(r.out, "  %s -> %s\n", loc, config.FormatValue(r.numberFormat, snap[loc]))
	}
}

func (r *REPL) dumpRegisters() {
	for t := range r.state.Threads {
		regs := r.state.RegistersOf(t)
		names := make([]string, 0, len(regs))
		for name := range regs {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(r.out, "thread %d:\n", t)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %s -> %s\n", name, config.FormatValue(r.numberFormat, regs[name]))
		}
	}
}
