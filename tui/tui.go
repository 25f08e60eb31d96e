// Package tui is the optional full-screen interactive front end selected
// by "-tui" (spec §6, SPEC_FULL §6), built on the same gdamore/tcell +
// rivo/tview stack the teacher's debugger/tui.go uses, with the panel
// layout and command-input pattern adapted from it: an actions panel, a
// registers panel, a memory panel, an output log, and a single command
// input that re-dispatches through the same menu/index/memory/registers/
// graph vocabulary as the plain repl package (spec §6).
package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/K-dizzled/isa-interprerter/config"
	"github.com/K-dizzled/isa-interprerter/export"
	"github.com/K-dizzled/isa-interprerter/machine"
	"github.com/K-dizzled/isa-interprerter/machine/stats"
)

// TUI is the full-screen front end's state, mirroring the teacher's
// TUI struct (debugger/tui.go) scaled to this interpreter's panels.
type TUI struct {
	state *machine.State

	App  *tview.Application
	root *tview.Flex

	ActionsView   *tview.List
	RegistersView *tview.TextView
	MemoryView    *tview.TextView
	OutputView    *tview.TextView
	CommandInput  *tview.InputField

	actions      []machine.Action
	stats        *stats.Collector
	numberFormat string

	// runtimeErr is set when handleCommand hits a session-aborting error
	// (spec §7); Run checks it after the event loop stops so the process
	// can exit with exitRuntimeErr (SPEC_FULL §6) the same way the repl
	// front end does.
	runtimeErr error
}

// WithStats attaches a diagnostics collector (config's Statistics/Trace
// toggles, SPEC_FULL §2 item 11); every applied action is recorded to it,
// and the "stats" command logs a summary to the output panel.
func (t *TUI) WithStats(c *stats.Collector) *TUI {
	t.stats = c
	return t
}

// WithNumberFormat sets the display.number_format config value ("hex" or
// "dec") used by the registers/memory panels (SPEC_FULL §2 item 7).
func (t *TUI) WithNumberFormat(format string) *TUI {
	t.numberFormat = format
	return t
}

// New builds the TUI around an initial machine state, using the real
// terminal screen.
func New(state *machine.State) *TUI {
	return NewWithScreen(state, nil)
}

// NewWithScreen builds the TUI with an explicit tcell.Screen, grounded on
// the teacher's debugger.NewTUIWithScreen (debugger/tui.go): passing a
// tcell.NewSimulationScreen() here lets tests drive the TUI headlessly
// without a real terminal. A nil screen leaves tview to open the real one.
func NewWithScreen(state *machine.State, screen tcell.Screen) *TUI {
	t := &TUI{
		state:        state,
		App:          tview.NewApplication(),
		numberFormat: "dec",
	}
	if screen != nil {
		t.App.SetScreen(screen)
	}
	t.initializeViews()
	t.buildLayout()
	t.refresh()
	return t
}

func (t *TUI) initializeViews() {
	t.ActionsView = tview.NewList().ShowSecondaryText(false)
	t.ActionsView.SetBorder(true).SetTitle(" Enabled actions ")

	t.RegistersView = tview.NewTextView().SetDynamicColors(true)
	t.RegistersView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ")
	t.CommandInput.SetBorder(true).SetTitle(" Command (index | exit | memory | registers | stats | graph <path>) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.ActionsView, 0, 1, true).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(t.RegistersView, 0, 1, false).
			AddItem(t.MemoryView, 0, 1, false), 0, 1, false)

	t.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, true).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, false)

	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			t.App.Stop()
			return nil
		}
		return event
	})
}

// Run starts the event loop, returning when the user exits. If the session
// was aborted by a runtime error (spec §7), that error is returned so main
// can exit with exitRuntimeErr (SPEC_FULL §6), matching the repl front end.
func (t *TUI) Run() error {
	t.App.SetFocus(t.CommandInput)
	if err := t.App.SetRoot(t.root, true).Run(); err != nil {
		return err
	}
	return t.runtimeErr
}

// isRuntimeError reports whether err is one of the session-aborting kinds
// named in spec §7 (ArithmeticError, UnknownLabelError), mirroring
// repl.isRuntimeError.
func isRuntimeError(err error) bool {
	var arith *machine.ArithmeticError
	var unknownLabel *machine.UnknownLabelError
	return errors.As(err, &arith) || errors.As(err, &unknownLabel)
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := strings.TrimSpace(t.CommandInput.GetText())
	t.CommandInput.SetText("")

	switch {
	case line == "exit":
		t.App.Stop()
		return
	case line == "memory" || line == "registers":
		t.refresh()
		return
	case line == "stats":
		if t.stats == nil {
			t.log("diagnostics collection is disabled")
		} else {
			t.log(t.stats.String())
		}
		return
	case strings.HasPrefix(line, "graph"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "graph"))
		if path == "" {
			t.log("usage: graph <path>")
			return
		}
		if err := export.ToFile(path, t.state.GraphSnapshot()); err != nil {
			t.log(fmt.Sprintf("error: %v", err))
			return
		}
		t.log(fmt.Sprintf("graph written to %s", path))
	default:
		idx, err := strconv.Atoi(line)
		if err != nil {
			t.log(fmt.Sprintf("unrecognized command %q", line))
			return
		}
		next, err := machine.Apply(t.state, idx)
		if err != nil {
			if isRuntimeError(err) {
				t.log(fmt.Sprintf("runtime error: %v", err))
				t.runtimeErr = err
				t.App.Stop()
				return
			}
			t.log(fmt.Sprintf("error: %v", err))
			return
		}
		if t.stats != nil && idx >= 0 && idx < len(t.actions) {
			t.stats.Record(t.actions[idx])
		}
		t.state = next
		t.refresh()
	}
}

// refresh redraws all panels from the current state, grounded on the
// teacher's QueueUpdateDraw usage for cross-goroutine-safe redraws
// (debugger/tui.go), though here refresh always runs on the UI goroutine
// itself since commands are dispatched synchronously from SetDoneFunc.
func (t *TUI) refresh() {
	t.actions = machine.EnabledActions(t.state)
	t.ActionsView.Clear()
	for i, a := range t.actions {
		t.ActionsView.AddItem(fmt.Sprintf("[%d] %s", i, a.Describe()), "", 0, nil)
	}

	t.RegistersView.Clear()
	for tid := range t.state.Threads {
		regs := t.state.RegistersOf(tid)
		names := make([]string, 0, len(regs))
		for n := range regs {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintf(t.RegistersView, "T%d:", tid)
		for _, n := range names {
			fmt.Fprintf(t.RegistersView, " %s=%s", n, config.FormatValue(t.numberFormat, regs[n]))
		}
		fmt.Fprintln(t.RegistersView)
	}

	t.MemoryView.Clear()
	snap := t.state.MemorySnapshot()
	locs := make([]string, 0, len(snap))
	for loc := range snap {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	for _, loc := range locs {
		fmt.Fprintf(t.MemoryView, "%s = %s\n", loc, config.FormatValue(t.numberFormat, snap[loc]))
	}
}

func (t *TUI) log(msg string) {
	fmt.Fprintln(t.OutputView, msg)
}
