// Package repl is the interactive, plain-terminal front end of spec §6:
// it prints the numbered enabled-action menu and dispatches the commands
// <index>, exit, memory, registers and graph <path>. Grounded on the
// teacher's debugger package (debugger/debugger.go's ExecuteCommand
// dispatch, debugger/history.go's CommandHistory), since the front end
// itself is explicitly out of the core's scope (spec §1) but still needs
// the same "parse a line, dispatch a command" shape the teacher's
// debugger uses.
package repl

import "sync"

// History maintains a bounded command history (spec's config
// Interactive.HistorySize), grounded on debugger/history.go.
type History struct {
	mu       sync.Mutex
	commands []string
	maxSize  int
}

// NewHistory creates a History capped at maxSize entries.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &History{maxSize: maxSize}
}

// Add records cmd, dropping empty lines and immediate repeats.
func (h *History) Add(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cmd == "" {
		return
	}
	if n := len(h.commands); n > 0 && h.commands[n-1] == cmd {
		return
	}
	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
}

// All returns a copy of the recorded commands, oldest first.
func (h *History) All() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}
