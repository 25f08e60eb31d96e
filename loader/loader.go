// Package loader wires parsed programs into an initial machine.State, one
// thread per source file in launch order (spec §3 "Thread id — the index
// of a program in the launch list"). Grounded on the teacher's loader
// package (loader/loader.go LoadProgramIntoVM), generalized from "encode
// one assembly program into a VM's byte memory" to "hand one parsed
// Program per file to the machine core", since this ISA has no binary
// encoding step (see DESIGN.md).
package loader

import (
	"fmt"
	"strings"

	"github.com/K-dizzled/isa-interprerter/machine"
	"github.com/K-dizzled/isa-interprerter/parser"
	"github.com/K-dizzled/isa-interprerter/program"
)

// LoadPaths parses a comma-separated file list, in order, into one
// program.Program per thread (spec §6 CLI surface "-p <PATHS>").
func LoadPaths(commaSeparated string) ([]*program.Program, error) {
	var paths []string
	for _, p := range strings.Split(commaSeparated, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("loader: no program paths given")
	}

	programs := make([]*program.Program, len(paths))
	for i, path := range paths {
		p, err := parser.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("loader: thread %d (%s): %w", i, path, err)
		}
		programs[i] = p
	}
	return programs, nil
}

// NewMachine parses the given paths and builds the initial machine.State
// under the given memory model, one thread per path.
func NewMachine(commaSeparatedPaths string, model machine.ModelKind) (*machine.State, error) {
	programs, err := LoadPaths(commaSeparatedPaths)
	if err != nil {
		return nil, err
	}
	return machine.NewState(programs, model), nil
}
