// Package export serializes an execution graph snapshot as Graphviz DOT
// (spec §4.5, §6). No DOT/graphviz binding exists anywhere in the
// retrieved example pack, so this follows the one concrete precedent
// found there — aclements/go-misc/rtcheck/order.go's WriteToDot — which
// hand-writes the digraph with plain fmt.Fprintf rather than pulling in a
// graph-serialization library (see DESIGN.md).
package export

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/K-dizzled/isa-interprerter/machine"
)

var edgeStyle = map[machine.EdgeKind]string{
	machine.EdgePO: "style=solid",
	machine.EdgeRF: "style=dashed",
	machine.EdgeMO: "style=bold",
	machine.EdgeSW: "style=dotted",
	machine.EdgeFR: "style=solid,penwidth=0.5",
}

var edgeLabel = map[machine.EdgeKind]string{
	machine.EdgePO: "po",
	machine.EdgeRF: "rf",
	machine.EdgeMO: "mo",
	machine.EdgeSW: "sw",
	machine.EdgeFR: "fr",
}

// DOT writes snap as a Graphviz digraph to w.
func DOT(w io.Writer, snap machine.Snapshot) error {
	fmt.Fprintf(w, "digraph execution {\n")
	fmt.Fprintf(w, "  rankdir=LR;\n")

	for _, e := range snap.Events {
		label := fmt.Sprintf("e%d\\nT%d@%d %s", e.ID, e.Thread, e.InstIdx, e.Kind)
		if e.Loc != "" {
			label += fmt.Sprintf("\\n%s=%d", e.Loc, e.Value)
		}
		fmt.Fprintf(w, "  n%d [label=%q];\n", e.ID, label)
	}

	writeEdges(w, snap.PO, machine.EdgePO)
	writeEdges(w, snap.RF, machine.EdgeRF)
	writeEdges(w, snap.SW, machine.EdgeSW)
	writeEdges(w, snap.FR, machine.EdgeFR)
	writeMO(w, snap.MO)

	fmt.Fprintf(w, "}\n")
	return nil
}

func writeEdges(w io.Writer, edges map[machine.EventID][]machine.EventID, kind machine.EdgeKind) {
	froms := make([]machine.EventID, 0, len(edges))
	for from := range edges {
		froms = append(froms, from)
	}
	sort.Slice(froms, func(i, j int) bool { return froms[i] < froms[j] })

	for _, from := range froms {
		tos := append([]machine.EventID(nil), edges[from]...)
		sort.Slice(tos, func(i, j int) bool { return tos[i] < tos[j] })
		for _, to := range tos {
			fmt.Fprintf(w, "  n%d -> n%d [%s,label=%q];\n", from, to, edgeStyle[kind], edgeLabel[kind])
		}
	}
}

func writeMO(w io.Writer, mo map[string][]machine.EventID) {
	locs := make([]string, 0, len(mo))
	for loc := range mo {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	for _, loc := range locs {
		order := mo[loc]
		for i := 0; i+1 < len(order); i++ {
			fmt.Fprintf(w, "  n%d -> n%d [%s,label=%q];\n", order[i], order[i+1], edgeStyle[machine.EdgeMO], edgeLabel[machine.EdgeMO]+":"+loc)
		}
	}
}

// ToFile writes snap as DOT to the given path (spec §6 "graph <path>").
func ToFile(path string, snap machine.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()
	return DOT(f, snap)
}
