package parser_test

import (
	"testing"

	"github.com/K-dizzled/isa-interprerter/parser"
	"github.com/K-dizzled/isa-interprerter/program"
)

func TestParseAssignConst(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{"r1 = 5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Length() != 1 {
		t.Fatalf("expected 1 instruction, got %d", p.Length())
	}
	inst, _ := p.InstructionAt(0)
	if inst.Kind != program.InstAssign || inst.Dst != "r1" {
		t.Fatalf("unexpected instruction: %+v", inst)
	}
	if inst.Expr.Kind != program.ExprConst || inst.Expr.Const != 5 {
		t.Fatalf("unexpected expr: %+v", inst.Expr)
	}
}

func TestParseAssignBinOp(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{"r3 = r1 + r2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst, _ := p.InstructionAt(0)
	if inst.Expr.Kind != program.ExprBinOp || inst.Expr.Op != program.OpAdd {
		t.Fatalf("unexpected expr: %+v", inst.Expr)
	}
	if inst.Expr.Reg != "r1" || inst.Expr.RHS != "r2" {
		t.Fatalf("unexpected operands: %+v", inst.Expr)
	}
}

func TestParseAssignNegativeConst(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{"r1 = -3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst, _ := p.InstructionAt(0)
	if inst.Expr.Const != -3 {
		t.Fatalf("expected -3, got %d", inst.Expr.Const)
	}
}

func TestParseLoadStore(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{
		"load ACQ #mA r1",
		"store REL r1 #mB",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	load, _ := p.InstructionAt(0)
	if load.Kind != program.InstLoad || load.Mode != program.ACQ || load.Loc != "mA" || load.Reg != "r1" {
		t.Fatalf("unexpected load: %+v", load)
	}

	store, _ := p.InstructionAt(1)
	if store.Kind != program.InstStore || store.Mode != program.REL || store.Loc != "mB" || store.Reg != "r1" {
		t.Fatalf("unexpected store: %+v", store)
	}
}

func TestParseIfGotoAndLabel(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{
		"r1 = 1",
		"loop: r1 = r1 - r2",
		"if r1 goto loop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx, err := p.ResolveLabel("loop")
	if err != nil {
		t.Fatalf("expected label 'loop' to resolve: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}

	ifgoto, _ := p.InstructionAt(2)
	if ifgoto.Kind != program.InstIfGoto || ifgoto.Cond != "r1" || ifgoto.Label != "loop" {
		t.Fatalf("unexpected if-goto: %+v", ifgoto)
	}
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	p, err := parser.Parse("t.isa", []string{
		"# a full-line comment",
		"",
		"r1 = 1 # trailing comment",
		"   ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Length() != 1 {
		t.Fatalf("expected comments/blank lines to be skipped, got %d instructions", p.Length())
	}
}

func TestParseDuplicateLabel(t *testing.T) {
	_, err := parser.Parse("t.isa", []string{
		"a: r1 = 1",
		"a: r2 = 2",
	})
	if err == nil {
		t.Fatal("expected a duplicate-label error")
	}
}

func TestParseLabelWithoutInstruction(t *testing.T) {
	_, err := parser.Parse("t.isa", []string{"a:"})
	if err == nil {
		t.Fatal("expected an error for a label with no attached instruction")
	}
}

func TestParseUnrecognizedInstruction(t *testing.T) {
	_, err := parser.Parse("t.isa", []string{"frobnicate r1"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized instruction")
	}
}

func TestParseMalformedLoad(t *testing.T) {
	_, err := parser.Parse("t.isa", []string{"load ACQ mA r1"})
	if err == nil {
		t.Fatal("expected an error for a load missing the '#' sigil")
	}
}

func TestParseUnknownAccessMode(t *testing.T) {
	_, err := parser.Parse("t.isa", []string{"load XYZ #mA r1"})
	if err == nil {
		t.Fatal("expected an error for an unknown access mode")
	}
}
