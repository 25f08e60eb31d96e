package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K-dizzled/isa-interprerter/program"
	"github.com/K-dizzled/isa-interprerter/program/eval"
)

type fakeRegs map[string]int64

func (r fakeRegs) Get(name string) int64 { return r[name] }

func TestEvalConstAndReg(t *testing.T) {
	regs := fakeRegs{"r1": 42}

	v, err := eval.Eval(program.Expr{Kind: program.ExprConst, Const: 7}, regs)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = eval.Eval(program.Expr{Kind: program.ExprReg, Reg: "r1"}, regs)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// Unset registers read as zero (spec §4.2), never an error.
	v, err = eval.Eval(program.Expr{Kind: program.ExprReg, Reg: "r9"}, regs)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestEvalBinOps(t *testing.T) {
	regs := fakeRegs{"a": 6, "b": 3, "zero": 0, "one": 1}

	cases := []struct {
		op   program.BinOp
		lhs  string
		rhs  string
		want int64
	}{
		{program.OpAdd, "a", "b", 9},
		{program.OpSub, "a", "b", 3},
		{program.OpMul, "a", "b", 18},
		{program.OpDiv, "a", "b", 2},
		{program.OpMod, "a", "b", 0},
		{program.OpEq, "a", "a", 1},
		{program.OpEq, "a", "b", 0},
		{program.OpNeq, "a", "b", 1},
		{program.OpLt, "b", "a", 1},
		{program.OpLe, "b", "b", 1},
		{program.OpGt, "a", "b", 1},
		{program.OpGe, "a", "a", 1},
		{program.OpAnd, "one", "one", 1},
		{program.OpAnd, "one", "zero", 0},
		{program.OpOr, "zero", "one", 1},
		{program.OpOr, "zero", "zero", 0},
	}

	for _, tc := range cases {
		got, err := eval.Eval(program.Expr{Kind: program.ExprBinOp, Op: tc.op, Reg: tc.lhs, RHS: tc.rhs}, regs)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "%s %s %s", tc.lhs, tc.op, tc.rhs)
	}
}

func TestEvalDivByZero(t *testing.T) {
	regs := fakeRegs{"a": 6, "zero": 0}

	_, err := eval.Eval(program.Expr{Kind: program.ExprBinOp, Op: program.OpDiv, Reg: "a", RHS: "zero"}, regs)
	require.Error(t, err)

	var arith *eval.ArithmeticError
	require.ErrorAs(t, err, &arith)
	assert.Equal(t, program.OpDiv, arith.Op)
}

func TestEvalModByZero(t *testing.T) {
	regs := fakeRegs{"a": 6, "zero": 0}

	_, err := eval.Eval(program.Expr{Kind: program.ExprBinOp, Op: program.OpMod, Reg: "a", RHS: "zero"}, regs)
	require.Error(t, err)

	var arith *eval.ArithmeticError
	require.ErrorAs(t, err, &arith)
	assert.Equal(t, program.OpMod, arith.Op)
}
