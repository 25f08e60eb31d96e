// Package parser is the external lexer/parser collaborator spec.md places
// out of the core's scope (§1): it turns instruction text into the
// program.Program the machine core consumes. Grounded on the teacher's
// parser package (parser/parser.go, parser/lexer.go), generalized from ARM
// assembly down to this ISA's five instruction shapes (spec §6).
package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/K-dizzled/isa-interprerter/program"
)

// ParseFile reads path and parses it into a Program. Each non-blank,
// non-comment line is exactly one instruction, optionally prefixed by a
// "LABEL:" attached to that same instruction (spec §6).
func ParseFile(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return Parse(path, lines)
}

// Parse parses the given source lines (already split, as ParseFile does
// for a file) into a Program.
func Parse(filename string, lines []string) (*program.Program, error) {
	var instructions []program.Instruction
	labels := make(map[string]int)

	for lineNo, raw := range lines {
		pos := Position{Filename: filename, Line: lineNo + 1}

		text := stripComment(raw)
		if strings.TrimSpace(text) == "" {
			continue
		}

		labelName, rest := splitLabel(text)
		toks := lexLine(rest)
		if len(toks) == 1 && toks[0].Type == TokenEOF {
			if labelName != "" {
				return nil, newError(pos, raw, "label %q has no attached instruction", labelName)
			}
			continue
		}

		inst, err := parseInstruction(pos, raw, toks)
		if err != nil {
			return nil, err
		}
		inst.Line = lineNo + 1

		if labelName != "" {
			if _, dup := labels[labelName]; dup {
				return nil, newError(pos, raw, "duplicate label %q", labelName)
			}
			labels[labelName] = len(instructions)
		}
		instructions = append(instructions, inst)
	}

	return program.New(instructions, labels), nil
}

// stripComment drops everything from an unescaped '#' that is not
// immediately followed by an identifier (the location sigil), which is how
// lexLine itself distinguishes the two uses of '#' (spec §6).
func stripComment(line string) string {
	runes := []rune(line)
	for i, ch := range runes {
		if ch == '#' {
			if i+1 < len(runes) && isIdentStart(runes[i+1]) {
				continue
			}
			return string(runes[:i])
		}
	}
	return line
}

// splitLabel detects a "LABEL: instruction" prefix and returns the label
// name (or "" if none) and the remaining instruction text.
func splitLabel(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	idx := strings.IndexByte(trimmed, ':')
	if idx < 0 {
		return "", line
	}
	candidate := strings.TrimSpace(trimmed[:idx])
	if candidate == "" || strings.ContainsAny(candidate, " \t") {
		return "", line
	}
	for _, r := range candidate {
		if !isIdentChar(r) && !isIdentStart(r) {
			return "", line
		}
	}
	return candidate, trimmed[idx+1:]
}

func parseInstruction(pos Position, raw string, toks []Token) (program.Instruction, error) {
	if len(toks) >= 2 && toks[0].Type == TokenIdent && strings.EqualFold(toks[0].Literal, "if") {
		return parseIfGoto(pos, raw, toks)
	}
	if len(toks) >= 1 && toks[0].Type == TokenIdent && strings.EqualFold(toks[0].Literal, "load") {
		return parseLoad(pos, raw, toks)
	}
	if len(toks) >= 1 && toks[0].Type == TokenIdent && strings.EqualFold(toks[0].Literal, "store") {
		return parseStore(pos, raw, toks)
	}
	if len(toks) >= 2 && toks[0].Type == TokenIdent && toks[1].Type == TokenEqual {
		return parseAssign(pos, raw, toks)
	}
	return program.Instruction{}, newError(pos, raw, "unrecognized instruction")
}

func parseAssign(pos Position, raw string, toks []Token) (program.Instruction, error) {
	dst := toks[0].Literal
	rhs := toks[2:]
	if len(rhs) < 1 {
		return program.Instruction{}, newError(pos, raw, "assignment missing right-hand side")
	}

	var expr program.Expr
	switch {
	case rhs[0].Type == TokenNumber:
		v, err := strconv.ParseInt(rhs[0].Literal, 10, 64)
		if err != nil {
			return program.Instruction{}, newError(pos, raw, "invalid integer literal %q", rhs[0].Literal)
		}
		expr = program.Expr{Kind: program.ExprConst, Const: v}
	case rhs[0].Type == TokenIdent && len(rhs) == 2 && rhs[1].Type == TokenEOF:
		expr = program.Expr{Kind: program.ExprReg, Reg: rhs[0].Literal}
	case rhs[0].Type == TokenIdent && len(rhs) >= 3 && rhs[1].Type == TokenOp:
		op, err := parseBinOp(rhs[1].Literal)
		if err != nil {
			return program.Instruction{}, newError(pos, raw, "%s", err)
		}
		if rhs[2].Type != TokenIdent {
			return program.Instruction{}, newError(pos, raw, "expected register after operator")
		}
		expr = program.Expr{Kind: program.ExprBinOp, Reg: rhs[0].Literal, Op: op, RHS: rhs[2].Literal}
	default:
		return program.Instruction{}, newError(pos, raw, "malformed expression")
	}

	return program.Instruction{Kind: program.InstAssign, Dst: dst, Expr: expr}, nil
}

func parseBinOp(lit string) (program.BinOp, error) {
	switch lit {
	case "+":
		return program.OpAdd, nil
	case "-":
		return program.OpSub, nil
	case "*":
		return program.OpMul, nil
	case "/":
		return program.OpDiv, nil
	case "%":
		return program.OpMod, nil
	case "==":
		return program.OpEq, nil
	case "!=":
		return program.OpNeq, nil
	case "<":
		return program.OpLt, nil
	case "<=":
		return program.OpLe, nil
	case ">":
		return program.OpGt, nil
	case ">=":
		return program.OpGe, nil
	case "&&":
		return program.OpAnd, nil
	case "||":
		return program.OpOr, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", lit)
	}
}

func parseLoad(pos Position, raw string, toks []Token) (program.Instruction, error) {
	// load <MODE> #<loc> <reg>
	if len(toks) < 5 || toks[2].Type != TokenHash {
		return program.Instruction{}, newError(pos, raw, "expected 'load <MODE> #<loc> <reg>'")
	}
	mode, err := program.ParseAccessMode(toks[1].Literal)
	if err != nil {
		return program.Instruction{}, newError(pos, raw, "%s", err)
	}
	loc := toks[3].Literal
	reg := toks[4].Literal
	return program.Instruction{Kind: program.InstLoad, Mode: mode, Loc: loc, Reg: reg}, nil
}

func parseStore(pos Position, raw string, toks []Token) (program.Instruction, error) {
	// store <MODE> <reg> #<loc>
	if len(toks) < 5 || toks[3].Type != TokenHash {
		return program.Instruction{}, newError(pos, raw, "expected 'store <MODE> <reg> #<loc>'")
	}
	mode, err := program.ParseAccessMode(toks[1].Literal)
	if err != nil {
		return program.Instruction{}, newError(pos, raw, "%s", err)
	}
	reg := toks[2].Literal
	loc := toks[4].Literal
	return program.Instruction{Kind: program.InstStore, Mode: mode, Loc: loc, Reg: reg}, nil
}

func parseIfGoto(pos Position, raw string, toks []Token) (program.Instruction, error) {
	// if <reg> goto <label>
	if len(toks) < 4 || !strings.EqualFold(toks[2].Literal, "goto") {
		return program.Instruction{}, newError(pos, raw, "expected 'if <reg> goto <label>'")
	}
	return program.Instruction{Kind: program.InstIfGoto, Cond: toks[1].Literal, Label: toks[3].Literal}, nil
}
