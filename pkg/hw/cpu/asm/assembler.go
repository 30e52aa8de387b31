// Package asm implements a two pass assembler for LC-2K assembly.
//
// Each line has the form
//
//	label   opcode  field0  field1  field2  comments
//
// The label is optional and must start at the first column; lines without
// a label start with whitespace. Anything after the fields used by the
// opcode, or after a '#', is a comment. The .fill directive emits a single
// word holding a number or the address of a label.
//
// Symbolic offsets of lw and sw resolve to the label address. Symbolic beq
// offsets resolve to the distance from the branch to the label, so that
// "beq 0 0 loop" jumps to loop.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
)

const (
	FillDirective  = ".fill"
	MaxLabelLength = 6
	// Number of addressable words, programs must fit in memory
	MaxProgramSize = 1 << 16
)

var labelPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Statement is a parsed source line that emits one word
type Statement struct {
	Address uint32
	Line    int
	Label   string
	Opcode  string
	Fields  []string
	Text    string
}

// Program is the result of assembling a source file
type Program struct {
	Words []uint32
	// Address of every label
	Labels map[string]uint32
	// Statements sorted by address
	Statements []Statement
}

// LabelAt returns the label defined at addr, if any
func (p *Program) LabelAt(addr uint32) (string, bool) {
	for _, statement := range p.Statements {
		if statement.Address == addr && statement.Label != "" {
			return statement.Label, true
		}
	}
	return "", false
}

type assembler struct {
	file       string
	statements []Statement
	labels     map[string]uint32
}

// Assemble reads assembly source from r. name is used in error messages.
func Assemble(r io.Reader, name string) (*Program, error) {
	a := &assembler{
		file:   name,
		labels: map[string]uint32{},
	}

	if err := a.parse(r); err != nil {
		return nil, err
	}

	words := make([]uint32, len(a.statements))
	for i, statement := range a.statements {
		word, err := a.encode(statement)
		if err != nil {
			return nil, &SyntaxError{File: a.file, Line: statement.Line, Err: err}
		}
		words[i] = word
	}

	return &Program{
		Words:      words,
		Labels:     a.labels,
		Statements: a.statements,
	}, nil
}

// AssembleString assembles an in-memory source
func AssembleString(source string) (*Program, error) {
	return Assemble(strings.NewReader(source), "<input>")
}

// AssembleFile assembles the source file at path
func AssembleFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Assemble(f, path)
}

// First pass: split lines into fields, assign addresses and collect labels
func (a *assembler) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()

		code := raw
		if comment := strings.IndexByte(code, '#'); comment >= 0 {
			code = code[:comment]
		}

		tokens := strings.Fields(code)
		if len(tokens) == 0 {
			continue
		}

		statement := Statement{
			Address: uint32(len(a.statements)),
			Line:    lineNum,
			Text:    strings.TrimSpace(raw),
		}

		startsWithLabel := raw[0] != ' ' && raw[0] != '\t' && !isOpcode(tokens[0])
		if startsWithLabel {
			statement.Label = tokens[0]
			tokens = tokens[1:]

			if err := a.defineLabel(statement.Label, statement.Address); err != nil {
				return &SyntaxError{File: a.file, Line: lineNum, Err: err}
			}
		}

		if len(tokens) == 0 {
			return &SyntaxError{File: a.file, Line: lineNum, Err: utils.MakeError(ErrBadOpcode, "label %q without instruction", statement.Label)}
		}

		statement.Opcode = strings.ToLower(tokens[0])
		if !isOpcode(statement.Opcode) {
			return &SyntaxError{File: a.file, Line: lineNum, Err: utils.MakeError(ErrBadOpcode, "%q", tokens[0])}
		}

		expected := fieldCount(statement.Opcode)
		if len(tokens)-1 < expected {
			return &SyntaxError{File: a.file, Line: lineNum, Err: utils.MakeError(ErrBadOperand, "%s expects %d fields, got %d", statement.Opcode, expected, len(tokens)-1)}
		}
		// Extra tokens are comments
		statement.Fields = tokens[1 : 1+expected]

		if len(a.statements) >= MaxProgramSize {
			return &SyntaxError{File: a.file, Line: lineNum, Err: utils.MakeError(ErrProgramTooLong, "more than %d words", MaxProgramSize)}
		}
		a.statements = append(a.statements, statement)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w", a.file, err)
	}
	return nil
}

func (a *assembler) defineLabel(label string, addr uint32) error {
	if len(label) > MaxLabelLength || !labelPattern.MatchString(label) {
		return utils.MakeError(ErrBadLabel, "%q (labels are up to %d letters and digits, starting with a letter)", label, MaxLabelLength)
	}
	if previous, exists := a.labels[label]; exists {
		return utils.MakeError(ErrDuplicateLabel, "%q already defined at address %d", label, previous)
	}

	a.labels[label] = addr
	return nil
}

func isOpcode(token string) bool {
	if strings.EqualFold(token, FillDirective) {
		return true
	}
	_, ok := isa.ParseMnemonic(token)
	return ok
}

func fieldCount(opcode string) int {
	if opcode == FillDirective {
		return 1
	}

	op, _ := isa.ParseMnemonic(opcode)
	switch op.Format() {
	case isa.Format_R, isa.Format_I:
		return 3
	case isa.Format_J:
		return 2
	default:
		return 0
	}
}

// Second pass: resolve symbols and encode
func (a *assembler) encode(s Statement) (uint32, error) {
	if s.Opcode == FillDirective {
		return a.fill(s.Fields[0])
	}

	op, _ := isa.ParseMnemonic(s.Opcode)
	instr := isa.Instruction{OpCode: op}

	if op.Format() == isa.Format_O {
		return instr.Encode(), nil
	}

	var err error
	if instr.RegA, err = parseRegister(s.Fields[0]); err != nil {
		return 0, err
	}
	if instr.RegB, err = parseRegister(s.Fields[1]); err != nil {
		return 0, err
	}

	switch op.Format() {
	case isa.Format_R:
		if instr.Dest, err = parseRegister(s.Fields[2]); err != nil {
			return 0, err
		}
	case isa.Format_I:
		if instr.Offset, err = a.offset(op, s.Fields[2], s.Address); err != nil {
			return 0, err
		}
	}

	return instr.Encode(), nil
}

func parseRegister(field string) (isa.Register, error) {
	text := strings.TrimPrefix(strings.ToLower(field), "r")

	value, err := strconv.ParseUint(text, 10, 8)
	if err != nil || value >= isa.TotalRegisters {
		return 0, utils.MakeError(ErrBadOperand, "register %q (expected 0-%d)", field, isa.TotalRegisters-1)
	}
	return isa.Register(value), nil
}

func isNumber(field string) bool {
	return len(field) > 0 && (field[0] == '-' || field[0] == '+' || (field[0] >= '0' && field[0] <= '9'))
}

func parseNumber(field string) (int64, error) {
	value, err := strconv.ParseInt(field, 0, 64)
	if err != nil {
		return 0, utils.MakeError(ErrBadOperand, "number %q", field)
	}
	return value, nil
}

func (a *assembler) resolve(label string) (uint32, error) {
	addr, ok := a.labels[label]
	if !ok {
		return 0, utils.MakeError(ErrUndefinedLabel, "%q", label)
	}
	return addr, nil
}

func (a *assembler) offset(op isa.OpCode, field string, pc uint32) (int16, error) {
	var value int64

	if isNumber(field) {
		number, err := parseNumber(field)
		if err != nil {
			return 0, err
		}
		value = number
	} else {
		addr, err := a.resolve(field)
		if err != nil {
			return 0, err
		}

		value = int64(addr)
		if op == isa.OpCode_BEQ {
			value -= int64(pc)
		}
	}

	if value < math.MinInt16 || value > math.MaxInt16 {
		return 0, utils.MakeError(ErrOffsetRange, "%d does not fit in 16 bits", value)
	}
	return int16(value), nil
}

func (a *assembler) fill(field string) (uint32, error) {
	if !isNumber(field) {
		return a.resolve(field)
	}

	value, err := parseNumber(field)
	if err != nil {
		return 0, err
	}
	if value < math.MinInt32 || value > math.MaxUint32 {
		return 0, utils.MakeError(ErrOffsetRange, ".fill value %d does not fit in 32 bits", value)
	}
	return uint32(value), nil
}
