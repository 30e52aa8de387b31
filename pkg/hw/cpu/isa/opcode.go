package isa

import (
	"fmt"
	"strings"
)

// Represents an instruction opcode
type OpCode uint8

const (
	// Add values of two registers, save result into third
	OpCode_ADD OpCode = iota
	// Bitwise NOR of two registers, save result into third
	OpCode_NOR
	// Load word from memory into register
	OpCode_LW
	// Store register value into memory
	OpCode_SW
	// Branch if two registers are equal
	OpCode_BEQ
	// Jump to register, saving the return address into another register
	OpCode_JALR
	// Stop the machine
	OpCode_HALT
	// No-Operation
	OpCode_NOOP

	// Total opcodes implemented
	TOTAL_OPCODES
)

// Instruction encoding format, determines which operand fields are meaningful
type Format uint8

const (
	// Register-register: regA, regB, destReg
	Format_R Format = iota
	// Register-immediate: regA, regB, 16 bit signed offset
	Format_I
	// Register jump: regA, regB
	Format_J
	// No operands
	Format_O
)

func (f Format) String() string {
	switch f {
	case Format_R:
		return "R"
	case Format_I:
		return "I"
	case Format_J:
		return "J"
	case Format_O:
		return "O"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Describes an opcode
type OpCodeDescriptor struct {
	OpCode   OpCode
	Mnemonic string
	Format   Format
	// Assembly operand syntax
	Syntax string
	// One line summary of the instruction semantics
	Summary string
}

var descriptors = [TOTAL_OPCODES]OpCodeDescriptor{
	{OpCode_ADD, "add", Format_R, "add regA regB destReg", "destReg <- regA + regB (32 bit wrapping addition)"},
	{OpCode_NOR, "nor", Format_R, "nor regA regB destReg", "destReg <- ~(regA | regB)"},
	{OpCode_LW, "lw", Format_I, "lw regA regB offset", "regB <- mem[regA + offset]"},
	{OpCode_SW, "sw", Format_I, "sw regA regB offset", "mem[regA + offset] <- regB"},
	{OpCode_BEQ, "beq", Format_I, "beq regA regB offset", "if regA == regB then pc <- pc + offset"},
	{OpCode_JALR, "jalr", Format_J, "jalr regA regB", "regB <- pc + 1, then pc <- regA"},
	{OpCode_HALT, "halt", Format_O, "halt", "stop the machine"},
	{OpCode_NOOP, "noop", Format_O, "noop", "do nothing"},
}

var mnemonicsToOpCode = func() map[string]OpCode {
	m := make(map[string]OpCode, len(descriptors))
	for _, d := range descriptors {
		m[d.Mnemonic] = d.OpCode
	}
	return m
}()

// Returns the descriptors of all opcodes, sorted by opcode value
func Descriptors() []OpCodeDescriptor {
	return descriptors[:]
}

// Returns the descriptor of the opcode. Opcode values are masked to 3 bits.
func (op OpCode) Descriptor() *OpCodeDescriptor {
	return &descriptors[op&OpCodeMask]
}

// Returns the mnemonic of the instruction opcode
func (op OpCode) String() string {
	return op.Descriptor().Mnemonic
}

func (op OpCode) Format() Format {
	return op.Descriptor().Format
}

// Returns the opcode corresponding to the given mnemonic (case insensitive)
func ParseMnemonic(mnemonic string) (OpCode, bool) {
	op, ok := mnemonicsToOpCode[strings.ToLower(mnemonic)]
	return op, ok
}

// Returns the set of all mnemonics, useful for syntax highlighting
func Mnemonics() map[string]bool {
	set := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		set[d.Mnemonic] = true
	}
	return set
}
