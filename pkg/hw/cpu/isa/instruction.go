// Package isa implements the LC-2K instruction set: eight 32-bit instruction
// forms over eight general purpose registers.
//
// Instruction word layout:
//
//	24     22 21   19 18   16 15                      0
//	+--------+-------+-------+-------------------------+
//	| opcode | regA  | regB  | offset / destReg (2..0) |
//	+--------+-------+-------+-------------------------+
//
// Decoding is a total function: every 32-bit word maps to exactly one
// instruction. Bits 31-25 are ignored.
package isa

import (
	"fmt"

	"github.com/Manu343726/lc2k/pkg/utils"
)

const (
	OpCodePosition = 22
	OpCodeBits     = 3
	OpCodeMask     = OpCode(1<<OpCodeBits - 1)
	RegAPosition   = 19
	RegBPosition   = 16
	DestPosition   = 0
	RegisterBits   = 3
	OffsetPosition = 0
	OffsetBits     = 16
)

// One of the 8 general purpose registers
type Register uint8

const TotalRegisters = 8

// Builds a register from the low 3 bits of a value
func RegisterFromBits(bits uint32) Register {
	return Register(bits & (1<<RegisterBits - 1))
}

func (r Register) String() string {
	return fmt.Sprintf("r%d", uint8(r))
}

// A decoded instruction. OpCode is the tag; only the operand fields used by
// the opcode format are set, the rest are zero:
//
//	Format_R: RegA, RegB, Dest
//	Format_I: RegA, RegB, Offset
//	Format_J: RegA, RegB
//	Format_O: none
type Instruction struct {
	OpCode OpCode
	RegA   Register
	RegB   Register
	Dest   Register
	Offset int16
}

// Decodes an instruction word
func Decode(word uint32) Instruction {
	view := utils.CreateBitView(&word)
	op := OpCode(view.Read(OpCodePosition, OpCodeBits))

	regA := RegisterFromBits(view.Read(RegAPosition, RegisterBits))
	regB := RegisterFromBits(view.Read(RegBPosition, RegisterBits))

	switch op.Format() {
	case Format_R:
		return Instruction{OpCode: op, RegA: regA, RegB: regB, Dest: RegisterFromBits(view.Read(DestPosition, RegisterBits))}
	case Format_I:
		return Instruction{OpCode: op, RegA: regA, RegB: regB, Offset: int16(view.Read(OffsetPosition, OffsetBits))}
	case Format_J:
		return Instruction{OpCode: op, RegA: regA, RegB: regB}
	default:
		return Instruction{OpCode: op}
	}
}

// Returns the binary representation of the instruction. Fields not used by
// the instruction format are encoded as zero, so Decode(i.Encode()) == i for
// any instruction built with the constructors in this package.
func (i Instruction) Encode() uint32 {
	var word uint32
	view := utils.CreateBitView(&word)

	view.Write(uint32(i.OpCode), OpCodePosition, OpCodeBits)

	switch i.OpCode.Format() {
	case Format_R:
		view.Write(uint32(i.RegA), RegAPosition, RegisterBits)
		view.Write(uint32(i.RegB), RegBPosition, RegisterBits)
		view.Write(uint32(i.Dest), DestPosition, RegisterBits)
	case Format_I:
		view.Write(uint32(i.RegA), RegAPosition, RegisterBits)
		view.Write(uint32(i.RegB), RegBPosition, RegisterBits)
		view.Write(uint32(uint16(i.Offset)), OffsetPosition, OffsetBits)
	case Format_J:
		view.Write(uint32(i.RegA), RegAPosition, RegisterBits)
		view.Write(uint32(i.RegB), RegBPosition, RegisterBits)
	}

	return word
}

// Returns the assembly text of the instruction, e.g. "lw 0 1 -4"
func (i Instruction) String() string {
	switch i.OpCode.Format() {
	case Format_R:
		return fmt.Sprintf("%v %d %d %d", i.OpCode, i.RegA, i.RegB, i.Dest)
	case Format_I:
		return fmt.Sprintf("%v %d %d %d", i.OpCode, i.RegA, i.RegB, i.Offset)
	case Format_J:
		return fmt.Sprintf("%v %d %d", i.OpCode, i.RegA, i.RegB)
	default:
		return i.OpCode.String()
	}
}

func signedTerm(offset int16) string {
	if offset < 0 {
		return fmt.Sprintf(" - %d", -int32(offset))
	}
	return fmt.Sprintf(" + %d", offset)
}

// Returns a description of what the instruction does, e.g. "r3 <- r1 + r2"
func (i Instruction) Describe() string {
	switch i.OpCode {
	case OpCode_ADD:
		return fmt.Sprintf("%v <- %v + %v", i.Dest, i.RegA, i.RegB)
	case OpCode_NOR:
		return fmt.Sprintf("%v <- ~(%v | %v)", i.Dest, i.RegA, i.RegB)
	case OpCode_LW:
		return fmt.Sprintf("%v <- mem[%v%s]", i.RegB, i.RegA, signedTerm(i.Offset))
	case OpCode_SW:
		return fmt.Sprintf("mem[%v%s] <- %v", i.RegA, signedTerm(i.Offset), i.RegB)
	case OpCode_BEQ:
		return fmt.Sprintf("if %v == %v then pc <- pc%s", i.RegA, i.RegB, signedTerm(i.Offset))
	case OpCode_JALR:
		return fmt.Sprintf("%v <- pc + 1; pc <- %v", i.RegB, i.RegA)
	case OpCode_HALT:
		return "halt the machine"
	default:
		return "no operation"
	}
}

// Returns the bit fields used by the instruction encoding, named after their
// current values. Useful to draw the instruction layout with utils.BitFrame.
func (i Instruction) Fields() []utils.BitField {
	fields := []utils.BitField{
		{Name: fmt.Sprintf("%v %v", i.OpCode, utils.FormatUintBinary(uint8(i.OpCode), OpCodeBits)), Begin: OpCodePosition, Width: OpCodeBits},
	}

	switch i.OpCode.Format() {
	case Format_R:
		fields = append(fields,
			utils.BitField{Name: fmt.Sprintf("regA %d", i.RegA), Begin: RegAPosition, Width: RegisterBits},
			utils.BitField{Name: fmt.Sprintf("regB %d", i.RegB), Begin: RegBPosition, Width: RegisterBits},
			utils.BitField{Name: fmt.Sprintf("dest %d", i.Dest), Begin: DestPosition, Width: RegisterBits},
		)
	case Format_I:
		fields = append(fields,
			utils.BitField{Name: fmt.Sprintf("regA %d", i.RegA), Begin: RegAPosition, Width: RegisterBits},
			utils.BitField{Name: fmt.Sprintf("regB %d", i.RegB), Begin: RegBPosition, Width: RegisterBits},
			utils.BitField{Name: fmt.Sprintf("offset %d", i.Offset), Begin: OffsetPosition, Width: OffsetBits},
		)
	case Format_J:
		fields = append(fields,
			utils.BitField{Name: fmt.Sprintf("regA %d", i.RegA), Begin: RegAPosition, Width: RegisterBits},
			utils.BitField{Name: fmt.Sprintf("regB %d", i.RegB), Begin: RegBPosition, Width: RegisterBits},
		)
	}

	return fields
}
