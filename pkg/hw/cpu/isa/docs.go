package isa

import (
	"fmt"
	"strings"

	"github.com/Manu343726/lc2k/pkg/utils"
)

// Number of meaningful bits of an instruction word
const EncodingBits = OpCodePosition + OpCodeBits

// Returns the generic bit fields of an instruction format
func (f Format) Fields() []utils.BitField {
	switch f {
	case Format_R:
		return []utils.BitField{
			{Name: "regA", Begin: RegAPosition, Width: RegisterBits},
			{Name: "regB", Begin: RegBPosition, Width: RegisterBits},
			{Name: "destReg", Begin: DestPosition, Width: RegisterBits},
		}
	case Format_I:
		return []utils.BitField{
			{Name: "regA", Begin: RegAPosition, Width: RegisterBits},
			{Name: "regB", Begin: RegBPosition, Width: RegisterBits},
			{Name: "offset", Begin: OffsetPosition, Width: OffsetBits},
		}
	case Format_J:
		return []utils.BitField{
			{Name: "regA", Begin: RegAPosition, Width: RegisterBits},
			{Name: "regB", Begin: RegBPosition, Width: RegisterBits},
		}
	default:
		return nil
	}
}

// Returns full documentation for the opcode
func (d *OpCodeDescriptor) Documentation(leftpad int) string {
	var builder strings.Builder
	pad := strings.Repeat(" ", leftpad)

	builder.WriteString(fmt.Sprintf("%s%v (opcode %v, format %v)\n\n", pad, d.Mnemonic, utils.FormatUintBinary(uint8(d.OpCode), OpCodeBits), d.Format))
	builder.WriteString(fmt.Sprintf("%s  Syntax:    %v\n", pad, d.Syntax))
	builder.WriteString(fmt.Sprintf("%s  Semantics: %v\n\n", pad, d.Summary))
	builder.WriteString(pad + "  Encoding:\n\n")

	fields := append([]utils.BitField{{Name: d.Mnemonic, Begin: OpCodePosition, Width: OpCodeBits}}, d.Format.Fields()...)
	frame, err := utils.BitFrame(fields, EncodingBits, leftpad+4)
	if err != nil {
		panic(fmt.Errorf("error generating documentation for opcode %s: %w", d.Mnemonic, err))
	}
	builder.WriteString(frame)

	return builder.String()
}

// Dumps the ISA description as one big multiline string
func Documentation(leftpad int) string {
	var builder strings.Builder
	pad := strings.Repeat(" ", leftpad)

	builder.WriteString(fmt.Sprintf("%stotal opcodes: %v\n", pad, TOTAL_OPCODES))
	builder.WriteString(fmt.Sprintf("%sgeneral purpose registers: %v (r0..r%v)\n", pad, TotalRegisters, TotalRegisters-1))
	builder.WriteString(fmt.Sprintf("%sinstruction encoding length (bits): %v\n", pad, EncodingBits))
	builder.WriteString(fmt.Sprintf("%sopcode encoding length (bits): %v\n\n", pad, OpCodeBits))

	builder.WriteString(pad)
	builder.WriteString("Instructions:\n\n")

	for i := range descriptors {
		builder.WriteString(descriptors[i].Documentation(leftpad + 2))
		builder.WriteString("\n")
	}

	return builder.String()
}

// Like Documentation(), but with zero leftpad
func DocString() string {
	return Documentation(0)
}
