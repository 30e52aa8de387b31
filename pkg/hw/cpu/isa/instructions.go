package isa

func Add(regA, regB, dest Register) Instruction {
	return Instruction{OpCode: OpCode_ADD, RegA: regA, RegB: regB, Dest: dest}
}

func Nor(regA, regB, dest Register) Instruction {
	return Instruction{OpCode: OpCode_NOR, RegA: regA, RegB: regB, Dest: dest}
}

func Lw(regA, regB Register, offset int16) Instruction {
	return Instruction{OpCode: OpCode_LW, RegA: regA, RegB: regB, Offset: offset}
}

func Sw(regA, regB Register, offset int16) Instruction {
	return Instruction{OpCode: OpCode_SW, RegA: regA, RegB: regB, Offset: offset}
}

func Beq(regA, regB Register, offset int16) Instruction {
	return Instruction{OpCode: OpCode_BEQ, RegA: regA, RegB: regB, Offset: offset}
}

func Jalr(regA, regB Register) Instruction {
	return Instruction{OpCode: OpCode_JALR, RegA: regA, RegB: regB}
}

func Halt() Instruction {
	return Instruction{OpCode: OpCode_HALT}
}

func Noop() Instruction {
	return Instruction{OpCode: OpCode_NOOP}
}

// Encodes a sequence of instructions into a program image
func Program(instructions ...Instruction) []uint32 {
	image := make([]uint32, len(instructions))
	for i, instr := range instructions {
		image[i] = instr.Encode()
	}
	return image
}
