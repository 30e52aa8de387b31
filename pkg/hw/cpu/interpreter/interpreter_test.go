package interpreter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Loads two literals, adds them and stores the result at address 7
func sumProgram() []uint32 {
	return append(isa.Program(
		isa.Lw(0, 1, 5),
		isa.Lw(0, 2, 6),
		isa.Add(1, 2, 3),
		isa.Sw(0, 3, 7),
		isa.Halt(),
	), 30, 12, 0)
}

func newInterpreter(t *testing.T, image []uint32) *Interpreter {
	t.Helper()
	interp, err := New(image)
	require.NoError(t, err)
	return interp
}

func TestNew(t *testing.T) {
	t.Run("zeroed state", func(t *testing.T) {
		interp := newInterpreter(t, []uint32{1, 2, 3})

		assert.Equal(t, uint32(0), interp.PC())
		assert.Equal(t, uint64(0), interp.InstructionCount())
		assert.False(t, interp.Halted())
		assert.NoError(t, interp.Fault())
		assert.Equal(t, [isa.TotalRegisters]uint32{}, interp.State().Registers)

		words, err := interp.ReadMemoryRange(0, 5)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1, 2, 3, 0, 0}, words)
	})

	t.Run("image filling the whole memory", func(t *testing.T) {
		_, err := New(make([]uint32, MemorySize))
		assert.NoError(t, err)
	})

	t.Run("image too large", func(t *testing.T) {
		_, err := New(make([]uint32, MemorySize+1))
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})
}

func TestStep_Add(t *testing.T) {
	t.Run("wraps on overflow", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Add(1, 2, 3), isa.Add(2, 1, 4)))
		interp.State().Registers[1] = 0xFFFFFFFF
		interp.State().Registers[2] = 1

		outcome, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, OutcomeContinued, outcome)
		assert.Equal(t, uint32(0), interp.State().Registers[3])
		assert.Equal(t, uint32(1), interp.PC())

		_, err = interp.Step()
		require.NoError(t, err)
		assert.Equal(t, interp.State().Registers[3], interp.State().Registers[4])
	})

	t.Run("commutative", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Add(1, 2, 3), isa.Add(2, 1, 4)))
		interp.State().Registers[1] = 0x80000001
		interp.State().Registers[2] = 0x7FFFFFFF

		_, err := interp.StepN(2)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), interp.State().Registers[3])
		assert.Equal(t, interp.State().Registers[3], interp.State().Registers[4])
	})
}

func TestStep_Nor(t *testing.T) {
	samples := [][2]uint32{
		{0, 0},
		{0xFFFFFFFF, 0},
		{0x0F0F0F0F, 0x00FF00FF},
		{0xDEADBEEF, 0x12345678},
	}

	for _, sample := range samples {
		interp := newInterpreter(t, isa.Program(isa.Nor(1, 2, 3)))
		interp.State().Registers[1] = sample[0]
		interp.State().Registers[2] = sample[1]

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, ^sample[0]&^sample[1], interp.State().Registers[3])
	}
}

func TestStep_StoreLoadRoundTrip(t *testing.T) {
	interp := newInterpreter(t, isa.Program(
		isa.Sw(1, 2, 0),
		isa.Lw(1, 3, 0),
		isa.Sw(1, 2, -4),
		isa.Lw(1, 4, -4),
	))
	interp.State().Registers[1] = 1000
	interp.State().Registers[2] = 0xCAFEBABE

	_, err := interp.StepN(4)
	require.NoError(t, err)

	assert.Equal(t, uint32(0xCAFEBABE), interp.State().Registers[3])
	assert.Equal(t, uint32(0xCAFEBABE), interp.State().Registers[4])
	assert.Equal(t, uint32(0xCAFEBABE), interp.State().Memory[1000])
	assert.Equal(t, uint32(0xCAFEBABE), interp.State().Memory[996])
}

func TestStep_Beq(t *testing.T) {
	program := isa.Program(isa.Noop(), isa.Noop(), isa.Beq(1, 2, 3))

	t.Run("taken", func(t *testing.T) {
		interp := newInterpreter(t, program)
		interp.State().PC = 2
		interp.State().Registers[1] = 5
		interp.State().Registers[2] = 5

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, uint32(5), interp.PC())
	})

	t.Run("not taken", func(t *testing.T) {
		interp := newInterpreter(t, program)
		interp.State().PC = 2
		interp.State().Registers[1] = 5
		interp.State().Registers[2] = 6

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, uint32(3), interp.PC())
	})

	t.Run("backwards", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Noop(), isa.Beq(0, 0, -1)))

		_, err := interp.StepN(2)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), interp.PC())
		assert.Equal(t, uint64(2), interp.InstructionCount())
	})
}

func TestStep_Jalr(t *testing.T) {
	image := make([]uint32, 11)
	image[10] = isa.Jalr(4, 7).Encode()

	t.Run("links and jumps", func(t *testing.T) {
		interp := newInterpreter(t, image)
		interp.State().PC = 10
		interp.State().Registers[4] = 100

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, uint32(11), interp.State().Registers[7])
		assert.Equal(t, uint32(100), interp.PC())
	})

	t.Run("same register jumps to the link", func(t *testing.T) {
		image := append([]uint32(nil), image...)
		image[10] = isa.Jalr(4, 4).Encode()

		interp := newInterpreter(t, image)
		interp.State().PC = 10
		interp.State().Registers[4] = 100

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, uint32(11), interp.State().Registers[4])
		assert.Equal(t, uint32(11), interp.PC())
	})
}

func TestStep_HaltIsTerminal(t *testing.T) {
	interp := newInterpreter(t, isa.Program(isa.Noop(), isa.Halt(), isa.Add(1, 1, 1)))
	interp.State().Registers[1] = 1

	outcome, err := interp.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinued, outcome)

	outcome, err = interp.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomeHalted, outcome)
	assert.True(t, interp.Halted())
	assert.Equal(t, uint32(2), interp.PC())
	assert.Equal(t, uint64(2), interp.InstructionCount())

	before := interp.Snapshot()

	for range 3 {
		outcome, err = interp.Step()
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyHalted, outcome)
	}

	halted, err := interp.StepN(10)
	require.NoError(t, err)
	assert.True(t, halted)
	assert.Equal(t, before, interp.Snapshot())
}

func TestStepN(t *testing.T) {
	t.Run("zero is a no-op", func(t *testing.T) {
		interp := newInterpreter(t, sumProgram())

		halted, err := interp.StepN(0)
		require.NoError(t, err)
		assert.False(t, halted)
		assert.Equal(t, uint64(0), interp.InstructionCount())
	})

	t.Run("stops at halt", func(t *testing.T) {
		interp := newInterpreter(t, sumProgram())

		halted, err := interp.StepN(100)
		require.NoError(t, err)
		assert.True(t, halted)
		assert.Equal(t, uint64(5), interp.InstructionCount())
	})

	t.Run("partial", func(t *testing.T) {
		interp := newInterpreter(t, sumProgram())

		halted, err := interp.StepN(3)
		require.NoError(t, err)
		assert.False(t, halted)
		assert.Equal(t, uint32(3), interp.PC())
		assert.Equal(t, uint32(42), interp.State().Registers[3])
	})
}

func TestEndToEnd(t *testing.T) {
	interp := newInterpreter(t, sumProgram())

	require.NoError(t, interp.Run())

	assert.True(t, interp.Halted())
	assert.Equal(t, uint32(5), interp.PC())
	assert.Equal(t, uint64(5), interp.InstructionCount())
	assert.Equal(t, [isa.TotalRegisters]uint32{0, 30, 12, 42, 0, 0, 0, 0}, interp.State().Registers)

	words, err := interp.ReadMemoryRange(5, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{30, 12, 42}, words)
}

func TestMemoryFaults(t *testing.T) {
	assertFault := func(t *testing.T, interp *Interpreter, access AccessKind, addr uint32) {
		t.Helper()
		before := interp.Snapshot()

		outcome, err := interp.Step()
		assert.Equal(t, OutcomeFaulted, outcome)
		require.ErrorIs(t, err, ErrMemoryFault)

		var fault *MemoryFault
		require.True(t, errors.As(err, &fault))
		assert.Equal(t, access, fault.Access)
		assert.Equal(t, addr, fault.Address)
		assert.Equal(t, before.PC, fault.PC)

		assert.True(t, interp.Halted())
		assert.ErrorIs(t, interp.Fault(), ErrMemoryFault)

		after := interp.Snapshot()
		assert.Equal(t, before.PC, after.PC)
		assert.Equal(t, before.Registers, after.Registers)
		assert.Equal(t, before.Memory, after.Memory)
		assert.Equal(t, before.InstructionCount, after.InstructionCount)

		outcome, err = interp.Step()
		assert.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyHalted, outcome)
	}

	t.Run("load past the end of memory", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Lw(1, 2, 0)))
		interp.State().Registers[1] = MemorySize
		assertFault(t, interp, AccessLoad, MemorySize)
	})

	t.Run("load with negative address", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Lw(0, 2, -1)))
		assertFault(t, interp, AccessLoad, 0xFFFFFFFF)
	})

	t.Run("store past the end of memory", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Sw(1, 2, 1)))
		interp.State().Registers[1] = MemorySize - 1
		interp.State().Registers[2] = 7
		assertFault(t, interp, AccessStore, MemorySize)
	})

	t.Run("fetch after jumping outside memory", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Jalr(1, 2)))
		interp.State().Registers[1] = 70000

		_, err := interp.Step()
		require.NoError(t, err)
		assert.Equal(t, uint32(70000), interp.PC())

		assertFault(t, interp, AccessFetch, 70000)
	})

	t.Run("fetch after branching below zero", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Beq(0, 0, -1)))

		_, err := interp.Step()
		require.NoError(t, err)

		assertFault(t, interp, AccessFetch, 0xFFFFFFFF)
	})

	t.Run("step n returns the fault", func(t *testing.T) {
		interp := newInterpreter(t, isa.Program(isa.Noop(), isa.Lw(0, 1, -2)))

		halted, err := interp.StepN(10)
		assert.True(t, halted)
		assert.ErrorIs(t, err, ErrMemoryFault)
		assert.Equal(t, uint64(1), interp.InstructionCount())
	})
}

func TestObservers(t *testing.T) {
	interp := newInterpreter(t, sumProgram())

	t.Run("registers", func(t *testing.T) {
		interp.State().Registers[7] = 77
		value, err := interp.ReadRegister(7)
		require.NoError(t, err)
		assert.Equal(t, uint32(77), value)

		_, err = interp.ReadRegister(8)
		assert.ErrorIs(t, err, ErrInvalidRegister)
	})

	t.Run("memory ranges", func(t *testing.T) {
		words, err := interp.ReadMemoryRange(MemorySize-6, 6)
		require.NoError(t, err)
		assert.Len(t, words, 6)

		words, err = interp.ReadMemoryRange(0, 0)
		require.NoError(t, err)
		assert.Empty(t, words)

		_, err = interp.ReadMemoryRange(MemorySize-6, 7)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = interp.ReadMemoryRange(0, -1)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = interp.ReadMemoryRange(0xFFFFFFFF, 2)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("returned memory is a copy", func(t *testing.T) {
		words, err := interp.ReadMemoryRange(5, 1)
		require.NoError(t, err)
		words[0] = 0
		assert.Equal(t, uint32(30), interp.State().Memory[5])
	})
}

func TestPeekInstructions(t *testing.T) {
	interp := newInterpreter(t, sumProgram())

	peeked := interp.PeekInstructions(3)
	require.Len(t, peeked, 3)
	assert.Equal(t, uint32(0), peeked[0].Address)
	assert.Equal(t, isa.Lw(0, 1, 5), peeked[0].Instruction)
	assert.Equal(t, isa.Add(1, 2, 3), peeked[2].Instruction)
	assert.Equal(t, "0: lw 0 1 5 : r1 <- mem[r0 + 5]", peeked[0].String())

	// Peeking does not execute
	assert.Equal(t, uint32(0), interp.PC())
	assert.Equal(t, uint64(0), interp.InstructionCount())

	assert.Empty(t, interp.PeekInstructions(0))

	interp.State().PC = MemorySize - 2
	assert.Len(t, interp.PeekInstructions(5), 2)

	interp.State().PC = MemorySize
	assert.Empty(t, interp.PeekInstructions(1))
}

func TestSnapshot(t *testing.T) {
	interp := newInterpreter(t, sumProgram())
	require.NoError(t, interp.Run())

	snapshot := interp.Snapshot()
	assert.Equal(t, uint32(5), snapshot.PC)
	assert.True(t, snapshot.Halted)
	assert.Empty(t, snapshot.Fault)
	require.Len(t, snapshot.Memory, 1)
	assert.Equal(t, uint32(0), snapshot.Memory[0].Address)
	assert.Len(t, snapshot.Memory[0].Words, 8)

	var buffer bytes.Buffer
	require.NoError(t, snapshot.WriteYAML(&buffer))
	assert.Contains(t, buffer.String(), "instruction_count: 5")
	assert.Contains(t, buffer.String(), "registers: [0, 30, 12, 42, 0, 0, 0, 0]")

	parsed, err := ReadSnapshot(&buffer)
	require.NoError(t, err)
	assert.Equal(t, snapshot, parsed)
}

func TestSnapshot_SplitsMemoryBlocks(t *testing.T) {
	interp := newInterpreter(t, []uint32{1, 2, 0, 0, 3})

	snapshot := interp.Snapshot()
	assert.Equal(t, []MemoryBlock{
		{Address: 0, Words: []uint32{1, 2}},
		{Address: 4, Words: []uint32{3}},
	}, snapshot.Memory)
}
