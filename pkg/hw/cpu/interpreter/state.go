package interpreter

import (
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
)

// Number of addressable memory words
const MemorySize = 1 << 16

// CPUState represents the complete state of the machine
type CPUState struct {
	// General purpose registers (r0-r7)
	Registers [isa.TotalRegisters]uint32
	// Program counter (word address)
	PC uint32
	// Word addressed memory, always MemorySize words long
	Memory []uint32
	// Halted flag. Set by HALT or by a memory fault, never cleared.
	Halted bool
	// Number of instructions executed so far
	InstructionCount uint64
	// Fault that halted the machine, if any
	Fault *MemoryFault
}

// NewCPUState creates a zeroed CPU state with the image copied at address 0
func NewCPUState(image []uint32) *CPUState {
	state := &CPUState{
		Memory: make([]uint32, MemorySize),
	}
	copy(state.Memory, image)
	return state
}

func inMemory(addr uint32) bool {
	return addr < MemorySize
}

// Computes the effective address of a load or store with 32 bit wraparound
func effectiveAddress(base uint32, offset int16) uint32 {
	return base + uint32(int32(offset))
}
