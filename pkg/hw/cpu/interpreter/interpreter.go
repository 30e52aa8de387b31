// Package interpreter implements the LC-2K execution engine: a single
// threaded, deterministic machine with eight registers and 65536 words of
// memory that fetches, decodes and executes one instruction per step.
package interpreter

import (
	"fmt"
	"log/slog"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
)

// Result of a single step
type StepOutcome int

const (
	// The instruction was executed and the machine keeps running
	OutcomeContinued StepOutcome = iota
	// A HALT instruction was executed by this step
	OutcomeHalted
	// The machine was already halted, nothing was executed
	OutcomeAlreadyHalted
	// The step faulted and the machine halted without executing the instruction
	OutcomeFaulted
)

func (o StepOutcome) String() string {
	switch o {
	case OutcomeContinued:
		return "continued"
	case OutcomeHalted:
		return "halted"
	case OutcomeAlreadyHalted:
		return "already halted"
	case OutcomeFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Interpreter executes LC-2K machine code. It is not safe for concurrent use.
type Interpreter struct {
	state  *CPUState
	logger *slog.Logger
}

type Option func(*Interpreter)

// WithLogger sets the logger used to trace execution. Steps are logged at
// debug level, faults at warning level.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an interpreter with the image loaded at address 0. Memory past
// the image is zero filled.
func New(image []uint32, opts ...Option) (*Interpreter, error) {
	if len(image) > MemorySize {
		return nil, utils.MakeError(ErrImageTooLarge, "%d words do not fit in %d words of memory", len(image), MemorySize)
	}

	i := &Interpreter{
		state:  NewCPUState(image),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(i)
	}

	i.logger.Debug("image loaded", "words", len(image))
	return i, nil
}

// State returns the current CPU state. Callers must not keep mutable
// references across steps.
func (i *Interpreter) State() *CPUState {
	return i.state
}

// Step fetches, decodes and executes the instruction at pc
func (i *Interpreter) Step() (StepOutcome, error) {
	s := i.state

	if s.Halted {
		return OutcomeAlreadyHalted, nil
	}

	pc := s.PC
	if !inMemory(pc) {
		return i.fault(AccessFetch, pc)
	}

	instr := isa.Decode(s.Memory[pc])
	next := pc + 1
	outcome := OutcomeContinued

	a := s.Registers[instr.RegA]
	b := s.Registers[instr.RegB]

	switch instr.OpCode {
	case isa.OpCode_ADD:
		s.Registers[instr.Dest] = a + b
	case isa.OpCode_NOR:
		s.Registers[instr.Dest] = ^(a | b)
	case isa.OpCode_LW:
		addr := effectiveAddress(a, instr.Offset)
		if !inMemory(addr) {
			return i.fault(AccessLoad, addr)
		}
		s.Registers[instr.RegB] = s.Memory[addr]
	case isa.OpCode_SW:
		addr := effectiveAddress(a, instr.Offset)
		if !inMemory(addr) {
			return i.fault(AccessStore, addr)
		}
		s.Memory[addr] = b
	case isa.OpCode_BEQ:
		if a == b {
			next = pc + uint32(int32(instr.Offset))
		}
	case isa.OpCode_JALR:
		// Link first, then read the target: jalr rX rX jumps to pc + 1
		s.Registers[instr.RegB] = pc + 1
		next = s.Registers[instr.RegA]
	case isa.OpCode_HALT:
		s.Halted = true
		outcome = OutcomeHalted
	case isa.OpCode_NOOP:
	}

	s.PC = next
	s.InstructionCount++

	i.logger.Debug("step", "pc", pc, "instruction", instr, "next", next, "count", s.InstructionCount)
	if outcome == OutcomeHalted {
		i.logger.Info("halted", "pc", pc, "instructions", s.InstructionCount)
	}

	return outcome, nil
}

func (i *Interpreter) fault(access AccessKind, addr uint32) (StepOutcome, error) {
	f := &MemoryFault{
		Access:  access,
		Address: addr,
		PC:      i.state.PC,
	}

	i.state.Halted = true
	i.state.Fault = f
	i.logger.Warn("memory fault", "access", access.String(), "address", addr, "pc", f.PC)

	return OutcomeFaulted, f
}

// StepN executes up to count instructions, stopping early when the machine
// halts or faults. Returns whether the machine is halted after the call.
func (i *Interpreter) StepN(count int) (bool, error) {
	for n := 0; n < count && !i.state.Halted; n++ {
		if _, err := i.Step(); err != nil {
			return true, err
		}
	}
	return i.state.Halted, nil
}

// Run executes instructions until the machine halts or faults
func (i *Interpreter) Run() error {
	for !i.state.Halted {
		if _, err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) ReadRegister(r isa.Register) (uint32, error) {
	if int(r) >= isa.TotalRegisters {
		return 0, utils.MakeError(ErrInvalidRegister, "r%d (valid registers are r0-r%d)", uint8(r), isa.TotalRegisters-1)
	}
	return i.state.Registers[r], nil
}

// ReadMemoryRange returns a copy of length words starting at start
func (i *Interpreter) ReadMemoryRange(start uint32, length int) ([]uint32, error) {
	if length < 0 || uint64(start)+uint64(length) > MemorySize {
		return nil, utils.MakeError(ErrOutOfRange, "[%d, %d+%d) exceeds %d words of memory", start, start, length, MemorySize)
	}

	words := make([]uint32, length)
	copy(words, i.state.Memory[start:uint64(start)+uint64(length)])
	return words, nil
}

func (i *Interpreter) PC() uint32 {
	return i.state.PC
}

func (i *Interpreter) InstructionCount() uint64 {
	return i.state.InstructionCount
}

func (i *Interpreter) Halted() bool {
	return i.state.Halted
}

// Fault returns the memory fault that halted the machine, or nil
func (i *Interpreter) Fault() error {
	if i.state.Fault == nil {
		return nil
	}
	return i.state.Fault
}

// An instruction decoded from memory without executing it
type Disassembled struct {
	Address     uint32
	Word        uint32
	Instruction isa.Instruction
}

// Formats the instruction as "address: mnemonic operands : description"
func (d Disassembled) String() string {
	return fmt.Sprintf("%d: %v : %v", d.Address, d.Instruction, d.Instruction.Describe())
}

// PeekInstructions decodes up to count instructions starting at pc. The
// window is truncated at the end of memory.
func (i *Interpreter) PeekInstructions(count int) []Disassembled {
	return i.DisassembleRange(i.state.PC, count)
}

// DisassembleRange decodes up to count words starting at start, truncated at
// the end of memory
func (i *Interpreter) DisassembleRange(start uint32, count int) []Disassembled {
	if count <= 0 || !inMemory(start) {
		return nil
	}
	if remaining := MemorySize - int(start); count > remaining {
		count = remaining
	}

	result := make([]Disassembled, count)
	for n := range result {
		addr := start + uint32(n)
		word := i.state.Memory[addr]
		result[n] = Disassembled{
			Address:     addr,
			Word:        word,
			Instruction: isa.Decode(word),
		}
	}
	return result
}
