// Package debugger provides an abstraction layer for debugging LC-2K programs.
// It separates the debug shell logic from the presentation layer, allowing
// different frontends (line REPL, full screen view, scripts, tests) to reuse
// the same command set.
package debugger

import (
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
)

// DebugEvent represents events that can be sent to the UI
type DebugEvent int

const (
	// EventStepped is fired after stepping or running without hitting a stop condition
	EventStepped DebugEvent = iota
	// EventBreakpointHit is fired when a breakpoint is hit
	EventBreakpointHit
	// EventWatchpointHit is fired when a watchpoint triggers
	EventWatchpointHit
	// EventProgramHalted is fired when the machine halts
	EventProgramHalted
	// EventFault is fired when a memory fault halts the machine
	EventFault
	// EventInterrupted is fired when execution is interrupted by user (Ctrl+C)
	EventInterrupted
	// EventStepLimit is fired when run reaches its instruction limit
	EventStepLimit
)

func (e DebugEvent) String() string {
	switch e {
	case EventStepped:
		return "stepped"
	case EventBreakpointHit:
		return "breakpoint_hit"
	case EventWatchpointHit:
		return "watchpoint_hit"
	case EventProgramHalted:
		return "program_halted"
	case EventFault:
		return "fault"
	case EventInterrupted:
		return "interrupted"
	case EventStepLimit:
		return "step_limit"
	default:
		return "unknown"
	}
}

// EventData contains data associated with a debug event
type EventData struct {
	Event DebugEvent
	// Current pc when the event was fired
	Address uint32
	Error   error
	// BreakpointID for breakpoint events
	BreakpointID int
	// WatchpointID for watchpoint events
	WatchpointID  int
	StepsExecuted int
}

// RegisterInfo contains information about a register
type RegisterInfo struct {
	Name  string
	Index int
	Value uint32
}

// InstructionInfo contains information about a disassembled instruction
type InstructionInfo struct {
	Address     uint32
	Encoding    uint32
	Instruction isa.Instruction
	// Label defined at this address, if any
	Label         string
	HasBreakpoint bool
	IsCurrentPC   bool
}

// Text returns the instruction in the "address: mnemonic operands : description" form
func (i InstructionInfo) Text() string {
	return interpreter.Disassembled{Address: i.Address, Word: i.Encoding, Instruction: i.Instruction}.String()
}

// BreakpointInfo contains information about a breakpoint for display
type BreakpointInfo struct {
	ID       int
	Address  uint32
	Enabled  bool
	HitCount int
	Label    string
	// Pre-formatted instruction text
	InstructionText string
}

// WatchpointInfo contains information about a watchpoint for display
type WatchpointInfo struct {
	ID       int
	Address  uint32
	Enabled  bool
	HitCount int
	Label    string
	Value    uint32
}

// EvalResult contains expression evaluation results
type EvalResult struct {
	Expression string
	Value      uint32
}

func (r EvalResult) Signed() int32 {
	return int32(r.Value)
}

// CommandHelp contains help information for a command
type CommandHelp struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

// MessageLevel indicates the severity of a message
type MessageLevel int

const (
	LevelInfo MessageLevel = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// DebuggerUI is the interface that presentation layers must implement.
// This allows different frontends to present debugger information in their
// own way.
type DebuggerUI interface {
	// OnEvent is called when a debug event occurs
	OnEvent(event EventData)

	// ShowMessage displays a message to the user
	ShowMessage(level MessageLevel, format string, args ...any)

	// ShowRegisters displays register values
	ShowRegisters(regs []RegisterInfo)

	// ShowMemory displays memory words starting at addr
	ShowMemory(addr uint32, words []uint32)

	// ShowDisassembly displays disassembled instructions
	ShowDisassembly(instructions []InstructionInfo)

	// ShowValue displays a single named value (pc, instruction count)
	ShowValue(name string, value uint64)

	// ShowBreakpoints displays the breakpoint and watchpoint lists
	ShowBreakpoints(breakpoints []BreakpointInfo, watchpoints []WatchpointInfo)

	// ShowEvalResult displays the result of an expression evaluation
	ShowEvalResult(result EvalResult)

	// ShowHelp displays help information
	ShowHelp(commands []CommandHelp)
}
