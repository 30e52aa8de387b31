package debugger

import (
	"fmt"
	"io"
	"sort"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
)

// Backend wraps an interpreter debugger with the symbol table of the loaded
// program and exposes the operations the command layer needs
type Backend struct {
	dbg       *interpreter.Debugger
	labels    map[string]uint32
	evaluator *ExpressionEvaluator
}

// NewBackend creates a backend for the given debugger. labels may be nil for
// programs without symbols.
func NewBackend(dbg *interpreter.Debugger, labels map[string]uint32) *Backend {
	if labels == nil {
		labels = map[string]uint32{}
	}

	b := &Backend{
		dbg:    dbg,
		labels: labels,
	}
	b.evaluator = NewExpressionEvaluator(b)
	return b
}

func (b *Backend) Debugger() *interpreter.Debugger {
	return b.dbg
}

func (b *Backend) Interpreter() *interpreter.Interpreter {
	return b.dbg.Interpreter()
}

// Step executes up to count instructions and returns whether the machine is
// halted afterwards
func (b *Backend) Step(count int) (bool, error) {
	return b.dbg.StepN(count)
}

// Run executes until a breakpoint, watchpoint, halt, fault or interruption,
// or until maxSteps instructions were executed (0 means no limit)
func (b *Backend) Run(maxSteps int) *interpreter.ExecutionResult {
	return b.dbg.Run(maxSteps)
}

// Interrupt stops a Run in progress. Safe to call from another goroutine.
func (b *Backend) Interrupt() {
	b.dbg.Interrupt()
}

func (b *Backend) PC() uint32 {
	return b.Interpreter().PC()
}

func (b *Backend) InstructionCount() uint64 {
	return b.Interpreter().InstructionCount()
}

func (b *Backend) Halted() bool {
	return b.Interpreter().Halted()
}

// Registers returns the register file in index order
func (b *Backend) Registers() []RegisterInfo {
	regs := make([]RegisterInfo, isa.TotalRegisters)
	for i := range regs {
		value, _ := b.Interpreter().ReadRegister(isa.Register(i))
		regs[i] = RegisterInfo{
			Name:  isa.Register(i).String(),
			Index: i,
			Value: value,
		}
	}
	return regs
}

// ReadRegister reads a register by name (r0-r7 or pc)
func (b *Backend) ReadRegister(name string) (uint32, error) {
	if name == "pc" {
		return b.PC(), nil
	}

	var index uint8
	if _, err := fmt.Sscanf(name, "r%d", &index); err != nil {
		return 0, utils.MakeError(interpreter.ErrInvalidRegister, "%q", name)
	}
	return b.Interpreter().ReadRegister(isa.Register(index))
}

func (b *Backend) ReadMemory(addr uint32, count int) ([]uint32, error) {
	return b.Interpreter().ReadMemoryRange(addr, count)
}

// ResolveSymbol returns the address of a label
func (b *Backend) ResolveSymbol(name string) (uint32, error) {
	if addr, ok := b.labels[name]; ok {
		return addr, nil
	}
	return 0, utils.MakeError(ErrUnknownLabel, "%q", name)
}

// SymbolAt returns the label defined at addr, or an empty string. When
// several labels share the address the alphabetically first one is returned.
func (b *Backend) SymbolAt(addr uint32) string {
	found := ""
	for name, labelAddr := range b.labels {
		if labelAddr == addr && (found == "" || name < found) {
			found = name
		}
	}
	return found
}

// Labels returns all label names sorted by address, then by name
func (b *Backend) Labels() []string {
	names := utils.Keys(b.labels)
	sort.Slice(names, func(i, j int) bool {
		ai, aj := b.labels[names[i]], b.labels[names[j]]
		if ai != aj {
			return ai < aj
		}
		return names[i] < names[j]
	})
	return names
}

// Evaluate evaluates a debugger expression
func (b *Backend) Evaluate(expr string) (EvalResult, error) {
	value, err := b.evaluator.Eval(expr)
	if err != nil {
		return EvalResult{}, err
	}
	return EvalResult{Expression: expr, Value: value}, nil
}

func (b *Backend) instructionInfo(d interpreter.Disassembled) InstructionInfo {
	bp := b.dbg.BreakpointAt(d.Address)

	return InstructionInfo{
		Address:       d.Address,
		Encoding:      d.Word,
		Instruction:   d.Instruction,
		Label:         b.SymbolAt(d.Address),
		HasBreakpoint: bp != nil && bp.Enabled,
		IsCurrentPC:   d.Address == b.PC(),
	}
}

// Disassemble decodes count words starting at addr
func (b *Backend) Disassemble(addr uint32, count int) []InstructionInfo {
	return utils.Map(b.Interpreter().DisassembleRange(addr, count), b.instructionInfo)
}

// PeekInstructions decodes count words starting at pc
func (b *Backend) PeekInstructions(count int) []InstructionInfo {
	return utils.Map(b.Interpreter().PeekInstructions(count), b.instructionInfo)
}

// AddBreakpoint sets a breakpoint at addr
func (b *Backend) AddBreakpoint(addr uint32) (BreakpointInfo, error) {
	bp, err := b.dbg.AddBreakpoint(addr)
	if err != nil {
		return BreakpointInfo{}, err
	}
	return b.breakpointInfo(bp), nil
}

// AddWatchpoint watches the memory word at addr
func (b *Backend) AddWatchpoint(addr uint32) (WatchpointInfo, error) {
	wp, err := b.dbg.AddWatchpoint(addr)
	if err != nil {
		return WatchpointInfo{}, err
	}
	return b.watchpointInfo(wp), nil
}

// Delete removes the breakpoint or watchpoint with the given id
func (b *Backend) Delete(id int) error {
	if b.dbg.RemoveBreakpoint(id) || b.dbg.RemoveWatchpoint(id) {
		return nil
	}
	return utils.MakeError(ErrUnknownID, "%d", id)
}

func (b *Backend) breakpointInfo(bp *interpreter.Breakpoint) BreakpointInfo {
	info := BreakpointInfo{
		ID:       bp.ID,
		Address:  bp.Address,
		Enabled:  bp.Enabled,
		HitCount: bp.HitCount,
		Label:    b.SymbolAt(bp.Address),
	}

	if listing := b.Interpreter().DisassembleRange(bp.Address, 1); len(listing) > 0 {
		info.InstructionText = listing[0].Instruction.String()
	}
	return info
}

func (b *Backend) watchpointInfo(wp *interpreter.Watchpoint) WatchpointInfo {
	return WatchpointInfo{
		ID:       wp.ID,
		Address:  wp.Address,
		Enabled:  wp.Enabled,
		HitCount: wp.HitCount,
		Label:    b.SymbolAt(wp.Address),
		Value:    wp.LastValue,
	}
}

// Breakpoints returns all breakpoints sorted by address
func (b *Backend) Breakpoints() []BreakpointInfo {
	return utils.Map(b.dbg.ListBreakpoints(), b.breakpointInfo)
}

// Watchpoints returns all watchpoints sorted by id
func (b *Backend) Watchpoints() []WatchpointInfo {
	return utils.Map(b.dbg.ListWatchpoints(), b.watchpointInfo)
}

// DumpState writes a YAML snapshot of the machine state
func (b *Backend) DumpState(w io.Writer) error {
	return b.Interpreter().Snapshot().WriteYAML(w)
}
