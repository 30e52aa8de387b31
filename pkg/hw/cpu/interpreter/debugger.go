package interpreter

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
)

// ExecutionEvent represents events that can occur during execution
type ExecutionEvent int

const (
	// EventStep is fired after each instruction execution
	EventStep ExecutionEvent = iota
	// EventBreakpoint is fired when a breakpoint is hit
	EventBreakpoint
	// EventWatchpoint is fired when a watched memory word is modified
	EventWatchpoint
	// EventHalt is fired when the machine halts
	EventHalt
	// EventFault is fired when a memory fault halts the machine
	EventFault
)

func (e ExecutionEvent) String() string {
	switch e {
	case EventStep:
		return "step"
	case EventBreakpoint:
		return "breakpoint"
	case EventWatchpoint:
		return "watchpoint"
	case EventHalt:
		return "halt"
	case EventFault:
		return "fault"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// StopReason indicates why execution stopped
type StopReason int

const (
	StopNone StopReason = iota
	// Execution stopped after a single step, or the event callback asked to stop
	StopStep
	StopBreakpoint
	StopWatchpoint
	StopHalt
	StopFault
	StopMaxSteps
	// Execution was interrupted from outside (Ctrl-C)
	StopInterrupted
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopStep:
		return "step"
	case StopBreakpoint:
		return "breakpoint"
	case StopWatchpoint:
		return "watchpoint"
	case StopHalt:
		return "halt"
	case StopFault:
		return "fault"
	case StopMaxSteps:
		return "max_steps"
	case StopInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// Breakpoint represents a code breakpoint
type Breakpoint struct {
	ID       int
	Address  uint32
	Enabled  bool
	HitCount int
}

// Watchpoint triggers when the watched memory word changes
type Watchpoint struct {
	ID        int
	Address   uint32
	Enabled   bool
	HitCount  int
	LastValue uint32
}

// ExecutionResult contains the result of an execution operation
type ExecutionResult struct {
	StopReason    StopReason
	StepsExecuted int
	// Memory fault, if the execution stopped because of one
	Error error
	// Set if stopped at a breakpoint
	BreakpointID int
	// Set if stopped at a watchpoint
	WatchpointID int
	// Address of the last executed instruction
	LastPC uint32
	// Last executed instruction and its raw word
	LastInstruction isa.Instruction
	LastWord        uint32
}

// EventCallback is called when an execution event occurs.
// Return true to continue execution, false to stop.
type EventCallback func(event ExecutionEvent, result *ExecutionResult) bool

// Debugger provides breakpoints, watchpoints and run control on top of the
// interpreter
type Debugger struct {
	interp *Interpreter

	breakpoints     map[int]*Breakpoint
	breakpointAddrs map[uint32]*Breakpoint
	watchpoints     map[int]*Watchpoint
	// Breakpoints and watchpoints share the ID space
	nextID int

	eventCallback EventCallback
	lastResult    *ExecutionResult

	// Set asynchronously (signal handlers), consumed by Run
	interrupted atomic.Bool
}

func NewDebugger(interp *Interpreter) *Debugger {
	return &Debugger{
		interp:          interp,
		breakpoints:     make(map[int]*Breakpoint),
		breakpointAddrs: make(map[uint32]*Breakpoint),
		watchpoints:     make(map[int]*Watchpoint),
		nextID:          1,
	}
}

func (d *Debugger) Interpreter() *Interpreter {
	return d.interp
}

func (d *Debugger) SetEventCallback(callback EventCallback) {
	d.eventCallback = callback
}

// LastResult returns the result of the last execution operation
func (d *Debugger) LastResult() *ExecutionResult {
	return d.lastResult
}

// Interrupt asks a running Run call to stop before the next instruction.
// Safe to call from any goroutine.
func (d *Debugger) Interrupt() {
	d.interrupted.Store(true)
}

// --- Breakpoint Management ---

// AddBreakpoint adds a breakpoint at the given address. Adding a breakpoint
// twice at the same address returns the existing one.
func (d *Debugger) AddBreakpoint(addr uint32) (*Breakpoint, error) {
	if !inMemory(addr) {
		return nil, utils.MakeError(ErrOutOfRange, "breakpoint address %d is outside memory", addr)
	}
	if bp, exists := d.breakpointAddrs[addr]; exists {
		return bp, nil
	}

	bp := &Breakpoint{
		ID:      d.nextID,
		Address: addr,
		Enabled: true,
	}
	d.nextID++
	d.breakpoints[bp.ID] = bp
	d.breakpointAddrs[addr] = bp
	return bp, nil
}

// RemoveBreakpoint removes a breakpoint by ID
func (d *Debugger) RemoveBreakpoint(id int) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	delete(d.breakpointAddrs, bp.Address)
	delete(d.breakpoints, id)
	return true
}

func (d *Debugger) BreakpointAt(addr uint32) *Breakpoint {
	return d.breakpointAddrs[addr]
}

// ListBreakpoints returns all breakpoints sorted by address
func (d *Debugger) ListBreakpoints() []*Breakpoint {
	bps := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		bps = append(bps, bp)
	}
	sort.Slice(bps, func(i, j int) bool {
		return bps[i].Address < bps[j].Address
	})
	return bps
}

// EnableBreakpoint enables or disables a breakpoint
func (d *Debugger) EnableBreakpoint(id int, enabled bool) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	bp.Enabled = enabled
	return true
}

// --- Watchpoint Management ---

// AddWatchpoint watches the memory word at addr for writes that change its value
func (d *Debugger) AddWatchpoint(addr uint32) (*Watchpoint, error) {
	if !inMemory(addr) {
		return nil, utils.MakeError(ErrOutOfRange, "watchpoint address %d is outside memory", addr)
	}

	wp := &Watchpoint{
		ID:        d.nextID,
		Address:   addr,
		Enabled:   true,
		LastValue: d.interp.state.Memory[addr],
	}
	d.nextID++
	d.watchpoints[wp.ID] = wp
	return wp, nil
}

func (d *Debugger) RemoveWatchpoint(id int) bool {
	if _, exists := d.watchpoints[id]; !exists {
		return false
	}
	delete(d.watchpoints, id)
	return true
}

// ListWatchpoints returns all watchpoints sorted by ID
func (d *Debugger) ListWatchpoints() []*Watchpoint {
	wps := make([]*Watchpoint, 0, len(d.watchpoints))
	for _, wp := range d.watchpoints {
		wps = append(wps, wp)
	}
	sort.Slice(wps, func(i, j int) bool {
		return wps[i].ID < wps[j].ID
	})
	return wps
}

// --- Execution Control ---

// Step executes a single instruction, even if there is a breakpoint at pc
func (d *Debugger) Step() *ExecutionResult {
	result := d.Run(1)
	if result.StopReason == StopMaxSteps {
		result.StopReason = StopStep
	}
	return result
}

// StepN executes up to count instructions with the interpreter StepN
// semantics. Breakpoints are ignored; watched values are refreshed afterwards.
func (d *Debugger) StepN(count int) (bool, error) {
	halted, err := d.interp.StepN(count)
	d.syncWatchpoints()
	return halted, err
}

// Continue executes until a stop condition is met
func (d *Debugger) Continue() *ExecutionResult {
	return d.Run(0)
}

// Run executes up to maxSteps instructions (0 = unlimited). A breakpoint at
// the starting pc does not stop execution, so consecutive runs make progress.
func (d *Debugger) Run(maxSteps int) *ExecutionResult {
	state := d.interp.state
	result := &ExecutionResult{
		LastPC: state.PC,
	}

	d.interrupted.Store(false)

	for {
		if d.interrupted.Swap(false) {
			result.StopReason = StopInterrupted
			break
		}

		if maxSteps > 0 && result.StepsExecuted >= maxSteps {
			result.StopReason = StopMaxSteps
			break
		}

		if result.StepsExecuted > 0 {
			if bp := d.breakpointAddrs[state.PC]; bp != nil && bp.Enabled && !state.Halted {
				bp.HitCount++
				result.StopReason = StopBreakpoint
				result.BreakpointID = bp.ID
				d.fireEvent(EventBreakpoint, result)
				break
			}
		}

		if state.Halted {
			if state.Fault != nil {
				result.StopReason = StopFault
				result.Error = state.Fault
			} else {
				result.StopReason = StopHalt
			}
			break
		}

		pc := state.PC
		if inMemory(pc) {
			result.LastWord = state.Memory[pc]
			result.LastInstruction = isa.Decode(result.LastWord)
		}
		result.LastPC = pc

		outcome, err := d.interp.Step()
		if err != nil {
			result.StopReason = StopFault
			result.Error = err
			d.fireEvent(EventFault, result)
			break
		}
		result.StepsExecuted++

		if !d.fireEvent(EventStep, result) {
			d.syncWatchpoints()
			result.StopReason = StopStep
			break
		}

		if wp := d.checkWatchpoints(); wp != nil {
			result.StopReason = StopWatchpoint
			result.WatchpointID = wp.ID
			d.fireEvent(EventWatchpoint, result)
			break
		}

		if outcome == OutcomeHalted {
			result.StopReason = StopHalt
			d.fireEvent(EventHalt, result)
			break
		}
	}

	d.lastResult = result
	return result
}

// RunUntil executes until pc reaches the target address
func (d *Debugger) RunUntil(target uint32) (*ExecutionResult, error) {
	existing := d.breakpointAddrs[target]

	bp, err := d.AddBreakpoint(target)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		defer d.RemoveBreakpoint(bp.ID)
	}

	return d.Continue(), nil
}

func (d *Debugger) fireEvent(event ExecutionEvent, result *ExecutionResult) bool {
	if d.eventCallback != nil {
		return d.eventCallback(event, result)
	}
	return true
}

// Returns the first (lowest ID) enabled watchpoint whose word changed
func (d *Debugger) checkWatchpoints() *Watchpoint {
	var hit *Watchpoint

	for _, wp := range d.ListWatchpoints() {
		current := d.interp.state.Memory[wp.Address]
		if current == wp.LastValue {
			continue
		}

		wp.LastValue = current
		if wp.Enabled && hit == nil {
			wp.HitCount++
			hit = wp
		}
	}

	return hit
}

func (d *Debugger) syncWatchpoints() {
	for _, wp := range d.watchpoints {
		wp.LastValue = d.interp.state.Memory[wp.Address]
	}
}
