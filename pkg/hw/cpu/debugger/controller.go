package debugger

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
)

// Command is a debug shell command
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Handler     func(c *Controller, name string, args []string) error
}

// Controller parses debug shell lines and dispatches them to the backend,
// reporting results through a DebuggerUI
type Controller struct {
	backend  *Backend
	ui       DebuggerUI
	commands []*Command
	lookup   map[string]*Command
	lastLine string
	done     bool
}

// NewController creates a new command controller
func NewController(backend *Backend, ui DebuggerUI) *Controller {
	c := &Controller{
		backend: backend,
		ui:      ui,
		lookup:  make(map[string]*Command),
	}

	c.commands = []*Command{
		{Name: "help", Aliases: []string{"h"}, Description: "show this help message", Handler: (*Controller).cmdHelp},
		{Name: "step", Aliases: []string{"s"}, Usage: "`n`", Description: "step program forward `n` steps (default: 1)", Handler: (*Controller).cmdStep},
		{Name: "regs", Aliases: []string{"r"}, Description: "show current register values", Handler: (*Controller).cmdRegs},
		{Name: "mem", Aliases: []string{"m"}, Usage: "`addr` `n`", Description: "read `n` words starting from address `addr` (default: 0 1)", Handler: (*Controller).cmdMem},
		{Name: "pc", Aliases: []string{"p"}, Description: "display current program counter", Handler: (*Controller).cmdPC},
		{Name: "ins", Aliases: []string{"i"}, Usage: "`n`", Description: "disassemble `n` instructions starting at pc (default: 1)", Handler: (*Controller).cmdIns},
		{Name: "count", Aliases: []string{"c"}, Description: "display executed instruction count", Handler: (*Controller).cmdCount},
		{Name: "run", Usage: "`max`", Description: "run until halt, breakpoint or watchpoint, at most `max` steps (default: no limit)", Handler: (*Controller).cmdRun},
		{Name: "break", Aliases: []string{"b"}, Usage: "`expr`", Description: "set a breakpoint at address `expr`", Handler: (*Controller).cmdBreak},
		{Name: "watch", Aliases: []string{"w"}, Usage: "`expr`", Description: "stop when the word at address `expr` changes", Handler: (*Controller).cmdWatch},
		{Name: "delete", Aliases: []string{"d"}, Usage: "`id`", Description: "delete breakpoint or watchpoint `id`", Handler: (*Controller).cmdDelete},
		{Name: "list", Aliases: []string{"l"}, Description: "list breakpoints and watchpoints", Handler: (*Controller).cmdList},
		{Name: "print", Aliases: []string{"e"}, Usage: "`expr`", Description: "evaluate `expr` (registers, labels, [addr], C operators)", Handler: (*Controller).cmdPrint},
		{Name: "dump", Usage: "`file`", Description: "write a YAML snapshot of the machine state to `file`", Handler: (*Controller).cmdDump},
		{Name: "quit", Aliases: []string{"q"}, Description: "close debugger", Handler: (*Controller).cmdQuit},
	}

	for _, cmd := range c.commands {
		c.lookup[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			c.lookup[alias] = cmd
		}
	}

	return c
}

func (c *Controller) Backend() *Backend {
	return c.backend
}

// Done reports whether a quit command was executed
func (c *Controller) Done() bool {
	return c.done
}

// Commands returns the help entries of all commands in display order
func (c *Controller) Commands() []CommandHelp {
	help := make([]CommandHelp, len(c.commands))
	for i, cmd := range c.commands {
		help[i] = CommandHelp{
			Name:        cmd.Name,
			Aliases:     cmd.Aliases,
			Usage:       cmd.Usage,
			Description: cmd.Description,
		}
	}
	return help
}

// Execute runs one command line. An empty line repeats the previous command.
// Errors are reported through the UI and also returned; none of them ends
// the session.
func (c *Controller) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = c.lastLine
		if line == "" {
			return nil
		}
	}

	fields := strings.Fields(line)
	cmd, ok := c.lookup[strings.ToLower(fields[0])]
	if !ok {
		err := unrecognizedCommand()
		c.ui.ShowMessage(LevelError, "%v", err)
		return err
	}

	if cmd.Name != "quit" {
		c.lastLine = line
	}

	err := cmd.Handler(c, cmd.Name, fields[1:])
	// Faults are reported as events by the execution commands
	if err != nil && !errors.Is(err, interpreter.ErrMemoryFault) {
		c.ui.ShowMessage(LevelError, "%v", err)
	}
	return err
}

// Rejects arguments beyond the ones a command accepts
func checkArgCount(name string, args []string, max int) error {
	if len(args) > max {
		return badArgument(name, "unexpected argument %q", args[max])
	}
	return nil
}

// Parses an optional non-negative count argument
func parseCount(name string, args []string, index int, def int) (int, error) {
	if len(args) <= index {
		return def, nil
	}

	value, err := strconv.ParseUint(args[index], 0, 31)
	if err != nil {
		return 0, badArgument(name, "invalid count %q", args[index])
	}
	return int(value), nil
}

// Parses an optional address argument. Addresses may be expressions.
func (c *Controller) parseAddress(name string, args []string, index int, def uint32) (uint32, error) {
	if len(args) <= index {
		return def, nil
	}

	result, err := c.backend.Evaluate(args[index])
	if err != nil {
		return 0, &CommandError{Command: name, Message: "invalid address", Err: err}
	}
	return result.Value, nil
}

// Evaluates all the arguments joined as a single expression
func (c *Controller) parseExpression(name string, args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, badArgument(name, "missing expression")
	}

	result, err := c.backend.Evaluate(strings.Join(args, " "))
	if err != nil {
		return 0, &CommandError{Command: name, Message: "invalid expression", Err: err}
	}
	return result.Value, nil
}

func (c *Controller) cmdHelp(name string, args []string) error {
	c.ui.ShowHelp(c.Commands())
	return nil
}

func (c *Controller) cmdStep(name string, args []string) error {
	if err := checkArgCount(name, args, 1); err != nil {
		return err
	}

	count, err := parseCount(name, args, 0, 1)
	if err != nil {
		return err
	}

	halted, err := c.backend.Step(count)
	event := EventData{Event: EventStepped, Address: c.backend.PC()}

	switch {
	case err != nil:
		event.Event = EventFault
		event.Error = err
	case halted:
		event.Event = EventProgramHalted
	}

	c.ui.OnEvent(event)
	return err
}

func (c *Controller) cmdRun(name string, args []string) error {
	if err := checkArgCount(name, args, 1); err != nil {
		return err
	}

	maxSteps, err := parseCount(name, args, 0, 0)
	if err != nil {
		return err
	}

	result := c.backend.Run(maxSteps)
	event := EventData{
		Address:       c.backend.PC(),
		Error:         result.Error,
		BreakpointID:  result.BreakpointID,
		WatchpointID:  result.WatchpointID,
		StepsExecuted: result.StepsExecuted,
	}

	switch result.StopReason {
	case interpreter.StopBreakpoint:
		event.Event = EventBreakpointHit
	case interpreter.StopWatchpoint:
		event.Event = EventWatchpointHit
	case interpreter.StopHalt:
		event.Event = EventProgramHalted
	case interpreter.StopFault:
		event.Event = EventFault
	case interpreter.StopMaxSteps:
		event.Event = EventStepLimit
	case interpreter.StopInterrupted:
		event.Event = EventInterrupted
	default:
		event.Event = EventStepped
	}

	c.ui.OnEvent(event)
	return result.Error
}

func (c *Controller) cmdRegs(name string, args []string) error {
	if err := checkArgCount(name, args, 0); err != nil {
		return err
	}

	c.ui.ShowRegisters(c.backend.Registers())
	return nil
}

func (c *Controller) cmdMem(name string, args []string) error {
	if err := checkArgCount(name, args, 2); err != nil {
		return err
	}

	addr, err := c.parseAddress(name, args, 0, 0)
	if err != nil {
		return err
	}
	count, err := parseCount(name, args, 1, 1)
	if err != nil {
		return err
	}

	words, err := c.backend.ReadMemory(addr, count)
	if err != nil {
		return err
	}
	c.ui.ShowMemory(addr, words)
	return nil
}

func (c *Controller) cmdPC(name string, args []string) error {
	if err := checkArgCount(name, args, 0); err != nil {
		return err
	}

	c.ui.ShowValue("pc", uint64(c.backend.PC()))
	return nil
}

func (c *Controller) cmdIns(name string, args []string) error {
	if err := checkArgCount(name, args, 1); err != nil {
		return err
	}

	count, err := parseCount(name, args, 0, 1)
	if err != nil {
		return err
	}

	c.ui.ShowDisassembly(c.backend.PeekInstructions(count))
	return nil
}

func (c *Controller) cmdCount(name string, args []string) error {
	if err := checkArgCount(name, args, 0); err != nil {
		return err
	}

	c.ui.ShowValue("count", c.backend.InstructionCount())
	return nil
}

func (c *Controller) cmdBreak(name string, args []string) error {
	addr, err := c.parseExpression(name, args)
	if err != nil {
		return err
	}

	bp, err := c.backend.AddBreakpoint(addr)
	if err != nil {
		return err
	}

	c.ui.ShowMessage(LevelSuccess, "Breakpoint %d at %s", bp.ID, formatLocation(bp.Address, bp.Label))
	return nil
}

func (c *Controller) cmdWatch(name string, args []string) error {
	addr, err := c.parseExpression(name, args)
	if err != nil {
		return err
	}

	wp, err := c.backend.AddWatchpoint(addr)
	if err != nil {
		return err
	}

	c.ui.ShowMessage(LevelSuccess, "Watchpoint %d at %s", wp.ID, formatLocation(wp.Address, wp.Label))
	return nil
}

func (c *Controller) cmdDelete(name string, args []string) error {
	if err := checkArgCount(name, args, 1); err != nil {
		return err
	}

	if len(args) == 0 {
		return badArgument(name, "missing id")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return badArgument(name, "invalid id %q", args[0])
	}

	if err := c.backend.Delete(id); err != nil {
		return err
	}

	c.ui.ShowMessage(LevelSuccess, "Deleted %d", id)
	return nil
}

func (c *Controller) cmdList(name string, args []string) error {
	if err := checkArgCount(name, args, 0); err != nil {
		return err
	}

	c.ui.ShowBreakpoints(c.backend.Breakpoints(), c.backend.Watchpoints())
	return nil
}

func (c *Controller) cmdPrint(name string, args []string) error {
	if len(args) == 0 {
		return badArgument(name, "missing expression")
	}

	result, err := c.backend.Evaluate(strings.Join(args, " "))
	if err != nil {
		return &CommandError{Command: name, Message: "invalid expression", Err: err}
	}

	c.ui.ShowEvalResult(result)
	return nil
}

func (c *Controller) cmdDump(name string, args []string) error {
	if err := checkArgCount(name, args, 1); err != nil {
		return err
	}

	if len(args) == 0 {
		return badArgument(name, "missing file name")
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}

	if err := c.backend.DumpState(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.ui.ShowMessage(LevelSuccess, "State written to %s", args[0])
	return nil
}

func (c *Controller) cmdQuit(name string, args []string) error {
	c.done = true
	return nil
}

func formatLocation(addr uint32, label string) string {
	if label == "" {
		return strconv.FormatUint(uint64(addr), 10)
	}
	return strconv.FormatUint(uint64(addr), 10) + " <" + label + ">"
}
