package debugger

import (
	"fmt"
	"io"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	addressColor = color.New(color.FgCyan)
	nameColor    = color.New(color.FgGreen)
	valueColor   = color.New(color.FgWhite, color.Bold)
	labelColor   = color.New(color.FgHiMagenta)
	dimColor     = color.New(color.FgHiBlack)
)

// TextUI is a line oriented DebuggerUI writing to an io.Writer
type TextUI struct {
	out       io.Writer
	style     interpreter.FormatStyle
	formatter *interpreter.InstructionFormatter
}

func NewTextUI(out io.Writer, style interpreter.FormatStyle) *TextUI {
	return &TextUI{
		out:       out,
		style:     style,
		formatter: interpreter.NewInstructionFormatter(style),
	}
}

func (ui *TextUI) paint(c *color.Color, format string, args ...any) string {
	text := fmt.Sprintf(format, args...)
	if ui.style == interpreter.StylePlain {
		return text
	}
	return c.Sprint(text)
}

func (ui *TextUI) println(format string, args ...any) {
	fmt.Fprintf(ui.out, format+"\n", args...)
}

func (ui *TextUI) OnEvent(event EventData) {
	switch event.Event {
	case EventStepped:
	case EventProgramHalted:
		ui.println("Program has halted")
	case EventFault:
		ui.println("%s", ui.paint(errorColor, "Program faulted: %v", event.Error))
	case EventBreakpointHit:
		ui.println("Breakpoint %d hit at %s", event.BreakpointID, ui.paint(addressColor, "%d", event.Address))
	case EventWatchpointHit:
		ui.println("Watchpoint %d triggered, pc is %s", event.WatchpointID, ui.paint(addressColor, "%d", event.Address))
	case EventStepLimit:
		ui.println("%s", ui.paint(warningColor, "Step limit reached after %d steps", event.StepsExecuted))
	case EventInterrupted:
		ui.println("%s", ui.paint(warningColor, "Interrupted at pc %d", event.Address))
	}
}

func (ui *TextUI) ShowMessage(level MessageLevel, format string, args ...any) {
	switch level {
	case LevelError:
		ui.println("%s", ui.paint(errorColor, format, args...))
	case LevelWarning:
		ui.println("%s", ui.paint(warningColor, format, args...))
	case LevelSuccess:
		ui.println("%s", ui.paint(successColor, format, args...))
	default:
		ui.println(format, args...)
	}
}

func (ui *TextUI) ShowRegisters(regs []RegisterInfo) {
	for _, reg := range regs {
		ui.println("%s: %s", ui.paint(nameColor, "R%d", reg.Index), ui.paint(valueColor, "%d", reg.Value))
	}
}

func (ui *TextUI) ShowMemory(addr uint32, words []uint32) {
	var sb strings.Builder
	for _, word := range words {
		fmt.Fprintf(&sb, "%08X ", word)
	}
	ui.println("%s", sb.String())
}

func (ui *TextUI) ShowDisassembly(instructions []InstructionInfo) {
	for _, info := range instructions {
		if info.Label != "" {
			ui.println("%s:", ui.paint(labelColor, "%s", info.Label))
		}
		ui.println("%s", ui.formatter.FormatInstruction(interpreter.Disassembled{
			Address:     info.Address,
			Word:        info.Encoding,
			Instruction: info.Instruction,
		}))
	}
}

func (ui *TextUI) ShowValue(name string, value uint64) {
	ui.println("%d", value)
}

func (ui *TextUI) ShowBreakpoints(breakpoints []BreakpointInfo, watchpoints []WatchpointInfo) {
	if len(breakpoints) == 0 && len(watchpoints) == 0 {
		ui.println("No breakpoints or watchpoints")
		return
	}

	for _, bp := range breakpoints {
		state := ""
		if !bp.Enabled {
			state = " (disabled)"
		}
		ui.println("%s breakpoint at %s%s hits=%d  %s",
			ui.paint(valueColor, "#%d", bp.ID),
			ui.paint(addressColor, "%s", formatLocation(bp.Address, bp.Label)),
			state,
			bp.HitCount,
			ui.paint(dimColor, "%s", bp.InstructionText))
	}

	for _, wp := range watchpoints {
		state := ""
		if !wp.Enabled {
			state = " (disabled)"
		}
		ui.println("%s watchpoint at %s%s hits=%d value=%d",
			ui.paint(valueColor, "#%d", wp.ID),
			ui.paint(addressColor, "%s", formatLocation(wp.Address, wp.Label)),
			state,
			wp.HitCount,
			int32(wp.Value))
	}
}

func (ui *TextUI) ShowEvalResult(result EvalResult) {
	ui.println("%s = %s (0x%08X, 0b%s)",
		result.Expression,
		ui.paint(valueColor, "%d", result.Signed()),
		result.Value,
		FormatBinary(result.Value))
}

func (ui *TextUI) ShowHelp(commands []CommandHelp) {
	for _, cmd := range commands {
		names := strings.Join(append(append([]string{}, cmd.Aliases...), cmd.Name), "|")
		if cmd.Usage != "" {
			names += " " + cmd.Usage
		}
		ui.println("%-17s-> %s", names, cmd.Description)
	}
}
