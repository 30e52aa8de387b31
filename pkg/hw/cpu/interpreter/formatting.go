// Package interpreter provides an automatic interpreter for LC-2K machine code.
//
// # Formatting - Output Formatting Utilities
//
// This file provides utilities for formatting execution output, including
// instruction colorization and trace formatting. They are shared by the CLI
// commands and the debugger text UI.
package interpreter

import (
	"fmt"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
	"github.com/fatih/color"
)

// FormatStyle controls the output style for formatting functions
type FormatStyle int

const (
	// StylePlain produces plain text output without colors
	StylePlain FormatStyle = iota
	// StyleColored produces colorized output using ANSI escape codes
	StyleColored
)

var (
	stepColor    = color.New(color.FgHiBlack)
	addressColor = color.New(color.FgCyan)
	nameColor    = color.New(color.FgGreen)
	valueColor   = color.New(color.FgWhite, color.Bold)
	commentColor = color.New(color.FgHiBlack)
)

// InstructionFormatter formats instructions for display
type InstructionFormatter struct {
	style       FormatStyle
	highlighter *utils.AsmHighlighter
}

func NewInstructionFormatter(style FormatStyle) *InstructionFormatter {
	return &InstructionFormatter{
		style: style,
		highlighter: &utils.AsmHighlighter{
			Mnemonics: isa.Mnemonics(),
		},
	}
}

func (f *InstructionFormatter) Style() FormatStyle {
	return f.style
}

func (f *InstructionFormatter) paint(c *color.Color, format string, args ...any) string {
	text := fmt.Sprintf(format, args...)
	if f.style == StylePlain {
		return text
	}
	return c.Sprint(text)
}

// FormatInstruction formats a disassembled instruction as
// "address: mnemonic operands : description"
func (f *InstructionFormatter) FormatInstruction(d Disassembled) string {
	if f.style == StylePlain {
		return d.String()
	}

	return fmt.Sprintf("%s: %s : %s",
		addressColor.Sprint(d.Address),
		f.highlighter.Highlight(d.Instruction.String()),
		commentColor.Sprint(d.Instruction.Describe()))
}

// FormatListing formats a disassembled instruction for whole image listings,
// including the raw word
func (f *InstructionFormatter) FormatListing(d Disassembled, marker string) string {
	text := fmt.Sprintf("%-18s", d.Instruction.String())
	if f.style == StyleColored {
		text = f.highlighter.Highlight(text)
	}

	return fmt.Sprintf("%1s %s  %s  %s %s",
		marker,
		f.paint(addressColor, "%5d", d.Address),
		f.paint(stepColor, "%08X", d.Word),
		text,
		f.paint(commentColor, "# %s", d.Instruction.Describe()))
}

// FormatRegisters formats all registers in a single line
func (f *InstructionFormatter) FormatRegisters(registers [isa.TotalRegisters]uint32) string {
	parts := make([]string, len(registers))
	for r, value := range registers {
		parts[r] = f.paint(nameColor, "%v", isa.Register(r)) + "=" + f.paint(valueColor, "%d", int32(value))
	}
	return strings.Join(parts, " ")
}

// TraceFormatter formats execution trace output
type TraceFormatter struct {
	formatter *InstructionFormatter
}

func NewTraceFormatter(style FormatStyle) *TraceFormatter {
	return &TraceFormatter{
		formatter: NewInstructionFormatter(style),
	}
}

// FormatStep formats a single executed instruction and the register file
// after executing it
func (t *TraceFormatter) FormatStep(step int, executed Disassembled, state *CPUState) string {
	f := t.formatter
	return fmt.Sprintf("[%s] %s | %s",
		f.paint(stepColor, "%6d", step),
		f.FormatInstruction(executed),
		f.FormatRegisters(state.Registers))
}

// ExecutionSummary contains summary information about an execution
type ExecutionSummary struct {
	StepsExecuted    int
	InstructionCount uint64
	FinalPC          uint32
	Registers        [isa.TotalRegisters]uint32
	StopReason       StopReason
	Error            error
}

// Summarize builds an execution summary from the interpreter state and the
// result of the last run
func Summarize(interp *Interpreter, result *ExecutionResult) *ExecutionSummary {
	state := interp.State()
	summary := &ExecutionSummary{
		InstructionCount: state.InstructionCount,
		FinalPC:          state.PC,
		Registers:        state.Registers,
	}

	if result != nil {
		summary.StepsExecuted = result.StepsExecuted
		summary.StopReason = result.StopReason
		summary.Error = result.Error
	}

	return summary
}

// FormatSummary formats an execution summary for display
func (t *TraceFormatter) FormatSummary(summary *ExecutionSummary) string {
	f := t.formatter
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== Execution stopped: %s ===\n", summary.StopReason))
	if summary.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %v\n", summary.Error))
	}
	sb.WriteString(fmt.Sprintf("Instructions executed: %s\n", f.paint(valueColor, "%d", summary.InstructionCount)))
	sb.WriteString(fmt.Sprintf("Final PC: %s\n", f.paint(addressColor, "%d", summary.FinalPC)))
	sb.WriteString(f.FormatRegisters(summary.Registers))
	sb.WriteString("\n")

	return sb.String()
}
