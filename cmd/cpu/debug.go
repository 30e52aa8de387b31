package cpu

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/debugger"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var debugCmd = &cobra.Command{
	Use:   "debug <file>",
	Short: "Interactive debugger for LC-2K programs",
	Long: `Loads a program and starts an interactive debugging session.

Commands:
  help, h               - Show the command list
  step, s [n]           - Execute n instructions (default: 1)
  regs, r               - Show the register file
  mem, m [addr] [n]     - Show n memory words from addr in hex (default: 0 1)
  pc, p                 - Show the program counter
  ins, i [n]            - Disassemble n instructions starting at pc
  count, c              - Show the executed instruction count
  run [max]             - Run until halt, breakpoint or watchpoint
  break, b <expr>       - Set a breakpoint
  watch, w <expr>       - Stop when a memory word changes
  delete, d <id>        - Delete a breakpoint or watchpoint
  list, l               - List breakpoints and watchpoints
  print, e <expr>       - Evaluate an expression (r1 + [five] << 2)
  dump <file>           - Write a YAML snapshot of the machine state
  quit, q               - Exit debugger

An empty line repeats the previous command. Ctrl+C interrupts a running program.`,
	Args: cobra.ExactArgs(1),
	Run:  runDebug,
}

func init() {
	CpuCmd.AddCommand(debugCmd)
	debugCmd.Flags().String("prompt", "(lc2k) ", "Prompt string")
	debugCmd.Flags().String("history", "", "Command history file (default is $HOME/.lc2k_history)")
	cobra.CheckErr(viper.BindPFlag("debug.prompt", debugCmd.Flags().Lookup("prompt")))
	cobra.CheckErr(viper.BindPFlag("debug.history_file", debugCmd.Flags().Lookup("history")))
}

// Completes command names and aliases
func commandCompleter(controller *debugger.Controller) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range controller.Commands() {
		items = append(items, readline.PcItem(cmd.Name))
	}
	return readline.NewPrefixCompleter(items...)
}

func runDebug(cmd *cobra.Command, args []string) {
	backend := mustBackend(args[0])
	ui := debugger.NewTextUI(os.Stdout, outputStyle())
	controller := debugger.NewController(backend, ui)

	// Ctrl+C while a command runs interrupts the program; at the prompt it is
	// handled by readline
	stopSignals := interruptOnSignal(backend.Interrupt)
	defer stopSignals()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          viper.GetString("debug.prompt"),
		HistoryFile:     viper.GetString("debug.history_file"),
		AutoComplete:    commandCompleter(controller),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		colorError.Fprintf(os.Stderr, "Failed to start line editor: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	printEntry(backend)
	colorSuccess.Println("Type 'help' for available commands.")
	ui.ShowDisassembly(backend.PeekInstructions(1))

	for !controller.Done() {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			colorWarning.Println("Use 'quit' to leave the debugger.")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			colorError.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			break
		}

		if err := controller.Execute(line); err != nil {
			slog.Debug("command failed", "line", line, "error", err)
		}
	}
}
