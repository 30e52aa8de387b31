package cpu

import (
	"log/slog"
	"os"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/script"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <program> <script.star>",
	Short: "Drive a debugging session from a Starlark script",
	Long: `Loads a program and runs a Starlark script against it. Scripts can step
and run the machine, inspect registers and memory, set breakpoints and assert
on the machine state with check().

Labels of assembly programs are available as integer globals.

Example script:
  break_at(loop)
  check(run() == "breakpoint")
  print("r1 =", reg(1))
  check(run() == "halt" and mem(result) == 42, "wrong result")`,
	Args: cobra.ExactArgs(2),
	Run:  runScript,
}

func init() {
	CpuCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) {
	backend := mustBackend(args[0])
	runner := script.NewRunner(backend, os.Stdout, script.WithLogger(slog.Default()))

	stopSignals := interruptOnSignal(runner.Interrupt)
	err := runner.ExecFile(args[1])
	stopSignals()

	if err != nil {
		colorError.Fprintf(os.Stderr, "Script failed: %v\n", err)
		os.Exit(1)
	}
}
