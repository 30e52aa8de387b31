package cpu

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	execTrace     bool
	execQuiet     bool
	execDumpState string
)

var execCmd = &cobra.Command{
	Use:   "exec <file>",
	Short: "Execute an LC-2K program",
	Long: `Loads and executes an LC-2K program until it halts.

The command accepts either:
  - Machine code images (.mc) - one signed decimal word per line
  - Assembly sources (.as, .s, .asm) - assembled before running

Exit status:
  0 - the program halted
  1 - the program could not be loaded
  2 - the machine could not be created (image too large)
  3 - the program caused a memory fault
  4 - the step limit was reached

Example:
  lc2k cpu exec program.mc
  lc2k cpu exec --trace --max-steps 1000 program.as`,
	Args: cobra.ExactArgs(1),
	Run:  runExec,
}

func init() {
	CpuCmd.AddCommand(execCmd)
	execCmd.Flags().IntP("max-steps", "n", 0, "Maximum number of steps to execute (0 = unlimited)")
	execCmd.Flags().BoolVarP(&execTrace, "trace", "t", false, "Trace each instruction execution")
	execCmd.Flags().BoolVarP(&execQuiet, "quiet", "q", false, "Do not print the execution summary")
	execCmd.Flags().StringVar(&execDumpState, "dump-state", "", "Write a YAML snapshot of the final machine state to this file")
	cobra.CheckErr(viper.BindPFlag("exec.max_steps", execCmd.Flags().Lookup("max-steps")))
}

func runExec(cmd *cobra.Command, args []string) {
	result := mustLoad(args[0])

	runner, err := interpreter.NewRunner(result.Image, interpreter.WithLogger(slog.Default()))
	if err != nil {
		colorError.Fprintf(os.Stderr, "Error creating machine: %v\n", err)
		os.Exit(exitConstructError)
	}

	stopSignals := interruptOnSignal(runner.Interrupt)

	maxSteps := viper.GetInt("exec.max_steps")
	style := outputStyle()

	var execution *interpreter.ExecutionResult
	if execTrace {
		tracer := interpreter.NewTraceFormatter(style)
		execution = runner.RunWithTrace(maxSteps, func(step int, executed interpreter.Disassembled, state *interpreter.CPUState) bool {
			fmt.Println(tracer.FormatStep(step, executed, state))
			return true
		})
	} else {
		execution = runner.Run(maxSteps)
	}
	stopSignals()

	if !execQuiet {
		fmt.Print(interpreter.NewTraceFormatter(style).FormatSummary(runner.Summary()))
	}

	if execDumpState != "" {
		if err := dumpState(runner.Interpreter(), execDumpState); err != nil {
			colorError.Fprintf(os.Stderr, "Error writing state: %v\n", err)
		}
	}

	switch execution.StopReason {
	case interpreter.StopFault:
		os.Exit(exitFault)
	case interpreter.StopMaxSteps:
		os.Exit(exitStepLimit)
	}
}

func dumpState(interp *interpreter.Interpreter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := interp.Snapshot().WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
