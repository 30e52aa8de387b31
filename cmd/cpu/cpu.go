package cpu

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/debugger"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CpuCmd groups the commands that load and run programs
var CpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Run and debug LC-2K programs",
}

var (
	colorError   = color.New(color.FgRed, color.Bold)
	colorWarning = color.New(color.FgYellow)
	colorSuccess = color.New(color.FgGreen)
	colorAddr    = color.New(color.FgCyan)
)

// Exit codes
const (
	exitLoadError      = 1
	exitConstructError = 2
	exitFault          = 3
	exitStepLimit      = 4
)

func outputStyle() interpreter.FormatStyle {
	if color.NoColor {
		return interpreter.StylePlain
	}
	return interpreter.StyleColored
}

// Loads a program file, exiting with exitLoadError on failure
func mustLoad(path string) *loader.Result {
	result, err := loader.LoadFile(path)
	if err != nil {
		colorError.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(exitLoadError)
	}

	slog.Info("loaded program", "path", path, "format", result.Format.String(), "words", len(result.Image), "labels", len(result.Labels))
	return result
}

// Builds an interpreter for the loaded image, exiting with
// exitConstructError on failure
func mustInterpreter(result *loader.Result) *interpreter.Interpreter {
	interp, err := interpreter.New(result.Image, interpreter.WithLogger(slog.Default()))
	if err != nil {
		colorError.Fprintf(os.Stderr, "Error creating machine: %v\n", err)
		os.Exit(exitConstructError)
	}
	return interp
}

// Loads a program and wraps it in a debugger backend
func mustBackend(path string) *debugger.Backend {
	result := mustLoad(path)
	interp := mustInterpreter(result)
	return debugger.NewBackend(interpreter.NewDebugger(interp), result.Labels)
}

func printEntry(backend *debugger.Backend) {
	fmt.Printf("Entry point: %s\n", colorAddr.Sprintf("%d", backend.PC()))
}
