package tools

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/asm"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/loader"
	"github.com/spf13/cobra"
)

var asmOutput string

var asmCmd = &cobra.Command{
	Use:   "asm <source>",
	Short: "Assemble LC-2K assembly into a machine code image",
	Long: `Assembles an LC-2K assembly source into a machine code image, one signed
decimal word per line.

Source lines have the form:

  label   opcode  field0  field1  field2  comment

Labels start in the first column. Use '-o -' to write the image to stdout.

Example:
  lc2k tools asm program.as              # writes program.mc
  lc2k tools asm program.as -o out.mc`,
	Args: cobra.ExactArgs(1),
	RunE: runAsm,
}

func init() {
	ToolsCmd.AddCommand(asmCmd)
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", "Output image (default: source file with .mc extension)")
}

func runAsm(cmd *cobra.Command, args []string) error {
	source := args[0]

	program, err := asm.AssembleFile(source)
	if err != nil {
		return err
	}

	output := asmOutput
	if output == "" {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".mc"
	}

	if output == "-" {
		return loader.WriteImage(os.Stdout, program.Words)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := loader.WriteImage(f, program.Words); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Info("assembled", "source", source, "output", output, "words", len(program.Words), "labels", len(program.Labels))
	fmt.Fprintf(os.Stderr, "%s: %d words written to %s\n", source, len(program.Words), output)
	return nil
}
