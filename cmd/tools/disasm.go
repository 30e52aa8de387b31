package tools

import (
	"fmt"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Disassemble a program",
	Long: `Prints every word of a program image as an instruction, with its address,
raw encoding and semantics. Assembly sources are assembled first and their
labels shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	ToolsCmd.AddCommand(disasmCmd)
}

func runDisasm(cmd *cobra.Command, args []string) error {
	result, err := loader.LoadFile(args[0])
	if err != nil {
		return err
	}

	style := interpreter.StyleColored
	if color.NoColor {
		style = interpreter.StylePlain
	}
	formatter := interpreter.NewInstructionFormatter(style)

	labels := make(map[uint32]string, len(result.Labels))
	for name, addr := range result.Labels {
		if existing, ok := labels[addr]; !ok || name < existing {
			labels[addr] = name
		}
	}

	for addr, word := range result.Image {
		if label, ok := labels[uint32(addr)]; ok {
			fmt.Printf("%s:\n", label)
		}

		fmt.Println(formatter.FormatListing(interpreter.Disassembled{
			Address:     uint32(addr),
			Word:        word,
			Instruction: isa.Decode(word),
		}, ""))
	}
	return nil
}
