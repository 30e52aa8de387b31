package tools

import (
	"fmt"
	"strconv"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <word>...",
	Short: "Decode instruction words",
	Long: `Decodes each word (decimal, 0x hex or 0b binary, negative values allowed)
and draws its encoding.

Example:
  lc2k tools decode 8454151 0x01800000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			value, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("invalid word %q: %w", arg, err)
			}

			word := uint32(value)
			instr := isa.Decode(word)
			frame, err := utils.BitFrame(instr.Fields(), isa.EncodingBits, 2)
			if err != nil {
				return err
			}

			fmt.Printf("%s (0x%s): %v  # %s\n\n%s\n", arg, utils.FormatUintHex(word, 8), instr, instr.Describe(), frame)
		}
		return nil
	},
}

func init() {
	ToolsCmd.AddCommand(decodeCmd)
}
