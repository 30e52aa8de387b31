package tools

import (
	"fmt"
	"os"
	"sort"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
	"github.com/spf13/cobra"
)

var supportedModules = map[string]func() string{
	"cpu.isa": isa.DocString,
}

func moduleNames() []string {
	names := utils.Keys(supportedModules)
	sort.Strings(names)
	return names
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show LC-2K documentation",
	Long: `Dumps the documentation of the specified module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + utils.FormatSlice(utils.Map(moduleNames(), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: moduleNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := supportedModules[args[0]]()

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			fmt.Print(doc)
			return nil
		}

		return os.WriteFile(outputFile, []byte(doc), 0o644)
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}
