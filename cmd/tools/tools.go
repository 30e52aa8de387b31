package tools

import (
	"github.com/spf13/cobra"
)

// ToolsCmd groups the assembler and documentation tools
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "LC-2K miscellaneous tools",
}
