package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/motionwin/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the motionwin MCP server",
	Long:  `Launch an MCP server that allows AI agents to build collections, feed records and label windows via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr, which keeps stdio clean for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, logger, collectors)
	},
}
