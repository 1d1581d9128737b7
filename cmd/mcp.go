package cmd

import (
	"github.com/spf13/cobra"

	"github.com/selimcan/tagsense/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio for AI agents",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		// Stdout carries protocol messages; nothing else may print.
		exitOnError(mcp.NewServer(e).Serve())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
