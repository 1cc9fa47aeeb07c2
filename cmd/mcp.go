package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/pagepilot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the page action and research intents as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(appCfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		logger.Info("pagepilot MCP server started on stdio", "provider", appCfg.Provider, "model", appCfg.Model)

		srv := mcpserver.NewServer(a.resolver, a.ledger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
