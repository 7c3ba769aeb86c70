package cmd

import (
	"batch-engine/feature/tools"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// mcpCmd serves the engine tools over stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the engine as an MCP server over stdio",
	Long: `Exposes the query, bulk and maintenance operations as MCP tools on
stdin/stdout. Logs go to stderr so they never mix with the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		s := tools.NewServer(a.Query, a.Bulk, a.System)
		a.Logger.Info("Serving MCP over stdio", zap.String("version", tools.Version))
		return server.ServeStdio(s)
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
