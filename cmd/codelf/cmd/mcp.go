package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dasmlab/codelf/pkg/mcp"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the request_variable tool over MCP stdio",
		Long: `Serve the request_variable tool to MCP clients over stdio.

Logs go to stderr; stdout carries the JSON-RPC stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, logger, err := loadClient(cmd, root)
			if err != nil {
				return err
			}
			defer client.Close()
			return mcp.NewServer(client, logger).Serve(cmd.Context())
		},
	}
}
