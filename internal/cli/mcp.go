package cli

import (
	"github.com/akolanti/RegGuru/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask_regulation and upload_documents tools over MCP stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout so assistants can query
the index and add documents to it.

Example client configuration:
  {
    "mcpServers": {
      "regguru": {
        "command": "/path/to/regguru",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	server, err := mcpserver.NewServer(svc)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
