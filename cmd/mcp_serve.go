package cmd

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/mcptools"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Run MCP server on stdio",
	Long: `Starts a Model Context Protocol (MCP) server that exposes journal tools
over stdio transport. Stdin carries the protocol, so the passphrase must be
given in REFLECT_PASSPHRASE.

Available tools:
  - list_entries: List entries, newest first, optionally for one month
  - weekly_insight: Mood and themes over the last seven days
  - monthly_stats: Average mood and top themes for this month
  - add_entry: Analyze and append an entry dated today

Example usage in an MCP client config:
  {
    "mcpServers": {
      "reflectctl": {
        "command": "/path/to/reflectctl",
        "args": ["mcp-serve"],
        "env": {"REFLECT_PASSPHRASE": "..."}
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	if os.Getenv(PassphraseEnv) == "" {
		return fmt.Errorf("%s must be set for mcp-serve", PassphraseEnv)
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	server := mcptools.CreateMCPServer(s.store,
		mcptools.WithIndexer(newClient()),
		mcptools.WithClock(now),
	)

	// stdout is reserved for the protocol; the logger writes to stderr.
	logger.Info("starting MCP server",
		zap.String("transport", "stdio"),
		zap.String("storage", appConfig.Storage),
	)
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
