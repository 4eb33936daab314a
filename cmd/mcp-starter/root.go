package main

import "github.com/spf13/cobra"

const (
	serverName    = "mcp-starter"
	serverVersion = "0.1.0"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           serverName,
		Short:         "A workshop MCP server with demo tools, resources and prompts",
		Version:       serverVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCommand())
	return root
}
