package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/chrono/mcpserver"
)

// McpCmd serves a chronology over the Model Context Protocol
var McpCmd = &cobra.Command{
	Use:   "mcp <chronology>",
	Short: "Serve a chronology to MCP clients over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: encode_date, relabel_date, list_records and add_record. Records
added through MCP are saved to the chronology file. Logs go to stderr.

Example client entry:
  {"command": "chrono", "args": ["mcp", "ussher"]}`,
	Args: cobra.ExactArgs(1),
	RunE: runMcp,
}

func runMcp(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	s, err := mcpserver.New(e.cfg.MCP.Name, e.cfg.ChronologyPath(args[0]), e.opts)
	if err != nil {
		return err
	}
	return s.Serve()
}
