package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/am"
	"github.com/teranos/chrono/cmd/chrono/commands"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

var rootCmd = &cobra.Command{
	Use:   "chrono",
	Short: "chrono - chronologies on a single time axis",
	Long: `chrono - Build, relabel and query chronologies.

A chronology is a named set of dated records (events, periods, actors,
texts, challenges, markers) written in one calendar. Every date also has
a position on a shared time axis, so chronologies in different calendars
can be merged, relabelled and queried together.

Available commands:
  new, add, update, remove, list, order   - Edit a chronology
  relabel, merge, bump, apply             - Transform a chronology
  encode, decode, calendars               - Work with dates and calendars
  export                                  - Write xlsx, csv, json or yaml
  index, between, watch                   - Query across chronologies
  mcp                                     - Serve a chronology to MCP clients
  am                                      - Manage configuration ("I am")

Examples:
  chrono new ussher --calendar "Anno Mundi"
  chrono add ussher EVENTS creation "1 AM"
  chrono relabel ussher Gregorian
  chrono between "4500 BP" "4000 BP" -c "Before Present"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if _, err := os.Stat(path); err != nil {
				return errors.WithHint(
					errors.NewConfigurationError("config file %s: %v", path, err),
					"config files are TOML; `chrono am show` prints a complete one")
			}
			am.UseConfigFile(path)
		}
		// a broken config is reported by the command that needs it
		if cfg, err := am.Load(); err == nil && cfg.Log.JSON {
			jsonLogs = true
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs to stderr as JSON")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON (also: CHRONO_OUTPUT=json)")
	rootCmd.PersistentFlags().String("config", "", "Config file to use instead of the system/user/project cascade")

	rootCmd.AddCommand(commands.NewCmd)
	rootCmd.AddCommand(commands.AddCmd)
	rootCmd.AddCommand(commands.UpdateCmd)
	rootCmd.AddCommand(commands.RemoveCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.OrderCmd)
	rootCmd.AddCommand(commands.RelabelCmd)
	rootCmd.AddCommand(commands.MergeCmd)
	rootCmd.AddCommand(commands.BumpCmd)
	rootCmd.AddCommand(commands.ApplyCmd)
	rootCmd.AddCommand(commands.EncodeCmd)
	rootCmd.AddCommand(commands.DecodeCmd)
	rootCmd.AddCommand(commands.CalendarsCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.BetweenCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.McpCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
