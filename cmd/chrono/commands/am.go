package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/am"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage chrono configuration",
	Long: `am — Manage chrono configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/chrono/config.toml)
3. User config (~/.chrono/am.toml)
4. Project config (./chrono.toml, searched up directories)
5. Environment variables (CHRONO_* prefix, e.g. CHRONO_INDEX_PATH)

Examples:
  chrono am show                        # Show current configuration
  chrono am show --format json          # Show configuration in JSON format
  chrono am get storage.backups         # Get specific config value
  chrono am set calendar.default Secular
  chrono am where                       # Show where each value comes from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current chrono configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., storage.dir, calendar.default)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in a config file",
	Long: `Write key = value into the user config (~/.chrono/am.toml), or into the
project config with --project. The resulting configuration must validate;
the previous file is kept as a .back1 copy.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and the source of every setting.`,
	RunE: runAmWhere,
}

var (
	configFormat string
	setProject   bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().BoolVar(&setProject, "project", false, "Write to ./"+am.ProjectConfigName+" instead of the user config")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	data, err := cfg.Marshal(format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if format != "json" {
		fmt.Fprintln(out, "# chrono configuration")
	}
	fmt.Fprint(out, string(data))
	if format == "json" {
		fmt.Fprintln(out)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.WithHint(
			errors.NewConfigurationError("configuration key %q not found", key),
			"run `chrono am show` for the available keys")
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path := am.UserConfigPath()
	if setProject {
		path = am.ProjectConfigName
	}
	if path == "" {
		return errors.NewConfigurationError("no home directory for the user config; pass --project")
	}
	if err := am.Set(path, args[0], args[1]); err != nil {
		return err
	}
	am.Reset()
	display.Success(cmd.OutOrStdout(), "%s = %s (%s)", args[0], args[1], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	if _, err := cfg.Registry(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	display.Success(cmd.OutOrStdout(), "Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings, err := am.Introspect()
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, settings)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintln(out, "  2. [SYSTEM]   /etc/chrono/config.toml")
	fmt.Fprintln(out, "  3. [USER]     ~/.chrono/am.toml")
	fmt.Fprintln(out, "  4. [PROJECT]  ./"+am.ProjectConfigName+" (searches up directories)")
	fmt.Fprintln(out, "  5. [ENV]      CHRONO_* environment variables")
	fmt.Fprintln(out)

	groups := map[string][]am.SettingInfo{}
	for _, s := range settings {
		key := fmt.Sprintf("[%s] %s", s.Source, s.SourcePath)
		groups[key] = append(groups[key], s)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		rows := make([][]string, 0, len(groups[k]))
		for _, s := range groups[k] {
			rows = append(rows, []string{s.Key, fmt.Sprint(s.Value)})
		}
		fmt.Fprintln(out, k)
		if err := display.RenderTable(out, []string{"Key", "Value"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}
