package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/export"
)

// ExportCmd writes a chronology as a table
var ExportCmd = &cobra.Command{
	Use:   "export <chronology> [category...]",
	Short: "Export a chronology as xlsx, csv, json or yaml",
	Long: `Export the records of a chronology as a flat table.

Each record becomes a row with its category, name, dates, axis positions
and one column per annotation key. The format follows --format, then the
extension of --out, then export.default_format.

Examples:
  chrono export ussher --out ussher.xlsx
  chrono export ussher EVENTS --format csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

var (
	exportOut    string
	exportFormat string
)

func init() {
	ExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	ExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "xlsx, csv, json or yaml")
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}

	var cats []chronology.Category
	for _, s := range args[1:] {
		cat, err := chronology.ParseCategory(s)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}
	table, err := export.Build(c, cats...)
	if err != nil {
		return err
	}

	format := e.cfg.ExportFormat()
	if exportOut != "" {
		format = export.FormatForPath(exportOut, format)
	}
	if exportFormat != "" {
		if format, err = export.ParseFormat(exportFormat); err != nil {
			return err
		}
	}

	if exportOut == "" {
		if format == export.XLSX {
			return errors.WithHint(
				errors.NewConfigurationError("refusing to write a workbook to stdout"),
				"pass --out file.xlsx or --format csv")
		}
		return export.Write(cmd.OutOrStdout(), format, table)
	}
	if err := export.WriteFile(exportOut, format, table); err != nil {
		return err
	}
	display.Success(cmd.ErrOrStderr(), "Exported %d records to %s", len(table.Rows), exportOut)
	return nil
}
