package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/errors"
)

// NewCmd creates an empty chronology file
var NewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new chronology",
	Long: `Create an empty chronology in the storage directory.

The chronology is stamped with a fresh id, version 0.1.0 and the chosen
calendar (default: calendar.default from the configuration).

Examples:
  chrono new ussher --calendar "Anno Mundi" --display-name "Annals of the World"
  chrono new digs --path ./site/digs.chrono --calendar "Before Present"`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

// AddCmd adds a record
var AddCmd = &cobra.Command{
	Use:   "add <chronology> <category> <name> <begin> [end]",
	Short: "Add a record to a chronology",
	Long: `Add a record to a category of a chronology and save it.

Categories are EVENTS, PERIODS, ACTORS, TEXTS, CHALLENGES and MARKERS.
Dates are written in the chronology's calendar ("4004 BC", "1066",
"1969-07-20T20:17"). Annotations are key=value pairs; values are read as
literals where possible.

Examples:
  chrono add ussher EVENTS creation "4004 BC" --text "In the beginning"
  chrono add ussher PERIODS flood "2349 BC" "2348 BC" --set source=genesis`,
	Args: cobra.RangeArgs(4, 5),
	RunE: runAdd,
}

// UpdateCmd replaces an existing record
var UpdateCmd = &cobra.Command{
	Use:   "update <chronology> <category> <name> <begin> [end]",
	Short: "Replace an existing record",
	Args:  cobra.RangeArgs(4, 5),
	RunE:  runUpdate,
}

// RemoveCmd removes a record
var RemoveCmd = &cobra.Command{
	Use:     "remove <chronology> <category> <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a record from a chronology",
	Args:    cobra.ExactArgs(3),
	RunE:    runRemove,
}

// ListCmd lists records
var ListCmd = &cobra.Command{
	Use:     "list <chronology> [category]",
	Aliases: []string{"ls"},
	Short:   "List the records of a chronology",
	Long: `List records in display order with their axis positions.

Without a category every category is listed in turn.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runList,
}

// OrderCmd shows or sets the display order of a category
var OrderCmd = &cobra.Command{
	Use:   "order <chronology> <category> [name...]",
	Short: "Show or set the display order of a category",
	Long: `Without names, print the display order of the category.

With names, reorder the category: the names must be exactly the records of
the category, each once.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOrder,
}

// RelabelCmd moves a chronology to another calendar
var RelabelCmd = &cobra.Command{
	Use:   "relabel <chronology> <calendar>",
	Short: "Relabel every date into another calendar",
	Long: `Rewrite every stored date of a chronology in another calendar.

Axis positions are unchanged; only the labelled text moves. Either every
date relabels or the file is left as it was.

Examples:
  chrono relabel ussher Secular
  chrono relabel digs Gregorian --out digs-ad.chrono`,
	Args: cobra.ExactArgs(2),
	RunE: runRelabel,
}

// MergeCmd merges another chronology into one
var MergeCmd = &cobra.Command{
	Use:   "merge <chronology> <source>",
	Short: "Merge another chronology into this one",
	Long: `Merge the records of <source> into <chronology>.

<source> may be a local path, a URL, or any go-getter address (git::,
s3::, ...). Records of the source replace records of the same name. Both
chronologies must use the same calendar; relabel one first otherwise.

Examples:
  chrono merge ussher ./imports/kings.chrono
  chrono merge ussher https://example.org/chronologies/kings.chrono --out merged.chrono`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

// BumpCmd bumps the version of a chronology
var BumpCmd = &cobra.Command{
	Use:       "bump <chronology> [major|minor|patch]",
	Short:     "Bump the semantic version of a chronology",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"major", "minor", "patch"},
	RunE:      runBump,
}

var (
	newDisplayName string
	newSource      string
	newCalendar    string
	newPath        string

	recordText string
	recordSet  []string

	relabelOut string
	mergeOut   string
)

func init() {
	NewCmd.Flags().StringVar(&newDisplayName, "display-name", "", "Human-readable title")
	NewCmd.Flags().StringVar(&newSource, "source", "", "Where the dates come from")
	NewCmd.Flags().StringVarP(&newCalendar, "calendar", "c", "", "Calendar of the chronology (default: calendar.default)")
	NewCmd.Flags().StringVar(&newPath, "path", "", "File to create (default: <storage.dir>/<name>.chrono)")

	for _, cmd := range []*cobra.Command{AddCmd, UpdateCmd} {
		cmd.Flags().StringVarP(&recordText, "text", "t", "", "Free text of the record")
		cmd.Flags().StringArrayVarP(&recordSet, "set", "s", nil, "Annotation key=value (repeatable)")
	}

	RelabelCmd.Flags().StringVarP(&relabelOut, "out", "o", "", "Write the result here instead of in place")
	MergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Write the result here instead of in place")
}

func runNew(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	path := newPath
	if path == "" {
		path = e.cfg.ChronologyPath(args[0])
	}
	if _, err := os.Stat(path); err == nil {
		return errors.WithHint(
			errors.NewConfigurationError("chronology file %s already exists", path),
			"pass --path to create it elsewhere, or use `chrono add` to extend it")
	}

	opts := e.opts
	opts.Name = args[0]
	opts.DisplayName = newDisplayName
	opts.Source = newSource
	if newCalendar != "" {
		opts.Calendar = newCalendar
	}
	c, err := chronology.New(opts)
	if err != nil {
		return err
	}
	if err := c.Save(path); err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, map[string]string{
			"id":       c.ID().String(),
			"name":     c.Name(),
			"calendar": c.Calendar().Name(),
			"version":  c.Version().String(),
			"path":     c.Path(),
		})
	}
	display.Success(cmd.OutOrStdout(), "Created %s (%s) at %s", c.Name(), c.Calendar().Name(), c.Path())
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	return writeRecord(cmd, args, false)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return writeRecord(cmd, args, true)
}

func writeRecord(cmd *cobra.Command, args []string, replace bool) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}
	cat, err := chronology.ParseCategory(args[1])
	if err != nil {
		return err
	}
	f, err := recordFields(args[3:], recordText, recordSet)
	if err != nil {
		return err
	}

	var r *chronology.Record
	if replace {
		r, err = c.UpdateRecord(cat, args[2], f)
	} else {
		r, err = c.AddRecord(cat, args[2], f)
	}
	if err != nil {
		return err
	}
	if err := c.Save(""); err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, r)
	}
	verb := "Added"
	if replace {
		verb = "Updated"
	}
	display.Success(cmd.OutOrStdout(), "%s %s/%s (%s)", verb, cat, r.Name, r.Begin)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}
	cat, err := chronology.ParseCategory(args[1])
	if err != nil {
		return err
	}
	if err := c.RemoveRecord(cat, args[2]); err != nil {
		return err
	}
	if err := c.Save(""); err != nil {
		return err
	}
	display.Success(cmd.OutOrStdout(), "Removed %s/%s", cat, args[2])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}

	var entries []chronology.Entry
	if len(args) == 2 {
		cat, err := chronology.ParseCategory(args[1])
		if err != nil {
			return err
		}
		entries, err = c.ListRecords(cat)
		if err != nil {
			return err
		}
	} else {
		entries, err = c.AllRecords()
		if err != nil {
			return err
		}
	}

	return display.Render(cmd, entries, func(w io.Writer) error {
		fmt.Fprintf(w, "%s v%s (%s)\n", c.DisplayName(), c.Version(), c.Calendar().Name())
		return display.Entries(w, entries)
	})
}

func runOrder(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}
	cat, err := chronology.ParseCategory(args[1])
	if err != nil {
		return err
	}

	if len(args) > 2 {
		if err := c.SetOrder(cat, args[2:]); err != nil {
			return err
		}
		if err := c.Save(""); err != nil {
			return err
		}
	}

	order := c.ShowOrder(cat)
	return display.Render(cmd, order, func(w io.Writer) error {
		for i, name := range order {
			fmt.Fprintf(w, "%3d  %s\n", i+1, name)
		}
		return nil
	})
}

func runRelabel(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}
	from := c.Calendar().Name()
	if err := c.RelabelTo(args[1]); err != nil {
		return err
	}
	if err := c.Save(relabelOut); err != nil {
		return err
	}
	display.Success(cmd.OutOrStdout(), "Relabelled %s from %s to %s (%s)", c.Name(), from, c.Calendar().Name(), c.Path())
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	base, err := e.open(args[0])
	if err != nil {
		return err
	}
	other, err := chronology.Fetch(cmd.Context(), args[1], e.opts)
	if err != nil {
		return err
	}

	merged, err := base.Merge(other)
	if err != nil {
		return err
	}
	out := mergeOut
	if out == "" {
		out = base.Path()
	}
	if err := merged.Save(out); err != nil {
		return err
	}
	display.Success(cmd.OutOrStdout(), "Merged %s into %s: %d records (%s)", other.Name(), merged.Name(), merged.Len(), out)
	return nil
}

func runBump(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}
	part := ""
	if len(args) == 2 {
		part = args[1]
	}
	v, err := c.BumpVersion(part)
	if err != nil {
		return err
	}
	if err := c.Save(""); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}
