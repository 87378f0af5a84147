package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/batch"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/errors"
)

// ApplyCmd runs a batch script against a chronology
var ApplyCmd = &cobra.Command{
	Use:   "apply <chronology> <script|->",
	Short: "Apply a batch script of edits to a chronology",
	Long: `Apply a script of edits, one command per line, to a chronology.

  add    <CATEGORY> <name> <begin> [end] [key=value...]
  update <CATEGORY> <name> <begin> [end] [key=value...]
  remove <CATEGORY> <name>
  order  <CATEGORY> <name> ...
  relabel <calendar>
  comment <text>

Words are shell-quoted; lines starting with # are comments. Either every
line applies and the chronology is saved, or nothing changes.

Examples:
  chrono apply ussher edits.txt
  echo 'add EVENTS exodus "1491 BC"' | chrono apply ussher -`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

var applyDryRun bool

func init() {
	ApplyCmd.Flags().BoolVarP(&applyDryRun, "dry-run", "n", false, "Check the script without saving")
}

func runApply(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, err := e.open(args[0])
	if err != nil {
		return err
	}

	var script io.Reader = cmd.InOrStdin()
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return errors.WrapPersistence(err, "open script %s", args[1])
		}
		defer f.Close()
		script = f
	}

	out, res, err := batch.NewRunner(nil).ApplyScript(c, script)
	if err != nil {
		return err
	}
	if !applyDryRun {
		if err := out.Save(""); err != nil {
			return err
		}
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, res)
	}
	verb := "Applied"
	if applyDryRun {
		verb = "Checked"
	}
	display.Success(cmd.OutOrStdout(), "%s %d commands: %d added, %d updated, %d removed",
		verb, res.Applied, res.Added, res.Updated, res.Removed)
	return nil
}
