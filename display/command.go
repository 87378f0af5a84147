package display

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/errors"
)

// OutputEnv forces JSON output when set to "json", for scripted callers.
const OutputEnv = "CHRONO_OUTPUT"

// ShouldOutputJSON reports whether cmd should print JSON: the command's own
// --json flag first, then the root's persistent --json, then CHRONO_OUTPUT.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return os.Getenv(OutputEnv) == "json"
	}
	if cmd.Flags().Changed("json") {
		on, _ := cmd.Flags().GetBool("json")
		return on
	}
	if on, _ := cmd.Root().PersistentFlags().GetBool("json"); on {
		return true
	}
	return os.Getenv(OutputEnv) == "json"
}

// OutputJSON writes v to the command's stdout using MarshalJSON.
func OutputJSON(cmd *cobra.Command, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// Render prints v as JSON when JSON output is requested and otherwise hands
// the command's stdout to human.
func Render(cmd *cobra.Command, v interface{}, human func(w io.Writer) error) error {
	if ShouldOutputJSON(cmd) {
		return OutputJSON(cmd, v)
	}
	return human(cmd.OutOrStdout())
}
