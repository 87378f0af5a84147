package display

import (
	"encoding/json"
	"os"
)

// MarshalJSON pretty-prints for terminals and stays compact when
// CHRONO_OUTPUT=json asks for machine-readable output.
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv(OutputEnv) == "json" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
