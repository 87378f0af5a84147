package am

import (
	"strings"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/internal/validation"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return errors.WithHint(err, "check chrono.toml, ~/.chrono/am.toml and CHRONO_* variables")
	}

	// The index lives in a file, never in memory
	if strings.TrimSpace(c.Index.Path) == ":memory:" {
		return errors.NewConfigurationError("index.path cannot be :memory:, the index must persist between runs")
	}

	for _, path := range c.Calendar.RegistryFiles {
		if !strings.HasSuffix(strings.ToLower(path), ".toml") {
			return errors.WithHintf(
				errors.NewConfigurationError("calendar.registry_files entry %q is not a .toml file", path),
				"registry files hold [[calendar]] tables in TOML")
		}
	}

	return nil
}
