package am

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/export"
)

// Default values
const (
	DefaultIndexPath = "chrono.db"
	DefaultMCPName   = "chrono"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("calendar.default", calendar.Gregorian)
	v.SetDefault("calendar.registry_files", []string{})

	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.comment_marker", chronology.DefaultCommentMarker)
	v.SetDefault("storage.backups", chronology.DefaultBackups)

	v.SetDefault("index.path", DefaultIndexPath)

	v.SetDefault("log.json", false)

	v.SetDefault("export.default_format", string(export.XLSX))

	v.SetDefault("mcp.name", DefaultMCPName)
}

// BindEnvVars binds the settings most often overridden per invocation
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("index.path", "CHRONO_INDEX_PATH")
	v.BindEnv("storage.dir", "CHRONO_STORAGE_DIR")
	v.BindEnv("calendar.default", "CHRONO_CALENDAR_DEFAULT")
	v.BindEnv("log.json", "CHRONO_LOG_JSON")
}

// Registry builds a calendar registry of the built-ins plus every
// configured registry file. Relative file paths resolve against the storage
// directory.
func (c *Config) Registry() (*calendar.Registry, error) {
	reg := calendar.DefaultRegistry()
	for _, path := range c.Calendar.RegistryFiles {
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Storage.Dir, path)
		}
		if err := reg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if _, err := reg.Lookup(c.Calendar.Default); err != nil {
		return nil, err
	}
	return reg, nil
}

// ChronologyOptions returns the options shared by every chronology this
// configuration opens or creates.
func (c *Config) ChronologyOptions(reg *calendar.Registry) chronology.Options {
	return chronology.Options{
		Calendar:      c.Calendar.Default,
		Registry:      reg,
		CommentMarker: c.Storage.CommentMarker,
		Backups:       c.Storage.Backups,
	}
}

// ChronologyPath resolves a chronology name or path. A bare name without an
// extension becomes <storage.dir>/<name>.chrono.
func (c *Config) ChronologyPath(nameOrPath string) string {
	if filepath.Ext(nameOrPath) == "" && filepath.Base(nameOrPath) == nameOrPath {
		return filepath.Join(c.Storage.Dir, nameOrPath+chronology.FileExtension)
	}
	return nameOrPath
}

// ExportFormat returns the configured default export format.
func (c *Config) ExportFormat() export.Format {
	f, err := export.ParseFormat(c.Export.DefaultFormat)
	if err != nil {
		return export.XLSX
	}
	return f
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Calendar: %s, Storage: {Dir: %s, Backups: %d}, Index: %s}",
		c.Calendar.Default, c.Storage.Dir, c.Storage.Backups, c.Index.Path)
}
