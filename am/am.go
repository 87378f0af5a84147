// Package am loads chrono's configuration: defaults, then system, user and
// project TOML files, then CHRONO_* environment variables.
package am

// Config represents the chrono configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar" toml:"calendar" json:"calendar" yaml:"calendar"`
	Storage  StorageConfig  `mapstructure:"storage" toml:"storage" json:"storage" yaml:"storage"`
	Index    IndexConfig    `mapstructure:"index" toml:"index" json:"index" yaml:"index"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
	Export   ExportConfig   `mapstructure:"export" toml:"export" json:"export" yaml:"export"`
	MCP      MCPConfig      `mapstructure:"mcp" toml:"mcp" json:"mcp" yaml:"mcp"`
}

// CalendarConfig selects the calendar of new chronologies and extra
// calendar definitions
type CalendarConfig struct {
	Default       string   `mapstructure:"default" toml:"default" json:"default" yaml:"default" validate:"required"`
	RegistryFiles []string `mapstructure:"registry_files" toml:"registry_files" json:"registry_files" yaml:"registry_files" validate:"dive,required"` // TOML files of [[calendar]] tables
}

// StorageConfig configures chronology files
type StorageConfig struct {
	Dir           string `mapstructure:"dir" toml:"dir" json:"dir" yaml:"dir" validate:"required"`
	CommentMarker string `mapstructure:"comment_marker" toml:"comment_marker" json:"comment_marker" yaml:"comment_marker" validate:"comment_marker"`
	Backups       int    `mapstructure:"backups" toml:"backups" json:"backups" yaml:"backups" validate:"min=0,max=9"` // .backN copies kept on save (0 = none)
}

// IndexConfig configures the SQLite timeline index
type IndexConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path" validate:"required"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// ExportConfig configures table export
type ExportConfig struct {
	DefaultFormat string `mapstructure:"default_format" toml:"default_format" json:"default_format" yaml:"default_format" validate:"oneof=xlsx csv json yaml"`
}

// MCPConfig configures the MCP server
type MCPConfig struct {
	Name string `mapstructure:"name" toml:"name" json:"name" yaml:"name" validate:"required"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
