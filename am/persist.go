package am

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// configBackups is how many .backN copies Set keeps of a config file.
const configBackups = 3

// Marshal renders c as toml, json or yaml.
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return toml.Marshal(c)
	case "json":
		return json.MarshalIndent(c, "", "  ")
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, errors.Wrap(err, "marshal yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "marshal yaml")
		}
		return buf.Bytes(), nil
	}
	return nil, errors.NewConfigurationError("unknown config format %q (want toml, json or yaml)", format)
}

// Set writes key = value into the TOML file at path, creating it if needed.
// value is parsed as a bool, integer or list where it looks like one. The
// result must still validate; the previous file is kept as .back1.
func Set(path, key, value string) error {
	known := false
	probe := viper.New()
	SetDefaults(probe)
	for _, k := range probe.AllKeys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return errors.WithHint(
			errors.NewConfigurationError("unknown config key %q", key),
			"run `chrono am show` for the available keys")
	}

	doc := map[string]interface{}{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return errors.Mark(errors.Wrapf(err, "failed to parse %s", path), errors.ErrConfiguration)
		}
	} else if !os.IsNotExist(err) {
		return errors.WrapPersistence(err, "read %s", path)
	}
	setNested(doc, strings.Split(key, "."), parseValue(value))

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// the merged result must still be a valid configuration
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, "failed to re-read config")
	}
	if _, err := LoadWithViper(v); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.WrapPersistence(err, "create %s", filepath.Dir(path))
	}
	if err := createBackup(path, configBackups); err != nil {
		return errors.WrapPersistence(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.WrapPersistence(err, "failed to write %s", path)
	}
	logger.Infow("Config updated", logger.FieldPath, path, "key", key)
	return nil
}

func setNested(doc map[string]interface{}, parts []string, value interface{}) {
	for _, p := range parts[:len(parts)-1] {
		next, ok := doc[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			doc[p] = next
		}
		doc = next
	}
	doc[parts[len(parts)-1]] = value
}

// parseValue reads "true", "3" and "a.toml,b.toml" as typed values.
func parseValue(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if strings.Contains(s, ",") {
		var items []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return s
}

// createBackup rotates path.back1 … path.backN and copies path to .back1.
func createBackup(path string, n int) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	oldest := path + ".back" + strconv.Itoa(n)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old backup", logger.FieldPath, oldest, logger.FieldError, err)
	}
	for i := n - 1; i >= 1; i-- {
		from := path + ".back" + strconv.Itoa(i)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, path+".back"+strconv.Itoa(i+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", from)
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	return errors.Wrap(os.WriteFile(path+".back1", content, DefaultFilePermissions), "failed to create .back1")
}
