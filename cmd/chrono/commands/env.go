package commands

import (
	"strings"

	"github.com/teranos/chrono/am"
	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/literal"
)

// env bundles what every chronology command needs from the configuration.
type env struct {
	cfg      *am.Config
	registry *calendar.Registry
	opts     chronology.Options
}

func loadEnv() (*env, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, registry: reg, opts: cfg.ChronologyOptions(reg)}, nil
}

// open loads the chronology named (or located) by nameOrPath.
func (e *env) open(nameOrPath string) (*chronology.Chronology, error) {
	return chronology.Load(e.cfg.ChronologyPath(nameOrPath), e.opts)
}

// codec returns the codec of the named calendar, or the configured default.
func (e *env) codec(name string) (*calendar.Codec, error) {
	if name == "" {
		name = e.cfg.Calendar.Default
	}
	cal, err := e.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return calendar.NewCodec(cal), nil
}

// recordFields turns positional dates plus --text and --set flags into
// record fields. set entries are key=value; values are read as literals
// where they parse and kept as strings otherwise.
func recordFields(dates []string, text string, set []string) (chronology.Fields, error) {
	var f chronology.Fields
	if len(dates) > 0 {
		f.Begin = calendar.Raw(dates[0])
	}
	if len(dates) > 1 {
		f.End = calendar.Raw(dates[1])
	}
	f.Text = text
	for _, kv := range set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return f, errors.WithHint(
				errors.NewConfigurationError("annotation %q is not key=value", kv),
				"quote values with spaces: --set 'note=first light'")
		}
		if f.Annotations == nil {
			f.Annotations = map[string]any{}
		}
		f.Annotations[key] = literal.ParseOrRaw(value)
	}
	return f, nil
}
