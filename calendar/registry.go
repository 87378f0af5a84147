package calendar

import (
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/internal/validation"
)

// Built-in calendar names.
const (
	BeforePresent = "Before Present"
	Experiment    = "Experiment"
	Gregorian     = "Gregorian"
	Secular       = "Secular"
)

// PresentYear is the axis year "Before Present" counts back from.
const PresentYear = 1950

// Builtins returns the built-in calendar table.
//
//	Gregorian       " AD" / " BC"   no year zero
//	Secular         " CE" / " BCE"  no year zero
//	Before Present  " AP" / " BP"   year zero at 1950
//	Experiment      unlabelled      astronomical years
func Builtins() []Definition {
	return []Definition{
		MustDefinition(BeforePresent, " AP", " BP", PresentYear, true),
		MustDefinition(Experiment, "", "", 0, true),
		MustDefinition(Gregorian, " AD", " BC", 0, false),
		MustDefinition(Secular, " CE", " BCE", 0, false),
	}
}

// Registry is a caller-owned table of named calendar definitions. Callers
// pass a Registry to every constructor that resolves calendar names; separate
// registries never share state.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates a registry holding defs. Duplicate names are a
// configuration error.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a fresh registry holding the built-ins.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds d. A name may be registered once.
func (r *Registry) Register(d Definition) error {
	if d.IsZero() {
		return errors.NewConfigurationError("cannot register an empty calendar definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[d.Name()]; exists {
		return errors.NewConfigurationError("calendar %q is already registered", d.Name())
	}
	r.defs[d.Name()] = d
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	d, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, errors.WithHintf(
			errors.NewConfigurationError("unknown calendar %q", name),
			"known calendars: %s", strings.Join(r.Names(), ", "))
	}
	return d, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every definition, sorted by name.
func (r *Registry) All() []Definition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(names))
	for _, name := range names {
		out = append(out, r.defs[name])
	}
	return out
}

// definitionSpec is the on-disk shape of one calendar in a registry file.
type definitionSpec struct {
	Name         string `toml:"name" validate:"required"`
	Positive     string `toml:"positive" validate:"era_label"`
	Negative     string `toml:"negative" validate:"era_label"`
	Offset       int64  `toml:"offset"`
	UsesYearZero bool   `toml:"zero"`
}

type registryFile struct {
	Calendars []definitionSpec `toml:"calendar"`
}

// LoadFile registers every calendar declared in a TOML registry file:
//
//	[[calendar]]
//	name = "Anno Mundi"
//	positive = " AM"
//	negative = " BAM"
//	offset = -3760
//	zero = false
//
// Unknown keys are rejected so a misspelt field never silently defaults.
// Nothing is registered unless every entry is valid.
func (r *Registry) LoadFile(path string) error {
	var file registryFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "read calendar registry %s", path), errors.ErrConfiguration)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return errors.NewConfigurationError("calendar registry %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	defs := make([]Definition, 0, len(file.Calendars))
	for _, spec := range file.Calendars {
		if err := validation.Struct(spec); err != nil {
			return errors.Wrapf(err, "calendar registry %s", path)
		}
		d, err := NewDefinition(spec.Name, spec.Positive, spec.Negative, spec.Offset, spec.UsesYearZero)
		if err != nil {
			return errors.Wrapf(err, "calendar registry %s", path)
		}
		defs = append(defs, d)
	}

	seen := make(map[string]bool, len(defs))
	r.mu.RLock()
	for _, d := range defs {
		_, exists := r.defs[d.Name()]
		if exists || seen[d.Name()] {
			r.mu.RUnlock()
			return errors.NewConfigurationError("calendar registry %s redefines %q", path, d.Name())
		}
		seen[d.Name()] = true
	}
	r.mu.RUnlock()

	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
