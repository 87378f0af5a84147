// Package chronology stores named, versioned collections of dated claims
// (events, periods, actors, texts, challenges, markers) kept in one calendar.
//
// A Chronology owns its records and a calendar codec. It validates every date
// on entry, relabels all dates atomically when the calendar changes, merges
// with another chronology of the same calendar, and persists itself as a
// line-oriented file of single-entry literal mappings.
//
// A Chronology is not safe for concurrent use.
package chronology

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/literal"
	"github.com/teranos/chrono/logger"
	"github.com/teranos/chrono/timeline"
)

// Defaults applied by New.
const (
	DefaultCommentMarker = "#"
	DefaultBackups       = 3
	InitialVersion       = "0.1.0"

	// FileExtension is the conventional suffix of chronology files.
	FileExtension = ".chrono"
)

// Options configures New. Exactly one of Name and Path must be set: Name
// starts an empty chronology, Path loads an existing file.
type Options struct {
	Name        string
	DisplayName string
	Source      string
	Path        string

	// Calendar names the calendar of a new chronology. Empty means
	// Gregorian. Ignored when loading; the file names its own calendar.
	Calendar string

	// Registry resolves calendar names. Nil means the built-ins.
	Registry *calendar.Registry

	CommentMarker string
	// Backups is the number of .backN copies kept on save. Zero keeps none;
	// negative means DefaultBackups.
	Backups int

	Logger *zap.SugaredLogger
}

// Chronology is a named collection of dated records in one calendar.
type Chronology struct {
	name        string
	displayName string
	source      string
	id          uuid.UUID
	version     *semver.Version

	cal      calendar.Definition
	codec    *calendar.Codec
	registry *calendar.Registry

	categories map[Category]*recordSet
	comments   []string

	path    string
	marker  string
	backups int
	logger  *zap.SugaredLogger
}

// New creates or loads a chronology.
func New(opts Options) (*Chronology, error) {
	hasName := strings.TrimSpace(opts.Name) != ""
	hasPath := strings.TrimSpace(opts.Path) != ""
	if hasName == hasPath {
		return nil, errors.WithHint(
			errors.NewConfigurationError("a chronology needs exactly one of name or path (name %q, path %q)", opts.Name, opts.Path),
			"pass a name to start a new chronology or a path to load one")
	}

	c := empty(opts)
	if hasPath {
		if err := c.load(opts.Path); err != nil {
			return nil, err
		}
		return c, nil
	}

	name := opts.Calendar
	if name == "" {
		name = calendar.Gregorian
	}
	cal, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	c.name = strings.TrimSpace(opts.Name)
	c.displayName = opts.DisplayName
	c.source = opts.Source
	c.id = uuid.New()
	c.version = semver.MustParse(InitialVersion)
	c.setCalendar(cal)
	c.logger = c.logger.With(logger.FieldChronology, c.name)
	return c, nil
}

// Load reads the chronology stored at path.
func Load(path string, opts Options) (*Chronology, error) {
	opts.Name = ""
	opts.Path = path
	return New(opts)
}

func empty(opts Options) *Chronology {
	reg := opts.Registry
	if reg == nil {
		reg = calendar.DefaultRegistry()
	}
	marker := opts.CommentMarker
	if marker == "" {
		marker = DefaultCommentMarker
	}
	backups := opts.Backups
	if backups < 0 {
		backups = DefaultBackups
	}
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("chronology")
	}

	c := &Chronology{
		registry:   reg,
		categories: make(map[Category]*recordSet, len(Categories)),
		marker:     marker,
		backups:    backups,
		logger:     log,
	}
	for _, cat := range Categories {
		c.categories[cat] = newRecordSet()
	}
	return c
}

func (c *Chronology) setCalendar(cal calendar.Definition) {
	c.cal = cal
	c.codec = calendar.NewCodec(cal)
}

// Name returns the chronology's identifier.
func (c *Chronology) Name() string { return c.name }

// DisplayName returns the display name, defaulting to the name.
func (c *Chronology) DisplayName() string {
	if c.displayName == "" {
		return c.name
	}
	return c.displayName
}

// SetDisplayName changes the display name. Empty restores the default.
func (c *Chronology) SetDisplayName(s string) { c.displayName = s }

// Source returns the citation the chronology was compiled from.
func (c *Chronology) Source() string { return c.source }

// SetSource sets the citation.
func (c *Chronology) SetSource(s string) { c.source = s }

// ID returns the chronology's unique identifier.
func (c *Chronology) ID() uuid.UUID { return c.id }

// Version returns the chronology's semantic version.
func (c *Chronology) Version() *semver.Version { return c.version }

// Calendar returns the active calendar.
func (c *Chronology) Calendar() calendar.Definition { return c.cal }

// Codec returns the codec for the active calendar.
func (c *Chronology) Codec() *calendar.Codec { return c.codec }

// Registry returns the registry calendar names are resolved against.
func (c *Chronology) Registry() *calendar.Registry { return c.registry }

// Path returns the file the chronology was loaded from or last saved to.
func (c *Chronology) Path() string { return c.path }

// Comments returns the comment lines kept at the top of the file.
func (c *Chronology) Comments() []string {
	return append([]string(nil), c.comments...)
}

// AddComment appends a comment. Multi-line text becomes one comment line per
// line so every line of the file keeps the marker.
func (c *Chronology) AddComment(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		c.comments = append(c.comments, strings.TrimSpace(c.marker+" "+strings.TrimSpace(line)))
	}
}

// Len returns the total number of records.
func (c *Chronology) Len() int {
	n := 0
	for _, set := range c.categories {
		n += set.len()
	}
	return n
}

// AddRecord stores a new record, or replaces one of the same name, and
// appends new names to the category's display order.
func (c *Chronology) AddRecord(cat Category, name string, f Fields) (*Record, error) {
	r, err := c.buildRecord(cat, name, f)
	if err != nil {
		return nil, err
	}
	c.categories[cat].put(r)
	c.logger.Infow("Record added",
		logger.FieldCategory, cat,
		logger.FieldRecord, name,
		logger.FieldDate, r.Begin,
		"text", r.Text)
	return r.clone(), nil
}

// UpdateRecord replaces an existing record, keeping its position.
func (c *Chronology) UpdateRecord(cat Category, name string, f Fields) (*Record, error) {
	set, err := c.set(cat)
	if err != nil {
		return nil, err
	}
	if _, ok := set.get(strings.TrimSpace(name)); !ok {
		return nil, c.missing(cat, name)
	}
	r, err := c.buildRecord(cat, name, f)
	if err != nil {
		return nil, err
	}
	set.put(r)
	c.logger.Infow("Record updated",
		logger.FieldCategory, cat,
		logger.FieldRecord, name,
		logger.FieldDate, r.Begin)
	return r.clone(), nil
}

// RemoveRecord deletes a record and drops it from the display order.
func (c *Chronology) RemoveRecord(cat Category, name string) error {
	set, err := c.set(cat)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if !set.remove(name) {
		return c.missing(cat, name)
	}
	c.logger.Infow("Record removed", logger.FieldCategory, cat, logger.FieldRecord, name)
	return nil
}

// GetRecord returns a copy of one record.
func (c *Chronology) GetRecord(cat Category, name string) (*Record, error) {
	set, err := c.set(cat)
	if err != nil {
		return nil, err
	}
	r, ok := set.get(strings.TrimSpace(name))
	if !ok {
		return nil, c.missing(cat, name)
	}
	return r.clone(), nil
}

// ListRecords returns the records of cat in display order with their axis
// positions.
func (c *Chronology) ListRecords(cat Category) ([]Entry, error) {
	set, err := c.set(cat)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, set.len())
	for _, r := range set.ordered() {
		e, err := c.entry(cat, r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// AllRecords lists every category in file order.
func (c *Chronology) AllRecords() ([]Entry, error) {
	var out []Entry
	for _, cat := range Categories {
		entries, err := c.ListRecords(cat)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// ShowOrder returns the display order of cat.
func (c *Chronology) ShowOrder(cat Category) []string {
	set, ok := c.categories[cat]
	if !ok {
		return nil
	}
	return append([]string(nil), set.names...)
}

// SetOrder replaces the display order of cat. names must list every record
// of the category exactly once.
func (c *Chronology) SetOrder(cat Category, names []string) error {
	set, err := c.set(cat)
	if err != nil {
		return err
	}
	if err := set.reorder(names); err != nil {
		return errors.Wrapf(err, "chronology %q %s", c.name, cat)
	}
	c.logger.Infow("Order updated", logger.FieldCategory, cat, logger.FieldCount, len(names))
	return nil
}

// BumpVersion increments the major, minor or patch component.
func (c *Chronology) BumpVersion(part string) (*semver.Version, error) {
	var next semver.Version
	switch strings.ToLower(part) {
	case "major":
		next = c.version.IncMajor()
	case "minor":
		next = c.version.IncMinor()
	case "patch", "":
		next = c.version.IncPatch()
	default:
		return nil, errors.NewConfigurationError("unknown version part %q (want major, minor or patch)", part)
	}
	c.version = &next
	c.logger.Infow("Version bumped", logger.FieldVersion, next.String())
	return c.version, nil
}

// Clone returns a deep copy sharing only the registry and logger.
func (c *Chronology) Clone() *Chronology {
	out := *c
	out.version = semver.MustParse(c.version.String())
	out.comments = append([]string(nil), c.comments...)
	out.categories = make(map[Category]*recordSet, len(c.categories))
	for cat, set := range c.categories {
		out.categories[cat] = set.clone()
	}
	return &out
}

func (c *Chronology) set(cat Category) (*recordSet, error) {
	set, ok := c.categories[cat]
	if !ok {
		return nil, errors.NewConfigurationError("unknown category %q", cat)
	}
	return set, nil
}

func (c *Chronology) missing(cat Category, name string) error {
	return errors.NewMissingRecordError("no record %q in %s of chronology %q", name, cat, c.name)
}

// buildRecord validates f and produces the stored form of a record.
func (c *Chronology) buildRecord(cat Category, name string, f Fields) (*Record, error) {
	if _, err := c.set(cat); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewConfigurationError("record name cannot be empty")
	}
	for key := range f.Annotations {
		if IsReserved(key) {
			return nil, errors.WithHintf(
				errors.NewReservedKeyError("annotation %q on record %q collides with a reserved key", key, name),
				"reserved keys: %s", strings.Join(ReservedKeys(), ", "))
		}
		if _, err := literal.Encode(f.Annotations[key]); err != nil {
			return nil, errors.WithHint(
				errors.NewConfigurationError("%s %q annotation %q: %v", cat, name, key, err),
				"annotation values are strings, int64, float64, bool, nil, lists or *literal.Map")
		}
	}

	begin, beginAt, err := c.storedDate(f.Begin)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q begin", cat, name)
	}
	if beginAt.IsAbsent() {
		return nil, errors.NewInvalidDateError("%s %q needs a begin date", cat, name)
	}
	end, endAt, err := c.storedDate(f.End)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q end", cat, name)
	}
	if !endAt.IsAbsent() && endAt.Cmp(beginAt) < 0 {
		return nil, errors.NewInvalidDateError("%s %q ends (%s) before it begins (%s)", cat, name, end, begin)
	}

	r := &Record{Name: name, Begin: begin, End: end, Text: f.Text}
	if len(f.Annotations) > 0 {
		r.Annotations = make(map[string]any, len(f.Annotations))
		for k, v := range f.Annotations {
			r.Annotations[k] = v
		}
	}
	return r, nil
}

// storedDate normalizes a date input to the string kept on disk and its axis
// position. Raw strings are stored as written; values are rendered in the
// active calendar.
func (c *Chronology) storedDate(in calendar.Input) (string, timeline.Value, error) {
	if in.IsEmpty() {
		return "", timeline.Absent, nil
	}
	if in.IsRaw() && strings.TrimSpace(in.String()) == "" {
		return "", timeline.Absent, nil
	}
	v, err := c.codec.Normalize(in)
	if err != nil {
		return "", timeline.Absent, err
	}
	if in.IsRaw() {
		return strings.TrimSpace(in.String()), v, nil
	}
	return c.codec.Render(v, v.Unit()), v, nil
}

func (c *Chronology) entry(cat Category, r *Record) (Entry, error) {
	e := Entry{Category: cat, Record: *r.clone()}
	var err error
	if e.BeginAt, err = c.codec.Encode(r.Begin); err != nil {
		return Entry{}, errors.Wrapf(err, "%s %q", cat, r.Name)
	}
	if r.End != "" {
		if e.EndAt, err = c.codec.Encode(r.End); err != nil {
			return Entry{}, errors.Wrapf(err, "%s %q", cat, r.Name)
		}
	}
	return e, nil
}
