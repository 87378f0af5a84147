package chronology

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/literal"
	"github.com/teranos/chrono/logger"
)

// Top-level keys of a chronology file.
const (
	keyName        = "NAME"
	keyDisplayName = "DISPLAYNAME"
	keySource      = "SOURCE"
	keyID          = "ID"
	keyVersion     = "VERSION"
	keyCalendar    = "CALENDAR"
	keyOrder       = "ORDER"
)

// Keys of an inline CALENDAR mapping.
const (
	calName     = "name"
	calPositive = "positive"
	calNegative = "negative"
	calOffset   = "offset"
	calZero     = "zero"
)

// Save writes the chronology to path, or to the path it was loaded from when
// path is empty. Existing files are rotated into .back1 … .backN first. The
// new content goes to a temporary file in the same directory, is synced, and
// is renamed over the destination, so a crash leaves either the old or the
// new file and never a truncated one.
func (c *Chronology) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		return errors.NewConfigurationError("chronology %q has no file path", c.name)
	}

	content, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := rotateBackups(path, c.backups); err != nil {
		return errors.WrapPersistence(err, "back up %s", path)
	}
	if err := writeAtomic(path, content); err != nil {
		return errors.WrapPersistence(err, "save chronology %q to %s", c.name, path)
	}

	c.path = path
	c.logger.Infow("Chronology saved",
		logger.FieldPath, path,
		logger.FieldCount, c.Len(),
		logger.FieldVersion, c.version.String())
	return nil
}

// Marshal renders the chronology in its file format.
func (c *Chronology) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	line := func(key string, value any) error {
		s, err := literal.Encode(literal.Single(key, value))
		if err != nil {
			return errors.WrapPersistence(err, "encode %s", key)
		}
		buf.WriteString(s)
		buf.WriteByte('\n')
		return nil
	}

	for _, comment := range c.comments {
		buf.WriteString(comment)
		buf.WriteByte('\n')
	}

	if err := line(keyName, c.name); err != nil {
		return nil, err
	}
	if c.displayName != "" {
		if err := line(keyDisplayName, c.displayName); err != nil {
			return nil, err
		}
	}
	if c.source != "" {
		if err := line(keySource, c.source); err != nil {
			return nil, err
		}
	}
	if err := line(keyID, c.id.String()); err != nil {
		return nil, err
	}
	if err := line(keyVersion, c.version.String()); err != nil {
		return nil, err
	}
	if err := line(keyCalendar, c.calendarLiteral()); err != nil {
		return nil, err
	}

	order := literal.NewMap()
	for _, cat := range Categories {
		if set := c.categories[cat]; set.len() > 0 {
			order.Set(string(cat), append([]string(nil), set.names...))
		}
	}
	if order.Len() > 0 {
		if err := line(keyOrder, order); err != nil {
			return nil, err
		}
	}

	for _, cat := range Categories {
		for _, r := range c.categories[cat].ordered() {
			if err := line(string(cat), literal.Single(r.Name, recordLiteral(r))); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// calendarLiteral writes the calendar by name when the registry would
// resolve that name to the same definition, and inline otherwise.
func (c *Chronology) calendarLiteral() any {
	if known, err := c.registry.Lookup(c.cal.Name()); err == nil && known.Equal(c.cal) {
		return c.cal.Name()
	}
	m := literal.NewMap()
	m.Set(calName, c.cal.Name())
	m.Set(calPositive, c.cal.PositiveLabel())
	m.Set(calNegative, c.cal.NegativeLabel())
	m.Set(calOffset, c.cal.ZeroYearOffset())
	m.Set(calZero, c.cal.UsesYearZero())
	return m
}

func recordLiteral(r *Record) *literal.Map {
	m := literal.NewMap()
	m.Set(keyBegin, r.Begin)
	if r.End != "" {
		m.Set(keyEnd, r.End)
	}
	if r.Text != "" {
		m.Set(keyText, r.Text)
	}
	for _, k := range r.annotationKeys() {
		m.Set(k, r.Annotations[k])
	}
	return m
}

// load reads path into an empty chronology.
func (c *Chronology) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithHint(
			errors.WrapPersistence(err, "read chronology"),
			"check the path, or create the chronology with a name instead")
	}
	if err := c.Unmarshal(data); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	c.path = path
	c.logger = c.logger.With(logger.FieldChronology, c.name)
	c.logger.Infow("Chronology loaded", logger.FieldPath, path, logger.FieldCount, c.Len())
	return nil
}

// Unmarshal replaces the chronology's content with the parsed file data.
// Comment lines start with the comment marker; blank lines are ignored;
// every other line is one mapping literal. Lines sharing a top-level key are
// merged one level deep.
func (c *Chronology) Unmarshal(data []byte) error {
	doc := literal.NewMap()
	var comments []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, c.marker):
			comments = append(comments, raw)
			continue
		}
		m, err := literal.ParseMap(trimmed)
		if err != nil {
			return errors.WrapPersistence(err, "line %d", lineNo)
		}
		doc.Merge(m)
	}
	if err := scanner.Err(); err != nil {
		return errors.WrapPersistence(err, "scan")
	}

	fresh := empty(Options{
		Registry:      c.registry,
		CommentMarker: c.marker,
		Backups:       c.backups,
		Logger:        c.logger,
	})
	fresh.comments = comments
	if err := fresh.decode(doc); err != nil {
		return err
	}

	fresh.path = c.path
	*c = *fresh
	return nil
}

func (c *Chronology) decode(doc *literal.Map) error {
	for _, key := range doc.Keys() {
		if !reservedKeys[key] || key == keyBegin || key == keyEnd || key == keyText {
			return errors.WithHint(
				errors.NewPersistenceError("unknown top-level key %q", key),
				"top-level keys are NAME, DISPLAYNAME, SOURCE, ID, VERSION, CALENDAR, ORDER and the category names")
		}
	}

	var err error
	if c.name, err = stringField(doc, keyName); err != nil {
		return err
	}
	if c.name == "" {
		return errors.NewPersistenceError("chronology file has no NAME")
	}
	if c.displayName, err = stringField(doc, keyDisplayName); err != nil {
		return err
	}
	if c.source, err = stringField(doc, keySource); err != nil {
		return err
	}

	id, err := stringField(doc, keyID)
	if err != nil {
		return err
	}
	if id == "" {
		c.id = uuid.New()
	} else if c.id, err = uuid.Parse(id); err != nil {
		return errors.WrapPersistence(err, "ID %q", id)
	}

	version, err := stringField(doc, keyVersion)
	if err != nil {
		return err
	}
	if version == "" {
		version = InitialVersion
	}
	if c.version, err = semver.NewVersion(version); err != nil {
		return errors.WrapPersistence(err, "VERSION %q", version)
	}

	cal, err := c.decodeCalendar(doc)
	if err != nil {
		return err
	}
	c.setCalendar(cal)

	for _, cat := range Categories {
		raw, ok := doc.Get(string(cat))
		if !ok {
			continue
		}
		records, ok := raw.(*literal.Map)
		if !ok {
			return errors.NewPersistenceError("%s must be a mapping, got %s", cat, literal.TypeName(raw))
		}
		for _, name := range records.Keys() {
			fields, _ := records.Get(name)
			r, err := decodeRecord(cat, name, fields)
			if err != nil {
				return err
			}
			if err := c.validateStored(cat, r); err != nil {
				return err
			}
			c.categories[cat].put(r)
		}
	}

	return c.decodeOrder(doc)
}

func (c *Chronology) decodeCalendar(doc *literal.Map) (calendar.Definition, error) {
	raw, ok := doc.Get(keyCalendar)
	if !ok {
		return c.registry.Lookup(calendar.Gregorian)
	}
	switch v := raw.(type) {
	case string:
		return c.registry.Lookup(v)
	case *literal.Map:
		offset := int64(0)
		if o, ok := v.Get(calOffset); ok {
			n, isInt := o.(int64)
			if !isInt {
				return calendar.Definition{}, errors.NewPersistenceError("CALENDAR offset must be an integer, got %s", literal.TypeName(o))
			}
			offset = n
		}
		zero := false
		if z, ok := v.Get(calZero); ok {
			b, isBool := z.(bool)
			if !isBool {
				return calendar.Definition{}, errors.NewPersistenceError("CALENDAR zero must be a boolean, got %s", literal.TypeName(z))
			}
			zero = b
		}
		return calendar.NewDefinition(v.String(calName), v.String(calPositive), v.String(calNegative), offset, zero)
	}
	return calendar.Definition{}, errors.NewPersistenceError("CALENDAR must be a name or a mapping, got %s", literal.TypeName(raw))
}

func decodeRecord(cat Category, name string, raw any) (*Record, error) {
	fields, ok := raw.(*literal.Map)
	if !ok {
		return nil, errors.NewPersistenceError("%s %q must be a mapping, got %s", cat, name, literal.TypeName(raw))
	}
	r := &Record{Name: name}
	for _, k := range fields.Keys() {
		v, _ := fields.Get(k)
		switch strings.ToUpper(k) {
		case keyBegin:
			r.Begin = scalarString(v)
		case keyEnd:
			r.End = scalarString(v)
		case keyText:
			r.Text = scalarString(v)
		default:
			if IsReserved(k) {
				return nil, errors.NewReservedKeyError("%s %q uses reserved key %q", cat, name, k)
			}
			if r.Annotations == nil {
				r.Annotations = make(map[string]any)
			}
			r.Annotations[k] = v
		}
	}
	return r, nil
}

// validateStored checks a loaded record's dates against the calendar.
func (c *Chronology) validateStored(cat Category, r *Record) error {
	f := Fields{Begin: calendar.Raw(r.Begin), Text: r.Text}
	if r.End != "" {
		f.End = calendar.Raw(r.End)
	}
	if _, err := c.buildRecord(cat, r.Name, f); err != nil {
		return errors.Wrap(err, "stored record")
	}
	return nil
}

// decodeOrder applies ORDER. Names it omits keep their file position after
// the listed ones.
func (c *Chronology) decodeOrder(doc *literal.Map) error {
	raw, ok := doc.Get(keyOrder)
	if !ok {
		return nil
	}
	order, ok := raw.(*literal.Map)
	if !ok {
		return errors.NewPersistenceError("ORDER must be a mapping of category to names, got %s", literal.TypeName(raw))
	}
	for _, key := range order.Keys() {
		cat, err := ParseCategory(key)
		if err != nil {
			return errors.Mark(err, errors.ErrPersistence)
		}
		listed, _ := order.Get(key)
		items, ok := listed.([]any)
		if !ok {
			return errors.NewPersistenceError("ORDER %s must be a list", cat)
		}
		set := c.categories[cat]
		names := make([]string, 0, set.len())
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			name, ok := item.(string)
			if !ok {
				return errors.NewPersistenceError("ORDER %s lists a %s", cat, literal.TypeName(item))
			}
			if _, exists := set.get(name); !exists || seen[name] {
				c.logger.Warnw("Ignoring stale ORDER entry", logger.FieldCategory, cat, logger.FieldRecord, name)
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		for _, name := range set.names {
			if !seen[name] {
				names = append(names, name)
			}
		}
		if err := set.reorder(names); err != nil {
			return errors.Mark(err, errors.ErrPersistence)
		}
	}
	return nil
}

// scalarString reads hand-written numbers (BEGIN : 1066) as their text.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func stringField(doc *literal.Map, key string) (string, error) {
	v, ok := doc.Get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.NewPersistenceError("%s must be a string, got %s", key, literal.TypeName(v))
	}
	return s, nil
}

// rotateBackups shifts path.back1 … path.back(n-1) up by one and copies the
// current file to path.back1. Nothing happens when path does not exist yet
// or n is zero.
func rotateBackups(path string, n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	backup := func(i int) string { return fmt.Sprintf("%s.back%d", path, i) }

	if err := os.Remove(backup(n)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove oldest backup %s", backup(n))
	}
	for i := n - 1; i >= 1; i-- {
		if _, err := os.Stat(backup(i)); err == nil {
			if err := os.Rename(backup(i), backup(i+1)); err != nil {
				return errors.Wrapf(err, "rotate %s", backup(i))
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read current file for backup")
	}
	if err := os.WriteFile(backup(1), content, 0644); err != nil {
		return errors.Wrapf(err, "write %s", backup(1))
	}
	return nil
}

// writeAtomic replaces path with content via a synced temporary file in the
// same directory.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temporary file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errors.Wrap(err, "chmod temporary file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "replace file")
	}
	return nil
}
