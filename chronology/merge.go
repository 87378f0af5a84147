package chronology

import (
	"github.com/google/uuid"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// Merge returns a new chronology holding the records of c and other. When
// both hold a record of the same name in the same category, other's record
// wins but keeps c's position in the display order; other's new names are
// appended. The result takes c's name and metadata, the higher of the two
// versions, and a fresh ID. It has no file path.
//
// Both chronologies must use the same calendar; relabel one side first.
func (c *Chronology) Merge(other *Chronology) (*Chronology, error) {
	if !c.cal.Equal(other.cal) {
		return nil, errors.WithHintf(
			errors.NewCalendarMismatchError("cannot merge %q (%s) with %q (%s)",
				c.name, c.cal.Name(), other.name, other.cal.Name()),
			"relabel %q to %s first", other.name, c.cal.Name())
	}

	out := c.Clone()
	out.id = uuid.New()
	out.path = ""
	if other.version.GreaterThan(out.version) {
		v := *other.version
		out.version = &v
	}
	if out.source == "" {
		out.source = other.source
	}
	out.comments = append(out.comments, other.comments...)

	added, replaced := 0, 0
	for _, cat := range Categories {
		target := out.categories[cat]
		for _, r := range other.categories[cat].ordered() {
			if _, exists := target.get(r.Name); exists {
				replaced++
			} else {
				added++
			}
			target.put(r.clone())
		}
	}

	c.logger.Infow("Chronologies merged",
		"other", other.name,
		"added", added,
		"replaced", replaced,
		logger.FieldVersion, out.version.String())
	return out, nil
}
