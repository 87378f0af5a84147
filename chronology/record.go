package chronology

import (
	"sort"
	"strings"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/timeline"
)

// Category groups records of one kind.
type Category string

const (
	Events     Category = "EVENTS"
	Periods    Category = "PERIODS"
	Actors     Category = "ACTORS"
	Texts      Category = "TEXTS"
	Challenges Category = "CHALLENGES"
	Markers    Category = "MARKERS"
)

// Categories lists every category in file order.
var Categories = []Category{Events, Periods, Actors, Texts, Challenges, Markers}

// ParseCategory accepts a category name in any case, singular or plural.
func ParseCategory(s string) (Category, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Categories {
		if up == string(c) || up+"S" == string(c) {
			return c, nil
		}
	}
	return "", errors.WithHintf(
		errors.NewConfigurationError("unknown category %q", s),
		"categories: %s", strings.Join(categoryNames(), ", "))
}

func categoryNames() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}

// Record keys written for every record.
const (
	keyBegin = "BEGIN"
	keyEnd   = "END"
	keyText  = "TEXT"
)

// reservedKeys may not be used as record annotations.
var reservedKeys = map[string]bool{
	keyName: true, keyDisplayName: true, keySource: true, keyID: true,
	keyVersion: true, keyCalendar: true, keyOrder: true,
	string(Events): true, string(Periods): true, string(Actors): true,
	string(Texts): true, string(Challenges): true, string(Markers): true,
	keyBegin: true, keyEnd: true, keyText: true,
}

// IsReserved reports whether key collides with a schema key, ignoring case.
func IsReserved(key string) bool {
	return reservedKeys[strings.ToUpper(strings.TrimSpace(key))]
}

// ReservedKeys returns the reserved schema keys in sorted order.
func ReservedKeys() []string {
	out := make([]string, 0, len(reservedKeys))
	for k := range reservedKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Record is one dated claim. Begin and End are stored exactly as written in
// the chronology's calendar; the strings, not their axis values, are the
// durable source of truth.
type Record struct {
	Name        string
	Begin       string
	End         string
	Text        string
	Annotations map[string]any
}

func (r *Record) clone() *Record {
	out := *r
	if r.Annotations != nil {
		out.Annotations = make(map[string]any, len(r.Annotations))
		for k, v := range r.Annotations {
			out.Annotations[k] = v
		}
	}
	return &out
}

// annotationKeys returns the annotation keys in sorted order.
func (r *Record) annotationKeys() []string {
	keys := make([]string, 0, len(r.Annotations))
	for k := range r.Annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields is the input to AddRecord and UpdateRecord. Dates may be raw
// strings in the chronology's calendar or already-encoded axis values.
type Fields struct {
	Begin       calendar.Input
	End         calendar.Input
	Text        string
	Annotations map[string]any
}

// Entry is a record together with its axis positions.
type Entry struct {
	Category Category
	Record
	BeginAt timeline.Value
	EndAt   timeline.Value
}

// recordSet keeps the records of one category in display order.
type recordSet struct {
	names  []string
	byName map[string]*Record
}

func newRecordSet() *recordSet {
	return &recordSet{byName: make(map[string]*Record)}
}

func (s *recordSet) len() int { return len(s.names) }

func (s *recordSet) get(name string) (*Record, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// put stores r, appending its name to the order when new.
func (s *recordSet) put(r *Record) {
	if _, exists := s.byName[r.Name]; !exists {
		s.names = append(s.names, r.Name)
	}
	s.byName[r.Name] = r
}

func (s *recordSet) remove(name string) bool {
	if _, exists := s.byName[name]; !exists {
		return false
	}
	delete(s.byName, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return true
}

func (s *recordSet) ordered() []*Record {
	out := make([]*Record, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.byName[n])
	}
	return out
}

// reorder replaces the display order. Every existing name must appear
// exactly once.
func (s *recordSet) reorder(names []string) error {
	if len(names) != len(s.names) {
		return errors.NewConfigurationError("order lists %d records, category has %d", len(names), len(s.names))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := s.byName[n]; !ok {
			return errors.NewMissingRecordError("order names unknown record %q", n)
		}
		if seen[n] {
			return errors.NewConfigurationError("order names %q twice", n)
		}
		seen[n] = true
	}
	s.names = append([]string(nil), names...)
	return nil
}

func (s *recordSet) clone() *recordSet {
	out := &recordSet{
		names:  append([]string(nil), s.names...),
		byName: make(map[string]*Record, len(s.byName)),
	}
	for n, r := range s.byName {
		out.byName[n] = r.clone()
	}
	return out
}
