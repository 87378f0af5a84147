package testing

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/timeline"
)

// SaveChronology builds a chronology in cal whose EVENTS are the given
// name -> {begin, end} spans (empty end for a point) and saves it as
// dir/<name>.chrono.
func SaveChronology(t *testing.T, dir, name, cal string, events map[string][2]string) *chronology.Chronology {
	t.Helper()
	c, err := chronology.New(chronology.Options{Name: name, Calendar: cal, Logger: zaptest.NewLogger(t).Sugar()})
	if err != nil {
		t.Fatalf("new chronology %q: %v", name, err)
	}
	for rec, span := range events {
		f := chronology.Fields{Begin: calendar.Raw(span[0])}
		if span[1] != "" {
			f.End = calendar.Raw(span[1])
		}
		if _, err := c.AddRecord(chronology.Events, rec, f); err != nil {
			t.Fatalf("add %s to %q: %v", rec, name, err)
		}
	}
	if err := c.Save(filepath.Join(dir, name+chronology.FileExtension)); err != nil {
		t.Fatalf("save %q: %v", name, err)
	}
	return c
}

// Axis parses an axis value or fails the test.
func Axis(t *testing.T, s string) timeline.Value {
	t.Helper()
	v, err := timeline.Parse(s)
	if err != nil {
		t.Fatalf("axis %q: %v", s, err)
	}
	return v
}
