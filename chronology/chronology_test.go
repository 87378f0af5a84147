package chronology

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/timeline"
)

func newTestChronology(t *testing.T, name, cal string) *Chronology {
	t.Helper()
	c, err := New(Options{Name: name, Calendar: cal, Logger: zaptest.NewLogger(t).Sugar(), Backups: -1})
	require.NoError(t, err)
	return c
}

func event(begin string) Fields {
	return Fields{Begin: calendar.Raw(begin)}
}

func ussher(t *testing.T) *Chronology {
	t.Helper()
	c := newTestChronology(t, "Ussher", calendar.Gregorian)
	c.SetDisplayName("Annals of the World")
	c.SetSource("James Ussher, 1650")
	c.AddComment("compiled for testing")

	_, err := c.AddRecord(Events, "Creation", Fields{Begin: calendar.Raw("4004-10-23 BC"), Text: "Annals §1"})
	require.NoError(t, err)
	_, err = c.AddRecord(Events, "Flood", event("2348 BC"))
	require.NoError(t, err)
	_, err = c.AddRecord(Periods, "Babylonian captivity", Fields{
		Begin:       calendar.Raw("587 BC"),
		End:         calendar.Raw("538 BC"),
		Annotations: map[string]any{"confidence": "high", "sources": int64(2)},
	})
	require.NoError(t, err)
	return c
}

func TestNew_ExactlyOneOfNameOrPath(t *testing.T) {
	_, err := New(Options{})
	assert.True(t, errors.IsConfigurationError(err))

	_, err = New(Options{Name: "x", Path: "x.chrono"})
	assert.True(t, errors.IsConfigurationError(err))

	_, err = New(Options{Name: "x", Calendar: "Julian"})
	assert.True(t, errors.IsConfigurationError(err))

	c, err := New(Options{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, calendar.Gregorian, c.Calendar().Name())
	assert.Equal(t, "x", c.DisplayName())
	assert.Equal(t, InitialVersion, c.Version().String())
	assert.NotEqual(t, [16]byte{}, [16]byte(c.ID()))
}

func TestAddAndListRecords(t *testing.T) {
	c := ussher(t)

	entries, err := c.ListRecords(Events)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Creation", entries[0].Name)
	assert.Equal(t, "4004-10-23 BC", entries[0].Begin)
	assert.Equal(t, "-4003-10-23", entries[0].BeginAt.String())
	assert.Equal(t, "Annals §1", entries[0].Text)
	assert.True(t, entries[0].EndAt.IsAbsent())

	periods, err := c.ListRecords(Periods)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "-0537", periods[0].EndAt.String())
	assert.Equal(t, "high", periods[0].Annotations["confidence"])

	all, err := c.AllRecords()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, c.Len())
}

func TestAddRecord_ValueInputRendersInCalendar(t *testing.T) {
	c := newTestChronology(t, "Values", calendar.Secular)
	v, err := timeline.Parse("-0043-03-15")
	require.NoError(t, err)

	r, err := c.AddRecord(Events, "Ides of March", Fields{Begin: calendar.At(v)})
	require.NoError(t, err)
	assert.Equal(t, "44-03-15 BCE", r.Begin)

	r, err = c.AddRecord(Events, "Year only", Fields{Begin: calendar.YearInt(1066)})
	require.NoError(t, err)
	assert.Equal(t, "1066 CE", r.Begin)
}

func TestAddRecord_Rejections(t *testing.T) {
	c := newTestChronology(t, "Strict", calendar.Gregorian)

	tests := []struct {
		name  string
		cat   Category
		rec   string
		f     Fields
		check func(error) bool
	}{
		{"reserved annotation", Events, "A", Fields{Begin: calendar.Raw("1 AD"), Annotations: map[string]any{"begin": "x"}}, errors.IsReservedKey},
		{"reserved annotation mixed case", Events, "A", Fields{Begin: calendar.Raw("1 AD"), Annotations: map[string]any{"Calendar": "x"}}, errors.IsReservedKey},
		{"ambiguous date", Events, "A", event("-44 BC"), errors.IsAmbiguousDate},
		{"bad date", Events, "A", event("yesterday"), errors.IsInvalidDate},
		{"missing begin", Events, "A", Fields{}, errors.IsInvalidDate},
		{"end before begin", Periods, "A", Fields{Begin: calendar.Raw("10 AD"), End: calendar.Raw("10 BC")}, errors.IsInvalidDate},
		{"empty name", Events, " ", event("1 AD"), errors.IsConfigurationError},
		{"int32 annotation", Events, "A", Fields{Begin: calendar.Raw("1 AD"), Annotations: map[string]any{"n": int32(3)}}, errors.IsConfigurationError},
		{"struct annotation", Events, "A", Fields{Begin: calendar.Raw("1 AD"), Annotations: map[string]any{"when": struct{}{}}}, errors.IsConfigurationError},
		{"unknown category", Category("WARS"), "A", event("1 AD"), errors.IsConfigurationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddRecord(tt.cat, tt.rec, tt.f)
			require.Error(t, err)
			assert.True(t, tt.check(err), "%+v", err)
		})
	}
	assert.Equal(t, 0, c.Len())
}

func TestUpdateAndRemove(t *testing.T) {
	c := ussher(t)

	_, err := c.UpdateRecord(Events, "Creation", event("4004 BC"))
	require.NoError(t, err)
	r, err := c.GetRecord(Events, "Creation")
	require.NoError(t, err)
	assert.Equal(t, "4004 BC", r.Begin)
	assert.Equal(t, []string{"Creation", "Flood"}, c.ShowOrder(Events))

	_, err = c.UpdateRecord(Events, "Exodus", event("1491 BC"))
	assert.True(t, errors.IsMissingRecord(err))
	assert.Contains(t, err.Error(), "Exodus")

	require.NoError(t, c.RemoveRecord(Events, "Creation"))
	assert.Equal(t, []string{"Flood"}, c.ShowOrder(Events))

	err = c.RemoveRecord(Events, "Creation")
	assert.True(t, errors.IsMissingRecord(err))

	_, err = c.GetRecord(Events, "Creation")
	assert.True(t, errors.IsMissingRecord(err))

	_, err = c.AddRecord(Events, " Exodus ", event("1491 BC"))
	require.NoError(t, err)
	r, err = c.GetRecord(Events, " Exodus ")
	require.NoError(t, err)
	assert.Equal(t, "Exodus", r.Name)
	require.NoError(t, c.RemoveRecord(Events, " Exodus "))
	assert.Equal(t, []string{"Flood"}, c.ShowOrder(Events))
}

func TestOrder(t *testing.T) {
	c := ussher(t)
	_, err := c.AddRecord(Events, "Exodus", event("1491 BC"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Creation", "Flood", "Exodus"}, c.ShowOrder(Events))

	require.NoError(t, c.SetOrder(Events, []string{"Exodus", "Creation", "Flood"}))
	entries, err := c.ListRecords(Events)
	require.NoError(t, err)
	assert.Equal(t, "Exodus", entries[0].Name)

	assert.Error(t, c.SetOrder(Events, []string{"Exodus", "Creation"}))
	assert.Error(t, c.SetOrder(Events, []string{"Exodus", "Exodus", "Flood"}))
	err = c.SetOrder(Events, []string{"Exodus", "Creation", "Babel"})
	assert.True(t, errors.IsMissingRecord(err))
	assert.Equal(t, []string{"Exodus", "Creation", "Flood"}, c.ShowOrder(Events))

	// re-adding keeps the position
	_, err = c.AddRecord(Events, "Creation", event("4004 BC"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Exodus", "Creation", "Flood"}, c.ShowOrder(Events))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	c := ussher(t)
	require.NoError(t, c.SetOrder(Events, []string{"Flood", "Creation"}))
	path := filepath.Join(t.TempDir(), "ussher.chrono")
	require.NoError(t, c.Save(path))
	assert.Equal(t, path, c.Path())

	loaded, err := Load(path, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)

	assert.Equal(t, c.Name(), loaded.Name())
	assert.Equal(t, c.DisplayName(), loaded.DisplayName())
	assert.Equal(t, c.Source(), loaded.Source())
	assert.Equal(t, c.ID(), loaded.ID())
	assert.True(t, c.Version().Equal(loaded.Version()))
	assert.True(t, c.Calendar().Equal(loaded.Calendar()))
	assert.Equal(t, c.Comments(), loaded.Comments())
	assert.Equal(t, path, loaded.Path())

	for _, cat := range Categories {
		want, err := c.ListRecords(cat)
		require.NoError(t, err)
		got, err := loaded.ListRecords(cat)
		require.NoError(t, err)
		require.Len(t, got, len(want), cat)
		for i := range want {
			assert.Equal(t, want[i].Record, got[i].Record)
			assert.True(t, want[i].BeginAt.Equal(got[i].BeginAt))
		}
	}

	again, err := loaded.Marshal()
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))
}

func TestSave_FileFormat(t *testing.T) {
	c := newTestChronology(t, "Ussher", calendar.Gregorian)
	c.AddComment("hand written")
	_, err := c.AddRecord(Events, "Creation", Fields{Begin: calendar.Raw("4004 BC"), Text: "Annals §1"})
	require.NoError(t, err)

	data, err := c.Marshal()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, "# hand written", lines[0])
	assert.Equal(t, `{ "NAME" : "Ussher" }`, lines[1])
	assert.Contains(t, lines, `{ "CALENDAR" : "Gregorian" }`)
	assert.Contains(t, lines, `{ "VERSION" : "0.1.0" }`)
	assert.Contains(t, lines, `{ "ORDER" : { "EVENTS" : [ "Creation" ] } }`)
	assert.Equal(t, `{ "EVENTS" : { "Creation" : { "BEGIN" : "4004 BC", "TEXT" : "Annals §1" } } }`, lines[len(lines)-1])
}

func TestAddComment_MultiLine(t *testing.T) {
	c := newTestChronology(t, "Notes", calendar.Gregorian)
	c.AddComment("first line\n\nsecond line\r\n")
	assert.Equal(t, []string{"# first line", "#", "# second line"}, c.Comments())

	_, err := c.AddRecord(Events, "Creation", event("4004 BC"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "notes.chrono")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	assert.Equal(t, c.Comments(), loaded.Comments())
	assert.Equal(t, 1, loaded.Len())
}

func TestSave_Backups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.chrono")
	c, err := New(Options{Name: "b", Backups: 2, Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := c.BumpVersion("patch")
		require.NoError(t, err)
		require.NoError(t, c.Save(path))
	}

	current, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "0.1.4", current.Version().String())

	back1, err := Load(path+".back1", Options{})
	require.NoError(t, err)
	assert.Equal(t, "0.1.3", back1.Version().String())

	back2, err := Load(path+".back2", Options{})
	require.NoError(t, err)
	assert.Equal(t, "0.1.2", back2.Version().String())

	_, err = os.Stat(path + ".back3")
	assert.True(t, os.IsNotExist(err))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".c.chrono.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSave_NoPath(t *testing.T) {
	c := newTestChronology(t, "nowhere", calendar.Gregorian)
	assert.True(t, errors.IsConfigurationError(c.Save("")))
}

func TestLoad_HandWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hand.chrono")
	content := `# Ussher's dates
{ 'NAME' : 'Ussher' }
{'CALENDAR': {'name': 'Anno Mundi', 'positive': ' AM', 'negative': ' BAM', 'offset': -4004, 'zero': False}}

{ 'EVENTS' : { 'Creation' : { 'BEGIN' : '1 AM', 'witness' : None } } }
{ 'EVENTS' : { 'Flood' : { 'begin' : '1656 AM', 'TEXT' : 'Gen 7' } } }
{ 'EVENTS' : { 'Epoch' : { 'BEGIN' : 1970 } } }
{ 'ORDER' : { 'events' : [ 'Flood', 'Ghost' ] } }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	assert.Equal(t, "Anno Mundi", c.Calendar().Name())
	assert.Equal(t, int64(-4004), c.Calendar().ZeroYearOffset())
	assert.Equal(t, []string{"Flood", "Creation", "Epoch"}, c.ShowOrder(Events))
	assert.Equal(t, []string{"# Ussher's dates"}, c.Comments())

	entries, err := c.ListRecords(Events)
	require.NoError(t, err)
	assert.Equal(t, "-2348", entries[0].BeginAt.String())
	assert.Equal(t, "Gen 7", entries[0].Text)
	assert.Equal(t, "-4003", entries[1].BeginAt.String())
	assert.Contains(t, entries[1].Annotations, "witness")
	assert.Equal(t, "1970", entries[2].Begin)
	assert.Equal(t, "1970", entries[2].BeginAt.String())

	// an inline calendar unknown to the registry is written back inline
	data, err := c.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"CALENDAR" : { "name" : "Anno Mundi"`)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{"bad literal", "{ 'NAME' : 'x' \n", errors.IsPersistence},
		{"not a mapping", "[ 'NAME' ]\n", errors.IsPersistence},
		{"no name", "{ 'CALENDAR' : 'Gregorian' }\n", errors.IsPersistence},
		{"unknown key", "{ 'NAME' : 'x' }\n{ 'WARS' : {} }\n", errors.IsPersistence},
		{"unknown calendar", "{ 'NAME' : 'x' }\n{ 'CALENDAR' : 'Julian' }\n", errors.IsConfigurationError},
		{"bad version", "{ 'NAME' : 'x' }\n{ 'VERSION' : 'one' }\n", errors.IsPersistence},
		{"bad id", "{ 'NAME' : 'x' }\n{ 'ID' : 'nope' }\n", errors.IsPersistence},
		{"bad date", "{ 'NAME' : 'x' }\n{ 'EVENTS' : { 'A' : { 'BEGIN' : '-5 BC' } } }\n", errors.IsAmbiguousDate},
		{"reserved annotation", "{ 'NAME' : 'x' }\n{ 'EVENTS' : { 'A' : { 'BEGIN' : '5 BC', 'ORDER' : 1 } } }\n", errors.IsReservedKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path, Options{})
			require.Error(t, err)
			assert.True(t, tt.check(err), "%+v", err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing"), Options{})
	assert.True(t, errors.IsPersistence(err))
}

func TestMerge(t *testing.T) {
	a := ussher(t)
	b := newTestChronology(t, "Lightfoot", calendar.Gregorian)
	_, err := b.AddRecord(Events, "Creation", event("3929 BC"))
	require.NoError(t, err)
	_, err = b.AddRecord(Events, "Exodus", event("1491 BC"))
	require.NoError(t, err)
	_, err = b.BumpVersion("minor")
	require.NoError(t, err)

	merged, err := a.Merge(b)
	require.NoError(t, err)

	assert.Equal(t, "Ussher", merged.Name())
	assert.Equal(t, "0.2.0", merged.Version().String())
	assert.NotEqual(t, a.ID(), merged.ID())
	assert.Empty(t, merged.Path())
	assert.Equal(t, []string{"Creation", "Flood", "Exodus"}, merged.ShowOrder(Events))

	r, err := merged.GetRecord(Events, "Creation")
	require.NoError(t, err)
	assert.Equal(t, "3929 BC", r.Begin)

	// inputs are untouched
	r, err = a.GetRecord(Events, "Creation")
	require.NoError(t, err)
	assert.Equal(t, "4004-10-23 BC", r.Begin)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, "0.1.0", a.Version().String())

	periods, err := merged.ListRecords(Periods)
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestMerge_CalendarMismatch(t *testing.T) {
	a := ussher(t)
	b := newTestChronology(t, "Secular", calendar.Secular)

	_, err := a.Merge(b)
	require.Error(t, err)
	assert.True(t, errors.IsCalendarMismatch(err))

	require.NoError(t, b.RelabelTo(calendar.Gregorian))
	_, err = a.Merge(b)
	assert.NoError(t, err)
}

func TestRelabel(t *testing.T) {
	c := ussher(t)
	require.NoError(t, c.RelabelTo(calendar.Secular))
	assert.Equal(t, calendar.Secular, c.Calendar().Name())

	r, err := c.GetRecord(Events, "Creation")
	require.NoError(t, err)
	assert.Equal(t, "4004-10-23 BCE", r.Begin)

	p, err := c.GetRecord(Periods, "Babylonian captivity")
	require.NoError(t, err)
	assert.Equal(t, "587 BCE", p.Begin)
	assert.Equal(t, "538 BCE", p.End)

	require.NoError(t, c.RelabelTo(calendar.BeforePresent))
	entries, err := c.ListRecords(Events)
	require.NoError(t, err)
	assert.Equal(t, "-4003-10-23", entries[0].BeginAt.String())
	assert.Equal(t, "5953-10-23 BP", entries[0].Begin)

	require.NoError(t, c.RelabelTo(calendar.BeforePresent))
	assert.Error(t, c.RelabelTo("Julian"))
}

func TestRelabel_LeapDaySurvivesSave(t *testing.T) {
	c := newTestChronology(t, "Leap", calendar.Experiment)
	_, err := c.AddRecord(Events, "leap", event("-0004-02-29"))
	require.NoError(t, err)

	require.NoError(t, c.RelabelTo(calendar.Gregorian))
	r, err := c.GetRecord(Events, "leap")
	require.NoError(t, err)
	assert.Equal(t, "5-02-29 BC", r.Begin)

	path := filepath.Join(t.TempDir(), "leap.chrono")
	require.NoError(t, c.Save(path))
	loaded, err := Load(path, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	entries, err := loaded.ListRecords(Events)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "-0004-02-29", entries[0].BeginAt.String())
}

func TestRelabel_AllOrNothing(t *testing.T) {
	c := ussher(t)
	// corrupt one stored date behind the validation in AddRecord
	c.categories[Events].byName["Flood"].Begin = "-2348 BC"

	err := c.RelabelTo(calendar.Secular)
	require.Error(t, err)
	assert.True(t, errors.IsAmbiguousDate(err))

	assert.Equal(t, calendar.Gregorian, c.Calendar().Name())
	r, _ := c.GetRecord(Events, "Creation")
	assert.Equal(t, "4004-10-23 BC", r.Begin)
}

func TestBumpVersion(t *testing.T) {
	c := newTestChronology(t, "v", calendar.Gregorian)
	v, err := c.BumpVersion("major")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.String())
	v, _ = c.BumpVersion("minor")
	assert.Equal(t, "1.1.0", v.String())
	v, _ = c.BumpVersion("")
	assert.Equal(t, "1.1.1", v.String())

	_, err = c.BumpVersion("huge")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestClone_Independent(t *testing.T) {
	c := ussher(t)
	cp := c.Clone()
	require.NoError(t, cp.RemoveRecord(Events, "Flood"))
	_, err := cp.BumpVersion("major")
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "0.1.0", c.Version().String())
}

func TestFetch_LocalFile(t *testing.T) {
	c := ussher(t)
	path := filepath.Join(t.TempDir(), "remote.chrono")
	require.NoError(t, c.Save(path))

	fetched, err := Fetch(context.Background(), path, Options{Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	assert.Equal(t, "Ussher", fetched.Name())
	assert.Equal(t, 3, fetched.Len())
	assert.Empty(t, fetched.Path())
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"events": Events, "Event": Events, "PERIODS": Periods, "challenge": Challenges, " markers ": Markers,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseCategory("wars")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{"name", "Begin", "EVENTS", "order", " text "} {
		assert.True(t, IsReserved(k), k)
	}
	assert.False(t, IsReserved("confidence"))
	assert.Len(t, ReservedKeys(), 16)
}
