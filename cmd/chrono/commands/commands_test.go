package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/chrono/am"
	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
)

// useProject points the configuration at a fresh storage directory and
// returns it.
func useProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "chrono.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[storage]
dir = "`+dir+`"
backups = 0

[index]
path = "`+filepath.Join(dir, "index.db")+`"
`), 0644))
	am.UseConfigFile(cfg)
	t.Cleanup(func() { am.UseConfigFile("") })
	return dir
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func TestRecordFields(t *testing.T) {
	f, err := recordFields([]string{"2349 BC", "2348 BC"}, "the flood", []string{"source=genesis", "days=40", "note=first light", `ark={"cubits": 300}`})
	require.NoError(t, err)
	assert.Equal(t, calendar.Raw("2349 BC"), f.Begin)
	assert.Equal(t, calendar.Raw("2348 BC"), f.End)
	assert.Equal(t, "the flood", f.Text)
	assert.EqualValues(t, 40, f.Annotations["days"])
	assert.Equal(t, "first light", f.Annotations["note"])
	assert.Equal(t, `{"cubits": 300}`, f.Annotations["ark"], "same reading as batch scripts")

	f, err = recordFields([]string{"1066"}, "", nil)
	require.NoError(t, err)
	assert.True(t, f.End.IsEmpty())
	assert.Nil(t, f.Annotations)

	_, err = recordFields([]string{"1066"}, "", []string{"novalue"})
	assert.True(t, errors.IsConfigurationError(err))
}

func TestChronologyFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.chrono",
		".hidden.chrono",
		"notes.txt",
		filepath.Join("sub", "b.chrono"),
		filepath.Join(".git", "c.chrono"),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	single := filepath.Join(dir, "notes.txt")

	files, err := chronologyFiles([]string{dir, single})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.chrono"),
		filepath.Join(dir, "sub", "b.chrono"),
		single,
	}, files)

	_, err = chronologyFiles([]string{filepath.Join(dir, "missing")})
	assert.True(t, errors.IsPersistence(err))
}

func TestChronologyCommands(t *testing.T) {
	dir := useProject(t)

	cmd, out := testCmd()
	require.NoError(t, runNew(cmd, []string{"ussher"}))
	path := filepath.Join(dir, "ussher"+chronology.FileExtension)
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "ussher")

	err := runNew(cmd, []string{"ussher"})
	assert.True(t, errors.IsConfigurationError(err), "second new refuses to overwrite")

	recordText = "In the beginning"
	t.Cleanup(func() { recordText = "" })
	require.NoError(t, runAdd(cmd, []string{"ussher", "EVENTS", "creation", "4004 BC"}))
	recordText = ""
	require.NoError(t, runAdd(cmd, []string{"ussher", "EVENTS", "flood", "2349 BC"}))
	require.NoError(t, runAdd(cmd, []string{"ussher", "PERIODS", "patriarchs", "4004 BC", "2349 BC"}))

	err = runAdd(cmd, []string{"ussher", "EVENTS", "flood", "2348 BC"})
	require.Error(t, err, "add does not replace")
	require.NoError(t, runUpdate(cmd, []string{"ussher", "EVENTS", "flood", "2348 BC"}))

	c, err := chronology.Load(path, chronology.Options{})
	require.NoError(t, err)
	flood, err := c.GetRecord(chronology.Events, "flood")
	require.NoError(t, err)
	assert.Equal(t, "2348 BC", flood.Begin)
	creation, err := c.GetRecord(chronology.Events, "creation")
	require.NoError(t, err)
	assert.Equal(t, "In the beginning", creation.Text)

	t.Run("order", func(t *testing.T) {
		cmd, out := testCmd()
		require.NoError(t, runOrder(cmd, []string{"ussher", "EVENTS", "flood", "creation"}))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "flood")

		err := runOrder(cmd, []string{"ussher", "EVENTS", "flood"})
		assert.Error(t, err, "order must name every record")
	})

	t.Run("list", func(t *testing.T) {
		cmd, out := testCmd()
		require.NoError(t, runList(cmd, []string{"ussher", "EVENTS"}))
		assert.Contains(t, out.String(), "creation")
		assert.NotContains(t, out.String(), "patriarchs")
	})

	t.Run("bump", func(t *testing.T) {
		cmd, out := testCmd()
		require.NoError(t, runBump(cmd, []string{"ussher", "minor"}))
		assert.Equal(t, "0.2.0", strings.TrimSpace(out.String()))
	})

	t.Run("relabel to a new file", func(t *testing.T) {
		relabelOut = filepath.Join(dir, "ussher-bp"+chronology.FileExtension)
		t.Cleanup(func() { relabelOut = "" })
		cmd, _ := testCmd()
		require.NoError(t, runRelabel(cmd, []string{"ussher", calendar.BeforePresent}))

		bp, err := chronology.Load(relabelOut, chronology.Options{})
		require.NoError(t, err)
		assert.Equal(t, calendar.BeforePresent, bp.Calendar().Name())
		r, err := bp.GetRecord(chronology.Events, "creation")
		require.NoError(t, err)
		assert.Equal(t, "5953 BP", r.Begin)

		orig, err := chronology.Load(path, chronology.Options{})
		require.NoError(t, err)
		assert.Equal(t, calendar.Gregorian, orig.Calendar().Name(), "source left alone")
	})

	t.Run("remove", func(t *testing.T) {
		cmd, _ := testCmd()
		require.NoError(t, runRemove(cmd, []string{"ussher", "PERIODS", "patriarchs"}))
		err := runRemove(cmd, []string{"ussher", "PERIODS", "patriarchs"})
		assert.True(t, errors.IsMissingRecord(err))
	})
}

func TestDateCommands(t *testing.T) {
	useProject(t)

	cmd, out := testCmd()
	require.NoError(t, runEncode(cmd, []string{"4004 BC"}))
	assert.Equal(t, "-4003", strings.TrimSpace(out.String()))

	dateCalendar = calendar.BeforePresent
	t.Cleanup(func() { dateCalendar = "" })
	cmd, out = testCmd()
	require.NoError(t, runDecode(cmd, []string{"-4003"}))
	assert.Equal(t, "5953 BP", strings.TrimSpace(out.String()))

	dateCalendar = ""
	cmd, _ = testCmd()
	err := runEncode(cmd, []string{"-4004 BC"})
	assert.True(t, errors.IsAmbiguousDate(err))

	cmd, out = testCmd()
	require.NoError(t, runCalendars(cmd, nil))
	for _, name := range []string{calendar.Gregorian, calendar.Secular, calendar.BeforePresent} {
		assert.Contains(t, out.String(), name)
	}
}

func TestIndexAndBetween(t *testing.T) {
	dir := useProject(t)

	cmd, _ := testCmd()
	require.NoError(t, runNew(cmd, []string{"ussher"}))
	require.NoError(t, runAdd(cmd, []string{"ussher", "EVENTS", "creation", "4004 BC"}))
	require.NoError(t, runAdd(cmd, []string{"ussher", "EVENTS", "hastings", "1066"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+chronology.FileExtension), []byte("{"), 0644))

	cmd, out := testCmd()
	require.NoError(t, runIndex(cmd, nil))
	assert.Contains(t, out.String(), "ussher")
	assert.Contains(t, out.String(), "broken", "unreadable files are reported, not fatal")

	cmd, out = testCmd()
	require.NoError(t, runBetween(cmd, []string{"-4100", "-4000"}))
	assert.Contains(t, out.String(), "creation")
	assert.NotContains(t, out.String(), "hastings")
}

func TestApplyAndExport(t *testing.T) {
	dir := useProject(t)

	cmd, _ := testCmd()
	require.NoError(t, runNew(cmd, []string{"ussher"}))

	script := filepath.Join(dir, "edits.txt")
	require.NoError(t, os.WriteFile(script, []byte(`# founding events
add EVENTS creation "4004 BC" text="In the beginning"
add EVENTS exodus "1491 BC" leader=moses
`), 0644))

	cmd, out := testCmd()
	require.NoError(t, runApply(cmd, []string{"ussher", script}))
	assert.Contains(t, out.String(), "2 added")

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("add EVENTS flood \"2348 BC\"\nadd EVENTS exodus \"1490 BC\"\n"), 0644))
	err := runApply(cmd, []string{"ussher", bad})
	require.Error(t, err)
	c, err := chronology.Load(filepath.Join(dir, "ussher"+chronology.FileExtension), chronology.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "failed script leaves the file unchanged")

	exportFormat = "csv"
	t.Cleanup(func() { exportFormat = "" })
	cmd, out = testCmd()
	require.NoError(t, runExport(cmd, []string{"ussher"}))
	assert.Contains(t, out.String(), "leader")
	assert.Contains(t, out.String(), "moses")

	exportFormat = ""
	cmd, _ = testCmd()
	err = runExport(cmd, []string{"ussher"})
	assert.True(t, errors.IsConfigurationError(err), "no workbook on stdout")

	exportOut = filepath.Join(dir, "ussher.xlsx")
	t.Cleanup(func() { exportOut = "" })
	require.NoError(t, runExport(cmd, []string{"ussher"}))
	assert.FileExists(t, exportOut)
}
