package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
)

func testChronology(t *testing.T) *chronology.Chronology {
	t.Helper()
	c, err := chronology.New(chronology.Options{Name: "ussher", DisplayName: "Annals", Logger: zaptest.NewLogger(t).Sugar()})
	require.NoError(t, err)
	_, err = c.AddRecord(chronology.Events, "Creation", chronology.Fields{
		Begin: calendar.Raw("4004-10-23 BC"),
		Text:  "Annals §1",
	})
	require.NoError(t, err)
	_, err = c.AddRecord(chronology.Periods, "Captivity", chronology.Fields{
		Begin:       calendar.Raw("587 BC"),
		End:         calendar.Raw("538 BC"),
		Annotations: map[string]any{"confidence": "high", "sources": int64(2)},
	})
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	tbl, err := Build(testChronology(t))
	require.NoError(t, err)

	assert.Equal(t, "Annals", tbl.Chronology)
	assert.Equal(t, calendar.Gregorian, tbl.Calendar)
	assert.Equal(t, []string{"category", "name", "begin", "end", "text", "axis_begin", "axis_end", "confidence", "sources"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"EVENTS", "Creation", "4004-10-23 BC", "", "Annals §1", "-4003-10-23", "", "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"PERIODS", "Captivity", "587 BC", "538 BC", "", "-586", "-537", "high", "2"}, tbl.Rows[1])

	t.Run("filtered by category", func(t *testing.T) {
		tbl, err := Build(testChronology(t), chronology.Periods)
		require.NoError(t, err)
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, "Captivity", tbl.Rows[0][1])
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"xlsx": XLSX, ".CSV": CSV, "json": JSON, "yml": YAML, " yaml ": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.True(t, errors.IsConfigurationError(err))

	assert.Equal(t, CSV, FormatForPath("out/table.csv", XLSX))
	assert.Equal(t, XLSX, FormatForPath("out/table", XLSX))
}

func TestWriteCSV(t *testing.T) {
	tbl, err := Build(testChronology(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, tbl))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "category,name,begin,end,text,axis_begin,axis_end,confidence,sources", lines[0])
	assert.Equal(t, "PERIODS,Captivity,587 BC,538 BC,,-586,-537,high,2", lines[2])
}

func TestWriteJSONAndYAML(t *testing.T) {
	tbl, err := Build(testChronology(t))
	require.NoError(t, err)

	var jbuf bytes.Buffer
	require.NoError(t, Write(&jbuf, JSON, tbl))
	var fromJSON document
	require.NoError(t, json.Unmarshal(jbuf.Bytes(), &fromJSON))

	var ybuf bytes.Buffer
	require.NoError(t, Write(&ybuf, YAML, tbl))
	var fromYAML document
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &fromYAML))

	for _, doc := range []document{fromJSON, fromYAML} {
		assert.Equal(t, "Annals", doc.Chronology)
		require.Len(t, doc.Records, 2)
		assert.Equal(t, "4004-10-23 BC", doc.Records[0]["begin"])
		assert.NotContains(t, doc.Records[0], "end")
		assert.Equal(t, "high", doc.Records[1]["confidence"])
	}
}

func TestWriteXLSX(t *testing.T) {
	tbl, err := Build(testChronology(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "annals.xlsx")
	require.NoError(t, WriteFile(path, FormatForPath(path, CSV), tbl))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Annals"}, f.GetSheetList())
	rows, err := f.GetRows("Annals")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "category", rows[0][0])
	assert.Equal(t, "Creation", rows[1][1])
	assert.Equal(t, "538 BC", rows[2][3])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "chronology", sheetName(""))
	assert.Equal(t, "a_b", sheetName("a/b"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
