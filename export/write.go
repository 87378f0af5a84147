package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/chrono/errors"
)

// Format is an output format.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{XLSX, CSV, JSON, YAML}

// ParseFormat accepts a format name or a file extension, in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if f == "yml" {
		f = YAML
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.WithHint(
		errors.NewConfigurationError("unknown export format %q", s),
		"use one of xlsx, csv, json, yaml")
}

// FormatForPath picks the format from the extension of path, falling back to
// def when the extension is unknown.
func FormatForPath(path string, def Format) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return def
}

// Write renders t to w in format f.
func Write(w io.Writer, f Format, t *Table) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, t)
	case CSV:
		return WriteCSV(w, t)
	case JSON:
		return WriteJSON(w, t)
	case YAML:
		return WriteYAML(w, t)
	}
	return errors.NewConfigurationError("unknown export format %q", string(f))
}

// WriteFile renders t into path.
func WriteFile(path string, f Format, t *Table) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.WrapPersistence(err, "create %s", path)
	}
	if err := Write(out, f, t); err != nil {
		out.Close()
		return err
	}
	return errors.WrapPersistence(out.Close(), "close %s", path)
}

// WriteXLSX writes t as a single-sheet workbook with a bold, frozen header.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Chronology)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "name sheet")
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell address")
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return errors.Wrapf(err, "write row %d", i+1)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "header style")
	}
	last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return errors.Wrap(err, "cell address")
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return errors.Wrap(err, "style header")
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return errors.Wrap(err, "freeze header")
	}

	return errors.Wrap(f.Write(w), "write workbook")
}

// WriteCSV writes t with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "write csv rows")
	}
	return nil
}

// document is the JSON and YAML shape of a table.
type document struct {
	Chronology string              `json:"chronology" yaml:"chronology"`
	Calendar   string              `json:"calendar" yaml:"calendar"`
	Records    []map[string]string `json:"records" yaml:"records"`
}

func (t *Table) document() document {
	return document{Chronology: t.Chronology, Calendar: t.Calendar, Records: t.Records()}
}

// WriteJSON writes t as an indented JSON document.
func WriteJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(t.document()), "write json")
}

// WriteYAML writes t as a YAML document.
func WriteYAML(w io.Writer, t *Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.document()); err != nil {
		return errors.Wrap(err, "write yaml")
	}
	return errors.Wrap(enc.Close(), "write yaml")
}

// sheetName fits name into Excel's 31-character sheet name limit.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "chronology"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
