package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/index"
)

// RenderTable writes a boxed table with a header row.
func RenderTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, pterm.Gray("(no rows)"))
		return err
	}
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Entries renders chronology records.
func Entries(w io.Writer, entries []chronology.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Category), e.Name, e.Begin, e.End, e.Text})
	}
	return RenderTable(w, []string{"Category", "Name", "Begin", "End", "Text"}, rows)
}

// Calendars renders calendar definitions.
func Calendars(w io.Writer, defs []calendar.Definition) error {
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		zero := "no"
		if d.UsesYearZero() {
			zero = "yes"
		}
		rows = append(rows, []string{
			d.Name(),
			fmt.Sprintf("%q", d.PositiveLabel()),
			fmt.Sprintf("%q", d.NegativeLabel()),
			fmt.Sprint(d.ZeroYearOffset()),
			zero,
		})
	}
	return RenderTable(w, []string{"Name", "Positive", "Negative", "Offset", "Year zero"}, rows)
}

// Hits renders index query results.
func Hits(w io.Writer, hits []index.Hit) error {
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{h.BeginAt.String(), h.Chronology, string(h.Category), h.Name, h.Begin, h.End})
	}
	return RenderTable(w, []string{"Axis", "Chronology", "Category", "Name", "Begin", "End"}, rows)
}

// Summaries renders indexed chronologies.
func Summaries(w io.Writer, sums []index.Summary) error {
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, []string{s.Name, s.Calendar, s.Version, fmt.Sprint(s.Records), s.Path})
	}
	return RenderTable(w, []string{"Name", "Calendar", "Version", "Records", "Path"}, rows)
}

// Success prints a green confirmation line.
func Success(w io.Writer, format string, args ...any) {
	pterm.Success.WithWriter(w).Printfln(format, args...)
}

// Warning prints a yellow warning line.
func Warning(w io.Writer, format string, args ...any) {
	pterm.Warning.WithWriter(w).Printfln(format, args...)
}
