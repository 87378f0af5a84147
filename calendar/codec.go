package calendar

import (
	"math/big"
	"strings"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/timeline"
)

// Codec converts between labelled date strings and timeline values under one
// calendar. A Codec is stateless beyond its Definition and safe to share.
type Codec struct {
	cal Definition
}

// NewCodec returns a codec for cal.
func NewCodec(cal Definition) *Codec {
	return &Codec{cal: cal}
}

// Calendar returns the definition the codec encodes against.
func (c *Codec) Calendar() Definition {
	return c.cal
}

// Encode maps a labelled date string onto the axis.
//
// A trailing era label decides the sign: a negative-era label negates the
// year, a positive-era label keeps it. A leading '-' together with either
// label is contradictory and fails with an ambiguous-date error. Unlabelled
// input is read as a raw signed axis value.
//
// Labelled years are anchored with the calendar's zero-year offset. In a
// calendar without year zero year N of the negative era is axis year -(N-1),
// and month, day and time are kept in that year: "5-02-29 BC" is valid
// because axis year -4 is a leap year.
func (c *Codec) Encode(date string) (timeline.Value, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return timeline.Absent, errors.NewInvalidDateError("empty date in calendar %q", c.cal.Name())
	}

	negativeSign := date[0] == '-'
	era, bare := c.cal.MatchLabel(date)
	if negativeSign && era != EraNone {
		return timeline.Absent, errors.WithHint(
			errors.NewAmbiguousDateError("the year of %q is negative but the date carries the %s-era label %q of calendar %q",
				date, era, c.cal.Label(era), c.cal.Name()),
			"drop the leading '-' or the era label; the label already encodes the sign")
	}
	bare = strings.TrimSpace(bare)

	if era != EraNone {
		return c.encodeLabelled(date, bare, era)
	}

	v, err := timeline.Parse(bare)
	if err != nil {
		return timeline.Absent, c.wrapParse(err, date)
	}
	return v, nil
}

// Decode renders v as an ISO-8601-like axis string at unit precision, without
// any era label. The absent sentinel decodes to "".
func (c *Codec) Decode(v timeline.Value, unit timeline.Unit) string {
	return timeline.Format(v, unit)
}

// Render is the labelled inverse of Encode: it renumbers v into the
// calendar's era convention and appends the matching label. Unlabelled
// calendars render the signed axis year.
func (c *Codec) Render(v timeline.Value, unit timeline.Unit) string {
	if v.IsAbsent() {
		return ""
	}
	if !c.cal.IsSuffixStyle() {
		return c.Decode(v, unit)
	}

	civil := v.Civil()
	year := new(big.Int).Sub(civil.Year, big.NewInt(c.cal.ZeroYearOffset()))

	era := EraPositive
	if c.cal.UsesYearZero() {
		if year.Sign() <= 0 {
			era = EraNegative
			year.Neg(year)
		}
	} else if year.Sign() <= 0 {
		era = EraNegative
		year.Sub(bigOne, year)
	}

	// Labelled years are written without the axis zero padding ("44 BC").
	civil.Year = year
	text := timeline.FormatCivil(civil, unit)
	text = year.String() + text[len(timeline.FormatYear(year)):]
	return text + c.cal.Label(era)
}

// Normalize is the single entry point for date inputs of either form.
func (c *Codec) Normalize(in Input) (timeline.Value, error) {
	switch in.kind {
	case inputRaw:
		return c.Encode(in.raw)
	case inputValue:
		return in.value, nil
	case inputYear:
		return timeline.YearStart(in.year), nil
	}
	return timeline.Absent, errors.NewInvalidDateError("empty date input")
}

// encodeLabelled resolves the written era year to its axis year before the
// month and day are validated.
func (c *Codec) encodeLabelled(date, bare string, era Era) (timeline.Value, error) {
	yearZero := false
	v, err := timeline.ParseResolved(bare, func(year *big.Int) *big.Int {
		yearZero = year.Sign() == 0
		return c.axisYear(year, era)
	})
	if yearZero && !c.cal.UsesYearZero() {
		return timeline.Absent, c.noYearZero(date)
	}
	if err != nil {
		return timeline.Absent, c.wrapParse(err, date)
	}
	return v, nil
}

// axisYear is the astronomical year of year n written in era.
func (c *Codec) axisYear(n *big.Int, era Era) *big.Int {
	year := new(big.Int).Set(n)
	if era == EraNegative {
		year.Neg(year)
		if !c.cal.UsesYearZero() {
			year.Add(year, bigOne)
		}
	}
	return year.Add(year, big.NewInt(c.cal.ZeroYearOffset()))
}

func (c *Codec) wrapParse(err error, date string) error {
	return errors.WithHint(
		errors.Wrapf(err, "calendar %q", c.cal.Name()),
		"dates look like YYYY[-MM[-DD[Thh[:mm[:ss[.fff]]]]]] followed by an optional era label")
}

func (c *Codec) noYearZero(date string) error {
	return errors.WithHintf(
		errors.NewInvalidDateError("calendar %q has no year zero, got %q", c.cal.Name(), date),
		"the year before 1%s is 1%s", c.cal.PositiveLabel(), c.cal.NegativeLabel())
}

var bigOne = big.NewInt(1)

// Encode maps date onto the axis under cal.
func Encode(date string, cal Definition) (timeline.Value, error) {
	return NewCodec(cal).Encode(date)
}

// Decode renders v without a label at unit precision.
func Decode(v timeline.Value, cal Definition, unit timeline.Unit) string {
	return NewCodec(cal).Decode(v, unit)
}

// DaysInYear returns 366 or 365 by the Gregorian rule for the year of in. A
// raw input is read as a bare axis date string ("-0004", "-0004-06-01").
func DaysInYear(in Input) (int, error) {
	switch in.kind {
	case inputRaw:
		year, err := timeline.YearOf(in.raw)
		if err != nil {
			return 0, err
		}
		return timeline.DaysInYear(year), nil
	case inputValue:
		if in.value.IsAbsent() {
			return 0, errors.NewInvalidDateError("absent date has no year")
		}
		return timeline.DaysInYear(in.value.Year()), nil
	case inputYear:
		return timeline.DaysInYear(in.year), nil
	}
	return 0, errors.NewInvalidDateError("empty date input")
}
