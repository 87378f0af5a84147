package timeline

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/teranos/chrono/errors"
)

// Parse reads an ISO-8601-like axis string:
//
//	[-|+]Y...Y[-MM[-DD[(T| )hh[:mm[:ss[.f...]]]]]][Z]
//
// The year has any number of digits and is astronomical (year 0 exists, "-1"
// is 2 BC). The precision of the result is the finest field present.
func Parse(s string) (Value, error) {
	return ParseResolved(s, nil)
}

// ParseResolved parses s like Parse but passes the written year through
// resolve before any field is checked, so days are validated against the
// year the date lands in. A nil resolve keeps the written year.
func ParseResolved(s string, resolve func(year *big.Int) *big.Int) (Value, error) {
	p := &isoParser{s: strings.TrimSpace(s), resolve: resolve}
	v, err := p.parse()
	if err != nil {
		return Absent, errors.WrapInvalidDate(err, "parse %q", s)
	}
	return v, nil
}

// YearOf returns the astronomical year of a date string.
func YearOf(s string) (*big.Int, error) {
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return v.Year(), nil
}

type isoParser struct {
	s       string
	pos     int
	resolve func(*big.Int) *big.Int
}

func (p *isoParser) parse() (Value, error) {
	if p.s == "" {
		return Absent, errors.New("empty date")
	}

	negative := false
	switch p.s[0] {
	case '-':
		negative = true
		p.pos++
	case '+':
		p.pos++
	}

	yearDigits := p.digits(0)
	if yearDigits == "" {
		return Absent, errors.New("missing year")
	}
	year, _ := new(big.Int).SetString(yearDigits, 10)
	if negative {
		year.Neg(year)
	}
	if p.resolve != nil {
		year = p.resolve(year)
	}

	c := Civil{Year: year, Month: 1, Day: 1}
	unit := UnitYear

	if p.accept('-') {
		month, err := p.field("month", 2, 1, 12)
		if err != nil {
			return Absent, err
		}
		c.Month, unit = month, UnitMonth

		if p.accept('-') {
			day, err := p.field("day", 2, 1, DaysInMonth(year, month))
			if err != nil {
				return Absent, err
			}
			c.Day, unit = day, UnitDay

			if p.accept('T') || p.accept(' ') {
				if c, unit, err = p.clock(c); err != nil {
					return Absent, err
				}
			}
		}
	}

	p.accept('Z')
	if p.pos != len(p.s) {
		return Absent, errors.Newf("unexpected %q at offset %d", p.s[p.pos:], p.pos)
	}
	return FromCivil(c, unit), nil
}

func (p *isoParser) clock(c Civil) (Civil, Unit, error) {
	var err error
	if c.Hour, err = p.field("hour", 2, 0, 23); err != nil {
		return c, UnitDay, err
	}
	if !p.accept(':') {
		return c, UnitHour, nil
	}
	if c.Minute, err = p.field("minute", 2, 0, 59); err != nil {
		return c, UnitHour, err
	}
	if !p.accept(':') {
		return c, UnitMinute, nil
	}
	if c.Second, err = p.field("second", 2, 0, 59); err != nil {
		return c, UnitMinute, err
	}
	if !p.accept('.') {
		return c, UnitSecond, nil
	}

	frac := p.digits(9)
	if frac == "" {
		return c, UnitSecond, errors.New("missing fractional seconds")
	}
	unit := UnitMillisecond
	switch {
	case len(frac) > 6:
		unit = UnitNanosecond
	case len(frac) > 3:
		unit = UnitMicrosecond
	}
	c.Nanosecond, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	return c, unit, nil
}

// field reads exactly width digits and range-checks them.
func (p *isoParser) field(name string, width, lo, hi int) (int, error) {
	start := p.pos
	d := p.digits(width)
	if len(d) != width {
		return 0, errors.Newf("%s must have %d digits at offset %d", name, width, start)
	}
	n, _ := strconv.Atoi(d)
	if n < lo || n > hi {
		return 0, errors.Newf("%s %d out of range %d..%d", name, n, lo, hi)
	}
	return n, nil
}

// digits consumes up to limit ASCII digits (unbounded when limit is 0).
func (p *isoParser) digits(limit int) string {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		if limit > 0 && p.pos-start == limit {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *isoParser) accept(b byte) bool {
	if p.pos < len(p.s) && p.s[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

// Format renders v at the given precision. Coarser units truncate; finer
// units pad with zero fields. The absent sentinel renders as "".
func Format(v Value, unit Unit) string {
	if v.IsAbsent() {
		return ""
	}
	return FormatCivil(v.Civil(), unit)
}

// FormatCivil renders broken-down fields at the given precision.
func FormatCivil(c Civil, unit Unit) string {
	var b strings.Builder
	b.WriteString(FormatYear(c.Year))
	if unit >= UnitMonth {
		fmt.Fprintf(&b, "-%02d", c.Month)
	}
	if unit >= UnitDay {
		fmt.Fprintf(&b, "-%02d", c.Day)
	}
	if unit >= UnitHour {
		fmt.Fprintf(&b, "T%02d", c.Hour)
	}
	if unit >= UnitMinute {
		fmt.Fprintf(&b, ":%02d", c.Minute)
	}
	if unit >= UnitSecond {
		fmt.Fprintf(&b, ":%02d", c.Second)
	}
	if n := unit.fractionDigits(); n > 0 {
		frac := fmt.Sprintf("%09d", c.Nanosecond)
		b.WriteString("." + frac[:n])
	}
	return b.String()
}

// FormatYear renders a year with at least four digits and a leading '-' when
// negative.
func FormatYear(year *big.Int) string {
	abs := new(big.Int).Abs(year).String()
	if len(abs) < 4 {
		abs = strings.Repeat("0", 4-len(abs)) + abs
	}
	if year.Sign() < 0 {
		return "-" + abs
	}
	return abs
}
