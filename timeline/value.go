// Package timeline implements the single global axis every chronology date is
// mapped onto: a signed count of days from 1970-01-01 on the proleptic
// Gregorian calendar with astronomical year numbering (year 0 exists), plus a
// sub-day offset in nanoseconds.
//
// Day counts are *big.Int so years may be arbitrarily large in magnitude.
// Label strings never appear here; see package calendar for era labels.
package timeline

import (
	"math/big"
)

// NanosPerDay is the length of one axis day.
const NanosPerDay int64 = 86_400_000_000_000

// Value is a point on the axis. The zero Value is the absent sentinel.
type Value struct {
	days  *big.Int
	nanos int64 // [0, NanosPerDay)
	unit  Unit
}

// Absent is the sentinel for a missing date.
var Absent = Value{}

// FromDays builds a value from a day count and a nanosecond offset. The offset
// may be negative or exceed one day; it is normalized into the day count.
func FromDays(days *big.Int, nanos int64, unit Unit) Value {
	v := Value{days: new(big.Int).Set(days), unit: unit}
	return v.AddNanos(nanos)
}

// FromCivil builds a value from a broken-down date-time.
func FromCivil(c Civil, unit Unit) Value {
	days := DaysFromCivil(c.Year, c.Month, c.Day)
	nanos := (int64(c.Hour)*3600+int64(c.Minute)*60+int64(c.Second))*1_000_000_000 + int64(c.Nanosecond)
	return FromDays(days, nanos, unit)
}

// YearStart returns January 1 of year at year precision.
func YearStart(year *big.Int) Value {
	return Value{days: DaysFromCivil(year, 1, 1), unit: UnitYear}
}

// IsAbsent reports whether v is the absent sentinel.
func (v Value) IsAbsent() bool {
	return v.days == nil
}

// Days returns a copy of the whole-day component.
func (v Value) Days() *big.Int {
	if v.days == nil {
		return nil
	}
	return new(big.Int).Set(v.days)
}

// Nanos returns the sub-day offset in [0, NanosPerDay).
func (v Value) Nanos() int64 {
	return v.nanos
}

// Unit returns the precision v was written at.
func (v Value) Unit() Unit {
	return v.unit
}

// WithUnit returns v with a different precision. The axis position is unchanged.
func (v Value) WithUnit(u Unit) Value {
	v.unit = u
	return v
}

// AddDays shifts v by n whole days.
func (v Value) AddDays(n int64) Value {
	return v.AddDaysBig(big.NewInt(n))
}

// AddDaysBig shifts v by an arbitrary number of whole days.
func (v Value) AddDaysBig(n *big.Int) Value {
	if v.IsAbsent() {
		return v
	}
	return Value{days: new(big.Int).Add(v.days, n), nanos: v.nanos, unit: v.unit}
}

// AddNanos shifts v by n nanoseconds, carrying into the day count.
func (v Value) AddNanos(n int64) Value {
	if v.IsAbsent() {
		return v
	}
	carry := n / NanosPerDay
	total := v.nanos + n%NanosPerDay
	if total >= NanosPerDay {
		total -= NanosPerDay
		carry++
	} else if total < 0 {
		total += NanosPerDay
		carry--
	}
	return Value{days: new(big.Int).Add(v.days, big.NewInt(carry)), nanos: total, unit: v.unit}
}

// Civil breaks v down into calendar fields.
func (v Value) Civil() Civil {
	if v.IsAbsent() {
		return Civil{}
	}
	year, month, day := CivilFromDays(v.days)
	secs := v.nanos / 1_000_000_000
	return Civil{
		Year:       year,
		Month:      month,
		Day:        day,
		Hour:       int(secs / 3600),
		Minute:     int(secs % 3600 / 60),
		Second:     int(secs % 60),
		Nanosecond: int(v.nanos % 1_000_000_000),
	}
}

// Year returns the astronomical year v falls in.
func (v Value) Year() *big.Int {
	if v.IsAbsent() {
		return nil
	}
	year, _, _ := CivilFromDays(v.days)
	return year
}

// Cmp orders values on the axis. Absent sorts before every present value.
func (v Value) Cmp(w Value) int {
	switch {
	case v.IsAbsent() && w.IsAbsent():
		return 0
	case v.IsAbsent():
		return -1
	case w.IsAbsent():
		return 1
	}
	if c := v.days.Cmp(w.days); c != 0 {
		return c
	}
	switch {
	case v.nanos < w.nanos:
		return -1
	case v.nanos > w.nanos:
		return 1
	}
	return 0
}

// Equal reports whether v and w are the same axis position, ignoring precision.
func (v Value) Equal(w Value) bool {
	return v.Cmp(w) == 0
}

// Span is a signed distance between two axis positions.
type Span struct {
	Days  *big.Int
	Nanos int64 // [0, NanosPerDay)
}

// Sub returns v - w. Both values must be present.
func (v Value) Sub(w Value) Span {
	d := FromDays(new(big.Int).Sub(v.days, w.days), v.nanos-w.nanos, UnitNanosecond)
	return Span{Days: d.days, Nanos: d.nanos}
}

// WholeDays returns the span as an int64 day count if it has no sub-day part
// and fits.
func (s Span) WholeDays() (int64, bool) {
	if s.Nanos != 0 || !s.Days.IsInt64() {
		return 0, false
	}
	return s.Days.Int64(), true
}

// ApproxDays returns v as a float64 day count. Precision degrades for very
// large magnitudes; use it for sort keys, never for equality.
func (v Value) ApproxDays() float64 {
	if v.IsAbsent() {
		return 0
	}
	f := new(big.Float).SetInt(v.days)
	f.Add(f, big.NewFloat(float64(v.nanos)/float64(NanosPerDay)))
	out, _ := f.Float64()
	return out
}

// String renders v at its own precision.
func (v Value) String() string {
	return Format(v, v.unit)
}

// MarshalText renders v at its own precision; absent renders as "".
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses an ISO-8601-like axis string; "" yields Absent.
func (v *Value) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*v = Absent
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
