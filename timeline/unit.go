package timeline

import (
	"strings"

	"github.com/teranos/chrono/errors"
)

// Unit is the precision at which a value was written or should be rendered.
type Unit int

const (
	UnitYear Unit = iota
	UnitMonth
	UnitDay
	UnitHour
	UnitMinute
	UnitSecond
	UnitMillisecond
	UnitMicrosecond
	UnitNanosecond
)

var unitCodes = []string{"Y", "M", "D", "h", "m", "s", "ms", "us", "ns"}

// String returns the short unit code (Y, M, D, h, m, s, ms, us, ns).
func (u Unit) String() string {
	if u < UnitYear || u > UnitNanosecond {
		return "?"
	}
	return unitCodes[u]
}

// ParseUnit accepts the short codes returned by String as well as the long
// names ("year", "day", "second", ...). Short codes are case-sensitive because
// "M" (month) and "m" (minute) differ.
func ParseUnit(s string) (Unit, error) {
	for i, code := range unitCodes {
		if s == code {
			return Unit(i), nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "year", "years":
		return UnitYear, nil
	case "month", "months":
		return UnitMonth, nil
	case "day", "days", "":
		return UnitDay, nil
	case "hour", "hours":
		return UnitHour, nil
	case "minute", "minutes":
		return UnitMinute, nil
	case "second", "seconds":
		return UnitSecond, nil
	case "millisecond", "milliseconds":
		return UnitMillisecond, nil
	case "microsecond", "microseconds":
		return UnitMicrosecond, nil
	case "nanosecond", "nanoseconds":
		return UnitNanosecond, nil
	}
	return UnitDay, errors.WithHint(
		errors.Newf("unknown unit %q", s),
		"use one of Y, M, D, h, m, s, ms, us, ns")
}

// fractionDigits is the number of sub-second digits rendered for u.
func (u Unit) fractionDigits() int {
	switch u {
	case UnitMillisecond:
		return 3
	case UnitMicrosecond:
		return 6
	case UnitNanosecond:
		return 9
	}
	return 0
}
