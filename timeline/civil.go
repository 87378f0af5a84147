package timeline

import "math/big"

// Proleptic Gregorian cycle constants.
const (
	daysPer400Years = 146097
	// Days from 0000-03-01 to 1970-01-01; shifts the cycle arithmetic onto the
	// Unix epoch.
	epochShift = 719468
)

var (
	bigOne       = big.NewInt(1)
	big400       = big.NewInt(400)
	bigCycleDays = big.NewInt(daysPer400Years)
	bigEpoch     = big.NewInt(epochShift)
)

// Civil is a broken-down date-time on the astronomical (year zero) axis.
// Year is unbounded; the remaining fields are always in range.
type Civil struct {
	Year       *big.Int
	Month      int // 1..12
	Day        int // 1..31
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// IsLeap applies the Gregorian rule: divisible by 4 and either not divisible
// by 100 or divisible by 400. Negative years use Euclidean remainders, so
// year -4 is leap and year -100 is not.
func IsLeap(year *big.Int) bool {
	return modSmall(year, 4) == 0 && (modSmall(year, 100) != 0 || modSmall(year, 400) == 0)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year *big.Int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in month (1..12) of year.
func DaysInMonth(year *big.Int, month int) int {
	switch month {
	case 2:
		if IsLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// DaysFromCivil returns the number of days from 1970-01-01 to year-month-day.
// The computation splits the year into 400-year eras so that only the era
// count needs arbitrary precision.
func DaysFromCivil(year *big.Int, month, day int) *big.Int {
	y := new(big.Int).Set(year)
	if month <= 2 {
		y.Sub(y, bigOne)
	}
	era, yoeBig := new(big.Int), new(big.Int)
	era.DivMod(y, big400, yoeBig)
	yoe := yoeBig.Int64()

	mp := month - 3
	if month <= 2 {
		mp = month + 9
	}
	doy := int64((153*mp+2)/5 + day - 1)
	doe := yoe*365 + yoe/4 - yoe/100 + doy

	days := era.Mul(era, bigCycleDays)
	days.Add(days, big.NewInt(doe-epochShift))
	return days
}

// CivilFromDays is the inverse of DaysFromCivil.
func CivilFromDays(days *big.Int) (year *big.Int, month, day int) {
	z := new(big.Int).Add(days, bigEpoch)
	era, doeBig := new(big.Int), new(big.Int)
	era.DivMod(z, bigCycleDays, doeBig)
	doe := doeBig.Int64()

	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		month = int(mp + 3)
	} else {
		month = int(mp - 9)
	}

	year = era.Mul(era, big400)
	year.Add(year, big.NewInt(yoe))
	if month <= 2 {
		year.Add(year, bigOne)
	}
	return year, month, day
}

// modSmall returns the Euclidean remainder of x by a small positive m.
func modSmall(x *big.Int, m int64) int64 {
	return new(big.Int).Mod(x, big.NewInt(m)).Int64()
}
