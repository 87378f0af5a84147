package timeline

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/chrono/errors"
)

func year(n int64) *big.Int { return big.NewInt(n) }

func TestDaysFromCivil_KnownDates(t *testing.T) {
	tests := []struct {
		name     string
		y        int64
		m, d     int
		wantDays int64
	}{
		{"unix epoch", 1970, 1, 1, 0},
		{"day after epoch", 1970, 1, 2, 1},
		{"y2k", 2000, 1, 1, 10957},
		{"leap march 2000", 2000, 3, 1, 11017},
		{"year zero", 0, 1, 1, -719528},
		{"last day of 1 BC", 0, 12, 31, -719163},
		{"first day of 1 AD", 1, 1, 1, -719162},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysFromCivil(year(tt.y), tt.m, tt.d)
			assert.Equal(t, tt.wantDays, got.Int64())

			y, m, d := CivilFromDays(got)
			assert.Equal(t, tt.y, y.Int64())
			assert.Equal(t, tt.m, m)
			assert.Equal(t, tt.d, d)
		})
	}
}

func TestCivilRoundTrip(t *testing.T) {
	for n := int64(-3_000_000); n <= 3_000_000; n += 997 {
		days := big.NewInt(n)
		y, m, d := CivilFromDays(days)
		require.Equal(t, n, DaysFromCivil(y, m, d).Int64(), "day %d -> %s-%d-%d", n, y, m, d)
	}
}

func TestCivilRoundTrip_HugeYears(t *testing.T) {
	huge, ok := new(big.Int).SetString("1000000000000000000000000000000", 10)
	require.True(t, ok)

	for _, y := range []*big.Int{huge, new(big.Int).Neg(huge)} {
		days := DaysFromCivil(y, 7, 14)
		gotYear, m, d := CivilFromDays(days)
		assert.Equal(t, 0, y.Cmp(gotYear))
		assert.Equal(t, 7, m)
		assert.Equal(t, 14, d)
	}
}

func TestDaysInYear(t *testing.T) {
	tests := []struct {
		year int64
		want int
	}{
		{-4, 366},
		{-3, 365},
		{0, 366},
		{100, 365},
		{400, 366},
		{-100, 365},
		{-400, 366},
		{1900, 365},
		{2000, 366},
		{2024, 366},
		{-4003, 365},
		{-4004, 366},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInYear(year(tt.year)), "year %d", tt.year)
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(year(-4), 2))
	assert.Equal(t, 28, DaysInMonth(year(-3), 2))
	assert.Equal(t, 30, DaysInMonth(year(2024), 4))
	assert.Equal(t, 31, DaysInMonth(year(2024), 12))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantUnit Unit
		wantOut  string
	}{
		{"2024", UnitYear, "2024"},
		{"44", UnitYear, "0044"},
		{"-4004", UnitYear, "-4004"},
		{"+1970", UnitYear, "1970"},
		{"2024-05", UnitMonth, "2024-05"},
		{"2024-02-29", UnitDay, "2024-02-29"},
		{"-4000-02-01", UnitDay, "-4000-02-01"},
		{"2024-05-01T10", UnitHour, "2024-05-01T10"},
		{"2024-05-01 10:30", UnitMinute, "2024-05-01T10:30"},
		{"2024-05-01T10:30:15Z", UnitSecond, "2024-05-01T10:30:15"},
		{"2024-05-01T10:30:15.25", UnitMillisecond, "2024-05-01T10:30:15.250"},
		{"2024-05-01T10:30:15.123456", UnitMicrosecond, "2024-05-01T10:30:15.123456"},
		{"2024-05-01T10:30:15.123456789", UnitNanosecond, "2024-05-01T10:30:15.123456789"},
		{"  1066-10-14  ", UnitDay, "1066-10-14"},
		{"123456789012", UnitYear, "123456789012"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, v.Unit())
			assert.Equal(t, tt.wantOut, v.String())
		})
	}
}

func TestParseResolved_ValidatesInResolvedYear(t *testing.T) {
	// year N written -> axis year -(N-1)
	bc := func(y *big.Int) *big.Int { return new(big.Int).Sub(big.NewInt(1), y) }

	v, err := ParseResolved("5-02-29", bc)
	require.NoError(t, err)
	assert.Equal(t, "-0004-02-29", v.String())

	_, err = ParseResolved("4-02-29", bc)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDate(err))

	v, err = ParseResolved("2024-02-29", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v.String())
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"-",
		"2023-02-29",
		"2024-13",
		"2024-5",
		"2024-05-01T25",
		"2024-05-01T10:61",
		"2024-05-01T10:30:15.",
		"2024-05-01X",
		"1970 AD",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidDate(err))
		})
	}
}

func TestYearOf(t *testing.T) {
	y, err := YearOf("-0004-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(-4), y.Int64())

	_, err = YearOf("not a date")
	assert.Error(t, err)
}

func TestFormat_Precision(t *testing.T) {
	v, err := Parse("2024-05-01T10:30")
	require.NoError(t, err)

	assert.Equal(t, "2024", Format(v, UnitYear))
	assert.Equal(t, "2024-05-01", Format(v, UnitDay))
	assert.Equal(t, "2024-05-01T10:30:00", Format(v, UnitSecond))
	assert.Equal(t, "2024-05-01T10:30:00.000", Format(v, UnitMillisecond))
	assert.Equal(t, "", Format(Absent, UnitDay))
}

func TestAddNanos_Carries(t *testing.T) {
	v := FromDays(big.NewInt(0), -1, UnitNanosecond)
	assert.Equal(t, int64(-1), v.Days().Int64())
	assert.Equal(t, NanosPerDay-1, v.Nanos())

	w := v.AddNanos(1)
	assert.Equal(t, int64(0), w.Days().Int64())
	assert.Equal(t, int64(0), w.Nanos())

	x := FromDays(big.NewInt(0), 3*NanosPerDay+5, UnitNanosecond)
	assert.Equal(t, int64(3), x.Days().Int64())
	assert.Equal(t, int64(5), x.Nanos())
}

func TestSub(t *testing.T) {
	span := YearStart(year(-4002)).Sub(YearStart(year(-4003)))
	days, ok := span.WholeDays()
	require.True(t, ok)
	assert.Equal(t, int64(365), days)

	a, _ := Parse("2024-01-01T12")
	b, _ := Parse("2024-01-01")
	half := a.Sub(b)
	_, ok = half.WholeDays()
	assert.False(t, ok)
	assert.Equal(t, NanosPerDay/2, half.Nanos)

	back := b.Sub(a)
	assert.Equal(t, int64(-1), back.Days.Int64())
	assert.Equal(t, NanosPerDay/2, back.Nanos)
}

func TestCmp(t *testing.T) {
	early, _ := Parse("-4004")
	late, _ := Parse("2024-05-01")
	sameDayCoarse, _ := Parse("2024-05-01T00:00")

	assert.Equal(t, -1, early.Cmp(late))
	assert.Equal(t, 1, late.Cmp(early))
	assert.True(t, late.Equal(sameDayCoarse))
	assert.Equal(t, -1, Absent.Cmp(early))
	assert.Equal(t, 1, early.Cmp(Absent))
	assert.Equal(t, 0, Absent.Cmp(Value{}))
}

func TestAbsent(t *testing.T) {
	assert.True(t, Absent.IsAbsent())
	assert.Nil(t, Absent.Days())
	assert.Nil(t, Absent.Year())
	assert.True(t, Absent.AddDays(3).IsAbsent())
	assert.Equal(t, 0.0, Absent.ApproxDays())
}

func TestApproxDays(t *testing.T) {
	v, _ := Parse("1970-01-02T12")
	assert.InDelta(t, 1.5, v.ApproxDays(), 1e-9)
}

func TestTextMarshalling(t *testing.T) {
	v, _ := Parse("-0044-03-15")
	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "-0044-03-15", string(text))

	var back Value
	require.NoError(t, back.UnmarshalText(text))
	assert.True(t, v.Equal(back))
	assert.Equal(t, UnitDay, back.Unit())

	var empty Value
	require.NoError(t, empty.UnmarshalText(nil))
	assert.True(t, empty.IsAbsent())
}

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"Y": UnitYear, "M": UnitMonth, "D": UnitDay, "m": UnitMinute,
		"ms": UnitMillisecond, "day": UnitDay, "Seconds": UnitSecond, "": UnitDay,
	}
	for in, want := range tests {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseUnit("fortnight")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}
