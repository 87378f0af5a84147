package calendar

import (
	"math/big"

	"github.com/teranos/chrono/timeline"
)

type inputKind int

const (
	inputNone inputKind = iota
	inputRaw
	inputValue
	inputYear
)

// Input is a date given either as a labelled string or as an already-encoded
// axis value. The zero Input is empty and normalizes to an error.
type Input struct {
	kind  inputKind
	raw   string
	value timeline.Value
	year  *big.Int
}

// Raw wraps a labelled or bare date string.
func Raw(s string) Input { return Input{kind: inputRaw, raw: s} }

// At wraps an encoded axis value.
func At(v timeline.Value) Input { return Input{kind: inputValue, value: v} }

// Year wraps a bare astronomical year.
func Year(y *big.Int) Input { return Input{kind: inputYear, year: new(big.Int).Set(y)} }

// YearInt is Year for small years.
func YearInt(y int64) Input { return Input{kind: inputYear, year: big.NewInt(y)} }

// IsRaw reports whether in carries an unparsed string.
func (in Input) IsRaw() bool { return in.kind == inputRaw }

// IsEmpty reports whether in is the zero Input.
func (in Input) IsEmpty() bool { return in.kind == inputNone }

func (in Input) String() string {
	switch in.kind {
	case inputRaw:
		return in.raw
	case inputValue:
		return in.value.String()
	case inputYear:
		return timeline.FormatYear(in.year)
	}
	return ""
}
