// Package calendar maps human-entered, label-suffixed date strings such as
// "4004 BC", "1970 CE" or "3200 BP" onto the timeline axis and back, and
// rewrites stored date strings when a chronology changes calendar.
//
// A Definition describes one labelling convention. A Codec encodes and
// decodes dates under one Definition. A Relabeler moves stored strings from
// one Definition to another. A Registry is an explicit, caller-owned table of
// named definitions; there is no process-wide calendar state.
package calendar

import (
	"fmt"
	"strings"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/internal/validation"
)

// Era is the side of the epoch a date string's label places it on.
type Era int

const (
	EraNone     Era = iota // no label matched; the date is a raw axis value
	EraPositive            // positive-era label (AD, CE, AP)
	EraNegative            // negative-era label (BC, BCE, BP)
)

func (e Era) String() string {
	switch e {
	case EraPositive:
		return "positive"
	case EraNegative:
		return "negative"
	}
	return "none"
}

// Definition is an immutable description of one calendar's labelling
// convention. Construct with NewDefinition.
type Definition struct {
	name           string
	positiveLabel  string
	negativeLabel  string
	zeroYearOffset int64
	usesYearZero   bool
}

// NewDefinition validates and builds a calendar definition.
//
// Labels are appended verbatim to dates, so a leading space is part of the
// label (" AD"). Both labels empty declares an unlabelled calendar whose only
// negativity marker is a leading '-'. Labels must differ, must not be
// whitespace-only or end in a digit, and either both or neither may be empty.
func NewDefinition(name, positiveLabel, negativeLabel string, zeroYearOffset int64, usesYearZero bool) (Definition, error) {
	d := Definition{
		name:           strings.TrimSpace(name),
		positiveLabel:  positiveLabel,
		negativeLabel:  negativeLabel,
		zeroYearOffset: zeroYearOffset,
		usesYearZero:   usesYearZero,
	}
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// MustDefinition is NewDefinition for static tables; it panics on error.
func MustDefinition(name, positiveLabel, negativeLabel string, zeroYearOffset int64, usesYearZero bool) Definition {
	d, err := NewDefinition(name, positiveLabel, negativeLabel, zeroYearOffset, usesYearZero)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Definition) validate() error {
	if d.name == "" {
		return errors.NewConfigurationError("calendar name cannot be empty")
	}
	if d.positiveLabel != "" && d.positiveLabel == d.negativeLabel {
		return errors.WithHint(
			errors.NewConfigurationError("calendar %q uses %q as both positive and negative label", d.name, d.positiveLabel),
			"era labels must differ so a date's side of the epoch can be read from its suffix")
	}
	if (d.positiveLabel == "") != (d.negativeLabel == "") {
		return errors.WithHint(
			errors.NewConfigurationError("calendar %q has only one era label (positive %q, negative %q)", d.name, d.positiveLabel, d.negativeLabel),
			"set both labels, or neither for an unlabelled calendar")
	}
	for _, label := range []string{d.positiveLabel, d.negativeLabel} {
		if !validation.EraLabelOK(label) {
			return errors.NewConfigurationError("calendar %q label %q is indistinguishable from a bare date", d.name, label)
		}
	}
	return nil
}

// Name returns the calendar's identifier.
func (d Definition) Name() string { return d.name }

// PositiveLabel returns the positive-era suffix (may be empty).
func (d Definition) PositiveLabel() string { return d.positiveLabel }

// NegativeLabel returns the negative-era suffix (may be empty).
func (d Definition) NegativeLabel() string { return d.negativeLabel }

// ZeroYearOffset returns the axis year that calendar year 0 maps to.
func (d Definition) ZeroYearOffset() int64 { return d.zeroYearOffset }

// UsesYearZero reports whether year 0 is directly addressable.
func (d Definition) UsesYearZero() bool { return d.usesYearZero }

// IsZero reports whether d is the zero Definition (never constructed).
func (d Definition) IsZero() bool { return d.name == "" }

// IsSuffixStyle reports whether both era labels are non-empty.
func (d Definition) IsSuffixStyle() bool {
	return d.positiveLabel != "" && d.negativeLabel != ""
}

// Equal compares every field, not just the name.
func (d Definition) Equal(o Definition) bool {
	return d == o
}

// SameAnchor reports whether d and o place calendar years on the axis the same
// way, so that swapping labels preserves the axis position.
func (d Definition) SameAnchor(o Definition) bool {
	return d.zeroYearOffset == o.zeroYearOffset && d.usesYearZero == o.usesYearZero
}

// Label returns the suffix for era.
func (d Definition) Label(era Era) string {
	switch era {
	case EraPositive:
		return d.positiveLabel
	case EraNegative:
		return d.negativeLabel
	}
	return ""
}

// MatchLabel determines which era label terminates date and returns the date
// with that label removed. When both labels match (one is a suffix of the
// other, as with " CE" inside " BCE") the longer one wins. Empty labels never
// match.
func (d Definition) MatchLabel(date string) (Era, string) {
	era, label := EraNone, ""
	if d.negativeLabel != "" && strings.HasSuffix(date, d.negativeLabel) {
		era, label = EraNegative, d.negativeLabel
	}
	if d.positiveLabel != "" && strings.HasSuffix(date, d.positiveLabel) && len(d.positiveLabel) > len(label) {
		era, label = EraPositive, d.positiveLabel
	}
	return era, strings.TrimSuffix(date, label)
}

func (d Definition) String() string {
	return fmt.Sprintf("%s (positive %q, negative %q, offset %d, year zero %t)",
		d.name, d.positiveLabel, d.negativeLabel, d.zeroYearOffset, d.usesYearZero)
}
