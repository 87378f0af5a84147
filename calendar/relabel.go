package calendar

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// Relabeler rewrites stored date strings from one calendar to another
// without moving them on the axis.
type Relabeler struct {
	logger *zap.SugaredLogger
}

// NewRelabeler returns a Relabeler that reports no-ops and conversions on
// log. A nil log falls back to the package component logger.
func NewRelabeler(log *zap.SugaredLogger) *Relabeler {
	if log == nil {
		log = logger.ComponentLogger("calendar")
	}
	return &Relabeler{logger: log}
}

// Relabel converts one stored date string from calendar from to calendar to.
//
// Relabelling to a calendar of the same name returns the input unchanged.
// Between two suffix-style calendars with the same anchor the trailing label
// is swapped and the date portion is kept character for character, so
// sub-day precision and the author's formatting survive. Every other pair is
// routed through the axis: encode under from, render under to.
func (r *Relabeler) Relabel(stored string, from, to Definition) (string, error) {
	if from.Name() == to.Name() {
		r.logger.Infow("Calendar unchanged, nothing to relabel",
			logger.FieldCalendar, from.Name(),
			logger.FieldDate, stored)
		return stored, nil
	}
	if strings.TrimSpace(stored) == "" {
		return "", nil
	}

	src := NewCodec(from)
	v, err := src.Encode(stored)
	if err != nil {
		return "", errors.Wrapf(err, "relabel %q from %s to %s", stored, from.Name(), to.Name())
	}

	if from.IsSuffixStyle() && to.IsSuffixStyle() && from.SameAnchor(to) {
		trimmed := strings.TrimSpace(stored)
		era, bare := from.MatchLabel(trimmed)
		if era == EraNone {
			// Unlabelled dates are raw axis values in both calendars.
			return stored, nil
		}
		return bare + to.Label(era), nil
	}

	return NewCodec(to).Render(v, v.Unit()), nil
}

// RelabelAll converts every date in dates or none of them. The returned slice
// is parallel to dates; the input is never modified.
func (r *Relabeler) RelabelAll(dates []string, from, to Definition) ([]string, error) {
	out := make([]string, len(dates))
	var failures []error
	for i, d := range dates {
		converted, err := r.Relabel(d, from, to)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		out[i] = converted
	}
	if len(failures) > 0 {
		err := errors.Wrapf(failures[0], "%d of %d dates cannot move from %s to %s",
			len(failures), len(dates), from.Name(), to.Name())
		for _, extra := range failures[1:] {
			err = errors.WithSecondaryError(err, extra)
		}
		return nil, err
	}
	return out, nil
}
