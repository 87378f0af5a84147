package chronology

import (
	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// Relabel moves every stored date to calendar to. Either every date converts
// and the chronology switches calendar, or nothing changes.
func (c *Chronology) Relabel(to calendar.Definition) error {
	if c.cal.Name() == to.Name() {
		c.logger.Infow("Chronology already uses calendar, nothing to relabel", logger.FieldCalendar, to.Name())
		return nil
	}

	type ref struct {
		rec *Record
		end bool
	}
	var (
		refs  []ref
		dates []string
	)
	for _, cat := range Categories {
		for _, r := range c.categories[cat].ordered() {
			refs = append(refs, ref{rec: r})
			dates = append(dates, r.Begin)
			if r.End != "" {
				refs = append(refs, ref{rec: r, end: true})
				dates = append(dates, r.End)
			}
		}
	}

	relabeler := calendar.NewRelabeler(c.logger.Named("relabel"))
	converted, err := relabeler.RelabelAll(dates, c.cal, to)
	if err != nil {
		return errors.Wrapf(err, "relabel chronology %q", c.name)
	}

	for i, ref := range refs {
		if ref.end {
			ref.rec.End = converted[i]
		} else {
			ref.rec.Begin = converted[i]
		}
	}
	from := c.cal.Name()
	c.setCalendar(to)

	c.logger.Infow("Chronology relabelled",
		logger.FieldFrom, from,
		logger.FieldTo, to.Name(),
		logger.FieldCount, len(dates))
	return nil
}

// RelabelTo resolves name in the chronology's registry and relabels to it.
func (c *Chronology) RelabelTo(name string) error {
	to, err := c.registry.Lookup(name)
	if err != nil {
		return err
	}
	return c.Relabel(to)
}
