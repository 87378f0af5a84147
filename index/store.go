package index

import (
	"context"
	"database/sql"
	"math"
	"math/big"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
	"github.com/teranos/chrono/timeline"
)

// Store reads and writes the index tables.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("index")
	}
	return &Store{db: db, logger: log}
}

// Summary describes one indexed chronology.
type Summary struct {
	ID          string
	Name        string
	DisplayName string
	Calendar    string
	Version     string
	Path        string
	Records     int
}

// Hit is one indexed record. Begin and End are the stored strings in the
// record's own calendar.
type Hit struct {
	Chronology string
	Calendar   string
	Path       string
	Category   chronology.Category
	Name       string
	Begin      string
	End        string
	Text       string
	BeginAt    timeline.Value
	EndAt      timeline.Value
}

// Reindex replaces everything indexed for c's file with c's current records
// and returns the number of records written. c must have a path.
func (s *Store) Reindex(ctx context.Context, c *chronology.Chronology) (int, error) {
	if c.Path() == "" {
		return 0, errors.NewConfigurationError("chronology %q has no file path to index under", c.Name())
	}
	entries, err := c.AllRecords()
	if err != nil {
		return 0, errors.Wrapf(err, "index %s", c.Path())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(markClosed(err), "begin reindex")
	}
	defer tx.Rollback()

	id := c.ID().String()
	if err := deleteChronology(ctx, tx, c.Path(), id); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chronologies (id, name, display_name, calendar, version, path) VALUES (?, ?, ?, ?, ?, ?)`,
		id, c.Name(), c.DisplayName(), c.Calendar().Name(), c.Version().String(), c.Path()); err != nil {
		return 0, errors.Wrapf(err, "insert chronology %q", c.Name())
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (
		chronology_id, category, name, position, begin_text, end_text, text,
		begin_days, begin_nanos, begin_unit, begin_key,
		end_days, end_nanos, end_unit, end_key
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare record insert")
	}
	defer stmt.Close()

	for i, e := range entries {
		endDays, endNanos, endUnit, endKey := nullableAxis(e.EndAt)
		if _, err := stmt.ExecContext(ctx,
			id, string(e.Category), e.Name, i, e.Begin, e.End, e.Text,
			e.BeginAt.Days().String(), e.BeginAt.Nanos(), e.BeginAt.Unit().String(), e.BeginAt.ApproxDays(),
			endDays, endNanos, endUnit, endKey); err != nil {
			return 0, errors.Wrapf(err, "insert %s %q", e.Category, e.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit reindex")
	}
	s.logger.Infow("Chronology indexed",
		logger.FieldChronology, c.Name(),
		logger.FieldPath, c.Path(),
		logger.FieldCount, len(entries))
	return len(entries), nil
}

// Remove drops the chronology indexed under path. Unknown paths are ignored.
func (s *Store) Remove(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(markClosed(err), "begin remove")
	}
	defer tx.Rollback()
	if err := deleteChronology(ctx, tx, path, ""); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit remove")
}

// deleteChronology removes the rows of the chronology at path or with id.
// Records are deleted explicitly because foreign_keys is a per-connection
// pragma.
func deleteChronology(ctx context.Context, tx *sql.Tx, path, id string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE chronology_id IN (SELECT id FROM chronologies WHERE path = ? OR id = ?)`,
		path, id); err != nil {
		return errors.Wrapf(err, "delete records of %s", path)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chronologies WHERE path = ? OR id = ?`, path, id); err != nil {
		return errors.Wrapf(err, "delete chronology %s", path)
	}
	return nil
}

// Chronologies lists the indexed chronologies by name.
func (s *Store) Chronologies(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.display_name, c.calendar, c.version, c.path, COUNT(r.name)
		FROM chronologies c LEFT JOIN records r ON r.chronology_id = c.id
		GROUP BY c.id
		ORDER BY c.name, c.path`)
	if err != nil {
		return nil, errors.Wrap(markClosed(err), "list chronologies")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.DisplayName, &sum.Calendar, &sum.Version, &sum.Path, &sum.Records); err != nil {
			return nil, errors.Wrap(err, "scan chronology")
		}
		out = append(out, sum)
	}
	return out, errors.Wrap(rows.Err(), "iterate chronologies")
}

// Between returns every indexed record whose span [begin, end] overlaps
// [from, to], ordered by begin. A record without an end is a single point.
func (s *Store) Between(ctx context.Context, from, to timeline.Value) ([]Hit, error) {
	if from.IsAbsent() || to.IsAbsent() {
		return nil, errors.NewInvalidDateError("range bounds must both be set")
	}
	if from.Cmp(to) > 0 {
		return nil, errors.NewInvalidDateError("range starts (%s) after it ends (%s)", from, to)
	}

	lo, hi := from.ApproxDays(), to.ApproxDays()
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.calendar, c.path, r.category, r.name, r.begin_text, r.end_text, r.text,
		       r.begin_days, r.begin_nanos, r.begin_unit, r.end_days, r.end_nanos, r.end_unit
		FROM records r JOIN chronologies c ON c.id = r.chronology_id
		WHERE r.begin_key <= ? AND COALESCE(r.end_key, r.begin_key) >= ?
		ORDER BY r.begin_key, c.name, r.position`,
		hi+keyMargin(hi), lo-keyMargin(lo))
	if err != nil {
		return nil, errors.Wrap(markClosed(err), "query range")
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var (
			h                    Hit
			category             string
			beginDays, beginUnit string
			beginNanos           int64
			endDays, endUnit     sql.NullString
			endNanos             sql.NullInt64
		)
		if err := rows.Scan(&h.Chronology, &h.Calendar, &h.Path, &category, &h.Name, &h.Begin, &h.End, &h.Text,
			&beginDays, &beginNanos, &beginUnit, &endDays, &endNanos, &endUnit); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		h.Category = chronology.Category(category)
		if h.BeginAt, err = axisFromColumns(beginDays, beginNanos, beginUnit); err != nil {
			return nil, errors.Wrapf(err, "record %q", h.Name)
		}
		if endDays.Valid {
			if h.EndAt, err = axisFromColumns(endDays.String, endNanos.Int64, endUnit.String); err != nil {
				return nil, errors.Wrapf(err, "record %q", h.Name)
			}
		}

		last := h.EndAt
		if last.IsAbsent() {
			last = h.BeginAt
		}
		if h.BeginAt.Cmp(to) <= 0 && last.Cmp(from) >= 0 {
			out = append(out, h)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate records")
	}

	// float keys only approximate the order for very distant dates
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BeginAt.Cmp(out[j].BeginAt) < 0
	})
	return out, nil
}

// keyMargin widens float range bounds past their rounding error.
func keyMargin(x float64) float64 {
	return 1 + math.Abs(x)*1e-12
}

func nullableAxis(v timeline.Value) (any, any, any, any) {
	if v.IsAbsent() {
		return nil, nil, nil, nil
	}
	return v.Days().String(), v.Nanos(), v.Unit().String(), v.ApproxDays()
}

func axisFromColumns(days string, nanos int64, unit string) (timeline.Value, error) {
	d, ok := new(big.Int).SetString(days, 10)
	if !ok {
		return timeline.Absent, errors.Newf("corrupt day count %q", days)
	}
	u, err := timeline.ParseUnit(unit)
	if err != nil {
		return timeline.Absent, err
	}
	return timeline.FromDays(d, nanos, u), nil
}
