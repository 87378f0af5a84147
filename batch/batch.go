// Package batch applies line-oriented command scripts to a chronology.
//
//	add <CATEGORY> <name> <begin> [end] [key=value ...]
//	update <CATEGORY> <name> <begin> [end] [key=value ...]
//	remove <CATEGORY> <name>
//	relabel <calendar name>
//	order <CATEGORY> <name> ...
//	comment <text>
//
// Arguments are split with shell quoting rules. Blank lines and lines
// starting with # are skipped. The key "text" sets the record's TEXT; other
// values are read as literals when they parse and as plain strings otherwise.
// A script runs against a copy of the chronology and only a fully successful
// run produces a result.
package batch

import (
	"bufio"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/chrono/calendar"
	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/literal"
	"github.com/teranos/chrono/logger"
)

// Verbs understood by Apply.
const (
	VerbAdd     = "add"
	VerbUpdate  = "update"
	VerbRemove  = "remove"
	VerbRelabel = "relabel"
	VerbOrder   = "order"
	VerbComment = "comment"
)

// Command is one parsed script line.
type Command struct {
	Line int
	Verb string
	Args []string
}

// Result summarizes a successful run.
type Result struct {
	Applied int
	Added   int
	Updated int
	Removed int
}

// Parse splits a script into commands without running them.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shellquote.Split(line)
		if err != nil {
			return nil, errors.WithDetailf(
				errors.NewConfigurationError("line %d: %v", n, err), "line: %s", line)
		}
		verb := strings.ToLower(words[0])
		if err := checkArity(verb, words[1:]); err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		cmds = append(cmds, Command{Line: n, Verb: verb, Args: words[1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	return cmds, nil
}

func checkArity(verb string, args []string) error {
	var min int
	var usage string
	switch verb {
	case VerbAdd, VerbUpdate:
		min, usage = 3, verb+" <CATEGORY> <name> <begin> [end] [key=value ...]"
	case VerbRemove:
		min, usage = 2, "remove <CATEGORY> <name>"
	case VerbRelabel:
		min, usage = 1, "relabel <calendar name>"
	case VerbOrder:
		min, usage = 1, "order <CATEGORY> <name> ..."
	case VerbComment:
		min, usage = 1, "comment <text>"
	default:
		return errors.WithHint(
			errors.NewConfigurationError("unknown command %q", verb),
			"commands: add, update, remove, relabel, order, comment")
	}
	if len(args) < min {
		return errors.WithHintf(errors.NewConfigurationError("%s needs at least %d arguments", verb, min), "usage: %s", usage)
	}
	if verb == VerbRemove && len(args) > 2 {
		return errors.WithHint(errors.NewConfigurationError("remove takes exactly 2 arguments"), "quote names that contain spaces")
	}
	return nil
}

// Runner applies scripts.
type Runner struct {
	logger *zap.SugaredLogger
}

// NewRunner creates a runner. A nil log uses the "batch" component logger.
func NewRunner(log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = logger.ComponentLogger("batch")
	}
	return &Runner{logger: log}
}

// Apply runs cmds against a copy of c and returns the copy. c itself is never
// modified; on error the copy is discarded.
func (r *Runner) Apply(c *chronology.Chronology, cmds []Command) (*chronology.Chronology, Result, error) {
	work := c.Clone()
	var res Result
	for _, cmd := range cmds {
		if err := r.run(work, cmd, &res); err != nil {
			r.logger.Warnw("Batch aborted",
				logger.FieldChronology, c.Name(),
				logger.FieldLine, cmd.Line,
				logger.FieldError, err)
			return nil, Result{}, errors.Wrapf(err, "line %d (%s)", cmd.Line, cmd.Verb)
		}
		res.Applied++
	}
	r.logger.Infow("Batch applied",
		logger.FieldChronology, c.Name(),
		logger.FieldCount, res.Applied,
		"added", res.Added,
		"updated", res.Updated,
		"removed", res.Removed)
	return work, res, nil
}

// ApplyScript parses and applies a script in one step.
func (r *Runner) ApplyScript(c *chronology.Chronology, script io.Reader) (*chronology.Chronology, Result, error) {
	cmds, err := Parse(script)
	if err != nil {
		return nil, Result{}, err
	}
	return r.Apply(c, cmds)
}

func (r *Runner) run(c *chronology.Chronology, cmd Command, res *Result) error {
	switch cmd.Verb {
	case VerbAdd, VerbUpdate:
		cat, err := chronology.ParseCategory(cmd.Args[0])
		if err != nil {
			return err
		}
		f, err := fields(cmd.Args[2:])
		if err != nil {
			return err
		}
		if cmd.Verb == VerbAdd {
			_, err = c.AddRecord(cat, cmd.Args[1], f)
			res.Added++
		} else {
			_, err = c.UpdateRecord(cat, cmd.Args[1], f)
			res.Updated++
		}
		return err

	case VerbRemove:
		cat, err := chronology.ParseCategory(cmd.Args[0])
		if err != nil {
			return err
		}
		res.Removed++
		return c.RemoveRecord(cat, cmd.Args[1])

	case VerbRelabel:
		return c.RelabelTo(strings.Join(cmd.Args, " "))

	case VerbOrder:
		cat, err := chronology.ParseCategory(cmd.Args[0])
		if err != nil {
			return err
		}
		return c.SetOrder(cat, cmd.Args[1:])

	case VerbComment:
		c.AddComment(strings.Join(cmd.Args, " "))
		return nil
	}
	return errors.NewConfigurationError("unknown command %q", cmd.Verb)
}

// fields reads "<begin> [end] [key=value ...]".
func fields(args []string) (chronology.Fields, error) {
	f := chronology.Fields{Begin: calendar.Raw(args[0])}
	rest := args[1:]
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		f.End = calendar.Raw(rest[0])
		rest = rest[1:]
	}
	for _, kv := range rest {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return f, errors.WithHint(
				errors.NewConfigurationError("expected key=value, got %q", kv),
				"the optional end date must come before any key=value pairs")
		}
		if strings.EqualFold(key, "text") {
			f.Text = value
			continue
		}
		if f.Annotations == nil {
			f.Annotations = make(map[string]any)
		}
		f.Annotations[key] = literal.ParseOrRaw(value)
	}
	return f, nil
}
