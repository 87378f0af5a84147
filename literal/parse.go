// Package literal reads and writes the structured literals that make up a
// chronology file: strings, numbers, booleans, null, lists and mappings.
//
// The reader is deliberately small and never evaluates anything. It accepts
// both the JSON spellings and the Python ones people tend to type by hand
// (single-quoted strings, True, False, None, trailing commas). The writer
// always emits the JSON-compatible spelling.
//
// Decoded values have these Go types:
//
//	string, int64, float64, bool, nil, []any, *Map
package literal

import (
	"strconv"
	"strings"

	"github.com/teranos/chrono/errors"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 64

// Parse decodes exactly one literal from s. Trailing text other than
// whitespace is an error.
func Parse(s string) (any, error) {
	p := &parser{s: s}
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected %q after literal", p.rest(12))
	}
	return v, nil
}

// ParseMap decodes s and requires the result to be a mapping.
func ParseMap(s string) (*Map, error) {
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, errors.Newf("expected a mapping literal, got %s", TypeName(v))
	}
	return m, nil
}

// ParseOrRaw reads a scalar or list literal from s. Mappings and text that is
// not a literal come back as the raw string, so key=value command-line input
// stores the same value whichever front end wrote it.
func ParseOrRaw(s string) any {
	v, err := Parse(s)
	if err != nil {
		return s
	}
	if _, ok := v.(*Map); ok {
		return s
	}
	return v
}

type parser struct {
	s   string
	pos int
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, p.errorf("literal nested deeper than %d levels", maxDepth)
	}
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, p.errorf("unexpected end of input")
	}

	switch c := p.s[p.pos]; {
	case c == '{':
		return p.mapping(depth)
	case c == '[':
		return p.list(depth)
	case c == '"' || c == '\'':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	}

	word := p.word()
	switch word {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None":
		return nil, nil
	case "":
		return nil, p.errorf("unexpected %q", p.rest(12))
	}
	return nil, p.errorf("unknown name %q", word)
}

func (p *parser) mapping(depth int) (any, error) {
	p.pos++ // {
	m := NewMap()
	for {
		p.skipSpace()
		if p.accept('}') {
			return m, nil
		}
		key, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		k, ok := key.(string)
		if !ok {
			return nil, p.errorf("mapping keys must be strings, got %s", TypeName(key))
		}
		p.skipSpace()
		if !p.accept(':') {
			return nil, p.errorf("expected ':' after key %q", k)
		}
		val, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if _, dup := m.Get(k); dup {
			return nil, p.errorf("duplicate key %q", k)
		}
		m.Set(k, val)

		p.skipSpace()
		if p.accept(',') {
			continue
		}
		if p.accept('}') {
			return m, nil
		}
		return nil, p.errorf("expected ',' or '}' in mapping")
	}
}

func (p *parser) list(depth int) (any, error) {
	p.pos++ // [
	out := []any{}
	for {
		p.skipSpace()
		if p.accept(']') {
			return out, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		if p.accept(',') {
			continue
		}
		if p.accept(']') {
			return out, nil
		}
		return nil, p.errorf("expected ',' or ']' in list")
	}
}

// str reads a single- or double-quoted string. Escapes follow Go's rules,
// which cover everything the writer emits plus \' inside single quotes.
func (p *parser) str() (any, error) {
	start := p.pos
	quote := p.s[p.pos]
	p.pos++

	var b strings.Builder
	b.WriteByte('"')
	for {
		if p.pos >= len(p.s) {
			p.pos = start
			return nil, p.errorf("unterminated string")
		}
		c := p.s[p.pos]
		switch {
		case c == quote:
			p.pos++
			b.WriteByte('"')
			s, err := strconv.Unquote(b.String())
			if err != nil {
				p.pos = start
				return nil, p.errorf("bad string escape: %v", err)
			}
			return s, nil
		case c == '\\':
			if p.pos+1 >= len(p.s) {
				p.pos = start
				return nil, p.errorf("unterminated string")
			}
			next := p.s[p.pos+1]
			if next == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			p.pos += 2
		case c == '"':
			b.WriteString(`\"`)
			p.pos++
		case c == '\n':
			p.pos = start
			return nil, p.errorf("newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) number() (any, error) {
	start := p.pos
	if p.s[p.pos] == '-' || p.s[p.pos] == '+' {
		p.pos++
	}
	isFloat := false
scan:
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c >= '0' && c <= '9', c == '_':
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
		case (c == '-' || c == '+') && (p.s[p.pos-1] == 'e' || p.s[p.pos-1] == 'E'):
		default:
			break scan
		}
		p.pos++
	}
	text := strings.ReplaceAll(p.s[start:p.pos], "_", "")
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("bad number %q", text)
	}
	return f, nil
}

func (p *parser) word() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_') {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) accept(b byte) bool {
	if p.pos < len(p.s) && p.s[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) rest(n int) string {
	r := p.s[p.pos:]
	if len(r) > n {
		r = r[:n] + "..."
	}
	return r
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.Wrapf(errors.Newf(format, args...), "literal offset %d", p.pos)
}

// TypeName names the literal type of v for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case []any:
		return "list"
	case *Map:
		return "mapping"
	}
	return "unknown"
}
