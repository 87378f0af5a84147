package literal

import (
	"math"
	"strconv"
	"strings"

	"github.com/teranos/chrono/errors"
)

// Encode writes v on a single line in the spacing used by chronology files:
//
//	{ "EVENTS" : { "Creation" : { "BEGIN" : "4004 BC" } } }
//
// Accepted types are those Parse produces plus int and []string.
func Encode(v any) (string, error) {
	var b strings.Builder
	if err := encode(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// MustEncode is Encode for values built entirely from literal types.
func MustEncode(v any) string {
	s, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return s
}

func encode(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(x))
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return errors.Newf("cannot encode %v as a literal", x)
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return encode(b, items)
	case []any:
		if len(x) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[ ")
		for i, item := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := encode(b, item); err != nil {
				return err
			}
		}
		b.WriteString(" ]")
	case *Map:
		if x.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{ ")
		for i, k := range x.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(" : ")
			val, _ := x.Get(k)
			if err := encode(b, val); err != nil {
				return err
			}
		}
		b.WriteString(" }")
	default:
		return errors.Newf("cannot encode %T as a literal", v)
	}
	return nil
}
