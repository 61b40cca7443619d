package scope

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Table is a single layer of structured values, as decoded from a TOML document.
type Table = map[string]any

// Selection is a set of values the user picked for one key. It resolves to all
// of its members instead of being treated as a list of candidates.
type Selection []string

// Text renders a scalar value in its canonical textual form. It reports false
// for everything that is not a string, integer, float or boolean.
func Text(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// display renders values that never substitute but still show up in
// pickers, like TOML dates.
func display(v any) (string, bool) {
	if s, ok := Text(v); ok {
		return s, true
	}
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339), true
	case fmt.Stringer:
		return val.String(), true
	}
	return "", false
}

// Format renders any structured value for display. Scalars use their
// canonical form, tables and arrays render inline in TOML notation with
// sorted keys.
func Format(v any) string {
	if s, ok := display(v); ok {
		return s
	}
	var b strings.Builder
	writeInline(&b, v)
	return b.String()
}

func writeInline(b *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		b.WriteString(strconv.Quote(val))
	case Table:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(" = ")
			writeInline(b, val[k])
		}
		b.WriteString(" }")
	case []any:
		b.WriteString("[")
		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeInline(b, item)
		}
		b.WriteString("]")
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		writeInline(b, items)
	case Selection:
		writeInline(b, []string(val))
	default:
		if s, ok := display(val); ok {
			b.WriteString(s)
			return
		}
		fmt.Fprintf(b, "%v", val)
	}
}

// Candidate is one of several values a key may resolve to.
type Candidate struct {
	// Name is what a picker displays.
	Name string
	// Value is the text substituted when the candidate is chosen.
	Value string
	// Raw is the original structured value.
	Raw any
}

// NewCandidate builds a candidate from a sequence element. Tables may carry
// optional name and value fields; missing fields default to the table's own
// textual form.
func NewCandidate(v any) Candidate {
	t, ok := v.(Table)
	if !ok {
		s := Format(v)
		return Candidate{Name: s, Value: s, Raw: v}
	}
	self := Format(t)
	c := Candidate{Name: self, Value: self, Raw: v}
	if n, ok := t["name"]; ok {
		c.Name = Format(n)
	}
	if val, ok := t["value"]; ok {
		c.Value = Format(val)
	}
	return c
}

// Candidates converts a sequence into candidates, preserving order.
func Candidates(items []any) []Candidate {
	out := make([]Candidate, len(items))
	for i, item := range items {
		out[i] = NewCandidate(item)
	}
	return out
}

// HasName reports whether the candidate came from a table with explicit
// name and value fields.
func (c Candidate) HasName() bool {
	t, ok := c.Raw.(Table)
	if !ok {
		return false
	}
	_, hasName := t["name"]
	_, hasValue := t["value"]
	return hasName && hasValue
}
