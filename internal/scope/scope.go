// Package scope implements the layered, immutable key/value lookup used to
// resolve template placeholders.
//
// A Scope is an ordered list of tables searched most-recent-first. Layers are
// never mutated after construction: adding overrides always yields a new
// Scope that shares the older layers.
package scope

import (
	"fmt"
	"strings"
)

// ExtractKey is the sub-table describing values to extract from responses.
const ExtractKey = "_extract"

// Scope is a layered lookup table. The zero value is an empty scope.
type Scope struct {
	layers []Table
}

// New builds a scope from layers in priority order; later layers override
// earlier ones at the top level only.
func New(layers ...Table) Scope {
	s := Scope{}
	for _, l := range layers {
		if l != nil {
			s.layers = append(s.layers, l)
		}
	}
	return s
}

// With returns a new scope with layer stacked on top. The receiver is left
// untouched.
func (s Scope) With(layer Table) Scope {
	layers := make([]Table, 0, len(s.layers)+1)
	layers = append(layers, s.layers...)
	if layer != nil {
		layers = append(layers, layer)
	}
	return Scope{layers: layers}
}

// Get returns the raw value for key from the highest layer defining it.
func (s Scope) Get(key string) (any, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := s.layers[i][key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Extract returns the _extract table, if any.
func (s Scope) Extract() (any, bool) {
	return s.Get(ExtractKey)
}

// Kind classifies a lookup.
type Kind int

const (
	Resolved Kind = iota
	NotFound
	Ambiguous
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not found"
	case Ambiguous:
		return "ambiguous"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of resolving one key.
type Outcome struct {
	Kind Kind
	Key  string

	// Text is set for Resolved outcomes.
	Text string
	// Values holds every member of a resolved Selection.
	Values []string
	// Candidates is set for Ambiguous outcomes.
	Candidates []Candidate
	// Type names the offending Go type for Unsupported outcomes.
	Type string
}

// Lookup resolves key. Lookups are case-sensitive exact matches; sequences
// are reported as ambiguous rather than flattened.
func (s Scope) Lookup(key string) Outcome {
	v, ok := s.Get(key)
	if !ok {
		return Outcome{Kind: NotFound, Key: key}
	}
	switch val := v.(type) {
	case Selection:
		return Outcome{Kind: Resolved, Key: key, Text: joinSelection(val), Values: append([]string(nil), val...)}
	case []any:
		return Outcome{Kind: Ambiguous, Key: key, Candidates: Candidates(val)}
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return Outcome{Kind: Ambiguous, Key: key, Candidates: Candidates(items)}
	case Table:
		return Outcome{Kind: Unsupported, Key: key, Type: "table"}
	}
	if text, ok := Text(v); ok {
		return Outcome{Kind: Resolved, Key: key, Text: text}
	}
	return Outcome{Kind: Unsupported, Key: key, Type: fmt.Sprintf("%T", v)}
}

func joinSelection(values Selection) string {
	return strings.Join(values, ",")
}
