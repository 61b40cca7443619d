package substitute

import (
	"fmt"

	"hitman/internal/scope"
)

// UnmatchedOpenError reports a "{{" without a closing "}}" on the same line.
type UnmatchedOpenError struct {
	Line int
	Text string
}

func (e *UnmatchedOpenError) Error() string {
	return fmt.Sprintf("syntax error on line %d: unmatched '{{' in %q", e.Line, e.Text)
}

// UnmatchedCloseError reports a stray "}}".
type UnmatchedCloseError struct {
	Line int
	Text string
}

func (e *UnmatchedCloseError) Error() string {
	return fmt.Sprintf("syntax error on line %d: unmatched '}}' in %q", e.Line, e.Text)
}

// ValueNotFoundError reports a key absent from the scope. Fallback is the
// literal after '|' in the placeholder, nil when there was none.
type ValueNotFoundError struct {
	Key      string
	Fallback *string
}

func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("missing substitution value for %s", e.Key)
}

// MultipleValuesFoundError reports a key bound to a sequence.
type MultipleValuesFoundError struct {
	Key        string
	Candidates []scope.Candidate
	// List is set when the placeholder accepts several values at once.
	List bool
}

func (e *MultipleValuesFoundError) Error() string {
	return fmt.Sprintf("found multiple possible substitutions for %s", e.Key)
}

// TypeNotSupportedError reports a key bound to a nested structure.
type TypeNotSupportedError struct {
	Key  string
	Type string
}

func (e *TypeNotSupportedError) Error() string {
	return fmt.Sprintf("type not supported for %s: %s", e.Key, e.Type)
}

// RecursionError reports nested placeholders that never bottom out.
type RecursionError struct {
	Key   string
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("nested substitution of %s exceeds depth %d", e.Key, e.Depth)
}
