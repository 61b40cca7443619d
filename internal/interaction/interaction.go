// Package interaction defines how missing or ambiguous placeholder values
// are obtained from the user.
//
// A Port is asked one question at a time. The batch adapter never asks and
// only applies fallbacks; the terminal adapter blocks on an inline prompt.
// The TUI answers asynchronously through resolve.Suspension instead.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hitman/internal/scope"
)

// ErrCanceled is returned when the user dismisses a prompt.
var ErrCanceled = errors.New("canceled by user")

// maxSuggestions bounds the candidate preview in error messages.
const maxSuggestions = 10

// Port obtains replacement values.
type Port interface {
	// RequestValue asks for a free-form value for key.
	RequestValue(ctx context.Context, key string, fallback *string) (string, error)
	// RequestSelection asks for one of candidates and returns its value.
	RequestSelection(ctx context.Context, key string, candidates []scope.Candidate) (string, error)
}

// MultiSelector is implemented by ports that can pick several candidates
// for list-typed values.
type MultiSelector interface {
	RequestSelections(ctx context.Context, key string, candidates []scope.Candidate) ([]string, error)
}

// ReplacementNotFoundError reports a missing value with no fallback in
// batch mode.
type ReplacementNotFoundError struct {
	Key string
}

func (e *ReplacementNotFoundError) Error() string {
	return "replacement not found: " + e.Key
}

// ReplacementNotSelectedError reports an ambiguous value in batch mode.
type ReplacementNotSelectedError struct {
	Key         string
	Suggestions string
}

func (e *ReplacementNotSelectedError) Error() string {
	if e.Suggestions == "" {
		return "replacement not selected: " + e.Key
	}
	return fmt.Sprintf("replacement not selected: %s\nSuggestions:\n%s", e.Key, e.Suggestions)
}

// Suggestions renders up to ten named candidates as "key=value => name",
// one per line, so the user can pass one of them on the command line.
func Suggestions(key string, candidates []scope.Candidate) string {
	var lines []string
	for i, c := range candidates {
		if i == maxSuggestions {
			break
		}
		if c.HasName() {
			lines = append(lines, fmt.Sprintf("%s=%s => %s", key, c.Value, c.Name))
		}
	}
	return strings.Join(lines, "\n")
}

// Batch never prompts.
type Batch struct{}

// RequestValue returns the fallback when there is one.
func (Batch) RequestValue(_ context.Context, key string, fallback *string) (string, error) {
	if fallback != nil {
		return *fallback, nil
	}
	return "", &ReplacementNotFoundError{Key: key}
}

// RequestSelection always fails; an ambiguous key is never resolved by
// picking the first candidate.
func (Batch) RequestSelection(_ context.Context, key string, candidates []scope.Candidate) (string, error) {
	return "", &ReplacementNotSelectedError{Key: key, Suggestions: Suggestions(key, candidates)}
}

// RequestSelections always fails.
func (b Batch) RequestSelections(ctx context.Context, key string, candidates []scope.Candidate) ([]string, error) {
	_, err := b.RequestSelection(ctx, key, candidates)
	return nil, err
}
