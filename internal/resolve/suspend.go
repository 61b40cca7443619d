package resolve

import (
	"context"
	"fmt"

	"hitman/internal/scope"
)

// Suspension is returned by the Suspend port instead of an answer. It
// carries the pending question and the overrides gathered before it, so the
// caller can ask the user and resolve again later.
type Suspension struct {
	Question
	Overrides Overrides
}

func (s *Suspension) Error() string {
	return fmt.Sprintf("waiting for a value for %s", s.Key)
}

// Answer returns the overrides to resolve with once the user answered.
func (s *Suspension) Answer(value any) Overrides {
	return s.Overrides.With(s.Key, value)
}

// Suspend is a port that never blocks. Every question is turned into a
// Suspension.
type Suspend struct{}

func (Suspend) RequestValue(_ context.Context, key string, fallback *string) (string, error) {
	return "", &Suspension{Question: Question{Key: key, Fallback: fallback}}
}

func (Suspend) RequestSelection(_ context.Context, key string, candidates []scope.Candidate) (string, error) {
	return "", &Suspension{Question: Question{Key: key, Candidates: candidates}}
}

func (Suspend) RequestSelections(_ context.Context, key string, candidates []scope.Candidate) ([]string, error) {
	return nil, &Suspension{Question: Question{Key: key, Candidates: candidates, List: true}}
}
