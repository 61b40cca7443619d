// Package resolve drives the substitution engine to completion by asking an
// interaction port for every value the scope cannot supply.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"hitman/internal/interaction"
	"hitman/internal/request"
	"hitman/internal/scope"
	"hitman/internal/substitute"
	"hitman/internal/template"

	"go.uber.org/zap"
)

// Override is a value supplied on the command line or by the user. Value is
// a string or a scope.Selection.
type Override struct {
	Key   string
	Value any
}

// Overrides are applied in order; a later entry for the same key wins.
type Overrides []Override

// With returns a copy of o with one more override.
func (o Overrides) With(key string, value any) Overrides {
	out := make(Overrides, len(o), len(o)+1)
	copy(out, o)
	return append(out, Override{Key: key, Value: value})
}

// Layer builds the scope layer holding the overrides.
func (o Overrides) Layer() scope.Table {
	if len(o) == 0 {
		return nil
	}
	t := make(scope.Table, len(o))
	for _, ov := range o {
		t[ov.Key] = ov.Value
	}
	return t
}

// Question is a value the scope could not supply.
type Question struct {
	Key      string
	Fallback *string
	// Candidates is set when the key is ambiguous.
	Candidates []scope.Candidate
	// List is set for list-typed values that accept several candidates.
	List bool
}

// IsSelection reports whether the question is answered by picking a
// candidate.
func (q Question) IsSelection() bool { return q.Candidates != nil }

// QuestionFor converts a recoverable substitution error into a question.
func QuestionFor(err error) (Question, bool) {
	var nf *substitute.ValueNotFoundError
	if errors.As(err, &nf) {
		return Question{Key: nf.Key, Fallback: nf.Fallback}, true
	}
	var mv *substitute.MultipleValuesFoundError
	if errors.As(err, &mv) {
		candidates := mv.Candidates
		if candidates == nil {
			candidates = []scope.Candidate{}
		}
		return Question{Key: mv.Key, Candidates: candidates, List: mv.List}, true
	}
	return Question{}, false
}

// UnresolvedError is returned when the port could not answer a question.
// It matches both the port's error and the substitution error that raised
// the question.
type UnresolvedError struct {
	Question
	Err   error
	Cause error
}

func (e *UnresolvedError) Error() string { return e.Err.Error() }

func (e *UnresolvedError) Unwrap() []error { return []error{e.Err, e.Cause} }

// Resolver resolves request sources against a base scope.
type Resolver struct {
	base   scope.Scope
	port   interaction.Port
	logger *zap.Logger
}

// New creates a resolver. A nil logger discards output.
func New(base scope.Scope, port interaction.Port, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{base: base, port: port, logger: logger}
}

// Base returns the scope the resolver starts from.
func (r *Resolver) Base() scope.Scope { return r.base }

// Resolve substitutes src against the base scope plus overrides, asking the
// port for one value per round until the request is complete. It returns
// the overrides accumulated so far, also on failure.
func (r *Resolver) Resolve(ctx context.Context, src *template.Source, overrides Overrides) (*request.Request, Overrides, error) {
	asked := make(map[string]bool)
	for {
		sc := r.base.With(overrides.Layer())
		req, err := template.Prepare(src, substitute.ScopeReplacer{Scope: sc})
		if err == nil {
			return req, overrides, nil
		}

		q, ok := QuestionFor(err)
		if !ok {
			return nil, overrides, err
		}
		if asked[q.Key] {
			return nil, overrides, fmt.Errorf("value for %s did not resolve", q.Key)
		}
		asked[q.Key] = true

		r.logger.Debug("asking for value",
			zap.String("key", q.Key),
			zap.Bool("selection", q.IsSelection()),
			zap.Int("round", len(asked)))

		answer, askErr := Ask(ctx, r.port, q)
		if askErr != nil {
			var s *Suspension
			if errors.As(askErr, &s) {
				s.Overrides = overrides
				return nil, overrides, s
			}
			return nil, overrides, &UnresolvedError{Question: q, Err: askErr, Cause: err}
		}
		overrides = overrides.With(q.Key, answer)
	}
}

// Ask puts q to port. The answer is a string, or a scope.Selection when
// several candidates were picked.
func Ask(ctx context.Context, port interaction.Port, q Question) (any, error) {
	if !q.IsSelection() {
		return port.RequestValue(ctx, q.Key, q.Fallback)
	}
	if ms, ok := port.(interaction.MultiSelector); ok && q.List {
		values, err := ms.RequestSelections(ctx, q.Key, q.Candidates)
		if err != nil {
			return nil, err
		}
		return scope.Selection(values), nil
	}
	return port.RequestSelection(ctx, q.Key, q.Candidates)
}
