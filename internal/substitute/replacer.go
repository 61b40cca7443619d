package substitute

import "hitman/internal/scope"

// ScopeReplacer resolves placeholders against a scope. Missing keys always
// report ValueNotFound, with the fallback attached; whether a fallback is
// acceptable is decided by the caller.
type ScopeReplacer struct {
	Scope scope.Scope
}

// FindReplacement implements Replacer.
func (r ScopeReplacer) FindReplacement(key string, fallback *string) (string, error) {
	out := r.Scope.Lookup(key)
	switch out.Kind {
	case scope.Resolved:
		return out.Text, nil
	case scope.NotFound:
		return "", &ValueNotFoundError{Key: key, Fallback: fallback}
	case scope.Ambiguous:
		return "", &MultipleValuesFoundError{Key: key, Candidates: out.Candidates}
	default:
		return "", &TypeNotSupportedError{Key: key, Type: out.Type}
	}
}

// ListReplacer is implemented by replacers that can supply several values
// for one key, as needed by list-typed GraphQL variables.
type ListReplacer interface {
	Replacer
	FindReplacements(key string) ([]string, error)
}

// FindReplacements implements ListReplacer. A scalar yields one value and a
// selection yields all of its values; a sequence is reported as ambiguous
// with List set so the caller may offer a multi-selection.
func (r ScopeReplacer) FindReplacements(key string) ([]string, error) {
	out := r.Scope.Lookup(key)
	switch out.Kind {
	case scope.Resolved:
		if out.Values != nil {
			return out.Values, nil
		}
		return []string{out.Text}, nil
	case scope.NotFound:
		return nil, &ValueNotFoundError{Key: key}
	case scope.Ambiguous:
		return nil, &MultipleValuesFoundError{Key: key, Candidates: out.Candidates, List: true}
	default:
		return nil, &TypeNotSupportedError{Key: key, Type: out.Type}
	}
}
