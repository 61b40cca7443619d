package template

import (
	"hitman/internal/request"
	"hitman/internal/substitute"
)

// Prepare substitutes the template and parses the result. Substitution
// errors are returned unwrapped so callers can resolve the failing key and
// call Prepare again.
func Prepare(src *Source, r substitute.Replacer) (*request.Request, error) {
	text, err := substitute.Substitute(src.HTTP, r)
	if err != nil {
		return nil, err
	}

	req, err := request.Parse(text)
	if err != nil {
		return nil, err
	}

	if src.IsGraphQL() {
		vars, err := resolveVariables(src.Variables, r)
		if err != nil {
			return nil, err
		}
		req.Body = request.GraphQL{Query: src.Query, Variables: vars}
	}
	return req, nil
}

// resolveVariables looks up each variable without a fallback. List-typed
// variables take every value when the replacer can supply several.
func resolveVariables(vars []Variable, r substitute.Replacer) (map[string]any, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(vars))
	for _, v := range vars {
		if lr, ok := r.(substitute.ListReplacer); ok && v.List {
			values, err := lr.FindReplacements(v.Name)
			if err != nil {
				return nil, err
			}
			out[v.Name] = values
			continue
		}

		value, err := r.FindReplacement(v.Name, nil)
		if err != nil {
			return nil, err
		}
		if v.List {
			out[v.Name] = []string{value}
		} else {
			out[v.Name] = value
		}
	}
	return out, nil
}
