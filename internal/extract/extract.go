// Package extract captures values from JSON responses into the data file,
// as described by the _extract table of the scope.
//
//	[_extract]
//	token = "$.auth.token"
//	users = { list = "$.users", value = "$.id", name = "$.login" }
//
// Paths are JSONPath-like ("$.a.b[0]") or plain jq expressions.
package extract

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"hitman/internal/output"
	"hitman/internal/scope"

	"github.com/itchyny/gojq"
	"go.uber.org/zap"
)

// ErrInvalidSection is returned when _extract is not a table.
var ErrInvalidSection = errors.New("invalid " + scope.ExtractKey + " section")

// Extract evaluates the _extract rules of sc against data, a decoded JSON
// document. Rules that match nothing are skipped.
func Extract(data any, sc scope.Scope, logger *zap.Logger) (scope.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	raw, ok := sc.Extract()
	if !ok {
		return nil, nil
	}
	rules, ok := raw.(scope.Table)
	if !ok {
		return nil, ErrInvalidSection
	}

	out := make(scope.Table)
	for key, rule := range rules {
		switch r := rule.(type) {
		case string:
			v, found, err := First(r, data)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", scope.ExtractKey, key, err)
			}
			s, isScalar := scope.Text(v)
			if !found || !isScalar {
				continue
			}
			out[key] = v
			logger.Warn(output.Truncate(fmt.Sprintf("# Got '%s' = '%s'", key, s)))

		case scope.Table:
			items, err := extractList(r, data)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", scope.ExtractKey, key, err)
			}
			if items == nil {
				continue
			}
			out[key] = items
			logger.Warn(output.Truncate(fmt.Sprintf("# Got '%s' with %d elements", key, len(items))))

		default:
			return nil, fmt.Errorf("%s.%s: expected a path or a table", scope.ExtractKey, key)
		}
	}
	return out, nil
}

// extractList builds the candidate list for a { list, value, name } rule.
func extractList(rule scope.Table, data any) ([]any, error) {
	listPath, err := field(rule, "list")
	if err != nil {
		return nil, err
	}
	valuePath, err := field(rule, "value")
	if err != nil {
		return nil, err
	}
	namePath, err := field(rule, "name")
	if err != nil {
		return nil, err
	}

	list, found, err := First(listPath, data)
	if err != nil || !found {
		return nil, err
	}
	elems, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("%s does not select a list", listPath)
	}

	items := make([]any, 0, len(elems))
	for _, elem := range elems {
		value, _, err := First(valuePath, elem)
		if err != nil {
			return nil, err
		}
		name, _, err := First(namePath, elem)
		if err != nil {
			return nil, err
		}
		item := scope.Table{}
		if value != nil {
			item["value"] = value
		}
		if name != nil {
			item["name"] = name
		}
		items = append(items, item)
	}
	return items, nil
}

func field(rule scope.Table, name string) (string, error) {
	s, ok := rule[name].(string)
	if !ok {
		return "", fmt.Errorf("missing %q path", name)
	}
	return s, nil
}

// First runs path against data and returns its first non-null result.
func First(path string, data any) (any, bool, error) {
	query, err := gojq.Parse(ToJQ(path))
	if err != nil {
		return nil, false, fmt.Errorf("parse %q: %w", path, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, false, fmt.Errorf("compile %q: %w", path, err)
	}

	iter := code.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil, false, nil
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("evaluate %q: %w", path, err)
		}
		if v != nil {
			return normalize(v), true, nil
		}
	}
}

// ToJQ converts a JSONPath-like expression to jq. Anything not starting
// with '$' is taken as jq already.
func ToJQ(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return path
	}
	rest := path[1:]
	switch {
	case rest == "":
		return "."
	case strings.HasPrefix(rest, "["):
		return "." + rest
	default:
		return rest
	}
}

// normalize turns whole floats into integers so they are stored as TOML
// integers.
func normalize(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
	case int:
		return int64(n)
	}
	return v
}
