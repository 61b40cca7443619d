// Package template loads request sources from disk and prepares them into
// requests.
//
// A .http file is a template for the whole request. A .gql or .graphql file
// holds a GraphQL document that is sent through the nearest _graphql.http
// wrapper found in its directory or any parent.
package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// GraphQLWrapper is the template file used for GraphQL documents.
const GraphQLWrapper = "_graphql.http"

// ErrNoWrapper is returned when no _graphql.http exists above a document.
var ErrNoWrapper = errors.New("couldn't find " + GraphQLWrapper)

// Variable is an operation variable of a GraphQL document.
type Variable struct {
	Name string
	List bool
}

// Source is a loaded request source.
type Source struct {
	// Path is the file the user asked for.
	Path string
	// TemplatePath is the .http file used as the request template.
	TemplatePath string
	// HTTP is the template text.
	HTTP string
	// Query is the GraphQL document, empty for plain requests.
	Query     string
	Variables []Variable
}

// IsGraphQL reports whether the source sends a GraphQL document.
func (s *Source) IsGraphQL() bool {
	return IsGraphQLFile(s.Path)
}

// IsGraphQLFile reports whether path names a GraphQL document.
func IsGraphQLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".gql" || ext == ".graphql"
}

// IsRequestFile reports whether path names something Load can open.
func IsRequestFile(path string) bool {
	if filepath.Base(path) == GraphQLWrapper {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".http") || IsGraphQLFile(path)
}

// ScopePath returns the per-request scope file for path.
func ScopePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".toml"
}

// Load reads the source at path.
func Load(path string) (*Source, error) {
	src := &Source{Path: path, TemplatePath: path}

	if IsGraphQLFile(path) {
		wrapper, err := FindWrapper(path)
		if err != nil {
			return nil, err
		}
		src.TemplatePath = wrapper

		doc, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read graphql document: %w", err)
		}
		src.Query = string(doc)
		if src.Variables, err = ParseVariables(src.Query); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	data, err := os.ReadFile(src.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	src.HTTP = string(data)
	return src, nil
}

// FindWrapper walks up from the directory of path looking for _graphql.http.
func FindWrapper(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, GraphQLWrapper)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWrapper
		}
		dir = parent
	}
}

// ParseVariables lists the operation variables declared in a GraphQL
// document, in declaration order and without duplicates.
func ParseVariables(query string) ([]Variable, error) {
	doc, perr := parser.ParseQuery(&ast.Source{Input: query})
	if perr != nil {
		return nil, fmt.Errorf("parse graphql: %w", perr)
	}

	var vars []Variable
	seen := make(map[string]bool)
	for _, op := range doc.Operations {
		for _, def := range op.VariableDefinitions {
			if seen[def.Variable] {
				continue
			}
			seen[def.Variable] = true
			vars = append(vars, Variable{Name: def.Variable, List: def.Type != nil && def.Type.Elem != nil})
		}
	}
	return vars, nil
}
