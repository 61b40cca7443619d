package template

import (
	"os"
	"path/filepath"
	"testing"

	"hitman/internal/request"
	"hitman/internal/scope"
	"hitman/internal/substitute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAndPrepareHTTP(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "get.http")
	writeFile(t, path, "GET {{url}}/items/{{id | 7}}\nAccept: application/json\n")

	src, err := Load(path)
	require.NoError(t, err)
	assert.False(t, src.IsGraphQL())

	replacer := substitute.ScopeReplacer{
		Scope: scope.New(scope.Table{"url": "https://example.com", "id": 7}),
	}
	req, err := Prepare(src, replacer)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/items/7", req.URL.String())
	assert.Nil(t, req.Body)
}

func TestPrepareReportsMissingKey(t *testing.T) {
	src := &Source{Path: "x.http", TemplatePath: "x.http", HTTP: "GET {{url}}\n"}

	_, err := Prepare(src, substitute.ScopeReplacer{})
	var nf *substitute.ValueNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "url", nf.Key)
}

func TestGraphQLSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, GraphQLWrapper), "POST {{api}}/graphql\nContent-Type: application/json\n")
	doc := filepath.Join(dir, "queries", "users", "find.gql")
	writeFile(t, doc, "query Find($id: ID!, $tags: [String!]) { user(id: $id, tags: $tags) { name } }\n")

	src, err := Load(doc)
	require.NoError(t, err)
	assert.True(t, src.IsGraphQL())
	assert.Equal(t, filepath.Join(dir, GraphQLWrapper), src.TemplatePath)
	assert.Equal(t, []Variable{{Name: "id"}, {Name: "tags", List: true}}, src.Variables)

	sc := scope.New(scope.Table{
		"api":  "https://example.com",
		"id":   int64(5),
		"tags": []any{"a", "b"},
	})

	_, err = Prepare(src, substitute.ScopeReplacer{Scope: sc})
	var mv *substitute.MultipleValuesFoundError
	require.ErrorAs(t, err, &mv)
	assert.True(t, mv.List)

	sc = sc.With(scope.Table{"tags": scope.Selection{"a", "b"}})
	req, err := Prepare(src, substitute.ScopeReplacer{Scope: sc})
	require.NoError(t, err)

	body, ok := req.Body.(request.GraphQL)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": "5", "tags": []string{"a", "b"}}, body.Variables)
	assert.Contains(t, body.Query, "query Find")
}

func TestGraphQLWithoutVariables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, GraphQLWrapper), "POST https://example.com/graphql\n")
	doc := filepath.Join(dir, "me.graphql")
	writeFile(t, doc, "{ me { id } }")

	src, err := Load(doc)
	require.NoError(t, err)

	req, err := Prepare(src, substitute.ScopeReplacer{})
	require.NoError(t, err)
	assert.Equal(t, request.GraphQL{Query: "{ me { id } }"}, req.Body)
}

func TestMissingWrapper(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "q.gql")
	writeFile(t, doc, "{ me }")

	_, err := Load(doc)
	assert.ErrorIs(t, err, ErrNoWrapper)
}

func TestParseVariablesRejectsInvalid(t *testing.T) {
	_, err := ParseVariables("query {")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "a/b.toml", ScopePath("a/b.http"))
	assert.Equal(t, "a/b.toml", ScopePath("a/b.gql"))
	assert.True(t, IsRequestFile("x.HTTP"))
	assert.True(t, IsRequestFile("x.graphql"))
	assert.False(t, IsRequestFile("dir/_graphql.http"))
	assert.False(t, IsRequestFile("x.toml"))
}
