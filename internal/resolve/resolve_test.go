package resolve

import (
	"context"
	"errors"
	"testing"

	"hitman/internal/interaction"
	"hitman/internal/request"
	"hitman/internal/scope"
	"hitman/internal/substitute"
	"hitman/internal/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPort answers every question from a table and records the keys
// it was asked for.
type recordingPort struct {
	values     map[string]string
	selections map[string][]string
	asked      []string
}

func (p *recordingPort) RequestValue(_ context.Context, key string, fallback *string) (string, error) {
	p.asked = append(p.asked, key)
	if v, ok := p.values[key]; ok {
		return v, nil
	}
	if fallback != nil {
		return *fallback, nil
	}
	return "", interaction.ErrCanceled
}

func (p *recordingPort) RequestSelection(_ context.Context, key string, candidates []scope.Candidate) (string, error) {
	p.asked = append(p.asked, key)
	return candidates[len(candidates)-1].Value, nil
}

func (p *recordingPort) RequestSelections(_ context.Context, key string, _ []scope.Candidate) ([]string, error) {
	p.asked = append(p.asked, key)
	return p.selections[key], nil
}

func httpSource(text string) *template.Source {
	return &template.Source{Path: "req.http", TemplatePath: "req.http", HTTP: text}
}

func baseScope() scope.Scope {
	return scope.New(scope.Table{
		"url":   "https://example.com",
		"tools": []any{scope.Table{"name": "A", "value": "a"}, scope.Table{"name": "B", "value": "b"}},
		"deep":  scope.Table{"x": int64(1)},
	})
}

func TestResolveSingleMissingKeyConvergesInOneRetry(t *testing.T) {
	port := &recordingPort{values: map[string]string{"id": "42"}}
	r := New(baseScope(), port, nil)

	req, overrides, err := r.Resolve(context.Background(), httpSource("GET {{url}}/items/{{id}}?again={{id}}\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/items/42?again=42", req.URL.String())
	assert.Equal(t, []string{"id"}, port.asked)
	assert.Equal(t, Overrides{{Key: "id", Value: "42"}}, overrides)
}

func TestResolveAsksOncePerKey(t *testing.T) {
	port := &recordingPort{values: map[string]string{"a": "1", "b": "2"}}
	r := New(baseScope(), port, nil)

	req, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{a}}/{{b}}/{{tools}}\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1/2/b", req.URL.String())
	assert.Equal(t, []string{"a", "b", "tools"}, port.asked)
}

func TestResolveInitialOverridesWin(t *testing.T) {
	port := &recordingPort{}
	r := New(baseScope(), port, nil)

	req, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}\n"), Overrides{{Key: "url", Value: "http://localhost:8080"}})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", req.URL.String())
	assert.Empty(t, port.asked)
	assert.Equal(t, "https://example.com", func() string { v, _ := r.Base().Get("url"); return v.(string) }())
}

func TestResolveBatchFallback(t *testing.T) {
	r := New(baseScope(), interaction.Batch{}, nil)

	req, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{page | 1}}\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1", req.URL.String())
}

func TestResolveBatchAmbiguousFails(t *testing.T) {
	r := New(baseScope(), interaction.Batch{}, nil)

	_, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{tools}}\n"), nil)
	var mv *substitute.MultipleValuesFoundError
	require.ErrorAs(t, err, &mv)
	assert.Equal(t, "tools", mv.Key)

	var ns *interaction.ReplacementNotSelectedError
	require.ErrorAs(t, err, &ns)
	assert.Contains(t, err.Error(), "tools=a => A")
}

func TestResolveBatchMissingFails(t *testing.T) {
	r := New(baseScope(), interaction.Batch{}, nil)

	_, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{id}}\n"), nil)
	var nf *interaction.ReplacementNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolveCancelPropagates(t *testing.T) {
	r := New(baseScope(), &recordingPort{}, nil)

	_, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{id}}\n"), nil)
	assert.ErrorIs(t, err, interaction.ErrCanceled)
}

func TestResolveHardErrors(t *testing.T) {
	r := New(baseScope(), &recordingPort{}, nil)

	_, _, err := r.Resolve(context.Background(), httpSource("GET {{url}}/{{deep}}\n"), nil)
	var ts *substitute.TypeNotSupportedError
	assert.ErrorAs(t, err, &ts)

	_, _, err = r.Resolve(context.Background(), httpSource("GET {{url\n"), nil)
	var uo *substitute.UnmatchedOpenError
	assert.ErrorAs(t, err, &uo)

	_, _, err = r.Resolve(context.Background(), httpSource("nonsense\n"), nil)
	assert.ErrorIs(t, err, request.ErrMissingURL)
}

func TestResolveListVariable(t *testing.T) {
	src := &template.Source{
		Path:         "q.gql",
		TemplatePath: "_graphql.http",
		HTTP:         "POST {{url}}/graphql\n",
		Query:        "query($ids: [ID]) { a }",
		Variables:    []template.Variable{{Name: "tools", List: true}},
	}
	port := &recordingPort{selections: map[string][]string{"tools": {"a", "b"}}}

	req, overrides, err := New(baseScope(), port, nil).Resolve(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, scope.Selection{"a", "b"}, overrides[0].Value)
	assert.Equal(t, map[string]any{"tools": []string{"a", "b"}}, req.Body.(request.GraphQL).Variables)
}

func TestSuspendCarriesOverrides(t *testing.T) {
	r := New(baseScope(), Suspend{}, nil)
	src := httpSource("GET {{url}}/{{a}}/{{tools}}\n")

	_, _, err := r.Resolve(context.Background(), src, nil)
	var s *Suspension
	require.ErrorAs(t, err, &s)
	assert.Equal(t, "a", s.Key)
	assert.False(t, s.IsSelection())
	assert.Empty(t, s.Overrides)

	_, _, err = r.Resolve(context.Background(), src, s.Answer("x"))
	require.ErrorAs(t, err, &s)
	assert.Equal(t, "tools", s.Key)
	assert.True(t, s.IsSelection())
	assert.Len(t, s.Candidates, 2)
	assert.Equal(t, Overrides{{Key: "a", Value: "x"}}, s.Overrides)

	req, _, err := r.Resolve(context.Background(), src, s.Answer("b"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x/b", req.URL.String())
}

func TestOverridesWithDoesNotAlias(t *testing.T) {
	base := make(Overrides, 1, 4)
	base[0] = Override{Key: "a", Value: "1"}
	x := base.With("b", "2")
	y := base.With("c", "3")
	assert.Equal(t, "b", x[1].Key)
	assert.Equal(t, "c", y[1].Key)
	assert.Nil(t, Overrides(nil).Layer())
	assert.Equal(t, scope.Table{"a": "2"}, Overrides{{"a", "1"}, {"a", "2"}}.Layer())
}

func TestQuestionFor(t *testing.T) {
	_, ok := QuestionFor(errors.New("boom"))
	assert.False(t, ok)

	q, ok := QuestionFor(&substitute.MultipleValuesFoundError{Key: "k"})
	require.True(t, ok)
	assert.True(t, q.IsSelection())
}
