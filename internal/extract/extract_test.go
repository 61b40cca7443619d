package extract

import (
	"encoding/json"
	"testing"

	"hitman/internal/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const body = `{
	"auth": {"token": "abc123", "expires": 3600},
	"users": [
		{"id": 1, "login": "alice"},
		{"id": 2, "login": "bob"}
	],
	"empty": null
}`

func decode(t *testing.T) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestExtract(t *testing.T) {
	sc := scope.New(scope.Table{
		scope.ExtractKey: scope.Table{
			"token":   "$.auth.token",
			"expires": ".auth.expires",
			"missing": "$.nope",
			"nothing": "$.empty",
			"users":   scope.Table{"list": "$.users", "value": "$.id", "name": "$.login"},
		},
	})

	core, logs := observer.New(zap.InfoLevel)
	vars, err := Extract(decode(t), sc, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, scope.Table{
		"token":   "abc123",
		"expires": int64(3600),
		"users": []any{
			scope.Table{"value": int64(1), "name": "alice"},
			scope.Table{"value": int64(2), "name": "bob"},
		},
	}, vars)

	assert.Equal(t, 1, logs.FilterMessage("# Got 'token' = 'abc123'").Len())
	assert.Equal(t, 1, logs.FilterMessage("# Got 'users' with 2 elements").Len())
}

func TestExtractedListResolvesAsCandidates(t *testing.T) {
	sc := scope.New(scope.Table{
		scope.ExtractKey: scope.Table{
			"user": scope.Table{"list": "$.users", "value": "$.id", "name": "$.login"},
		},
	})
	vars, err := Extract(decode(t), sc, nil)
	require.NoError(t, err)

	out := scope.New(vars).Lookup("user")
	require.Equal(t, scope.Ambiguous, out.Kind)
	assert.Equal(t, "alice", out.Candidates[0].Name)
	assert.Equal(t, "1", out.Candidates[0].Value)
}

func TestExtractWithoutRules(t *testing.T) {
	vars, err := Extract(decode(t), scope.New(scope.Table{"a": "b"}), nil)
	require.NoError(t, err)
	assert.Nil(t, vars)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules any
	}{
		{"section not a table", "oops"},
		{"bad rule type", scope.Table{"x": int64(1)}},
		{"bad path", scope.Table{"x": "$.["}},
		{"list without name", scope.Table{"x": scope.Table{"list": "$.users", "value": "$.id"}}},
		{"list not a list", scope.Table{"x": scope.Table{"list": "$.auth", "value": "$.id", "name": "$.id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(decode(t), scope.New(scope.Table{scope.ExtractKey: tt.rules}), nil)
			assert.Error(t, err)
		})
	}

	_, err := Extract(decode(t), scope.New(scope.Table{scope.ExtractKey: "x"}), nil)
	assert.ErrorIs(t, err, ErrInvalidSection)
}

func TestToJQ(t *testing.T) {
	assert.Equal(t, ".", ToJQ("$"))
	assert.Equal(t, ".a.b", ToJQ("$.a.b"))
	assert.Equal(t, ".[0].id", ToJQ("$[0].id"))
	assert.Equal(t, ".users | length", ToJQ(".users | length"))
}

func TestFirst(t *testing.T) {
	v, found, err := First("$.users[1].login", decode(t))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bob", v)

	v, found, err = First(".users | length", decode(t))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), v)
}
