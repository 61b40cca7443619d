package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAssignsIDAndTime(t *testing.T) {
	s := openStore(t)
	e, err := s.Record(context.Background(), Entry{
		Target: "default", File: "get.http", Method: "GET", URL: "http://localhost/", Status: 200,
		Elapsed: 120 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Time.IsZero())

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, 200, got[0].Status)
	assert.Equal(t, 120*time.Millisecond, got[0].Elapsed)
	assert.True(t, got[0].OK())
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	s := openStore(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, file := range []string{"a.http", "b.http", "c.http"} {
		_, err := s.Record(context.Background(), Entry{
			Time: base.Add(time.Duration(i) * time.Minute), Target: "default", File: file,
			Method: "GET", URL: "http://localhost/" + file,
		})
		require.NoError(t, err)
	}

	got, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c.http", got[0].File)
	assert.Equal(t, "b.http", got[1].File)
}

func TestRecordError(t *testing.T) {
	s := openStore(t)
	_, err := s.Record(context.Background(), Entry{
		Target: "prod", File: "x.http", Method: "POST", URL: "http://invalid/", Error: "connection refused",
	})
	require.NoError(t, err)

	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].OK())
	assert.Equal(t, "connection refused", got[0].Error)
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		_, err := s.Record(context.Background(), Entry{
			Time: base.Add(time.Duration(i) * time.Second), Target: "t", File: "f.http", Method: "GET", URL: "u",
		})
		require.NoError(t, err)
	}

	n, err := s.Prune(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
