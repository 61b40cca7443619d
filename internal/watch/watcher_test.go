package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcherReportsTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "get.http")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, tracked, "GET http://localhost/\n")

	w, err := New([]string{tracked}, 10*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, other, "ignored")
	select {
	case p := <-w.Changes():
		t.Fatalf("unexpected change for %s", p)
	case <-time.After(100 * time.Millisecond):
	}

	writeFile(t, tracked, "GET http://localhost/2\n")
	select {
	case paths := <-w.Changes():
		assert.Equal(t, []string{tracked}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherBatchesBursts(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.http")
	b := filepath.Join(dir, "a.toml")
	writeFile(t, a, "GET http://localhost/\n")
	writeFile(t, b, "x = 1\n")

	w, err := New([]string{a, b}, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 3; i++ {
		writeFile(t, a, "GET http://localhost/burst\n")
		writeFile(t, b, "x = 2\n")
	}
	select {
	case paths := <-w.Changes():
		assert.Equal(t, []string{a, b}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case paths := <-w.Changes():
		t.Fatalf("burst reported twice: %v", paths)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherPauseIgnoresWrites(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "hitman.toml")
	writeFile(t, tracked, "a = 1\n")

	w, err := New([]string{tracked}, 10*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	w.Pause()
	writeFile(t, tracked, "a = 2\n")
	select {
	case <-w.Changes():
		t.Fatal("change reported while paused")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, w.Resume())
	writeFile(t, tracked, "a = 3\n")
	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported after resume")
	}
}

func TestLoopRunsOnChangeAndStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "get.http")
	writeFile(t, tracked, "GET http://localhost/\n")

	w, err := New([]string{tracked}, 10*time.Millisecond, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	runs := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Loop(ctx, w, zaptest.NewLogger(t), func(context.Context) error {
			runs <- struct{}{}
			return assert.AnError
		})
	}()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, tracked, "GET http://localhost/changed\n")
	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("run not triggered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "x.http")}, DefaultDebounce, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
