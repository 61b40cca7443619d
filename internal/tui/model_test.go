package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hitman/internal/config"
	"hitman/internal/env"
	"hitman/internal/transport"
	"hitman/internal/widget"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// chroma's regexp2 engine keeps a package-level clock goroutine alive
	// once glamour highlights a body.
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/dlclark/regexp2.runClock"))
}

type fixture struct {
	root   string
	srv    *httptest.Server
	client *transport.Client

	mu    sync.Mutex
	names []string
}

func (f *fixture) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir()}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-r.Context().Done()
			return
		}
		f.mu.Lock()
		f.names = append(f.names, r.URL.Query().Get("name"))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	f.client = transport.New(transport.Options{})
	t.Cleanup(func() {
		f.client.CloseIdleConnections()
		f.srv.Close()
	})

	write := func(name, content string) {
		path := filepath.Join(f.root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write(env.ConfigFile, fmt.Sprintf(`
[default]
url = %q
users = [
  { name = "Alice", value = "alice" },
  { name = "Bob", value = "bob" },
]

[staging]
url = "http://staging.invalid"
`, f.srv.URL))
	write("ask.http", "GET {{url}}/ask?name={{name}}\n")
	write("get.http", "GET {{url}}/get\n")
	write("pick.http", "GET {{url}}/pick?name={{users}}\n")
	write("slow.http", "GET {{url}}/slow\n")
	return f
}

func newModel(t *testing.T, f *fixture) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Editor = ""
	m, err := New(context.Background(), Options{
		Root:   f.root,
		Config: cfg,
		Client: f.client,
		Styles: widget.NewStyles(widget.DarkTheme()),
		Now:    func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(m.Wait)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func keys(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func selectRequest(t *testing.T, m Model, name string) Model {
	t.Helper()
	require.True(t, m.requests.TrySelect(name))
	return m
}

// waitIdle polls the running task the way the tick chain does.
func waitIdle(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.State() == StateRunning {
		require.True(t, time.Now().Before(deadline), "request did not finish")
		time.Sleep(5 * time.Millisecond)
		m = update(t, m, tickMsg{id: m.tickID})
	}
	return m
}

var (
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	esc       = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlS     = tea.KeyMsg{Type: tea.KeyCtrlS}
	ctrlLeft  = tea.KeyMsg{Type: tea.KeyCtrlLeft}
	ctrlRight = tea.KeyMsg{Type: tea.KeyCtrlRight}
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	down      = tea.KeyMsg{Type: tea.KeyDown}
)

func TestNewListsRequests(t *testing.T) {
	m := newModel(t, newFixture(t))

	var names []string
	for _, item := range m.requests.Items() {
		names = append(names, item.Text)
	}
	assert.Equal(t, []string{"ask.http", "get.http", "pick.http", "slow.http"}, names)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, env.DefaultTarget, m.Target())
	assert.NotEmpty(t, m.View())
}

func TestSendResolvedRequest(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = selectRequest(t, m, "get.http")

	m = update(t, m, enter)
	require.Equal(t, StateRunning, m.State())
	assert.Contains(t, m.View(), "Running")

	m = waitIdle(t, m)
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.Err())
	assert.Contains(t, m.output.View(), "200 OK")
}

func TestPendingValueThenRun(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)
	m = selectRequest(t, m, "ask.http")

	m = update(t, m, enter)
	require.Equal(t, StatePendingValue, m.State())
	assert.Equal(t, "name", m.pending.suspension.Key)
	assert.Contains(t, m.View(), "Enter value for {{name}}")

	m = keys(t, m, "carol")
	m = update(t, m, enter)
	require.Equal(t, StateRunning, m.State())

	m = waitIdle(t, m)
	assert.Empty(t, m.Err())
	assert.Equal(t, []string{"carol"}, f.seen())
}

func TestPendingSelection(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)
	m = selectRequest(t, m, "pick.http")

	m = update(t, m, enter)
	require.Equal(t, StatePendingValue, m.State())
	assert.True(t, m.pending.suspension.IsSelection())

	m = update(t, m, down)
	m = update(t, m, enter)
	m = waitIdle(t, m)
	assert.Equal(t, []string{"bob"}, f.seen())
}

func TestCancelPendingDiscardsOverrides(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)
	m = selectRequest(t, m, "ask.http")

	m = update(t, m, enter)
	m = keys(t, m, "carol")
	m = update(t, m, esc)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.pending)

	m = update(t, m, enter)
	require.Equal(t, StatePendingValue, m.State())
	assert.Empty(t, m.pending.suspension.Overrides)
	m = update(t, m, esc)
	assert.Empty(t, f.seen())
}

func TestAbortRunningRequest(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = selectRequest(t, m, "slow.http")

	m = update(t, m, enter)
	require.Equal(t, StateRunning, m.State())

	m = update(t, m, esc)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.running)
	m.Wait()
}

func TestStaleTickIgnored(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = selectRequest(t, m, "get.http")
	m = update(t, m, enter)
	require.Equal(t, StateRunning, m.State())

	stale := tickMsg{id: m.tickID - 1}
	next, cmd := m.Update(stale)
	assert.Nil(t, cmd)
	assert.Equal(t, StateRunning, next.(Model).State())

	waitIdle(t, m)
}

func TestSelectTarget(t *testing.T) {
	f := newFixture(t)
	m := newModel(t, f)

	m = update(t, m, ctrlS)
	require.Equal(t, StateSelectingEnvironment, m.State())

	m = keys(t, m, "stag")
	m = update(t, m, enter)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, "staging", m.Target())
	assert.Equal(t, "staging", env.Target(f.root))
}

func TestSelectTargetCancel(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = update(t, m, ctrlS)
	m = update(t, m, esc)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, env.DefaultTarget, m.Target())
}

func TestSplitWidth(t *testing.T) {
	m := newModel(t, newFixture(t))
	start := m.Split()

	m = update(t, m, ctrlRight)
	assert.Equal(t, start+splitStep, m.Split())

	for i := 0; i < 20; i++ {
		m = update(t, m, ctrlLeft)
	}
	assert.Equal(t, minSplit, m.Split())
}

func TestHelpToggle(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = keys(t, m, "?")
	require.Equal(t, StateHelp, m.State())
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	m = update(t, m, esc)
	assert.Equal(t, StateIdle, m.State())
}

func TestNewRequestWithoutEditor(t *testing.T) {
	m := newModel(t, newFixture(t))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, StateNewRequest, m.State())

	m = keys(t, m, "users/list")
	next, cmd := m.Update(enter)
	m = next.(Model)
	assert.Equal(t, StateIdle, m.State())
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Contains(t, m.Err(), "no editor configured")
}

func TestQuitFromIdle(t *testing.T) {
	m := newModel(t, newFixture(t))
	_, cmd := m.Update(esc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMultiSelectListVariable(t *testing.T) {
	m := newModel(t, newFixture(t))
	q := m.questionComponent(resolveQuestion("users", true))
	s, ok := q.(*widget.Select)
	require.True(t, ok)

	s.Update(tab)
	s.Update(tab)
	assert.Equal(t, []string{"alice", "bob"}, s.Answer())
}
