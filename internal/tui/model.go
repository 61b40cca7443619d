// Package tui is the interactive request browser. Requests are picked from
// a fuzzy list, placeholders the scope cannot fill are asked for in popups,
// and the exchange is shown next to the list.
//
// Resolution never blocks the render loop: the resolver runs with a
// suspending port, each question becomes a PendingValue state, and the
// request itself runs as a background task polled on every tick.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hitman/internal/config"
	"hitman/internal/env"
	"hitman/internal/execute"
	"hitman/internal/history"
	"hitman/internal/interaction"
	"hitman/internal/request"
	"hitman/internal/resolve"
	"hitman/internal/scope"
	"hitman/internal/template"
	"hitman/internal/transport"
	"hitman/internal/widget"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// State is the resolution state of the UI.
type State int

const (
	StateIdle State = iota
	StateHelp
	StatePendingValue
	StateNewRequest
	StateRunning
	StateSelectingEnvironment
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHelp:
		return "help"
	case StatePendingValue:
		return "pending-value"
	case StateNewRequest:
		return "new-request"
	case StateRunning:
		return "running"
	case StateSelectingEnvironment:
		return "selecting-environment"
	}
	return "unknown"
}

const (
	minSplit   = 15
	splitStep  = 5
	statusSize = 24
)

// Options configure the UI.
type Options struct {
	Root    string
	Config  *config.Config
	Client  *transport.Client
	History *history.Store
	// Cookies is saved after every response when set.
	Cookies *env.Jar
	Logger  *zap.Logger
	Styles  widget.Styles
	// Now is used for date picker defaults.
	Now func() time.Time
}

type tickMsg struct{ id int }

type editorDoneMsg struct {
	file string
	err  error
}

// pendingValue is a resolution waiting for the user.
type pendingValue struct {
	file       string
	src        *template.Source
	resolver   *resolve.Resolver
	suspension *resolve.Suspension
	component  widget.Component
}

type runningRequest struct {
	file string
	task *Task[*execute.Result]
}

// Model is the bubbletea model of the UI.
type Model struct {
	ctx    context.Context
	opts   Options
	cfg    *config.Config
	logger *zap.Logger
	styles widget.Styles
	keys   keyMap
	help   help.Model

	root   string
	target string

	requests *widget.Select
	output   outputView
	spinner  spinner.Model

	state   State
	pending *pendingValue
	running *runningRequest
	popup   widget.Component
	aborted []*Task[*execute.Result]

	err    string
	split  int
	width  int
	height int
	tickID int
}

// New creates the model for the project at opts.Root.
func New(ctx context.Context, opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Client == nil {
		opts.Client = transport.New(transport.Options{Timeout: cfg.GetHTTPTimeout()})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Styles.Theme.Primary == "" {
		opts.Styles = widget.DefaultStyles()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = opts.Styles.Warning

	split := cfg.TUI.Split
	if split < minSplit {
		split = minSplit
	}

	m := Model{
		ctx:      ctx,
		opts:     opts,
		cfg:      cfg,
		logger:   logger,
		styles:   opts.Styles,
		keys:     newKeyMap(),
		help:     help.New(),
		root:     opts.Root,
		target:   env.Target(opts.Root),
		requests: widget.NewSelect("Requests", nil, opts.Styles),
		output:   newOutputView(opts.Styles),
		spinner:  sp,
		split:    split,
	}
	if err := m.reload(""); err != nil {
		return m, err
	}
	m.preview()
	return m, nil
}

// State returns the current state.
func (m Model) State() State { return m.state }

// Target returns the active target.
func (m Model) Target() string { return m.target }

// Err returns the error shown in the status bar.
func (m Model) Err() string { return m.err }

// Split returns the request list width.
func (m Model) Split() int { return m.split }

// Wait blocks until every started request goroutine exited.
func (m Model) Wait() {
	if m.running != nil {
		m.running.task.Wait()
	}
	for _, t := range m.aborted {
		t.Wait()
	}
}

// Close cancels a running request and waits for it.
func (m Model) Close() {
	if m.running != nil {
		m.running.task.Cancel()
	}
	m.Wait()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.requests.Init(), m.tick())
}

func (m Model) pollInterval() time.Duration {
	if m.state == StateRunning {
		return m.cfg.GetPollInterval()
	}
	return m.cfg.GetIdlePollInterval()
}

func (m Model) tick() tea.Cmd {
	id := m.tickID
	return tea.Tick(m.pollInterval(), func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

// restartTicks replaces the tick chain so a new interval applies at once.
func (m *Model) restartTicks() tea.Cmd {
	m.tickID++
	return m.tick()
}

func (m *Model) setState(s State) {
	if m.state != s {
		m.logger.Debug("state changed", zap.Stringer("from", m.state), zap.Stringer("to", s))
	}
	m.state = s
}

func (m *Model) setError(err error) {
	m.err = err.Error()
	m.logger.Debug("ui error", zap.Error(err))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tickMsg:
		if msg.id != m.tickID {
			return m, nil
		}
		if m.state == StateRunning && m.running.task.Done() {
			m.finish()
			return m, m.restartTicks()
		}
		return m, m.tick()

	case spinner.TickMsg:
		if m.state != StateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case editorDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("editor: %w", msg.err))
		}
		if err := m.reload(msg.file); err != nil {
			m.setError(err)
		}
		m.preview()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateHelp:
		if key.Matches(msg, m.keys.abort, m.keys.send, m.keys.toggleHelp) {
			m.setState(StateIdle)
		}
		return m, nil

	case StateRunning:
		if key.Matches(msg, m.keys.abort) {
			m.running.task.Cancel()
			m.aborted = append(m.aborted, m.running.task)
			m.running = nil
			m.setState(StateIdle)
			return m, m.restartTicks()
		}
		return m, nil

	case StatePendingValue:
		return m.handlePending(msg)

	case StateNewRequest:
		intent, cmd := m.popup.Update(msg)
		switch intent {
		case widget.Accept:
			name := strings.TrimSpace(m.popup.Answer()[0])
			m.popup = nil
			m.setState(StateIdle)
			if name == "" {
				return m, nil
			}
			return m, m.newRequest(name)
		case widget.Abort, widget.Skip:
			m.popup = nil
			m.setState(StateIdle)
			return m, nil
		}
		return m, cmd

	case StateSelectingEnvironment:
		intent, cmd := m.popup.Update(msg)
		switch intent {
		case widget.Accept:
			if answer := m.popup.Answer(); len(answer) > 0 {
				if err := env.SetTarget(m.root, answer[0]); err != nil {
					m.setError(err)
				} else {
					m.target = answer[0]
					m.err = ""
				}
			}
			m.popup = nil
			m.setState(StateIdle)
			return m, nil
		case widget.Abort, widget.Skip:
			m.popup = nil
			m.setState(StateIdle)
			return m, nil
		}
		return m, cmd
	}

	return m.handleIdle(msg)
}

func (m Model) handleIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.err = ""
		m.setState(StateHelp)
		return m, nil

	case key.Matches(msg, m.keys.send):
		item, ok := m.requests.Current()
		if !ok {
			return m, nil
		}
		m.err = ""
		return m.submit(item.Value)

	case key.Matches(msg, m.keys.selectTarget):
		return m.selectTarget()

	case key.Matches(msg, m.keys.edit):
		if item, ok := m.requests.Current(); ok {
			return m, m.editFile(item.Value)
		}
		return m, nil

	case key.Matches(msg, m.keys.newRequest):
		m.err = ""
		m.popup = widget.NewTextPrompt("Name of request", nil, m.styles)
		m.setState(StateNewRequest)
		return m, m.popup.Init()

	case key.Matches(msg, m.keys.reload):
		selected := ""
		if item, ok := m.requests.Current(); ok {
			selected = item.Value
		}
		if err := m.reload(selected); err != nil {
			m.setError(err)
		}
		m.preview()
		return m, nil

	case key.Matches(msg, m.keys.scrollUp):
		m.output.ScrollUp()
		return m, nil

	case key.Matches(msg, m.keys.scrollDown):
		m.output.ScrollDown()
		return m, nil

	case key.Matches(msg, m.keys.wider):
		m.split += splitStep
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.narrower):
		m.split = max(m.split-splitStep, minSplit)
		m.layout()
		return m, nil
	}

	intent, cmd := m.requests.Update(msg)
	if intent == widget.Change {
		m.preview()
	}
	return m, cmd
}

// submit starts resolving file from a fresh scope.
func (m Model) submit(file string) (tea.Model, tea.Cmd) {
	path := filepath.Join(m.root, file)
	src, err := template.Load(path)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	sc, err := env.LoadScope(m.root, m.target, path)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	r := resolve.New(sc, resolve.Suspend{}, m.logger)
	return m.resolve(file, src, r, nil)
}

// resolve runs one resolver pass. It either suspends on a question or
// starts the request.
func (m Model) resolve(file string, src *template.Source, r *resolve.Resolver, overrides resolve.Overrides) (tea.Model, tea.Cmd) {
	req, overrides, err := r.Resolve(m.ctx, src, overrides)

	var s *resolve.Suspension
	switch {
	case errors.As(err, &s):
		c := m.questionComponent(s.Question)
		m.pending = &pendingValue{file: file, src: src, resolver: r, suspension: s, component: c}
		m.setState(StatePendingValue)
		return m, c.Init()
	case err != nil:
		m.pending = nil
		m.setError(err)
		m.setState(StateIdle)
		return m, nil
	}

	m.pending = nil
	return m.send(file, r.Base().With(overrides.Layer()), req)
}

func (m Model) questionComponent(q resolve.Question) widget.Component {
	switch {
	case q.IsSelection():
		title := fmt.Sprintf("Select value for {{%s}}", q.Key)
		return widget.NewSelect(title, interaction.Items(q.Candidates), m.styles).
			WithMultiple(q.List)
	case widget.IsDateKey(q.Key):
		return widget.NewDatePicker(fmt.Sprintf("Select {{%s}}", q.Key), q.Fallback, m.opts.Now(), m.styles)
	}
	return widget.NewTextPrompt(fmt.Sprintf("Enter value for {{%s}}", q.Key), q.Fallback, m.styles)
}

func (m Model) handlePending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pending
	intent, cmd := p.component.Update(msg)
	switch intent {
	case widget.Accept:
		answer := p.component.Answer()
		var value any
		switch {
		case p.suspension.List:
			value = scope.Selection(answer)
		case len(answer) > 0:
			value = answer[0]
		default:
			return m, nil
		}
		return m.resolve(p.file, p.src, p.resolver, p.suspension.Answer(value))
	case widget.Abort, widget.Skip:
		m.pending = nil
		m.setState(StateIdle)
		return m, nil
	}
	return m, cmd
}

// send runs req in the background and switches to fast polling.
func (m Model) send(file string, sc scope.Scope, req *request.Request) (tea.Model, tea.Cmd) {
	ex := &execute.Executor{
		Client:  m.opts.Client,
		Root:    m.root,
		Target:  m.target,
		History: m.opts.History,
		Cookies: m.opts.Cookies,
		Logger:  m.logger,
	}
	task := StartTask(m.ctx, func(ctx context.Context) (*execute.Result, error) {
		return ex.Execute(ctx, file, sc, req)
	})
	m.running = &runningRequest{file: file, task: task}
	m.output.ShowRunning(req)
	m.setState(StateRunning)
	return m, tea.Batch(m.restartTicks(), m.spinner.Tick)
}

// finish shows the result of the completed task.
func (m *Model) finish() {
	res, err := m.running.task.Result()
	if res != nil {
		m.output.ShowResult(res, err)
	}
	if err != nil {
		m.setError(err)
	}
	m.running = nil
	m.setState(StateIdle)
}

func (m Model) selectTarget() (tea.Model, tea.Cmd) {
	envs, err := env.FindEnvironments(m.root)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	items := make([]widget.Item, len(envs))
	for i, e := range envs {
		items[i] = widget.Item{Text: e, Value: e}
	}
	s := widget.NewSelect("Select target", items, m.styles)
	s.TrySelect(m.target)
	m.popup = s
	m.err = ""
	m.setState(StateSelectingEnvironment)
	return m, s.Init()
}

// newRequest creates the file if needed and opens it in the editor.
func (m Model) newRequest(name string) tea.Cmd {
	if !template.IsRequestFile(name) {
		name += ".http"
	}
	path := filepath.Join(m.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return func() tea.Msg { return editorDoneMsg{file: name, err: err} }
	}
	return m.editFile(name)
}

func (m Model) editFile(file string) tea.Cmd {
	args := strings.Fields(m.cfg.Editor)
	if len(args) == 0 {
		return func() tea.Msg {
			return editorDoneMsg{file: file, err: errors.New("no editor configured")}
		}
	}
	c := exec.Command(args[0], append(args[1:], filepath.Join(m.root, file))...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorDoneMsg{file: file, err: err}
	})
}

// reload refreshes the request list and highlights selected when present.
func (m *Model) reload(selected string) error {
	files, err := env.FindAvailableRequests(m.root)
	if err != nil {
		return err
	}
	items := make([]widget.Item, len(files))
	for i, f := range files {
		items[i] = widget.Item{Text: f, Value: f}
	}
	m.requests.SetItems(items)
	if selected != "" {
		m.requests.TrySelect(selected)
	}
	return nil
}

func (m *Model) preview() {
	item, ok := m.requests.Current()
	if !ok {
		m.output.Reset()
		return
	}
	data, err := os.ReadFile(filepath.Join(m.root, item.Value))
	if err != nil {
		m.output.Reset()
		m.setError(err)
		return
	}
	m.output.ShowPreview(string(data))
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	listWidth := min(m.split, max(m.width-minSplit, minSplit))
	m.output.SetSize(max(m.width-listWidth-4, 10), max(m.height-3, 1))
	m.requests.WithPageSize(max(m.height-6, 1))
	m.help.Width = m.width
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	listWidth := min(m.split, max(m.width-minSplit, minSplit))
	mainHeight := max(m.height-1, 1)

	var main string
	if popup := m.popupView(); popup != "" {
		main = lipgloss.Place(m.width, mainHeight, lipgloss.Center, lipgloss.Center, popup)
	} else {
		left := lipgloss.NewStyle().Width(listWidth).MaxHeight(mainHeight).Render(m.requests.View())
		right := m.styles.Pane.
			Width(max(m.width-listWidth-2, 10)).
			Height(max(mainHeight-2, 1)).
			Render(m.output.View())
		main = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusView())
}

func (m Model) popupView() string {
	switch m.state {
	case StateHelp:
		return m.styles.Popup.Render(
			m.styles.Title.Render("Keyboard shortcuts") + "\n" + m.help.FullHelpView(m.keys.FullHelp()))
	case StatePendingValue:
		return m.pending.component.View()
	case StateNewRequest, StateSelectingEnvironment:
		return m.popup.View()
	case StateRunning:
		return m.styles.Popup.Render(m.styles.Title.Render("Running") + "\n" + m.spinner.View())
	}
	return ""
}

func (m Model) statusView() string {
	badge := lipgloss.NewStyle().
		Width(statusSize).
		Align(lipgloss.Center).
		Foreground(lipgloss.Color("#000000")).
		Background(m.styles.Theme.Primary).
		Render(m.target)

	var line string
	if m.err != "" {
		line = m.styles.Error.Reverse(true).Render(m.err)
	} else {
		line = m.styles.StatusBar.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return badge + " " + line
}

// Run shows the UI until the user quits.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
