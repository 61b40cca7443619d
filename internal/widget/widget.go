// Package widget provides the modal prompts used to answer placeholder
// questions: a text prompt, a fuzzy select list, and a date picker.
//
// Widgets are driven by bubbletea messages. They are embedded in the TUI or
// run on their own with Run for the blocking terminal prompts.
package widget

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Intent is what a widget wants its host to do after handling a message.
type Intent int

const (
	None   Intent = iota // keep going
	Change               // the highlighted value changed
	Accept               // the answer is ready
	Abort                // the user gave up
	Skip                 // the user declined this widget, ask another way
)

// Component is a modal prompt.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Intent, tea.Cmd)
	View() string
	// Answer returns the accepted values. Single-value widgets return
	// exactly one.
	Answer() []string
}

type runner struct {
	c      Component
	intent Intent
}

func (r *runner) Init() tea.Cmd { return r.c.Init() }

func (r *runner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	intent, cmd := r.c.Update(msg)
	switch intent {
	case Accept, Abort, Skip:
		r.intent = intent
		return r, tea.Quit
	}
	return r, cmd
}

func (r *runner) View() string {
	if r.intent != None {
		return ""
	}
	return r.c.View() + "\n"
}

// Run shows c as an inline program on out until it accepts, aborts or
// skips. A cancelled context aborts the prompt.
func Run(ctx context.Context, c Component, in io.Reader, out io.Writer) (Intent, error) {
	r := &runner{c: c}
	p := tea.NewProgram(r,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		return Abort, err
	}
	if r.intent == None {
		return Abort, nil
	}
	return r.intent, nil
}

func isKey(msg tea.Msg, keys ...string) bool {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	s := km.String()
	for _, k := range keys {
		if s == k {
			return true
		}
	}
	return false
}
