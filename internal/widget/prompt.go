package widget

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TextPrompt asks for a free-form value. An empty answer falls back to the
// placeholder's fallback when there is one.
type TextPrompt struct {
	title    string
	fallback *string
	input    textinput.Model
	styles   Styles
}

// NewTextPrompt creates a focused prompt. The fallback is shown as the
// input placeholder.
func NewTextPrompt(title string, fallback *string, styles Styles) *TextPrompt {
	in := textinput.New()
	in.Prompt = "> "
	in.Width = 36
	if fallback != nil {
		in.Placeholder = *fallback
	}
	in.Focus()
	return &TextPrompt{title: title, fallback: fallback, input: in, styles: styles}
}

func (p *TextPrompt) Init() tea.Cmd { return textinput.Blink }

func (p *TextPrompt) Update(msg tea.Msg) (Intent, tea.Cmd) {
	switch {
	case isKey(msg, "enter"):
		return Accept, nil
	case isKey(msg, "esc", "ctrl+c"):
		return Abort, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return None, cmd
}

// Value is the typed text, or the fallback when nothing was typed.
func (p *TextPrompt) Value() string {
	v := p.input.Value()
	if v == "" && p.fallback != nil {
		return *p.fallback
	}
	return v
}

func (p *TextPrompt) Answer() []string { return []string{p.Value()} }

func (p *TextPrompt) View() string {
	return p.styles.Popup.Render(p.styles.Title.Render(p.title) + "\n" + p.input.View())
}
