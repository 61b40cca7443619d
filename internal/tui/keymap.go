package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	send         key.Binding
	abort        key.Binding
	selectTarget key.Binding
	edit         key.Binding
	newRequest   key.Binding
	reload       key.Binding
	scrollUp     key.Binding
	scrollDown   key.Binding
	wider        key.Binding
	narrower     key.Binding
	toggleHelp   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send request"),
		),
		abort: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "abort / quit"),
		),
		selectTarget: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "select target"),
		),
		edit: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "edit request"),
		),
		newRequest: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new request"),
		),
		reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload requests"),
		),
		scrollUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "scroll output up"),
		),
		scrollDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "scroll output down"),
		),
		wider: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("ctrl+→", "widen list"),
		),
		narrower: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("ctrl+←", "narrow list"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "keyboard shortcuts"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.selectTarget, k.toggleHelp}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.send, k.abort, k.reload},
		{k.selectTarget, k.edit, k.newRequest},
		{k.scrollUp, k.scrollDown, k.wider, k.narrower, k.toggleHelp},
	}
}
