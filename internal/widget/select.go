package widget

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultPageSize is the number of rows a Select shows at once.
const DefaultPageSize = 15

// Item is one selectable entry.
type Item struct {
	// Text is displayed and matched against the search term.
	Text string
	// Value is what the item answers with.
	Value string
}

// Select is a fuzzy-filterable list, optionally allowing several items to
// be picked with tab.
type Select struct {
	title    string
	items    []Item
	visible  []int
	cursor   int
	multiple bool
	chosen   map[int]bool
	search   textinput.Model
	pageSize int
	styles   Styles
}

// NewSelect creates a list with the search input focused.
func NewSelect(title string, items []Item, styles Styles) *Select {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Focus()

	s := &Select{
		title:    title,
		search:   search,
		pageSize: DefaultPageSize,
		styles:   styles,
		chosen:   make(map[int]bool),
	}
	s.SetItems(items)
	return s
}

// WithMultiple enables picking several items.
func (s *Select) WithMultiple(multiple bool) *Select {
	s.multiple = multiple
	return s
}

// WithPageSize sets the number of visible rows.
func (s *Select) WithPageSize(n int) *Select {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// SetItems replaces the items, keeping the search term.
func (s *Select) SetItems(items []Item) {
	s.items = items
	s.chosen = make(map[int]bool)
	s.filter()
}

// Items returns all items, unfiltered.
func (s *Select) Items() []Item { return s.items }

// Visible returns the items matching the search term, best match first.
func (s *Select) Visible() []Item {
	out := make([]Item, len(s.visible))
	for i, idx := range s.visible {
		out[i] = s.items[idx]
	}
	return out
}

// Current returns the highlighted item.
func (s *Select) Current() (Item, bool) {
	if s.cursor < 0 || s.cursor >= len(s.visible) {
		return Item{}, false
	}
	return s.items[s.visible[s.cursor]], true
}

// TrySelect moves the cursor to the visible item with the given text.
func (s *Select) TrySelect(text string) bool {
	for i, idx := range s.visible {
		if s.items[idx].Text == text {
			s.cursor = i
			return true
		}
	}
	return false
}

// Selected returns the picked items in list order. Without any explicit
// picks it is the highlighted item.
func (s *Select) Selected() []Item {
	if s.multiple && len(s.chosen) > 0 {
		var out []Item
		for i, item := range s.items {
			if s.chosen[i] {
				out = append(out, item)
			}
		}
		return out
	}
	if item, ok := s.Current(); ok {
		return []Item{item}
	}
	return nil
}

func (s *Select) Answer() []string {
	selected := s.Selected()
	out := make([]string, len(selected))
	for i, item := range selected {
		out[i] = item.Value
	}
	return out
}

func (s *Select) Init() tea.Cmd { return textinput.Blink }

func (s *Select) Update(msg tea.Msg) (Intent, tea.Cmd) {
	switch {
	case isKey(msg, "up", "ctrl+k", "ctrl+p"):
		s.move(-1)
		return Change, nil
	case isKey(msg, "down", "ctrl+j"):
		s.move(1)
		return Change, nil
	case s.multiple && isKey(msg, "tab"):
		if len(s.visible) > 0 {
			idx := s.visible[s.cursor]
			if s.chosen[idx] {
				delete(s.chosen, idx)
			} else {
				s.chosen[idx] = true
			}
			s.move(1)
		}
		return Change, nil
	case isKey(msg, "enter"):
		if s.multiple || len(s.visible) > 0 {
			return Accept, nil
		}
		return None, nil
	case isKey(msg, "esc", "ctrl+c"):
		return Abort, nil
	}

	before := s.search.Value()
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	if s.search.Value() != before {
		s.filter()
		return Change, cmd
	}
	return None, cmd
}

func (s *Select) move(delta int) {
	n := len(s.visible)
	if n == 0 {
		return
	}
	s.cursor = ((s.cursor+delta)%n + n) % n
}

// filter recomputes the visible rows and resets the cursor to the top.
func (s *Select) filter() {
	s.cursor = 0
	term := s.search.Value()
	if term == "" {
		s.visible = make([]int, len(s.items))
		for i := range s.items {
			s.visible[i] = i
		}
		return
	}

	texts := make([]string, len(s.items))
	for i, item := range s.items {
		texts[i] = item.Text
	}
	ranks := fuzzy.RankFindFold(term, texts)
	sort.Stable(ranks)

	s.visible = make([]int, len(ranks))
	for i, r := range ranks {
		s.visible[i] = r.OriginalIndex
	}
}

func (s *Select) View() string {
	var b strings.Builder
	b.WriteString(s.styles.Title.Render(s.title))
	b.WriteString("\n")

	start := 0
	if s.cursor >= s.pageSize {
		start = s.cursor - s.pageSize + 1
	}
	end := min(start+s.pageSize, len(s.visible))

	for i := start; i < end; i++ {
		idx := s.visible[i]
		line := s.items[idx].Text
		if s.multiple {
			mark := " "
			if s.chosen[idx] {
				mark = s.styles.Selected.Render("x")
			}
			line = fmt.Sprintf("[%s] %s", mark, line)
		}
		if i == s.cursor {
			b.WriteString(s.styles.Cursor.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(s.visible) == 0 {
		b.WriteString(s.styles.Muted.Render("  no matches"))
		b.WriteString("\n")
	}
	if hidden := len(s.visible) - end; hidden > 0 {
		b.WriteString(s.styles.Muted.Render(fmt.Sprintf("  … %d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString(s.search.View())
	return s.styles.Popup.Render(b.String())
}
