package widget

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DateLayout is the format dates are answered in.
const DateLayout = "2006-01-02"

// IsDateKey reports whether a key should be asked for with a date picker.
func IsDateKey(key string) bool {
	return strings.HasSuffix(key, "_date") || strings.HasSuffix(key, "Date")
}

// DatePicker is a month calendar with weeks starting on Monday.
type DatePicker struct {
	title     string
	selected  time.Time
	today     time.Time
	skippable bool
	styles    Styles
}

// NewDatePicker starts at the fallback date when it parses, today
// otherwise.
func NewDatePicker(title string, fallback *string, today time.Time, styles Styles) *DatePicker {
	today = dateOf(today)
	selected := today
	if fallback != nil {
		if d, err := time.Parse(DateLayout, *fallback); err == nil {
			selected = d
		}
	}
	return &DatePicker{title: title, selected: selected, today: today, styles: styles}
}

// WithSkip makes esc answer Skip instead of Abort.
func (d *DatePicker) WithSkip(skippable bool) *DatePicker {
	d.skippable = skippable
	return d
}

// Value is the highlighted date formatted as YYYY-MM-DD.
func (d *DatePicker) Value() string { return d.selected.Format(DateLayout) }

func (d *DatePicker) Answer() []string { return []string{d.Value()} }

func (d *DatePicker) Init() tea.Cmd { return nil }

func (d *DatePicker) Update(msg tea.Msg) (Intent, tea.Cmd) {
	switch {
	case isKey(msg, "left", "h"):
		d.selected = d.selected.AddDate(0, 0, -1)
	case isKey(msg, "right", "l"):
		d.selected = d.selected.AddDate(0, 0, 1)
	case isKey(msg, "up", "k", "ctrl+k", "ctrl+p"):
		d.selected = d.selected.AddDate(0, 0, -7)
	case isKey(msg, "down", "j", "ctrl+j"):
		d.selected = d.selected.AddDate(0, 0, 7)
	case isKey(msg, "pgup", "ctrl+u"):
		d.selected = addMonths(d.selected, -1)
	case isKey(msg, "pgdown", "ctrl+d"):
		d.selected = addMonths(d.selected, 1)
	case isKey(msg, "enter"):
		return Accept, nil
	case isKey(msg, "esc"):
		if d.skippable {
			return Skip, nil
		}
		return Abort, nil
	case isKey(msg, "ctrl+c"):
		return Abort, nil
	default:
		return None, nil
	}
	return Change, nil
}

func (d *DatePicker) View() string {
	var b strings.Builder
	b.WriteString(d.styles.Title.Render(d.title))
	b.WriteString("\n\n")
	b.WriteString(center(d.selected.Format("January 2006"), 21))
	b.WriteString("\n")

	first := time.Date(d.selected.Year(), d.selected.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	start := first.AddDate(0, 0, -mondayOffset(first))

	for i := 0; i < 7; i++ {
		b.WriteString(" " + start.AddDate(0, 0, i).Format("Mon")[:2])
	}
	b.WriteString("\n")

	for week := start; week.Before(next); week = week.AddDate(0, 0, 7) {
		for i := 0; i < 7; i++ {
			day := week.AddDate(0, 0, i)
			cell := fmt.Sprintf("%3d", day.Day())
			switch {
			case day.Equal(d.selected):
				cell = d.styles.Cursor.Render(cell)
			case day.Equal(d.today):
				cell = d.styles.Today.Render(cell)
			case day.Month() != d.selected.Month():
				cell = d.styles.Outside.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(d.Value(), 21))
	return d.styles.Popup.Render(b.String())
}

// addMonths moves by whole months, clamping to the last day of the target
// month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(t.Day(), last)-1)
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
