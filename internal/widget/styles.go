package widget

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode
	LightForeground = lipgloss.Color("#101F38")
	LightPrimary    = lipgloss.Color("#1565C0")
	LightMuted      = lipgloss.Color("#8a94a6")
	LightBorder     = lipgloss.Color("#c5ccd6")
	LightHighlight  = lipgloss.Color("#e1e4e8")

	// Dark mode
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#4dd0e1")
	DarkMuted      = lipgloss.Color("#6b7a90")
	DarkBorder     = lipgloss.Color("#2a3850")
	DarkHighlight  = lipgloss.Color("#1e2a3d")

	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Highlight:  LightHighlight,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Highlight:  DarkHighlight,
		IsDark:     true,
	}
}

// DetectTheme picks a theme from COLORFGBG or HITMAN_DARK_MODE, defaulting
// to dark.
func DetectTheme() Theme {
	if v := os.Getenv("HITMAN_DARK_MODE"); v != "" {
		if v == "0" {
			return LightTheme()
		}
		return DarkTheme()
	}

	// "foreground;background", light backgrounds are 7 and 9-15
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	if len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && (bg == 7 || bg >= 9) {
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	// Frames
	Popup     lipgloss.Style
	Pane      lipgloss.Style
	Title     lipgloss.Style
	StatusBar lipgloss.Style

	// Text
	Body  lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	// Lists
	Cursor   lipgloss.Style
	Match    lipgloss.Style
	Selected lipgloss.Style

	// Calendar
	Today   lipgloss.Style
	Outside lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

// NewStyles creates a Styles instance for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Body:  lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted),
		Bold:  lipgloss.NewStyle().Bold(true),

		Cursor: lipgloss.NewStyle().
			Background(theme.Highlight).
			Foreground(theme.Foreground).
			Bold(true),
		Match:    lipgloss.NewStyle().Foreground(Warning),
		Selected: lipgloss.NewStyle().Foreground(theme.Primary),

		Today:   lipgloss.NewStyle().Foreground(theme.Primary),
		Outside: lipgloss.NewStyle().Foreground(theme.Muted),

		Success: lipgloss.NewStyle().Foreground(Success),
		Error:   lipgloss.NewStyle().Foreground(Destructive),
		Warning: lipgloss.NewStyle().Foreground(Warning),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
