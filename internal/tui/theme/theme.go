// Package theme holds the dashboard palettes and the lipgloss styles
// built from them.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines a color palette for the TUI
type Theme struct {
	Name string

	Base     lipgloss.Color // Background
	Surface0 lipgloss.Color // Surface
	Surface1 lipgloss.Color // Surface highlight
	Surface2 lipgloss.Color // Borders

	Text    lipgloss.Color // Primary text
	Subtext lipgloss.Color // Secondary text
	Overlay lipgloss.Color // Dimmed text

	Primary   lipgloss.Color // Active tab, headers
	Secondary lipgloss.Color // Activity indicator
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color
}

// CatppuccinMocha is the default dark theme.
var CatppuccinMocha = Theme{
	Name:      "mocha",
	Base:      lipgloss.Color("#1e1e2e"),
	Surface0:  lipgloss.Color("#313244"),
	Surface1:  lipgloss.Color("#45475a"),
	Surface2:  lipgloss.Color("#585b70"),
	Text:      lipgloss.Color("#cdd6f4"),
	Subtext:   lipgloss.Color("#a6adc8"),
	Overlay:   lipgloss.Color("#6c7086"),
	Primary:   lipgloss.Color("#89b4fa"),
	Secondary: lipgloss.Color("#cba6f7"),
	Success:   lipgloss.Color("#a6e3a1"),
	Warning:   lipgloss.Color("#f9e2af"),
	Error:     lipgloss.Color("#f38ba8"),
	Info:      lipgloss.Color("#89dceb"),
}

// CatppuccinLatte is the light theme.
var CatppuccinLatte = Theme{
	Name:      "latte",
	Base:      lipgloss.Color("#eff1f5"),
	Surface0:  lipgloss.Color("#ccd0da"),
	Surface1:  lipgloss.Color("#bcc0cc"),
	Surface2:  lipgloss.Color("#acb0be"),
	Text:      lipgloss.Color("#4c4f69"),
	Subtext:   lipgloss.Color("#6c6f85"),
	Overlay:   lipgloss.Color("#7c7f93"),
	Primary:   lipgloss.Color("#1e66f5"),
	Secondary: lipgloss.Color("#8839ef"),
	Success:   lipgloss.Color("#40a02b"),
	Warning:   lipgloss.Color("#df8e1d"),
	Error:     lipgloss.Color("#d20f39"),
	Info:      lipgloss.Color("#04a5e5"),
}

// Nord is an arctic dark theme.
var Nord = Theme{
	Name:      "nord",
	Base:      lipgloss.Color("#2e3440"),
	Surface0:  lipgloss.Color("#3b4252"),
	Surface1:  lipgloss.Color("#434c5e"),
	Surface2:  lipgloss.Color("#4c566a"),
	Text:      lipgloss.Color("#eceff4"),
	Subtext:   lipgloss.Color("#d8dee9"),
	Overlay:   lipgloss.Color("#7b88a1"),
	Primary:   lipgloss.Color("#88c0d0"),
	Secondary: lipgloss.Color("#b48ead"),
	Success:   lipgloss.Color("#a3be8c"),
	Warning:   lipgloss.Color("#ebcb8b"),
	Error:     lipgloss.Color("#bf616a"),
	Info:      lipgloss.Color("#81a1c1"),
}

// Plain uses terminal default colors everywhere.
var Plain = Theme{Name: "plain"}

// NoColorEnabled reports whether color output should be disabled.
// NO_COLOR (any value) disables colors; VODUM_NO_COLOR=1 disables them
// and VODUM_NO_COLOR=0 forces them on.
func NoColorEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("VODUM_NO_COLOR"))) {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	_, noColorSet := os.LookupEnv("NO_COLOR")
	return noColorSet
}

// FromName returns a theme by name. Unknown names auto-detect.
func FromName(name string) Theme {
	if NoColorEnabled() {
		return Plain
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plain", "none", "no-color", "nocolor":
		return Plain
	case "nord":
		return Nord
	case "latte", "light":
		return CatppuccinLatte
	case "mocha", "dark":
		return CatppuccinMocha
	default:
		return autoTheme()
	}
}

// Current returns the theme named by VODUM_THEME, or the detected one.
func Current() Theme {
	return FromName(os.Getenv("VODUM_THEME"))
}

// detectDarkBackground is a variable so tests can replace it.
var detectDarkBackground = func() bool {
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

var (
	cachedAutoTheme Theme
	autoThemeOnce   sync.Once
)

func resetAutoTheme() {
	autoThemeOnce = sync.Once{}
	cachedAutoTheme = Theme{}
}

func autoTheme() Theme {
	autoThemeOnce.Do(func() {
		cachedAutoTheme = CatppuccinMocha
		defer func() {
			if recover() != nil {
				cachedAutoTheme = CatppuccinMocha
			}
		}()
		if !detectDarkBackground() {
			cachedAutoTheme = CatppuccinLatte
		}
	})
	return cachedAutoTheme
}

// Styles contains pre-built lipgloss styles for the dashboard
type Styles struct {
	Title lipgloss.Style
	Dim   lipgloss.Style
	Error lipgloss.Style
	Info  lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabBar      lipgloss.Style

	Indicator lipgloss.Style
	Paused    lipgloss.Style

	Help      lipgloss.Style
	StatusBar lipgloss.Style
	Overlay   lipgloss.Style
}

// NewStyles creates a Styles instance from a theme
func NewStyles(t Theme) Styles {
	s := Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			Padding(0, 1),

		Dim: lipgloss.NewStyle().
			Foreground(t.Overlay),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error),

		Info: lipgloss.NewStyle().
			Foreground(t.Info),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Base).
			Background(t.Primary).
			Padding(0, 2),

		TabInactive: lipgloss.NewStyle().
			Foreground(t.Subtext).
			Padding(0, 2),

		TabBar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(t.Surface2),

		Indicator: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Base).
			Background(t.Secondary).
			Padding(0, 1),

		Paused: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Warning),

		Help: lipgloss.NewStyle().
			Foreground(t.Overlay),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.Subtext).
			Background(t.Surface0).
			Padding(0, 1),

		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
	}

	// Without colors, selection and state must not rely on shades.
	if t.Name == Plain.Name {
		s.TabActive = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 2)
		s.Indicator = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
		s.Error = s.Error.Underline(true)
	}
	return s
}

// TableStyles returns bubbles table styles for the theme.
func TableStyles(t Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Surface2).
		BorderBottom(true).
		Bold(true).
		Foreground(t.Primary)
	s.Cell = s.Cell.Foreground(t.Text)
	s.Selected = s.Selected.
		Bold(true).
		Foreground(t.Base).
		Background(t.Primary)
	if t.Name == Plain.Name {
		s.Header = s.Header.UnsetForeground()
		s.Cell = s.Cell.UnsetForeground()
		s.Selected = lipgloss.NewStyle().Bold(true).Reverse(true)
	}
	return s
}
