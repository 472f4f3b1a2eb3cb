package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vodum/console/internal/tui/theme"
)

const helpMarkdown = `# VODUM dashboard

| key | action |
|---|---|
| ` + "`1`-`9`" + ` | select panel by position |
| ` + "`tab`" + ` / ` + "`→`" + ` | next panel |
| ` + "`shift+tab`" + ` / ` + "`←`" + ` | previous panel |
| ` + "`↑`/`k`, `↓`/`j`" + ` | move the row cursor |
| ` + "`enter`" + ` | run the selected task (tasks panel) |
| ` + "`r`" + ` | refresh the active panel now |
| ` + "`p`" + ` | pause or resume auto-refresh |
| ` + "`q`" + ` | quit |

The active panel refreshes on its own interval; the others are idle.
The badge in the top right counts running and queued background tasks.
`

// View implements tea.Model
func (m Model) View() string {
	if m.showHelp && m.helpView != "" {
		return m.helpView
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")

	switch {
	case len(m.mounted) == 0:
		b.WriteString(m.styles.Dim.Render("No panels configured. Set dashboard.panels in the config file."))
		b.WriteString("\n")
	case m.active == "":
		b.WriteString(m.styles.Dim.Render("No panel selected."))
		b.WriteString("\n")
	default:
		if tc := m.tables[m.active]; tc != nil {
			b.WriteString(tc.Table.View())
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTabBar() string {
	tabs := make([]string, 0, len(m.mounted))
	for i, id := range m.mounted {
		cfg, _ := m.registry.Get(id)
		label := fmt.Sprintf("%d %s", i+1, cfg.Title)
		if id == m.active {
			tabs = append(tabs, m.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.TabInactive.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	right := m.renderIndicator()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.TabBar.Render(left + strings.Repeat(" ", gap) + right)
}

// renderIndicator shows the active background task count, or nothing.
func (m Model) renderIndicator() string {
	if !m.indicatorVisible {
		return ""
	}
	return m.styles.Indicator.Render(fmt.Sprintf("%s %d active", m.spinner.View(), m.activity.Active))
}

func (m Model) renderStatusLine() string {
	var parts []string
	if m.paused {
		parts = append(parts, m.styles.Paused.Render("paused"))
	}
	if m.active != "" {
		if tc := m.tables[m.active]; tc != nil {
			parts = append(parts, fmt.Sprintf("%d rows", tc.Len()))
		}
		if t, ok := m.updated[m.active]; ok {
			parts = append(parts, "updated "+t.Format("15:04:05"))
		}
		parts = append(parts, "every "+m.registry.Interval(m.active).String())
	}
	parts = append(parts, m.client.BaseURL())
	return m.styles.Dim.Render(strings.Join(parts, " · "))
}

// glamourStyle picks the markdown style matching the theme.
func glamourStyle(t theme.Theme) string {
	switch t.Name {
	case theme.Plain.Name:
		return "notty"
	case theme.CatppuccinLatte.Name:
		return "light"
	default:
		return "dark"
	}
}

func (m Model) renderHelpOverlay() string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(m.theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Debug("help renderer", "error", err)
		return m.styles.Overlay.Render(helpMarkdown)
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		m.logger.Debug("help render", "error", err)
		return m.styles.Overlay.Render(helpMarkdown)
	}
	return m.styles.Overlay.Render(strings.TrimRight(out, "\n")) + "\n" +
		m.styles.Help.Render("press ? or esc to close")
}
