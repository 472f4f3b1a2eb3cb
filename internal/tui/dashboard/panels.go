package dashboard

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/render"
	"github.com/vodum/console/internal/tui/theme"
)

// chromeHeight is the number of rows around the table: tab bar and its
// border, status line, help bar.
const chromeHeight = 5

// InitPanel rebuilds the table and key binding of scope (a panel ID, or
// "" for every mounted panel) from the current panel configuration. It
// replaces what was there, so calling it repeatedly is harmless. If the
// active panel was rebuilt, the returned command repopulates it.
func (m *Model) InitPanel(scope string) tea.Cmd {
	ids := m.mounted
	if scope != "" {
		if !m.isMounted(scope) {
			return nil
		}
		ids = []string{scope}
	}

	rebuiltActive := false
	for _, id := range ids {
		cfg, ok := m.registry.Get(id)
		if !ok {
			continue
		}

		t := table.New(
			table.WithColumns(tableColumns(cfg.Columns)),
			table.WithHeight(m.tableHeight()),
			table.WithWidth(m.width),
			table.WithStyles(theme.TableStyles(m.theme)),
		)
		if id == m.active {
			t.Focus()
			rebuiltActive = true
		} else {
			t.Blur()
		}
		m.tables[id] = render.NewTableContainer(t)

		if pos := m.position(id); pos >= 1 && pos <= 9 {
			n := strconv.Itoa(pos)
			m.panelKeys[id] = key.NewBinding(key.WithKeys(n), key.WithHelp(n, cfg.Title))
		}
	}

	if rebuiltActive {
		return m.refreshCmd(m.active, false)
	}
	return nil
}

// position returns the 1-based tab position of id, or 0.
func (m Model) position(id string) int {
	for i, p := range m.mounted {
		if p == id {
			return i + 1
		}
	}
	return 0
}

func tableColumns(cols []panel.Column) []table.Column {
	out := make([]table.Column, len(cols))
	for i, c := range cols {
		w := c.Width
		if w <= 0 {
			w = runewidth.StringWidth(c.Title) + 4
		}
		if w < 6 {
			w = 6
		}
		out[i] = table.Column{Title: c.Title, Width: w}
	}
	return out
}

func (m Model) tableHeight() int {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) resizeTables() {
	for _, tc := range m.tables {
		tc.Table.SetHeight(m.tableHeight())
		tc.Table.SetWidth(m.width)
	}
}
