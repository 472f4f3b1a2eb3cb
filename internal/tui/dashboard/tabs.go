package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) isMounted(id string) bool {
	for _, p := range m.mounted {
		if p == id {
			return true
		}
	}
	return false
}

// selectPanel makes name the active panel. Unknown and unmounted names
// are ignored. The returned command refreshes the panel immediately and
// starts a new timer chain.
func (m *Model) selectPanel(name string) tea.Cmd {
	if !m.isMounted(name) {
		return nil
	}

	for id, tc := range m.tables {
		if id == name {
			tc.Table.Focus()
		} else {
			tc.Table.Blur()
		}
	}

	if m.active != name {
		m.logger.Debug("panel selected", "panel", name, "previous", m.active)
	}
	m.active = name
	if err := m.store.Save(name); err != nil {
		m.logger.Warn("saving active panel", "panel", name, "error", err)
	}

	m.stopPending()
	m.gen++
	// While paused the switch still loads the panel once.
	return m.refreshCmd(name, !m.paused)
}

// restoreOrDefault selects the persisted panel if it is mounted, and the
// default panel otherwise. Nothing is selected when neither is mounted.
func (m *Model) restoreOrDefault() tea.Cmd {
	stored, err := m.store.Load()
	if err != nil {
		m.logger.Warn("loading active panel", "error", err)
		stored = ""
	}
	if m.isMounted(stored) {
		return m.selectPanel(stored)
	}

	def := m.fallback
	if def == "" && len(m.mounted) > 0 {
		def = m.mounted[0]
	}
	if !m.isMounted(def) {
		m.logger.Debug("no panel selected", "default", def, "mounted", len(m.mounted))
		return nil
	}
	return m.selectPanel(def)
}

// cyclePanel selects the mounted panel delta positions away, wrapping.
func (m *Model) cyclePanel(delta int) tea.Cmd {
	n := len(m.mounted)
	if n == 0 {
		return nil
	}
	if m.active == "" {
		if delta < 0 {
			return m.selectPanel(m.mounted[n-1])
		}
		return m.selectPanel(m.mounted[0])
	}
	idx := 0
	for i, id := range m.mounted {
		if id == m.active {
			idx = i
			break
		}
	}
	next := ((idx+delta)%n + n) % n
	return m.selectPanel(m.mounted[next])
}
