package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// invoke runs an action against targetID. The command runs on its own;
// scheduled refreshes continue while it is in flight.
func (m Model) invoke(actionID, targetID string) tea.Cmd {
	owner, ok := m.registry.OwnerOf(actionID)
	if !ok || targetID == "" {
		return nil
	}
	path := owner.Action.Path(targetID)
	client := m.client
	return func() tea.Msg {
		err := client.Invoke(context.Background(), actionID, path)
		return actionResultMsg{action: actionID, target: targetID, panel: owner.ID, err: err}
	}
}

// runSelected invokes the active panel's action on the selected row.
func (m Model) runSelected() tea.Cmd {
	cfg, ok := m.registry.Get(m.active)
	if !ok || cfg.Action == nil {
		return nil
	}
	tc := m.tables[m.active]
	if tc == nil {
		return nil
	}
	id, ok := tc.SelectedID()
	if !ok {
		return nil
	}
	return m.invoke(cfg.Action.ID, id)
}

// handleActionResult refreshes the owning panel out of band after a
// successful command. Failures change nothing.
func (m *Model) handleActionResult(msg actionResultMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("action failed",
			"action", msg.action,
			"target", msg.target,
			"panel", msg.panel,
			"error", msg.err)
		return nil
	}
	m.logger.Info("action done", "action", msg.action, "target", msg.target, "panel", msg.panel)
	if !m.isMounted(msg.panel) {
		return nil
	}
	return m.refreshCmd(msg.panel, false)
}
