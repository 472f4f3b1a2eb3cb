package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollActivity fetches the background task count.
func (m Model) pollActivity() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		a, err := client.Activity(context.Background())
		return activityMsg{activity: a, err: err}
	}
}

// handleActivity updates the indicator and schedules the next poll. The
// loop never stops; any failure hides the indicator.
func (m *Model) handleActivity(msg activityMsg) tea.Cmd {
	m.activity = msg.activity
	m.indicatorVisible = msg.err == nil && msg.activity.Active > 0
	if msg.err != nil {
		m.logger.Debug("activity poll failed", "error", msg.err)
	}
	return tea.Tick(m.activityInterval, func(time.Time) tea.Msg {
		return activityTickMsg{}
	})
}

// checkHint asks whether the active panel's data changed on the server.
func (m Model) checkHint() tea.Cmd {
	if !m.hints || m.active == "" {
		return nil
	}
	cfg, ok := m.registry.Get(m.active)
	if !ok || !cfg.Hints {
		return nil
	}
	client := m.client
	panelID := m.active
	return func() tea.Msg {
		refresh, err := client.ShouldRefresh(context.Background(), panelID)
		return hintMsg{panel: panelID, refresh: refresh, err: err}
	}
}

func (m *Model) handleHint(msg hintMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Debug("refresh hint failed", "panel", msg.panel, "error", msg.err)
		return nil
	}
	if !msg.refresh {
		return nil
	}
	// The flag stays set for the next check once the panel is active again.
	if msg.panel != m.active {
		m.logger.Debug("refresh hint for inactive panel ignored", "panel", msg.panel, "active", m.active)
		return nil
	}
	m.logger.Debug("refresh hint", "panel", msg.panel)
	client := m.client
	clearHint := func() tea.Msg {
		if err := client.ClearRefresh(context.Background(), msg.panel); err != nil {
			return hintClearedMsg{panel: msg.panel, err: err}
		}
		return nil
	}
	return tea.Batch(m.refreshCmd(msg.panel, false), clearHint)
}
