package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/render"
)

// pendingRefresh is the single armed refresh timer.
type pendingRefresh struct {
	panel string
	gen   uint64
	delay time.Duration
	stop  context.CancelFunc
}

// sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// refreshCmd fetches a panel's records. Chain refreshes arm the next
// timer when they complete; out-of-band ones only render.
func (m *Model) refreshCmd(panelID string, chain bool) tea.Cmd {
	cfg, ok := m.registry.Get(panelID)
	if !ok {
		return nil
	}
	m.seq++
	seq, gen := m.seq, m.gen
	client := m.client

	return func() tea.Msg {
		records, err := client.List(context.Background(), cfg.Resource)
		return panelDataMsg{
			panel:   panelID,
			gen:     gen,
			seq:     seq,
			chain:   chain,
			records: records,
			err:     err,
		}
	}
}

func (m *Model) handlePanelData(msg panelDataMsg) tea.Cmd {
	if msg.err != nil {
		cfg, _ := m.registry.Get(msg.panel)
		m.logger.Warn("panel refresh failed",
			"panel", msg.panel,
			"resource", cfg.Resource,
			"status", api.StatusCode(msg.err),
			"error", msg.err)
	} else if msg.panel == m.active && msg.seq > m.rendered[msg.panel] {
		if m.renderPanel(msg.panel, msg.records) {
			m.rendered[msg.panel] = msg.seq
		}
	} else {
		m.logger.Debug("stale panel response discarded", "panel", msg.panel, "active", m.active)
	}

	if msg.chain && msg.gen == m.gen && msg.panel == m.active && !m.paused {
		return m.scheduleNext(msg.panel)
	}
	return nil
}

// renderPanel fills the panel's table. It reports false when the panel
// has no table, which is skipped silently.
func (m *Model) renderPanel(panelID string, records []panel.Record) bool {
	tc, ok := m.tables[panelID]
	if !ok {
		return false
	}
	cfg, _ := m.registry.Get(panelID)
	idKey := ""
	if cfg.Action != nil {
		idKey = cfg.Action.IDKey
	}
	render.Fill(tc, records, cfg.Columns, idKey, render.SanitizeTerminal)
	m.updated[panelID] = time.Now()
	return true
}

// scheduleNext arms the refresh timer for panelID, replacing any
// pending one.
func (m *Model) scheduleNext(panelID string) tea.Cmd {
	m.stopPending()

	delay := m.registry.Interval(panelID)
	ctx, cancel := context.WithCancel(context.Background())
	m.pending = &pendingRefresh{panel: panelID, gen: m.gen, delay: delay, stop: cancel}

	gen := m.gen
	wait := m.wait
	return func() tea.Msg {
		if !wait(ctx, delay) {
			return nil
		}
		return refreshTimerMsg{panel: panelID, gen: gen}
	}
}

func (m *Model) handleTimer(msg refreshTimerMsg) tea.Cmd {
	if m.pending != nil && m.pending.gen == msg.gen && m.pending.panel == msg.panel {
		m.pending = nil
	}
	// Superseded by a panel switch or pause; the current chain is
	// already armed.
	if msg.gen != m.gen || msg.panel != m.active || m.paused {
		return nil
	}
	return m.refreshCmd(msg.panel, true)
}

func (m *Model) stopPending() {
	if m.pending != nil {
		m.pending.stop()
		m.pending = nil
	}
}

// togglePause stops or restarts the timer chain. Resuming refreshes the
// active panel at once.
func (m *Model) togglePause() tea.Cmd {
	m.paused = !m.paused
	m.stopPending()
	m.gen++
	m.logger.Info("auto-refresh", "paused", m.paused)
	if m.paused || m.active == "" {
		return nil
	}
	return m.refreshCmd(m.active, true)
}
