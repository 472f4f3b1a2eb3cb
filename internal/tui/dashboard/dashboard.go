// Package dashboard is the interactive VODUM dashboard: one tab per
// mounted panel, the active panel polled at its own interval, and a
// background activity indicator.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/config"
	"github.com/vodum/console/internal/logging"
	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/render"
	"github.com/vodum/console/internal/state"
	"github.com/vodum/console/internal/tui/theme"
)

// DefaultActivityInterval is how often the activity indicator polls.
const DefaultActivityInterval = 2500 * time.Millisecond

// panelDataMsg carries the result of one refresh of a panel.
type panelDataMsg struct {
	panel   string
	gen     uint64
	seq     uint64
	chain   bool // part of the timer chain, as opposed to out-of-band
	records []panel.Record
	err     error
}

// refreshTimerMsg is sent when a pending refresh timer fires.
type refreshTimerMsg struct {
	panel string
	gen   uint64
}

// activityMsg carries one poll of the activity endpoint.
type activityMsg struct {
	activity api.Activity
	err      error
}

// activityTickMsg starts the next activity poll.
type activityTickMsg struct{}

// hintMsg carries a should-refresh answer for a panel.
type hintMsg struct {
	panel   string
	refresh bool
	err     error
}

// hintClearedMsg reports a failed clear-refresh request.
type hintClearedMsg struct {
	panel string
	err   error
}

// actionResultMsg reports a finished command.
type actionResultMsg struct {
	action string
	target string
	panel  string
	err    error
}

// PanelsReloadedMsg replaces panel titles and columns at runtime.
type PanelsReloadedMsg struct {
	Presentation map[string]panel.Presentation
}

// Options configures a dashboard.
type Options struct {
	Client   *api.Client
	Registry *panel.Registry

	// Mounted lists the panels the dashboard shows. They are displayed
	// in registry order; nil mounts nothing.
	Mounted []string

	// DefaultPanel is selected when nothing valid was persisted. Empty
	// means the first mounted panel.
	DefaultPanel string

	Store  state.Store
	Logger *slog.Logger

	ActivityInterval time.Duration
	RefreshHints     bool
	Theme            theme.Theme
}

// Model is the dashboard model
type Model struct {
	client   *api.Client
	base     *panel.Registry // registry before presentation overrides
	registry *panel.Registry
	mounted  []string
	fallback string
	store    state.Store
	logger   *slog.Logger

	// Tab state
	active    string
	tables    map[string]*render.TableContainer
	panelKeys map[string]key.Binding

	// Refresh chain
	gen      uint64
	seq      uint64
	rendered map[string]uint64
	updated  map[string]time.Time
	pending  *pendingRefresh
	paused   bool
	wait     func(ctx context.Context, d time.Duration) bool

	// Activity indicator
	activityInterval time.Duration
	activity         api.Activity
	indicatorVisible bool
	hints            bool
	spinner          spinner.Model

	theme    theme.Theme
	styles   theme.Styles
	keys     KeyMap
	help     help.Model
	showHelp bool
	helpView string
	width    int
	height   int

	initCmd tea.Cmd
}

// New creates a dashboard and restores the persisted panel.
func New(opts Options) Model {
	if opts.Client == nil {
		opts.Client = api.NewClient()
	}
	if opts.Registry == nil {
		opts.Registry = panel.DefaultRegistry()
	}
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore("")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.ActivityInterval <= 0 {
		opts.ActivityInterval = DefaultActivityInterval
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.Current()
	}

	want := make(map[string]bool, len(opts.Mounted))
	for _, id := range opts.Mounted {
		want[id] = true
	}
	var mounted []string
	for _, id := range opts.Registry.IDs() {
		if want[id] {
			mounted = append(mounted, id)
		}
	}

	styles := theme.NewStyles(opts.Theme)
	m := Model{
		client:           opts.Client,
		base:             opts.Registry,
		registry:         opts.Registry,
		mounted:          mounted,
		fallback:         opts.DefaultPanel,
		store:            opts.Store,
		logger:           opts.Logger,
		tables:           make(map[string]*render.TableContainer),
		panelKeys:        make(map[string]key.Binding),
		rendered:         make(map[string]uint64),
		updated:          make(map[string]time.Time),
		wait:             sleep,
		activityInterval: opts.ActivityInterval,
		hints:            opts.RefreshHints,
		spinner:          spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Indicator)),
		theme:            opts.Theme,
		styles:           styles,
		keys:             dashKeys,
		help:             help.New(),
		width:            80,
		height:           24,
	}

	m.InitPanel("")
	m.initCmd = m.restoreOrDefault()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.initCmd,
		m.pollActivity(),
		m.spinner.Tick,
	)
}

// Active returns the active panel, or "" when none is selected.
func (m Model) Active() string {
	return m.active
}

// Mounted returns the mounted panels in tab order.
func (m Model) Mounted() []string {
	return append([]string(nil), m.mounted...)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTables()
		if m.showHelp {
			m.helpView = m.renderHelpOverlay()
		}
		return m, nil

	case panelDataMsg:
		cmd := m.handlePanelData(msg)
		return m, cmd

	case refreshTimerMsg:
		cmd := m.handleTimer(msg)
		return m, cmd

	case activityMsg:
		cmd := m.handleActivity(msg)
		return m, cmd

	case activityTickMsg:
		return m, tea.Batch(m.pollActivity(), m.checkHint())

	case hintMsg:
		cmd := m.handleHint(msg)
		return m, cmd

	case hintClearedMsg:
		m.logger.Debug("clearing refresh hint failed", "panel", msg.panel, "error", msg.err)
		return m, nil

	case actionResultMsg:
		cmd := m.handleActionResult(msg)
		return m, cmd

	case PanelsReloadedMsg:
		m.registry = m.base.WithPresentation(msg.Presentation)
		m.logger.Info("panel presentation reloaded")
		cmd := m.InitPanel("")
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Quit) || msg.Type == tea.KeyEsc {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPending()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView = m.renderHelpOverlay()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		cmd := m.cyclePanel(1)
		return m, cmd

	case key.Matches(msg, m.keys.Prev):
		cmd := m.cyclePanel(-1)
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		if m.active == "" {
			return m, nil
		}
		cmd := m.refreshCmd(m.active, false)
		return m, cmd

	case key.Matches(msg, m.keys.Pause):
		cmd := m.togglePause()
		return m, cmd

	case key.Matches(msg, m.keys.Run):
		return m, m.runSelected()
	}

	for _, id := range m.mounted {
		if b, ok := m.panelKeys[id]; ok && key.Matches(msg, b) {
			cmd := m.selectPanel(id)
			return m, cmd
		}
	}

	if tc := m.tables[m.active]; tc != nil {
		var cmd tea.Cmd
		tc.Table, cmd = tc.Table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Run starts the dashboard. When configPath is set, panel titles and
// columns follow changes to that file.
func Run(opts Options, configPath string) error {
	model := New(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if configPath != "" {
		logger := model.logger
		stop, err := config.Watch(configPath, func(cfg *config.Config) {
			p.Send(PanelsReloadedMsg{Presentation: cfg.Presentation()})
		}, func(err error) {
			logger.Warn("config watch", "path", configPath, "error", err)
		})
		if err != nil {
			logger.Warn("config watch disabled", "path", configPath, "error", err)
		} else {
			defer stop()
		}
	}

	_, err := p.Run()
	return err
}
