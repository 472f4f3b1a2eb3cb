package dashboard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/logging"
	"github.com/vodum/console/internal/state"
	"github.com/vodum/console/internal/tui/theme"
	"github.com/vodum/console/tests/testutil"
)

// timers records the waits requested by the scheduler. Waits never
// elapse; tests fire timers by sending refreshTimerMsg themselves.
type timers struct {
	mu     sync.Mutex
	delays []time.Duration
	ctxs   []context.Context
}

func (tm *timers) wait(ctx context.Context, d time.Duration) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.delays = append(tm.delays, d)
	tm.ctxs = append(tm.ctxs, ctx)
	return false
}

func (tm *timers) count() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.delays)
}

type harness struct {
	backend *testutil.Backend
	store   *state.MemoryStore
	timers  *timers
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		backend: testutil.NewBackend(t),
		store:   state.NewMemoryStore(""),
		timers:  &timers{},
		logs:    &bytes.Buffer{},
	}
}

// model builds a dashboard against the harness backend.
func (h *harness) model(opts Options) Model {
	opts.Client = api.NewClient(api.WithBaseURL(h.backend.URL), api.WithTimeout(2*time.Second))
	if opts.Store == nil {
		opts.Store = h.store
	}
	opts.Logger = logging.New(h.logs, slog.LevelDebug)
	opts.Theme = theme.Plain
	m := New(opts)
	m.wait = h.timers.wait
	return m
}

// exec runs cmd and returns the messages it produced, expanding batches.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs cmd and feeds every resulting message back into the model
// until no work is left. Activity ticks must not pass through here.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := exec(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			t.Fatal("settle: message loop did not terminate")
		}
		msg := queue[0]
		queue = queue[1:]
		var next tea.Cmd
		m, next = update(m, msg)
		queue = append(queue, exec(next)...)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type failingStore struct{}

func (failingStore) Load() (string, error) { return "", errors.New("disk on fire") }
func (failingStore) Save(string) error     { return errors.New("disk on fire") }

func tasksData(names ...string) []map[string]any {
	out := make([]map[string]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"id": i + 1, "name": n, "status": "idle"}
	}
	return out
}
