package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Backend is a fake VODUM server. Datasets, failures and the activity
// counter can be changed while a test runs.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	data     map[string]any
	status   map[string]int
	rawType  map[string]string
	activity map[string]int
	hints    map[string]bool
	requests []string
	gate     map[string]chan struct{}
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		data:     make(map[string]any),
		status:   make(map[string]int),
		rawType:  make(map[string]string),
		activity: map[string]int{"active": 0, "running": 0, "queued": 0},
		hints:    make(map[string]bool),
		gate:     make(map[string]chan struct{}),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// SetData sets the JSON payload served at path (e.g. "/api/tasks").
func (b *Backend) SetData(path string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[path] = payload
}

// Fail makes path answer with the given status.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[path] = status
}

// ServeHTML makes path answer 200 with an HTML body.
func (b *Backend) ServeHTML(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawType[path] = "text/html; charset=utf-8"
}

// Hold blocks requests to path until the returned release func is called.
func (b *Backend) Hold(path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gate[path] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gate, path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// SetActivity sets the running and queued task counts.
func (b *Backend) SetActivity(running, queued int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activity = map[string]int{"active": running + queued, "running": running, "queued": queued}
}

// FlagRefresh raises the should-refresh flag for a panel.
func (b *Backend) FlagRefresh(panelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hints[panelID] = true
}

// Flagged reports whether a panel's should-refresh flag is set.
func (b *Backend) Flagged(panelID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hints[panelID]
}

// Requests returns "METHOD /path" for every request served so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Count returns how many requests matched "METHOD /path".
func (b *Backend) Count(request string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == request {
			n++
		}
	}
	return n
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+path)
	gate := b.gate[path]
	status := b.status[path]
	rawType := b.rawType[path]
	payload, hasData := b.data[path]
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if rawType != "" {
		w.Header().Set("Content-Type", rawType)
		_, _ = w.Write([]byte("<html><body>not json</body></html>"))
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/tasks/run/"):
		w.Header().Set("Location", "/tasks")
		w.WriteHeader(http.StatusFound)
		return
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/api/clear-refresh/"):
		b.mu.Lock()
		delete(b.hints, strings.TrimPrefix(path, "/api/clear-refresh/"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	case path == "/api/tasks/activity":
		b.mu.Lock()
		payload = b.activity
		b.mu.Unlock()
		hasData = true
	case strings.HasPrefix(path, "/api/should-refresh/"):
		b.mu.Lock()
		payload = map[string]bool{"refresh": b.hints[strings.TrimPrefix(path, "/api/should-refresh/")]}
		b.mu.Unlock()
		hasData = true
	}

	if !hasData {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
