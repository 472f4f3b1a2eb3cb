package api

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vodum/console/tests/testutil"
)

func TestNewClient(t *testing.T) {
	t.Setenv("VODUM_URL", "")
	t.Setenv("VODUM_TOKEN", "")

	c := NewClient()
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("expected base URL %s, got %s", DefaultBaseURL, c.BaseURL())
	}

	c = NewClient(WithBaseURL("http://vodum.lan:8080/"), WithToken("secret"))
	if c.BaseURL() != "http://vodum.lan:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
	}
	if c.bearerToken != "secret" {
		t.Errorf("expected token 'secret', got %q", c.bearerToken)
	}
}

func TestNewClientReadsEnvironment(t *testing.T) {
	t.Setenv("VODUM_URL", "http://env:9000")
	t.Setenv("VODUM_TOKEN", "env-token")

	c := NewClient()
	if c.BaseURL() != "http://env:9000" || c.bearerToken != "env-token" {
		t.Errorf("environment not applied: %s %q", c.BaseURL(), c.bearerToken)
	}

	c = NewClient(WithBaseURL("http://flag:1"))
	if c.BaseURL() != "http://flag:1" {
		t.Errorf("explicit option should win, got %s", c.BaseURL())
	}
}

func TestListDecodesRecords(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/logs?limit=200", []map[string]any{
		{"date": "2026-01-01", "level": "INFO", "message": "started"},
		{"date": "2026-01-02", "level": "ERROR", "message": "boom"},
	})

	c := NewClient(WithBaseURL(b.URL))
	records, err := c.List(context.Background(), "logs?limit=200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[1]["message"] != "boom" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestListSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("Cache-Control"); got != "no-cache" {
			t.Errorf("expected no-cache, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithToken("tok"))
	if _, err := c.List(context.Background(), "users"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListFetchErrors(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail("/api/tasks", http.StatusInternalServerError)
	b.ServeHTML("/api/users")

	c := NewClient(WithBaseURL(b.URL))

	_, err := c.List(context.Background(), "tasks")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusInternalServerError || !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("unexpected error detail: %+v", fe)
	}

	_, err = c.List(context.Background(), "users")
	if !IsFetchError(err) || !errors.Is(err, ErrNotJSON) {
		t.Errorf("expected not-JSON FetchError, got %v", err)
	}

	_, err = c.List(context.Background(), "libraries")
	if StatusCode(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestListUnavailable(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithTimeout(time.Second))
	_, err := c.List(context.Background(), "users")
	if !IsFetchError(err) || !IsUnavailable(err) {
		t.Errorf("expected unavailable FetchError, got %v", err)
	}
}

func TestListRejectsMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	_, err := NewClient(WithBaseURL(server.URL)).List(context.Background(), "users")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestRunTaskTreatsRedirectAsSuccess(t *testing.T) {
	b := testutil.NewBackend(t)
	c := NewClient(WithBaseURL(b.URL))

	if err := c.RunTask(context.Background(), "12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Count("POST /tasks/run/12") != 1 {
		t.Errorf("expected one POST, got %v", b.Requests())
	}
	if b.Count("GET /tasks") != 0 {
		t.Error("redirect should not be followed")
	}
}

func TestRunTaskFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail("/tasks/run/5", http.StatusForbidden)

	err := NewClient(WithBaseURL(b.URL)).RunTask(context.Background(), "5")
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if ce.Action != "run" || ce.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected command error %+v", ce)
	}
	if IsFetchError(err) {
		t.Error("command error must not be a fetch error")
	}
}

func TestActivity(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetActivity(2, 1)

	a, err := NewClient(WithBaseURL(b.URL)).Activity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Active != 3 || a.Running != 2 || a.Queued != 1 {
		t.Errorf("unexpected activity %+v", a)
	}
}

func TestRefreshHints(t *testing.T) {
	b := testutil.NewBackend(t)
	c := NewClient(WithBaseURL(b.URL))
	ctx := context.Background()

	if ok, err := c.ShouldRefresh(ctx, "users"); err != nil || ok {
		t.Fatalf("expected no hint, got %v %v", ok, err)
	}
	b.FlagRefresh("users")
	if ok, _ := c.ShouldRefresh(ctx, "users"); !ok {
		t.Fatal("expected hint after flag")
	}
	if err := c.ClearRefresh(ctx, "users"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if b.Flagged("users") {
		t.Error("flag should be cleared")
	}
}

func TestClientImportsNoPresentationPackages(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if strings.HasSuffix(path, "/internal/render") || strings.Contains(path, "/internal/tui/") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
