package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/tests/testutil"
)

// resetFlags resets global flags to default values between tests
func resetFlags() {
	jsonOutput = false
	cfgFile = ""
	urlFlag = ""
	cfg = nil
}

// execute runs the root command with args in an isolated environment and
// returns what it printed.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("VODUM_CONFIG", "")
	t.Setenv("VODUM_URL", "")
	t.Setenv("VODUM_TOKEN", "")
	t.Setenv("VODUM_OUTPUT_FORMAT", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	closeLog()
	return stdout.String(), stderr.String(), err
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return toCLIError(err).Code
}

func tasks(names ...string) []map[string]any {
	out := make([]map[string]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"id": i + 1, "name": n, "status": "idle"}
	}
	return out
}

func TestExecuteHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() with --help failed: %v", err)
	}
	for _, cmd := range []string{"dashboard", "fetch", "watch", "run", "activity", "panels", "config", "version"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help does not list %s", cmd)
		}
	}
}

func TestBareCommandWithoutTerminalPrintsHelp(t *testing.T) {
	out, _, err := execute(t)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "Quick Start") {
		t.Errorf("expected help, got:\n%s", out)
	}
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default version", []string{"version"}, "vodum version dev"},
		{"short version", []string{"version", "--short"}, "dev\n"},
		{"json version", []string{"version", "--json"}, `"version": "dev"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in:\n%s", tt.want, out)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vodum.toml")
	out, _, err := execute(t, "config", "path", "--config", path)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("expected %s, got %q", path, out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := execute(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("expected created path in %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	_, _, err = execute(t, "config", "init", "--config", path)
	if code := errorCode(t, err); code != "CONFIG_EXISTS" {
		t.Errorf("expected CONFIG_EXISTS, got %s", code)
	}
}

func TestConfigShowAppliesURLFlag(t *testing.T) {
	out, _, err := execute(t, "config", "show", "--url", "http://vodum.test:5000")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "[server]") || !strings.Contains(out, `"http://vodum.test:5000"`) {
		t.Errorf("unexpected config:\n%s", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[dashboard]\npanels = [\"movies\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := execute(t, "panels", "--config", path)
	if code := errorCode(t, err); code != "CONFIG_INVALID" {
		t.Errorf("expected CONFIG_INVALID, got %s", code)
	}
}

func TestFetchText(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/tasks", tasks("sync", "scan"))

	out, _, err := execute(t, "fetch", "tasks", "--format", "text", "--url", b.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "TASK") || !strings.HasPrefix(lines[1], "sync") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if !strings.Contains(lines[1], "-") {
		t.Error("missing last run should show the placeholder")
	}
}

func TestFetchJSON(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/tasks", tasks("sync", "scan"))

	for _, args := range [][]string{
		{"fetch", "tasks", "--format", "json", "--url", b.URL},
		{"fetch", "tasks", "--format", "text", "--json", "--url", b.URL},
	} {
		out, _, err := execute(t, args...)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		var resp fetchResponse
		if err := json.Unmarshal([]byte(out), &resp); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if resp.Panel != "tasks" || resp.Count != 2 || resp.Columns[0] != "Task" || resp.Rows[1][0] != "scan" {
			t.Errorf("unexpected response %+v", resp)
		}
	}
}

func TestFetchHTMLEscapes(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/tasks", tasks("<b>sync</b>"))

	out, _, err := execute(t, "fetch", "tasks", "--format", "html", "--url", b.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !strings.HasPrefix(out, "<tr><td>&lt;b&gt;sync&lt;/b&gt;</td>") {
		t.Errorf("unexpected html %q", out)
	}
}

func TestFetchErrors(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail("/api/tasks", http.StatusInternalServerError)
	b.Fail("/api/users", http.StatusUnauthorized)
	b.ServeHTML("/api/servers")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown panel", []string{"fetch", "movies", "--format", "text", "--url", b.URL}, "UNKNOWN_PANEL"},
		{"bad format", []string{"fetch", "tasks", "--format", "xml", "--url", b.URL}, "INVALID_FORMAT"},
		{"server error", []string{"fetch", "tasks", "--format", "text", "--url", b.URL}, "FETCH_FAILED"},
		{"unauthorized", []string{"fetch", "users", "--format", "text", "--url", b.URL}, "UNAUTHORIZED"},
		{"html answer", []string{"fetch", "servers", "--format", "text", "--url", b.URL}, "NOT_JSON"},
		{"unreachable", []string{"fetch", "tasks", "--format", "text", "--url", "http://127.0.0.1:1"}, "BACKEND_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if code := errorCode(t, err); code != tt.code {
				t.Errorf("expected %s, got %s (%v)", tt.code, code, err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	b := testutil.NewBackend(t)

	out, _, err := execute(t, "run", "3", "--url", b.URL)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if b.Count("POST /tasks/run/3") != 1 {
		t.Errorf("expected one POST, got %v", b.Requests())
	}
	if !strings.Contains(out, "Task 3 queued") {
		t.Errorf("unexpected output %q", out)
	}

	b.Fail("/tasks/run/4", http.StatusNotFound)
	_, _, err = execute(t, "run", "4", "--url", b.URL)
	if code := errorCode(t, err); code != "COMMAND_FAILED" {
		t.Errorf("expected COMMAND_FAILED, got %s", code)
	}
}

func TestActivity(t *testing.T) {
	b := testutil.NewBackend(t)

	out, _, err := execute(t, "activity", "--url", b.URL)
	if err != nil || !strings.Contains(out, "No background tasks") {
		t.Errorf("unexpected output %q (%v)", out, err)
	}

	b.SetActivity(2, 1)
	out, _, err = execute(t, "activity", "--url", b.URL)
	if err != nil || !strings.Contains(out, "3 active (2 running, 1 queued)") {
		t.Errorf("unexpected output %q (%v)", out, err)
	}

	out, _, err = execute(t, "activity", "--json", "--url", b.URL)
	if err != nil || !strings.Contains(out, `"active": 3`) {
		t.Errorf("unexpected output %q (%v)", out, err)
	}
}

func TestPanels(t *testing.T) {
	out, _, err := execute(t, "panels")
	if err != nil {
		t.Fatalf("panels failed: %v", err)
	}
	if !strings.Contains(out, "> users") || !strings.Contains(out, "* tasks") || !strings.Contains(out, "logs?limit=200") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	out, _, err = execute(t, "panels", "--json")
	if err != nil {
		t.Fatalf("panels failed: %v", err)
	}
	var infos []panelInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(infos) != 5 || infos[3].ID != "tasks" || infos[3].Action != "run" || infos[3].RefreshInterval != "5s" {
		t.Errorf("unexpected panels %+v", infos)
	}
}

func TestPanelsMountedFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	conf := "[dashboard]\npanels = [\"tasks\", \"logs\"]\ndefault_panel = \"logs\"\n"
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "panels", "--config", path)
	if err != nil {
		t.Fatalf("panels failed: %v", err)
	}
	if !strings.Contains(out, "  users") || !strings.Contains(out, "* tasks") || !strings.Contains(out, "> logs") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestWatchWithoutChanges(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/tasks", tasks("sync"))

	out, _, err := execute(t, "watch", "tasks", "--changes", "--count", "3", "--interval", "1ms", "--url", b.URL)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if n := strings.Count(out, "== Tasks"); n != 1 {
		t.Errorf("expected only the first table, got %d headers:\n%s", n, out)
	}
	if b.Count("GET /api/tasks") != 3 {
		t.Errorf("expected 3 polls, got %v", b.Requests())
	}
}

func TestWatchPrintsEveryRefresh(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetData("/api/tasks", tasks("sync"))

	out, _, err := execute(t, "watch", "tasks", "--changes=false", "--count", "2", "--interval", "1ms", "--url", b.URL)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if n := strings.Count(out, "== Tasks"); n != 2 {
		t.Errorf("expected 2 tables, got %d:\n%s", n, out)
	}
}

func TestWatchKeepsPollingAfterFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail("/api/tasks", http.StatusBadGateway)

	out, errOut, err := execute(t, "watch", "tasks", "--changes=false", "--count", "2", "--interval", "1ms", "--url", b.URL)
	if err != nil {
		t.Fatalf("watch should not fail: %v", err)
	}
	if out != "" || strings.Count(errOut, "tasks:") != 2 {
		t.Errorf("expected two reported failures, stdout %q stderr %q", out, errOut)
	}
}

func TestToCLIErrorKeepsCLIErrors(t *testing.T) {
	e := output.UnknownPanelError("movies")
	if toCLIError(e) != e {
		t.Error("CLIErrors should pass through")
	}
}
