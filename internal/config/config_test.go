package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vodum/console/internal/panel"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VODUM_URL", "VODUM_TOKEN", "VODUM_LOG_LEVEL", "VODUM_THEME", "VODUM_CONFIG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != DefaultURL {
		t.Errorf("expected default URL, got %s", cfg.Server.URL)
	}
	if cfg.Dashboard.ActivityInterval.Std() != 2500*time.Millisecond {
		t.Errorf("expected 2.5s activity interval, got %s", cfg.Dashboard.ActivityInterval.Std())
	}
	if got := strings.Join(cfg.Dashboard.Panels, ","); got != "users,servers,libraries,tasks,logs" {
		t.Errorf("expected all panels mounted, got %s", got)
	}
	if cfg.Dashboard.DefaultPanel != "" {
		t.Errorf("expected no default panel, got %q", cfg.Dashboard.DefaultPanel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get user home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/state.yaml", filepath.Join(home, "state.yaml")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandHome(tt.input); got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
url = "http://vodum.lan:5000"
timeout = "3s"

[dashboard]
default_panel = "tasks"
panels = ["tasks", "logs"]
activity_interval = "1s"
refresh_hints = true

[panels.tasks]
refresh_interval = "2s"
title = "Jobs"

[state]
path = "/tmp/vodum-state.yaml"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.URL != "http://vodum.lan:5000" || cfg.Server.Timeout.Std() != 3*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Dashboard.DefaultPanel != "tasks" || !cfg.Dashboard.RefreshHints {
		t.Errorf("unexpected dashboard config %+v", cfg.Dashboard)
	}
	if got := strings.Join(cfg.Dashboard.Panels, ","); got != "tasks,logs" {
		t.Errorf("file panel list should replace the default, got %s", got)
	}
	if cfg.Dashboard.ActivityInterval.Std() != time.Second {
		t.Errorf("expected 1s activity interval, got %s", cfg.Dashboard.ActivityInterval.Std())
	}
	if cfg.Panels["tasks"].RefreshInterval.Std() != 2*time.Second {
		t.Errorf("expected tasks override, got %+v", cfg.Panels["tasks"])
	}
	if cfg.State.Path != "/tmp/vodum-state.yaml" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected state/log config %+v %+v", cfg.State, cfg.Log)
	}
}

func TestLoadMillisecondIntervals(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[panels.users]
refresh_interval = "15000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Panels["users"].RefreshInterval.Std(); got != 15*time.Second {
		t.Errorf("expected 15s, got %s", got)
	}
}

func TestLoadDefaultsForMissingFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[dashboard]
theme = "latte"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != DefaultURL || cfg.Server.Timeout.Std() != DefaultTimeout {
		t.Errorf("server defaults not applied: %+v", cfg.Server)
	}
	if len(cfg.Dashboard.Panels) != 5 {
		t.Errorf("expected all panels mounted, got %v", cfg.Dashboard.Panels)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", cfg.Log.Level)
	}
	if cfg.Dashboard.Theme != "latte" {
		t.Errorf("expected latte theme, got %q", cfg.Dashboard.Theme)
	}
}

func TestLoadEmptyPanelList(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[dashboard]
panels = []
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Dashboard.Panels) != 0 {
		t.Errorf("explicit empty list should mount nothing, got %v", cfg.Dashboard.Panels)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[server\nurl=", "parsing config"},
		{"unknown panel", "[dashboard]\npanels = [\"movies\"]\n", "unknown panel"},
		{"duplicate panel", "[dashboard]\npanels = [\"logs\", \"logs\"]\n", "listed twice"},
		{"unknown default", "[dashboard]\ndefault_panel = \"movies\"\n", "default_panel"},
		{"unknown override", "[panels.movies]\ntitle = \"x\"\n", "panels.movies"},
		{"bad duration", "[panels.tasks]\nrefresh_interval = \"soon\"\n", "parsing config"},
		{"column without key", "[[panels.logs.columns]]\ntitle = \"Date\"\n", "key is required"},
		{"bad column kind", "[[panels.logs.columns]]\nkey = \"date\"\nkind = \"date\"\n", "kind must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VODUM_URL", "http://env:1")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Server.URL != "http://env:1" {
		t.Errorf("env override not applied to defaults, got %s", cfg.Server.URL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load should fail on a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VODUM_URL", "http://override:9")
	t.Setenv("VODUM_TOKEN", "tok")
	t.Setenv("VODUM_LOG_LEVEL", "warn")
	t.Setenv("VODUM_THEME", "mocha")

	cfg, err := Load(writeConfig(t, "[server]\nurl = \"http://file:1\"\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "http://override:9" || cfg.Server.Token != "tok" {
		t.Errorf("server env overrides not applied: %+v", cfg.Server)
	}
	if cfg.Log.Level != "warn" || cfg.Dashboard.Theme != "mocha" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Log, cfg.Dashboard)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("VODUM_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != "/tmp/xdg/vodum/config.toml" {
		t.Errorf("unexpected path %s", got)
	}

	t.Setenv("VODUM_CONFIG", "/etc/vodum.toml")
	if got := DefaultPath(); got != "/etc/vodum.toml" {
		t.Errorf("VODUM_CONFIG should win, got %s", got)
	}
}

func TestRegistryAppliesOverrides(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, `
[panels.logs]
refresh_interval = "20s"
title = "Journal"

[[panels.logs.columns]]
key = "message"
title = "Message"

[[panels.logs.columns]]
key = "count"
kind = "number"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	logs, _ := reg.Get(panel.Logs)
	if logs.RefreshInterval != 20*time.Second || logs.Title != "Journal" {
		t.Errorf("overrides not applied: %+v", logs)
	}
	if len(logs.Columns) != 2 || logs.Columns[1].Kind != panel.KindNumber || logs.Columns[1].Title != "count" {
		t.Errorf("unexpected columns %+v", logs.Columns)
	}
	if reg.Interval(panel.Tasks) != panel.TasksInterval {
		t.Errorf("untouched panel should keep its interval, got %s", reg.Interval(panel.Tasks))
	}

	pres := cfg.Presentation()
	if pres[panel.Logs].Title != "Journal" || len(pres[panel.Logs].Columns) != 2 {
		t.Errorf("unexpected presentation %+v", pres)
	}
}

func TestPresentationFallsBackToDefaults(t *testing.T) {
	cfg := Default()
	cfg.Panels = map[string]PanelConfig{
		panel.Logs: {Title: "Journal"},
	}

	pres := cfg.Presentation()
	for _, def := range panel.Defaults() {
		p, ok := pres[def.ID]
		if !ok {
			t.Errorf("%s: missing from presentation", def.ID)
			continue
		}
		if def.ID == panel.Logs {
			if p.Title != "Journal" {
				t.Errorf("logs title %q", p.Title)
			}
		} else if p.Title != def.Title {
			t.Errorf("%s: title %q, want default %q", def.ID, p.Title, def.Title)
		}
		if len(p.Columns) != len(def.Columns) {
			t.Errorf("%s: %d columns, want default %d", def.ID, len(p.Columns), len(def.Columns))
		}
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(Default(), &buf); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"[server]", "[dashboard]", "[log]", `activity_interval = "2.5s"`, `timeout = "10s"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s\n%s", want, output)
		}
	}
}

func TestCreateDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vodum", "config.toml")

	got, err := CreateDefault(path)
	if err != nil {
		t.Fatalf("CreateDefault failed: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Created config is not valid: %v", err)
	}
	if cfg.Dashboard.ActivityInterval.Std() != DefaultActivityInterval {
		t.Errorf("round trip lost activity interval: %s", cfg.Dashboard.ActivityInterval.Std())
	}

	if _, err := CreateDefault(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestWatch(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[panels.tasks]\ntitle = \"Tasks\"\n")

	updated := make(chan *Config, 1)
	stop, err := Watch(path, func(cfg *Config) {
		select {
		case updated <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[panels.tasks]\ntitle = \"Jobs\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-updated:
		if cfg.Panels["tasks"].Title != "Jobs" {
			t.Errorf("Expected 'Jobs', got %q", cfg.Panels["tasks"].Title)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timed out waiting for config update")
	}
}
