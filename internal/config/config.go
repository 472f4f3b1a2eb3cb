package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/util"
)

// Duration is a time.Duration that reads "5s", "2.5s", "1d" or a bare
// millisecond count from TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := util.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(util.FormatDuration(time.Duration(d))), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the main configuration
type Config struct {
	Server    ServerConfig           `toml:"server"`
	Dashboard DashboardConfig        `toml:"dashboard"`
	Panels    map[string]PanelConfig `toml:"panels,omitempty"`
	State     StateConfig            `toml:"state"`
	Log       LogConfig              `toml:"log"`
}

// ServerConfig locates the VODUM backend.
type ServerConfig struct {
	URL     string   `toml:"url"`
	Token   string   `toml:"token,omitempty"`
	Timeout Duration `toml:"timeout"`
}

// DashboardConfig controls which panels the dashboard shows.
type DashboardConfig struct {
	// DefaultPanel is selected when no valid panel was persisted.
	// Empty means the first mounted panel.
	DefaultPanel string `toml:"default_panel"`

	// Panels lists the mounted panels, in registry order.
	Panels []string `toml:"panels"`

	ActivityInterval Duration `toml:"activity_interval"`

	// RefreshHints polls the backend's should-refresh flags.
	RefreshHints bool `toml:"refresh_hints"`

	Theme string `toml:"theme"`
}

// PanelConfig overrides a panel's defaults.
type PanelConfig struct {
	RefreshInterval Duration       `toml:"refresh_interval,omitempty"`
	Title           string         `toml:"title,omitempty"`
	Columns         []ColumnConfig `toml:"columns,omitempty"`
}

// ColumnConfig describes a table column.
type ColumnConfig struct {
	Key         string   `toml:"key"`
	Fallback    []string `toml:"fallback,omitempty"`
	Title       string   `toml:"title"`
	Kind        string   `toml:"kind,omitempty"` // "string" (default) or "number"
	Width       int      `toml:"width,omitempty"`
	Placeholder string   `toml:"placeholder,omitempty"`
}

// StateConfig locates the persisted dashboard state.
type StateConfig struct {
	Path string `toml:"path,omitempty"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Path  string `toml:"path,omitempty"`
	Level string `toml:"level"`
}

// Defaults for values not set in the file.
const (
	DefaultURL              = "http://127.0.0.1:5000"
	DefaultTimeout          = 10 * time.Second
	DefaultActivityInterval = 2500 * time.Millisecond
	DefaultLogLevel         = "info"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if p := os.Getenv("VODUM_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vodum", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vodum", "config.toml")
}

// DefaultLogPath returns $XDG_STATE_HOME/vodum/vodum.log, falling back to
// ~/.local/state/vodum/vodum.log.
func DefaultLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "vodum", "vodum.log")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "vodum", "vodum.log")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultURL,
			Timeout: Duration(DefaultTimeout),
		},
		Dashboard: DashboardConfig{
			Panels:           panel.DefaultRegistry().IDs(),
			ActivityInterval: Duration(DefaultActivityInterval),
			Theme:            "auto",
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads the config file at path (DefaultPath if empty), fills in
// defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	// Decoding into defaults would merge the panel list; start it empty
	// so the file's list replaces it.
	cfg.Dashboard.Panels = nil
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Dashboard.Panels == nil {
		cfg.Dashboard.Panels = panel.DefaultRegistry().IDs()
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default with
// environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultURL
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = Duration(DefaultTimeout)
	}
	if c.Dashboard.ActivityInterval <= 0 {
		c.Dashboard.ActivityInterval = Duration(DefaultActivityInterval)
	}
	if c.Dashboard.Theme == "" {
		c.Dashboard.Theme = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) applyEnv() {
	if u := os.Getenv("VODUM_URL"); u != "" {
		c.Server.URL = u
	}
	if token := os.Getenv("VODUM_TOKEN"); token != "" {
		c.Server.Token = token
	}
	if level := os.Getenv("VODUM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if theme := os.Getenv("VODUM_THEME"); theme != "" {
		c.Dashboard.Theme = theme
	}
}

// Validate checks panel references and intervals.
func (c *Config) Validate() error {
	known := panel.DefaultRegistry()

	seen := make(map[string]bool)
	for _, id := range c.Dashboard.Panels {
		if !known.Has(id) {
			return fmt.Errorf("dashboard.panels: unknown panel %q (known: %s)", id, strings.Join(known.IDs(), ", "))
		}
		if seen[id] {
			return fmt.Errorf("dashboard.panels: %q listed twice", id)
		}
		seen[id] = true
	}
	if c.Dashboard.DefaultPanel != "" && !known.Has(c.Dashboard.DefaultPanel) {
		return fmt.Errorf("dashboard.default_panel: unknown panel %q", c.Dashboard.DefaultPanel)
	}
	for id, p := range c.Panels {
		if !known.Has(id) {
			return fmt.Errorf("panels.%s: unknown panel", id)
		}
		if p.RefreshInterval < 0 {
			return fmt.Errorf("panels.%s.refresh_interval must be positive", id)
		}
		for i, col := range p.Columns {
			if col.Key == "" {
				return fmt.Errorf("panels.%s.columns[%d]: key is required", id, i)
			}
			if col.Kind != "" && col.Kind != "string" && col.Kind != "number" {
				return fmt.Errorf("panels.%s.columns[%d]: kind must be \"string\" or \"number\"", id, i)
			}
		}
	}
	return nil
}

// Registry builds the panel registry: the standard panels with this
// config's intervals, titles and columns applied.
func (c *Config) Registry() (*panel.Registry, error) {
	defs := panel.Defaults()
	for i, def := range defs {
		o, ok := c.Panels[def.ID]
		if !ok {
			continue
		}
		if o.RefreshInterval > 0 {
			defs[i].RefreshInterval = o.RefreshInterval.Std()
		}
		if o.Title != "" {
			defs[i].Title = o.Title
		}
		if len(o.Columns) > 0 {
			defs[i].Columns = toColumns(o.Columns)
		}
	}
	return panel.NewRegistry(defs...)
}

// Presentation returns the title and columns of every standard panel:
// the override when one is set, the built-in default otherwise. A
// removed override therefore reverts the panel on reload.
func (c *Config) Presentation() map[string]panel.Presentation {
	defs := panel.Defaults()
	out := make(map[string]panel.Presentation, len(defs))
	for _, def := range defs {
		p := panel.Presentation{Title: def.Title, Columns: def.Columns}
		if o, ok := c.Panels[def.ID]; ok {
			if o.Title != "" {
				p.Title = o.Title
			}
			if cols := toColumns(o.Columns); cols != nil {
				p.Columns = cols
			}
		}
		out[def.ID] = p
	}
	return out
}

func toColumns(cols []ColumnConfig) []panel.Column {
	if len(cols) == 0 {
		return nil
	}
	out := make([]panel.Column, len(cols))
	for i, c := range cols {
		kind := panel.KindString
		if c.Kind == "number" {
			kind = panel.KindNumber
		}
		title := c.Title
		if title == "" {
			title = c.Key
		}
		out[i] = panel.Column{
			Key:         c.Key,
			Fallback:    c.Fallback,
			Title:       title,
			Kind:        kind,
			Width:       c.Width,
			Placeholder: c.Placeholder,
		}
	}
	return out
}

// CreateDefault writes the default config to path (DefaultPath if empty)
// and returns the path written. An existing file is left alone.
func CreateDefault(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := Print(Default(), f); err != nil {
		return "", err
	}
	return path, nil
}

// Print writes cfg as TOML.
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# VODUM console configuration")
	fmt.Fprintln(w, "# Durations accept 5s, 2.5s, 1m or a bare millisecond count.")
	fmt.Fprintln(w)
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ExpandHome expands a leading ~ in path.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
