// Package panel defines the fixed set of dashboard panels: what each one
// fetches, how often, and how its rows are laid out.
package panel

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind tells the renderer which zero value to use for a missing field.
type Kind int

const (
	// KindString renders missing values as the empty string (or the placeholder).
	KindString Kind = iota
	// KindNumber renders missing values as 0.
	KindNumber
)

// Column describes one table column of a panel.
type Column struct {
	// Key is the record field shown in this column.
	Key string

	// Fallback lists fields tried in order when Key is missing or empty
	// (e.g. users show "title", falling back to "username").
	Fallback []string

	Title string
	Kind  Kind

	// Width is the preferred column width in cells. Zero lets the
	// renderer pick.
	Width int

	// Placeholder replaces an empty string value ("-" for never-run tasks).
	Placeholder string
}

// Action is a one-shot command a panel's rows can trigger.
type Action struct {
	// ID is the action identifier used for dispatch (e.g. "run").
	ID string

	// Label is shown in the help bar.
	Label string

	// PathFormat is the POST path with a single %s for the target ID.
	PathFormat string

	// IDKey is the record field holding the target ID.
	IDKey string
}

// Path returns the request path for the given target. The ID is escaped
// as a single path segment.
func (a Action) Path(targetID string) string {
	return fmt.Sprintf(a.PathFormat, url.PathEscape(targetID))
}

// Config holds configuration for a single panel.
type Config struct {
	// ID is the unique panel name (e.g. "users", "tasks").
	ID string

	// Title is the display title for the tab bar.
	Title string

	// Resource is the API resource, appended to /api/.
	// It may carry a query string (e.g. "logs?limit=200").
	Resource string

	// RefreshInterval is how often the panel polls while active.
	RefreshInterval time.Duration

	Columns []Column

	// Action is nil for read-only panels.
	Action *Action

	// Hints is true when the backend exposes should-refresh flags
	// for this panel.
	Hints bool
}

// Path returns the GET path for the panel's data.
func (c Config) Path() string {
	return "/api/" + strings.TrimPrefix(c.Resource, "/")
}

// Validate checks the invariants every panel must satisfy.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("panel id is required")
	}
	if c.Resource == "" {
		return fmt.Errorf("panel %q: resource is required", c.ID)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("panel %q: refresh interval must be positive, got %s", c.ID, c.RefreshInterval)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("panel %q: at least one column is required", c.ID)
	}
	if c.Action != nil {
		if c.Action.ID == "" || !strings.Contains(c.Action.PathFormat, "%s") {
			return fmt.Errorf("panel %q: action needs an id and a path with %%s", c.ID)
		}
	}
	return nil
}

// Default panel intervals. Task run-state changes quickly, library
// catalogs rarely.
const (
	UsersInterval     = 15 * time.Second
	ServersInterval   = 15 * time.Second
	LibrariesInterval = 30 * time.Second
	TasksInterval     = 5 * time.Second
	LogsInterval      = 8 * time.Second
)

// Panel IDs of the default set.
const (
	Users     = "users"
	Servers   = "servers"
	Libraries = "libraries"
	Tasks     = "tasks"
	Logs      = "logs"
)

// RunTask is the tasks panel action.
var RunTask = Action{
	ID:         "run",
	Label:      "run task",
	PathFormat: "/tasks/run/%s",
	IDKey:      "id",
}

// Defaults returns the standard VODUM panels in tab order.
func Defaults() []Config {
	runTask := RunTask
	return []Config{
		{
			ID:              Users,
			Title:           "Users",
			Resource:        "users",
			RefreshInterval: UsersInterval,
			Hints:           true,
			Columns: []Column{
				{Key: "title", Fallback: []string{"username"}, Title: "User", Width: 24},
				{Key: "email", Title: "Email", Width: 28},
				{Key: "libraries_count", Title: "Libraries", Kind: KindNumber, Width: 10},
				{Key: "servers_count", Title: "Servers", Kind: KindNumber, Width: 8},
				{Key: "status", Title: "Status", Width: 12},
			},
		},
		{
			ID:              Servers,
			Title:           "Servers",
			Resource:        "servers",
			RefreshInterval: ServersInterval,
			Hints:           true,
			Columns: []Column{
				{Key: "name", Title: "Name", Width: 24},
				{Key: "type", Title: "Type", Width: 10},
				{Key: "status", Title: "Status", Width: 10},
				{Key: "libraries", Title: "Libraries", Kind: KindNumber, Width: 10},
			},
		},
		{
			ID:              Libraries,
			Title:           "Libraries",
			Resource:        "libraries",
			RefreshInterval: LibrariesInterval,
			Hints:           true,
			Columns: []Column{
				{Key: "title", Title: "Library", Width: 28},
				{Key: "type", Title: "Type", Width: 10},
				{Key: "server_name", Title: "Server", Width: 20},
				{Key: "user_count", Title: "Users", Kind: KindNumber, Width: 8},
			},
		},
		{
			ID:              Tasks,
			Title:           "Tasks",
			Resource:        "tasks",
			RefreshInterval: TasksInterval,
			Action:          &runTask,
			Columns: []Column{
				{Key: "name", Title: "Task", Width: 28},
				{Key: "status", Title: "Status", Width: 10},
				{Key: "last_run", Title: "Last run", Width: 20, Placeholder: "-"},
				{Key: "next_run", Title: "Next run", Width: 20, Placeholder: "-"},
			},
		},
		{
			ID:              Logs,
			Title:           "Logs",
			Resource:        "logs?limit=200",
			RefreshInterval: LogsInterval,
			Columns: []Column{
				{Key: "date", Title: "Date", Width: 20},
				{Key: "level", Title: "Level", Width: 8},
				{Key: "message", Title: "Message", Width: 60},
			},
		},
	}
}

// Record is one row of a backend response.
type Record map[string]any
