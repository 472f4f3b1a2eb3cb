package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vodum/console/internal/tui/theme"
)

// CLIError represents a structured CLI error with remediation hints.
type CLIError struct {
	Message string // What failed
	Cause   string // Why it failed (optional)
	Hint    string // Fastest command/action to fix it (optional)
	Code    string // Error code for programmatic handling (optional)
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLI error with just a message.
func NewCLIError(msg string) *CLIError {
	return &CLIError{Message: msg}
}

// WithCause adds a cause to the error.
func (e *CLIError) WithCause(cause string) *CLIError {
	e.Cause = cause
	return e
}

// WithHint adds a remediation hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// WithCode adds an error code to the error.
func (e *CLIError) WithCode(code string) *CLIError {
	e.Code = code
	return e
}

func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatCLIError formats e for the terminal. Colors are used only when
// stderr is a terminal and colors are not disabled.
func FormatCLIError(e *CLIError) string {
	return formatCLIError(e, isStderrTerminal() && !theme.NoColorEnabled())
}

func formatCLIError(e *CLIError, useColor bool) string {
	label := func(s string, _ lipgloss.Style) string { return s }
	if useColor {
		label = func(s string, st lipgloss.Style) string { return st.Render(s) }
	}

	t := theme.Current()
	errorStyle := lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	causeStyle := lipgloss.NewStyle().Foreground(t.Subtext)
	hintStyle := lipgloss.NewStyle().Foreground(t.Info)
	codeStyle := lipgloss.NewStyle().Foreground(t.Overlay)

	var sb strings.Builder
	sb.WriteString(label("Error: ", errorStyle))
	sb.WriteString(e.Message)
	if e.Code != "" {
		sb.WriteString(" ")
		sb.WriteString(label("["+e.Code+"]", codeStyle))
	}
	sb.WriteString("\n")
	if e.Cause != "" {
		sb.WriteString(label("  Cause: ", causeStyle))
		sb.WriteString(e.Cause)
		sb.WriteString("\n")
	}
	if e.Hint != "" {
		sb.WriteString(label("  Hint: ", hintStyle))
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteCLIError writes e as JSON to stdout in JSON mode and as text to
// stderr otherwise.
func WriteCLIError(stdout, stderr io.Writer, e *CLIError, jsonMode bool) {
	if jsonMode {
		_ = WriteJSON(stdout, ErrorResponse{
			Error:   e.Message,
			Code:    e.Code,
			Details: e.Cause,
			Hint:    e.Hint,
		}, true)
		return
	}
	fmt.Fprint(stderr, FormatCLIError(e))
}

// Common error hints
var (
	HintBackendUnavailable = "Check that VODUM is running and that --url or VODUM_URL points at it"
	HintUnauthorized       = "Set server.token in the config or VODUM_TOKEN"
	HintUnknownPanel       = "Run 'vodum panels' to list the available panels"
	HintConfigNotFound     = "Run 'vodum config init' to create a default configuration"
	HintConfigInvalid      = "Check config syntax with 'vodum config show' or edit the file printed by 'vodum config path'"
	HintNotATerminal       = "Run 'vodum fetch <panel>' or 'vodum watch <panel>' when stdout is not a terminal"
)

// UnknownPanelError creates an unknown panel error with hint
func UnknownPanelError(name string) *CLIError {
	return NewCLIError(fmt.Sprintf("unknown panel '%s'", name)).
		WithCode("UNKNOWN_PANEL").
		WithHint(HintUnknownPanel)
}

// BackendUnavailableError creates a connection error with hint
func BackendUnavailableError(url string, cause error) *CLIError {
	e := NewCLIError(fmt.Sprintf("cannot reach VODUM at %s", url)).
		WithCode("BACKEND_UNAVAILABLE").
		WithHint(HintBackendUnavailable)
	if cause != nil {
		e.Cause = cause.Error()
	}
	return e
}
