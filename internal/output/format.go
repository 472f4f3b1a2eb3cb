// Package output provides the CLI's text, JSON and HTML output plumbing.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format type
type Format int

const (
	// FormatText is an aligned human-readable table (default)
	FormatText Format = iota
	// FormatJSON is machine-readable JSON output
	FormatJSON
	// FormatHTML is escaped <tr> rows, as the web UI renders them
	FormatHTML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return "text"
	}
}

// ParseFormat parses "text", "json" or "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "html":
		return FormatHTML, nil
	default:
		return FormatText, fmt.Errorf("unknown format %q (want text, json or html)", s)
	}
}

// Formatter handles output formatting for commands
type Formatter struct {
	format Format
	writer io.Writer
	pretty bool
}

// Option is a functional option for Formatter
type Option func(*Formatter)

// New creates a new Formatter with the given options
func New(opts ...Option) *Formatter {
	f := &Formatter{
		format: FormatText,
		writer: os.Stdout,
		pretty: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithFormat sets the output format
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithWriter sets the output writer
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithPretty sets whether JSON should be indented
func WithPretty(pretty bool) Option {
	return func(f *Formatter) {
		f.pretty = pretty
	}
}

// Format returns the current output format
func (f *Formatter) Format() Format {
	return f.format
}

// IsJSON returns true if the output format is JSON
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Writer returns the output writer
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Printf writes formatted text to the formatter's writer
func (f *Formatter) Printf(format string, v ...any) {
	fmt.Fprintf(f.writer, format, v...)
}

// OutputData writes jsonData in JSON mode and calls textFn otherwise.
func (f *Formatter) OutputData(jsonData any, textFn func(w io.Writer) error) error {
	if f.IsJSON() {
		return f.JSON(jsonData)
	}
	return textFn(f.writer)
}

// DetectFormat determines the output format.
// Priority: explicit flag > VODUM_OUTPUT_FORMAT > default text.
// Unlike fetch's --format, piping does not switch to JSON: the text
// table is what people grep.
func DetectFormat(flag string) (Format, error) {
	if flag != "" {
		return ParseFormat(flag)
	}
	if env := os.Getenv("VODUM_OUTPUT_FORMAT"); env != "" {
		return ParseFormat(env)
	}
	return FormatText, nil
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the width of stdout, or 0 when it is not a
// terminal.
func TerminalWidth() int {
	if !IsTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
