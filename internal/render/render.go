// Package render turns backend records into table rows. Every renderer
// clears its container and repopulates it in dataset order, escaping
// untrusted text on the way in.
package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/vodum/console/internal/panel"
)


// Row is a rendered record: its display cells plus the ID actions use.
type Row struct {
	ID    string
	Cells []string
}

// Container receives rendered rows.
type Container interface {
	// Clear drops all previously rendered rows.
	Clear()
	// Append adds one row after the existing ones.
	Append(row Row)
}

// flusher is implemented by containers that buffer rows until the fill
// completes.
type flusher interface {
	Flush()
}

// EscapeFunc makes an untrusted string safe for a rendering target.
type EscapeFunc func(string) string

var markupReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeMarkup escapes the characters that could inject HTML markup.
func EscapeMarkup(s string) string {
	return markupReplacer.Replace(s)
}

// SanitizeTerminal strips escape sequences and control characters so a
// backend value cannot repaint or retitle the terminal.
func SanitizeTerminal(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		}
		return r
	}, s)
}

// Fill clears c and appends one row per record, in order. It returns the
// number of rows rendered. A nil escape leaves text untouched.
func Fill(c Container, records []panel.Record, cols []panel.Column, idKey string, escape EscapeFunc) int {
	c.Clear()
	for _, rec := range records {
		c.Append(RowFor(rec, cols, idKey, escape))
	}
	if f, ok := c.(flusher); ok {
		f.Flush()
	}
	return len(records)
}

// RowFor renders a single record.
func RowFor(rec panel.Record, cols []panel.Column, idKey string, escape EscapeFunc) Row {
	cells := make([]string, len(cols))
	for i, col := range cols {
		v := Cell(rec, col)
		if escape != nil {
			v = escape(v)
		}
		cells[i] = v
	}
	row := Row{Cells: cells}
	if idKey != "" {
		row.ID = scalar(rec[idKey])
	}
	return row
}

// Cell returns the display value of col for rec. Missing numbers render
// as 0, missing strings as "" or the column placeholder.
func Cell(rec panel.Record, col panel.Column) string {
	v, ok := lookup(rec, col)
	if col.Kind == panel.KindNumber {
		if !ok {
			return "0"
		}
		return number(v)
	}
	s := ""
	if ok {
		s = scalar(v)
	}
	if s == "" {
		return col.Placeholder
	}
	return s
}

func lookup(rec panel.Record, col panel.Column) (any, bool) {
	for _, key := range append([]string{col.Key}, col.Fallback...) {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func number(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		if n {
			return "1"
		}
		return "0"
	case string:
		if _, err := strconv.ParseFloat(n, 64); err == nil {
			return n
		}
		return "0"
	default:
		return "0"
	}
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}
