package render

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/vodum/console/internal/panel"
)

// TableContainer renders into a bubbles table. Rows are buffered and
// handed to the table once per fill.
type TableContainer struct {
	Table table.Model

	rows []table.Row
	ids  []string
}

// NewTableContainer wraps t.
func NewTableContainer(t table.Model) *TableContainer {
	return &TableContainer{Table: t}
}

// Clear implements Container.
func (c *TableContainer) Clear() {
	c.rows = nil
	c.ids = nil
}

// Append implements Container.
func (c *TableContainer) Append(row Row) {
	c.rows = append(c.rows, table.Row(row.Cells))
	c.ids = append(c.ids, row.ID)
}

// Flush pushes buffered rows into the table.
func (c *TableContainer) Flush() {
	c.Table.SetRows(c.rows)
	if n := len(c.rows); n > 0 && c.Table.Cursor() >= n {
		c.Table.SetCursor(n - 1)
	}
}

// Len returns the number of rendered rows.
func (c *TableContainer) Len() int {
	return len(c.rows)
}

// SelectedID returns the ID of the row under the cursor.
func (c *TableContainer) SelectedID() (string, bool) {
	i := c.Table.Cursor()
	if i < 0 || i >= len(c.ids) || c.ids[i] == "" {
		return "", false
	}
	return c.ids[i], true
}

// HTMLContainer renders table body rows as HTML, one <tr> per record.
// Cells must already be escaped with EscapeMarkup.
type HTMLContainer struct {
	b strings.Builder
	n int
}

// Clear implements Container.
func (c *HTMLContainer) Clear() {
	c.b.Reset()
	c.n = 0
}

// Append implements Container.
func (c *HTMLContainer) Append(row Row) {
	c.b.WriteString("<tr>")
	for _, cell := range row.Cells {
		c.b.WriteString("<td>")
		c.b.WriteString(cell)
		c.b.WriteString("</td>")
	}
	c.b.WriteString("</tr>\n")
	c.n++
}

// Len returns the number of rows.
func (c *HTMLContainer) Len() int { return c.n }

// String returns the rendered rows.
func (c *HTMLContainer) String() string { return c.b.String() }

// TextContainer renders an aligned plain-text table.
type TextContainer struct {
	Columns []panel.Column
	rows    [][]string
}

// NewTextContainer creates a text table with the given columns.
func NewTextContainer(cols []panel.Column) *TextContainer {
	return &TextContainer{Columns: cols}
}

// Clear implements Container.
func (c *TextContainer) Clear() { c.rows = nil }

// Append implements Container.
func (c *TextContainer) Append(row Row) {
	c.rows = append(c.rows, row.Cells)
}

// Len returns the number of rows.
func (c *TextContainer) Len() int { return len(c.rows) }

// Render lays the table out within maxWidth cells. Columns are sized to
// their content (capped at the column's preferred width when the table
// would not fit), and overlong cells end in an ellipsis.
func (c *TextContainer) Render(maxWidth int) string {
	widths := make([]int, len(c.Columns))
	for i, col := range c.Columns {
		widths[i] = runewidth.StringWidth(col.Title)
		for _, r := range c.rows {
			if i < len(r) {
				if w := runewidth.StringWidth(r[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	const gap = 2
	total := func() int {
		sum := 0
		for _, w := range widths {
			sum += w + gap
		}
		return sum
	}
	if maxWidth > 0 && total() > maxWidth {
		for i, col := range c.Columns {
			if col.Width > 0 && widths[i] > col.Width {
				widths[i] = col.Width
			}
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		var line strings.Builder
		for i := range c.Columns {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			cell = truncate.StringWithTail(cell, uint(widths[i]), "…")
			line.WriteString(cell)
			if i < len(c.Columns)-1 {
				line.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+gap))
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}

	header := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		header[i] = strings.ToUpper(col.Title)
	}
	writeLine(header)
	for _, r := range c.rows {
		writeLine(r)
	}
	return sb.String()
}
