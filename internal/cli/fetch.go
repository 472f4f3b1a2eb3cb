package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/render"
)

func newFetchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fetch <panel>",
		Short: "Fetch a panel once and print it",
		Long: `Fetch one panel's data from VODUM and print it.

Formats:
  text  aligned table sized to the terminal (default)
  json  {"panel", "columns", "rows", "count"}
  html  escaped <tr><td> rows, as the web UI renders them

--json is the same as --format json.

Examples:
  vodum fetch users
  vodum fetch tasks --format json | jq '.rows[]'
  vodum fetch logs --format html > logs.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lookupPanel(args[0])
			if err != nil {
				return err
			}
			f, err := output.DetectFormat(format)
			if err != nil {
				return output.NewCLIError(err.Error()).WithCode("INVALID_FORMAT")
			}
			if IsJSONOutput() {
				f = output.FormatJSON
			}
			return fetchPanel(cmd.Context(), newClient(), p, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json or html")
	return cmd
}

// fetchResponse is the JSON form of one panel fetch.
type fetchResponse struct {
	Panel   string     `json:"panel"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

// fetchPanel retrieves p's records and writes them in format.
func fetchPanel(ctx context.Context, client *api.Client, p panel.Config, format output.Format, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := client.List(ctx, p.Resource)
	if err != nil {
		logger.Warn("fetch failed",
			"panel", p.ID,
			"resource", p.Resource,
			"status", api.StatusCode(err),
			"error", err)
		return err
	}
	logger.Debug("fetched", "panel", p.ID, "records", len(records))

	switch format {
	case output.FormatJSON:
		resp := fetchResponse{Panel: p.ID, Columns: columnTitles(p.Columns), Rows: [][]string{}}
		for _, rec := range records {
			resp.Rows = append(resp.Rows, render.RowFor(rec, p.Columns, "", nil).Cells)
		}
		resp.Count = len(resp.Rows)
		return output.WriteJSON(w, resp, true)

	case output.FormatHTML:
		var c render.HTMLContainer
		render.Fill(&c, records, p.Columns, "", render.EscapeMarkup)
		_, err := io.WriteString(w, c.String())
		return err

	default:
		_, err := io.WriteString(w, renderText(p, records, output.TerminalWidth()))
		return err
	}
}

// renderText lays records out as an aligned table of width at most
// maxWidth (0 for unbounded).
func renderText(p panel.Config, records []panel.Record, maxWidth int) string {
	c := render.NewTextContainer(p.Columns)
	render.Fill(c, records, p.Columns, "", render.SanitizeTerminal)
	return c.Render(maxWidth)
}

func columnTitles(cols []panel.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}
