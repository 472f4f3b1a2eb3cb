package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/panel"
	"github.com/vodum/console/internal/util"
)

type panelInfo struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Resource        string   `json:"resource"`
	RefreshInterval string   `json:"refresh_interval"`
	Columns         []string `json:"columns"`
	Action          string   `json:"action,omitempty"`
	Mounted         bool     `json:"mounted"`
	Default         bool     `json:"default"`
}

func newPanelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "panels",
		Short: "List the available panels",
		Long: `List every panel with its API resource, refresh interval and columns.

Mounted panels (dashboard.panels) are marked with *, the default panel
with >.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			infos := listPanels(reg, currentConfig().Dashboard.Panels, currentConfig().Dashboard.DefaultPanel)
			return GetFormatter(cmd.OutOrStdout()).OutputData(infos, func(w io.Writer) error {
				for _, p := range infos {
					mark := " "
					switch {
					case p.Default:
						mark = ">"
					case p.Mounted:
						mark = "*"
					}
					fmt.Fprintf(w, "%s %-10s %-16s every %-6s %s\n",
						mark, p.ID, p.Resource, p.RefreshInterval, strings.Join(p.Columns, ", "))
				}
				return nil
			})
		},
	}
}

// listPanels describes reg. defaultPanel "" marks the first mounted panel.
func listPanels(reg *panel.Registry, mounted []string, defaultPanel string) []panelInfo {
	isMounted := make(map[string]bool, len(mounted))
	for _, id := range mounted {
		isMounted[id] = true
	}

	var out []panelInfo
	for _, id := range reg.IDs() {
		p, _ := reg.Get(id)
		if defaultPanel == "" && isMounted[id] {
			defaultPanel = id
		}
		info := panelInfo{
			ID:              p.ID,
			Title:           p.Title,
			Resource:        p.Resource,
			RefreshInterval: util.FormatDuration(p.RefreshInterval),
			Columns:         columnTitles(p.Columns),
			Mounted:         isMounted[id],
			Default:         id == defaultPanel && isMounted[id],
		}
		if p.Action != nil {
			info.Action = p.Action.ID
		}
		out = append(out, info)
	}
	return out
}
