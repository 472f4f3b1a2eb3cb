package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/config"
	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/internal/state"
	"github.com/vodum/console/internal/tui/dashboard"
	"github.com/vodum/console/internal/tui/theme"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash", "d"},
		Short:   "Open the interactive dashboard",
		Long: `Open the VODUM dashboard.

The dashboard shows one tab per mounted panel (dashboard.panels). Only the
active panel is polled, at its own interval; a badge in the corner counts
running and queued background tasks. The selected panel is remembered
between runs.

Panel titles and columns follow edits to the config file while the
dashboard is open.

Examples:
  vodum dashboard
  vodum dash --url http://vodum.lan:5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsInteractive(os.Stdout) {
				return output.NewCLIError("the dashboard needs a terminal").
					WithCode("NOT_A_TERMINAL").
					WithHint(output.HintNotATerminal)
			}
			return runDashboard()
		},
	}
}

func runDashboard() error {
	c := currentConfig()
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	watchPath := cfgFile
	if watchPath == "" {
		watchPath = config.DefaultPath()
	}

	logger.Info("dashboard starting",
		"url", c.Server.URL,
		"panels", c.Dashboard.Panels,
		"default_panel", c.Dashboard.DefaultPanel)

	return dashboard.Run(dashboard.Options{
		Client:           newClient(),
		Registry:         reg,
		Mounted:          c.Dashboard.Panels,
		DefaultPanel:     c.Dashboard.DefaultPanel,
		Store:            state.NewFileStore(config.ExpandHome(c.State.Path)),
		Logger:           logger,
		ActivityInterval: c.Dashboard.ActivityInterval.Std(),
		RefreshHints:     c.Dashboard.RefreshHints,
		Theme:            theme.FromName(c.Dashboard.Theme),
	}, watchPath)
}
