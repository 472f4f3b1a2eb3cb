package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/internal/panel"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <task-id>",
		Short: "Queue a task run",
		Long: `Ask VODUM to run a task now, as pressing enter on the tasks panel does.

Task IDs are listed by 'vodum fetch tasks --format json'.

Examples:
  vodum run 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			owner, ok := reg.OwnerOf(panel.RunTask.ID)
			if !ok {
				return output.UnknownPanelError(panel.Tasks)
			}

			path := owner.Action.Path(args[0])
			client := newClient()
			if err := client.Invoke(cmd.Context(), owner.Action.ID, path); err != nil {
				logger.Warn("action failed",
					"action", owner.Action.ID,
					"target", args[0],
					"panel", owner.ID,
					"status", api.StatusCode(err),
					"error", err)
				return err
			}
			logger.Info("action done", "action", owner.Action.ID, "target", args[0], "panel", owner.ID)

			return GetFormatter(cmd.OutOrStdout()).OutputData(
				output.NewSuccess(fmt.Sprintf("task %s queued", args[0])),
				func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Task %s queued.\n", args[0])
					return err
				})
		},
	}
}
