package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show running and queued background tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newClient().Activity(cmd.Context())
			if err != nil {
				logger.Warn("activity poll failed", "error", err)
				return err
			}
			return GetFormatter(cmd.OutOrStdout()).OutputData(a, func(w io.Writer) error {
				if a.Active == 0 {
					_, err := fmt.Fprintln(w, "No background tasks.")
					return err
				}
				_, err := fmt.Fprintf(w, "%d active (%d running, %d queued)\n", a.Active, a.Running, a.Queued)
				return err
			})
		},
	}
}
