package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/output"
	"github.com/vodum/console/internal/panel"
)

func newWatchCmd() *cobra.Command {
	var (
		changes  bool
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:     "watch <panel>",
		Aliases: []string{"w"},
		Short:   "Poll a panel and print it on every refresh",
		Long: `Watch polls one panel at its refresh interval and prints the table
after every fetch, like the active dashboard tab does.

With --changes only the first table is printed in full; later refreshes
print the lines that were removed (-) and added (+), and nothing at all
when the data did not change.

A failed fetch is reported and the next poll still happens.

Examples:
  vodum watch tasks
  vodum watch logs --changes
  vodum watch users --interval 1m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lookupPanel(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := watchOptions{
				changes:  changes,
				interval: interval,
				count:    count,
				width:    output.TerminalWidth(),
			}
			return runWatch(ctx, newClient(), p, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&changes, "changes", false, "Print only the lines that changed between refreshes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default: the panel's refresh interval)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after N refreshes (0 runs until interrupted)")

	return cmd
}

type watchOptions struct {
	changes  bool
	interval time.Duration
	count    int
	width    int
}

// runWatch polls p until ctx is done or opts.count refreshes happened.
func runWatch(ctx context.Context, client *api.Client, p panel.Config, opts watchOptions, w, errW io.Writer) error {
	interval := opts.interval
	if interval <= 0 {
		interval = p.RefreshInterval
	}

	var (
		prev    string
		hasPrev bool
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for n := 0; opts.count == 0 || n < opts.count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		records, err := client.List(ctx, p.Resource)
		now := time.Now().Format("15:04:05")
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Warn("watch fetch failed",
				"panel", p.ID,
				"resource", p.Resource,
				"status", api.StatusCode(err),
				"error", err)
			fmt.Fprintf(errW, "[%s] %s: %v\n", now, p.ID, err)
		default:
			cur := renderText(p, records, opts.width)
			if !opts.changes || !hasPrev {
				fmt.Fprintf(w, "== %s %s (%d rows) ==\n%s", p.Title, now, len(records), cur)
			} else if d := output.ComputeDiff(prev, cur); !d.Empty() {
				fmt.Fprintf(w, "== %s %s ==\n%s", p.Title, now, d.String())
			}
			prev, hasPrev = cur, true
		}

		timer.Reset(interval)
	}
	return nil
}
