package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/contentsync-go/internal/core"
	"github.com/vrsandeep/contentsync-go/internal/models"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <content-id>",
		Short: "Follow one record until its generation job finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := app.Client().GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			app.Store().Fetched(c)
			return follow(ctx, app, cmd.OutOrStdout())
		},
	}
}

// follow prints the current record's status transitions until its job
// reaches a terminal status, the record disappears or ctx is done.
func follow(ctx context.Context, app *core.App, w io.Writer) error {
	cur := app.Store().Current()
	if cur == nil {
		return fmt.Errorf("nothing to follow")
	}
	renderTransition(w, cur)
	if !cur.HasActiveJob() {
		return nil
	}

	changes := make(chan struct{}, 1)
	unregister := app.Store().OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unregister()

	stopTracking := app.TrackCurrent()
	defer stopTracking()
	app.StartScheduler()

	last := statusText(cur)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
		cur = app.Store().Current()
		if cur == nil {
			fmt.Fprintln(w, "Record was deleted.")
			return nil
		}
		if status := statusText(cur); status != last {
			last = status
			renderTransition(w, cur)
		}
		if cur.JobStatus != nil && cur.JobStatus.IsTerminal() {
			if *cur.JobStatus == models.JobStatusFailed {
				return fmt.Errorf("generation job %s failed", cur.JobIDValue())
			}
			if cur.HasContent() {
				fmt.Fprintf(w, "\n%s\n", *cur.Content)
			}
			return nil
		}
	}
}
