package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newDashboardCommand() *cobra.Command {
	var page, limit int
	var untilIdle bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show one page of content and keep it updated",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if h := app.MetricsHandler(); h != nil {
				srv := &http.Server{Addr: app.Config().Metrics.Addr, Handler: h}
				go func() {
					log.Printf("Serving metrics on %s", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("Warning: metrics server: %v", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			if limit < 1 {
				limit = app.Config().Page.Limit
			}
			result, err := app.Client().List(ctx, page, limit)
			if err != nil {
				return err
			}
			app.Store().Listed(result.Items, result.Pagination)

			changes := make(chan struct{}, 1)
			unregister := app.Store().OnChange(func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			defer unregister()

			stopTracking := app.TrackList()
			defer stopTracking()
			app.StartScheduler()

			w := cmd.OutOrStdout()
			for {
				renderTable(w, app.Store().List(), app.Store().Pagination())
				if untilIdle && len(app.Store().ActiveJobIDs()) == 0 {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-changes:
				}
			}
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to show")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "records per page (default page.limit)")
	cmd.Flags().BoolVar(&untilIdle, "until-idle", false, "exit once no job on the page is running")
	return cmd
}
