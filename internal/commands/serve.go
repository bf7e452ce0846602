package commands

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"marketbrowser/internal/coordinator"
	"marketbrowser/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.ListenAddr
				}
				srv := httpapi.New(addr, a.market, a.watchlists,
					httpapi.WithLogger(a.logger),
					httpapi.WithGatherer(a.registry))

				p := pool.New().WithContext(ctx).WithCancelOnError()
				p.Go(func(ctx context.Context) error {
					return srv.Start()
				})
				p.Go(func(ctx context.Context) error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
				return p.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from LISTEN_ADDR)")
	return cmd
}

func warmCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Prefetch the movers listing and overviews of watched symbols into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				tasks := []coordinator.Task{{Key: "listing", Run: a.market.PrefetchListing}}
				for _, symbol := range a.watchlists.Symbols() {
					tasks = append(tasks, coordinator.Task{
						Key: "overview:" + symbol,
						Run: func(ctx context.Context) error {
							return a.market.PrefetchOverview(ctx, symbol)
						},
					})
				}

				_, err := coordinator.New(tasks, cmd.OutOrStdout()).Run(ctx)
				return err
			})
		},
	}
}
