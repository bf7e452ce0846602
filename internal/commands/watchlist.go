package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func watchlistCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage named watchlists",
	}

	// every mutation prints the lists as they stand afterwards
	mutate := func(use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, a *app, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, argv []string) error {
				return rt.run(cmd, func(ctx context.Context, a *app) error {
					if err := fn(ctx, a, argv); err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), a.watchlists.Lists())
				})
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show every watchlist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.run(cmd, func(ctx context.Context, a *app) error {
					return printJSON(cmd.OutOrStdout(), a.watchlists.Lists())
				})
			},
		},
		mutate("add NAME SYMBOL", "Add a symbol to a watchlist, creating it if needed", cobra.ExactArgs(2),
			func(ctx context.Context, a *app, args []string) error {
				return a.watchlists.AddToWatchlist(ctx, args[0], args[1])
			}),
		mutate("remove NAME SYMBOL", "Remove a symbol from one watchlist", cobra.ExactArgs(2),
			func(ctx context.Context, a *app, args []string) error {
				return a.watchlists.RemoveFromWatchlist(ctx, args[0], args[1])
			}),
		mutate("remove-all SYMBOL", "Remove a symbol from every watchlist", cobra.ExactArgs(1),
			func(ctx context.Context, a *app, args []string) error {
				return a.watchlists.RemoveFromWatchlists(ctx, args[0])
			}),
		mutate("delete NAME", "Delete a watchlist", cobra.ExactArgs(1),
			func(ctx context.Context, a *app, args []string) error {
				return a.watchlists.DeleteList(ctx, args[0])
			}),
		&cobra.Command{
			Use:   "quotes",
			Short: "Quote every watched symbol, one provider round trip at a time",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.run(cmd, func(ctx context.Context, a *app) error {
					return printJSON(cmd.OutOrStdout(), a.market.WatchlistQuotes(ctx, a.watchlists.Symbols()))
				})
			},
		},
	)
	return cmd
}
