package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"marketbrowser/internal/fallback"
)

func moversCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "movers [gainers|losers]",
		Short:     "Show today's top gainers or losers",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(fallback.KindGainers), string(fallback.KindLosers)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := fallback.KindGainers
			if len(args) == 1 {
				kind = fallback.Kind(args[0])
			}
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.TopMovers(ctx, kind))
			})
		},
	}
}

func listingCmd(rt *runtime) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Show gainers and losers together, cached for a few minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.Listing(ctx, refresh))
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached listing")
	return cmd
}

func overviewCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "overview SYMBOL",
		Short: "Show the provider's company overview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.CompanyOverview(ctx, args[0]))
			})
		},
	}
}

func productCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "product SYMBOL",
		Short: "Show the resolved product page: profile and price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				res := a.market.Product(ctx, args[0])
				if res.Advisory != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Advisory)
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func seriesCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "series SYMBOL",
		Short: "Show recent daily closes, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.DailySeries(ctx, args[0], limit))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 120, "number of trading days")
	return cmd
}

func quoteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Show the latest quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.Quote(ctx, args[0]))
			})
		},
	}
}

func searchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search tickers by symbol or company name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.SearchTickers(ctx, args[0]))
			})
		},
	}
}

func indicesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "Show market index rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.market.Indices())
			})
		},
	}
}
