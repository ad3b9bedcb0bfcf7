// Command supplier-search runs one supplier price search from the terminal
// using the same configuration and sources as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeflow/backend/config"
	"github.com/tradeflow/backend/internal/app"
	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/logging"
)

// searcher is the slice of the service the command needs
type searcher interface {
	SearchSuppliers(ctx context.Context, query string, limit int, filter []string) ([]domain.ProductResult, error)
}

// buildFunc assembles a searcher and the cleanup that releases it
type buildFunc func(ctx context.Context, verbose bool) (searcher, func(context.Context) error, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(buildFromConfig).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildFromConfig(ctx context.Context, verbose bool) (searcher, func(context.Context) error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	level := "error"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(false, level)
	if err != nil {
		return nil, nil, err
	}

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application.Suppliers, func(ctx context.Context) error {
		defer func() { _ = logger.Sync() }()
		return application.Close(ctx)
	}, nil
}

func newRootCmd(build buildFunc) *cobra.Command {
	var (
		limit   int
		sources []string
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "supplier-search [query]",
		Short: "Find the cheapest supplier prices for a product",
		Long: `Searches every configured supplier source and prints results cheapest first.
Estimated prices are marked; they come from a language model, not a retailer.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := build(ctx, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn(context.Background()) }()

			results, err := svc.SearchSuppliers(ctx, strings.Join(args, " "), limit, sources)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return writeTable(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (0 uses the configured default)")
	cmd.Flags().StringSliceVarP(&sources, "sources", "s", nil, "restrict to these sources, e.g. awin,scraper")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log adapter activity to stderr")

	return cmd
}

func writeJSON(w io.Writer, results []domain.ProductResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeTable(w io.Writer, results []domain.ProductResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRICE\tSTORE\tPRODUCT\tSOURCE")
	for _, r := range results {
		price := fmt.Sprintf("%s %.2f", r.Currency, *r.Price)
		if !r.IsRealPrice {
			price += " (est.)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", price, r.StoreName, r.ProductName, r.Source)
	}
	if domain.AllEstimated(results) {
		fmt.Fprintln(tw, "\nAll prices are estimates; check with the retailer before ordering.")
	}
	return tw.Flush()
}
