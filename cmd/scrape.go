// File: cmd/scrape.go
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/observability"
)

func newScrapeCmd() *cobra.Command {
	var (
		location string
		format   string
		output   string
	)

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a scrape in a local browser and print the listings",
		Long: `Launches a headless browser, searches the configured site for the given
location, applies any filters and prints the extracted listings.`,
		Args: cobra.NoArgs,
	}

	filters := addFilterFlags(scrapeCmd)
	scrapeCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(format); err != nil {
			return err
		}
		ctx := cmd.Context()
		cfg, err := configFrom(ctx)
		if err != nil {
			return err
		}
		logger := observability.GetLogger()

		shutdown, err := observability.InitTracing(ctx, cfg.Telemetry, cfg.Logger.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("Failed to flush traces.", zap.Error(err))
			}
		}()

		records, err := newScraper(cfg, logger).Run(ctx, location, filters.spec())
		if err != nil {
			return err
		}
		logger.Info("Listings collected.", zap.Int("count", len(records)))
		return emit(cmd.OutOrStdout(), output, format, recordRows(records))
	}

	scrapeCmd.Flags().StringVarP(&location, "location", "l", "", "location to search for (required)")
	scrapeCmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, table)")
	scrapeCmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	_ = scrapeCmd.MarkFlagRequired("location")
	return scrapeCmd
}
