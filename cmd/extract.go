// File: cmd/extract.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/browser/htmlpage"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
	"github.com/xkilldash9x/estate-scout/internal/observability"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

func newExtractCmd() *cobra.Command {
	var (
		htmlFile string
		pageURL  string
		format   string
		output   string
	)

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract listings from a saved results page",
		Long: `Reads a results page saved to disk (for example a diagnostics capture)
and runs record extraction on it without launching a browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			var opts []htmlpage.Option
			if pageURL != "" {
				opts = append(opts, htmlpage.WithURL(pageURL))
			}
			page, err := htmlpage.FromFile(htmlFile, opts...)
			if err != nil {
				return fmt.Errorf("failed to load page: %w", err)
			}

			opener := dom.OpenerFunc(func(context.Context) (dom.Page, error) { return page, nil })
			o := scrape.NewOrchestrator(opener, cfg, humanoid.Instant{}, observability.GetLogger())
			records, err := o.ExtractPage(ctx, page)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), output, format, recordRows(records))
		},
	}

	extractCmd.Flags().StringVar(&htmlFile, "html", "", "path to the saved HTML page (required)")
	extractCmd.Flags().StringVar(&pageURL, "url", "", "URL the page was saved from, used to resolve relative links")
	extractCmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, table)")
	extractCmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	_ = extractCmd.MarkFlagRequired("html")
	return extractCmd
}
