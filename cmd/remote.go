// File: cmd/remote.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/estate-scout/pkg/client"
)

func newRemoteCmd() *cobra.Command {
	var (
		server   string
		location string
		format   string
		output   string
		timeout  time.Duration
	)

	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Ask a running estate-scout server to scrape",
		Args:  cobra.NoArgs,
	}

	filters := addFilterFlags(remoteCmd)
	remoteCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(format); err != nil {
			return err
		}
		params := make(map[string]string)
		for key, v := range filters.spec() {
			params[string(key)] = v
		}

		c := client.New(server, client.WithTimeout(timeout))
		listings, err := c.Scrape(cmd.Context(), location, params)
		if err != nil {
			return fmt.Errorf("remote scrape failed: %w", err)
		}

		rows := make([]map[string]string, len(listings))
		for i, l := range listings {
			rows[i] = l
		}
		return emit(cmd.OutOrStdout(), output, format, rows)
	}

	remoteCmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "base URL of the estate-scout server")
	remoteCmd.Flags().StringVarP(&location, "location", "l", "", "location to search for (required)")
	remoteCmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, table)")
	remoteCmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	remoteCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "request timeout")
	_ = remoteCmd.MarkFlagRequired("location")
	return remoteCmd
}
