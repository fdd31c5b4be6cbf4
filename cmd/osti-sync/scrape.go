package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/httputil"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Download the OSTI listing and the DataSpace community",
	Long: `Scrape pages through the OSTI Data Explorer listing for the lab and fetches
every configured DataSpace collection, saving both as JSON snapshots in the
data directory. The scrape fails if OSTI never returns an empty page within
osti.max_pages, or if the community item count disagrees with the number of
items fetched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		source, _ := cmd.Flags().GetString("source")
		log := logger(cmd.Context())
		hc := httputil.NewClient(nil, cfg.HTTP, log)

		switch source {
		case "all", "osti", "dspace":
		default:
			return fmt.Errorf("unknown source %q: use all, osti, or dspace", source)
		}
		if source == "all" || source == "osti" {
			if _, err := scrapeOSTI(cmd.Context(), cfg, hc, os.Stdout); err != nil {
				return err
			}
		}
		if source == "all" || source == "dspace" {
			if _, err := scrapeDSpace(cmd.Context(), cfg, hc, os.Stdout); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("source", "all", "catalog to scrape: all, osti, or dspace")

	rootCmd.AddCommand(scrapeCmd)
}
