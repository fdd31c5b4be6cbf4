package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/audit"
	"github.com/pdiddy/osti-sync/internal/catalog"
	"github.com/pdiddy/osti-sync/internal/ledger"
	"github.com/pdiddy/osti-sync/internal/resolve"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Write the DataSpace content audit with OSTI DOIs",
	Long: `Audit lists every item in the DataSpace snapshot with its handle, the OSTI
DOI that redirects to it (from the redirect cache), issue date, collection,
authors, and title, as CSV sorted by DSpace ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		records, err := catalog.LoadInternal(cfg.Paths.InData(cfg.Paths.DSpaceScrape))
		if err != nil {
			return err
		}
		cache, err := resolve.LoadCache(cfg.Paths.InData(cfg.Paths.Redirects))
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		w, closeFn, err := openOutput(out)
		if err != nil {
			return err
		}
		defer closeFn()

		rows := audit.Build(records, cache, cfg.Submission.SiteURLBase)
		if err := audit.WriteCSV(w, rows); err != nil {
			return err
		}
		if out != "" {
			fmt.Fprintf(os.Stderr, "%d row(s) written to %s\n", len(rows), out)
		}
		return nil
	},
}

var auditDOIsCmd = &cobra.Command{
	Use:   "dois <file.csv>",
	Short: "Fill the DOI column of a CSV from the redirect cache",
	Long: `Dois reads a CSV with a handle column and writes it back out with the DOI
column filled from the redirect cache. The DOI column is appended when the
input has none.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cache, err := resolve.LoadCache(cfg.Paths.InData(cfg.Paths.Redirects))
		if err != nil {
			return err
		}
		handleCol, _ := cmd.Flags().GetString("handle-col")
		doiCol, _ := cmd.Flags().GetString("doi-col")
		out, _ := cmd.Flags().GetString("output")

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		w, closeFn, err := openOutput(out)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := audit.FillDOIs(in, w, cache, handleCol, doiCol)
		if err != nil {
			return fmt.Errorf("filling DOIs in %s: %w", args[0], err)
		}
		fmt.Fprintf(os.Stderr, "%d row(s) matched a DOI\n", n)
		return nil
	},
}

var auditLookupCmd = &cobra.Command{
	Use:   "lookup <doi-or-handle>",
	Short: "Look up the handle for a DOI or the DOI for a handle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cache, err := resolve.LoadCache(cfg.Paths.InData(cfg.Paths.Redirects))
		if err != nil {
			return err
		}
		key := args[0]
		if h, ok := cache.Get(key); ok {
			fmt.Println(h)
			return nil
		}
		if doi, ok := cache.DOIFor(key); ok {
			fmt.Println(doi)
			return nil
		}

		store, err := ledger.Open(cfg.Paths.InData(cfg.Paths.Ledger))
		if err != nil {
			return err
		}
		defer store.Close()
		h, ok, err := store.Redirect(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not in the redirect cache or the ledger", key)
		}
		fmt.Println(h)
		return nil
	},
}

func init() {
	auditCmd.Flags().StringP("output", "o", "", "write the CSV to this file instead of stdout")

	auditDOIsCmd.Flags().String("handle-col", "handle", "column holding the DataSpace handle")
	auditDOIsCmd.Flags().String("doi-col", "DOI", "column to fill with the OSTI DOI")
	auditDOIsCmd.Flags().StringP("output", "o", "", "write the CSV to this file instead of stdout")

	auditCmd.AddCommand(auditDOIsCmd)
	auditCmd.AddCommand(auditLookupCmd)
	rootCmd.AddCommand(auditCmd)
}

// openOutput returns stdout for an empty path and a created file otherwise.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
