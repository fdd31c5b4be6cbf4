package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past submissions from the ledger",
	Long: `History lists the submission ledger, newest first, optionally filtered by
mode and response status. With --export the rows are written as YAML
instead of printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mode, _ := cmd.Flags().GetString("mode")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		export, _ := cmd.Flags().GetString("export")
		opts := ledger.QueryOptions{Mode: mode, Status: status, Limit: limit}

		store, err := ledger.Open(cfg.Paths.InData(cfg.Paths.Ledger))
		if err != nil {
			return err
		}
		defer store.Close()

		if export != "" {
			if err := store.ExportYAML(cmd.Context(), export, opts); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "History exported to %s\n", export)
			return nil
		}

		rows, err := store.History(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No submissions recorded.")
			return nil
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Header("Run At", "Mode", "Status", "OSTI ID", "Accession", "Title")
		for _, s := range rows {
			err := table.Append(
				s.RunAt.Local().Format(time.DateTime), s.Mode, s.Status,
				s.OSTIID, s.AccessionNum, s.Title,
			)
			if err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func init() {
	historyCmd.Flags().String("mode", "", "only show this mode: dry-run, test, or prod")
	historyCmd.Flags().String("status", "", "only show this response status, e.g. SUCCESS")
	historyCmd.Flags().Int("limit", 50, "maximum number of rows (0 for all)")
	historyCmd.Flags().String("export", "", "write the rows as YAML to this file")

	rootCmd.AddCommand(historyCmd)
}
