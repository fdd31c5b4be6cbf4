package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/catalog"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Generate the entry form and sync the hand-edited form input",
	Long: `Form builds one entry form row per unposted DataSpace item, with DOE and
non-DOE contract numbers pulled from the funder text, and writes it as TSV.

It then syncs the form input (the copy a curator edits) against the fresh
entry form: rows still unposted are kept exactly as edited, rows now in OSTI
are removed, and new rows are appended with the default datatype so they can
be reviewed before posting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetBool("seed")

		unposted, err := catalog.LoadInternal(cfg.Paths.InData(cfg.Paths.ToUpload))
		if err != nil {
			return err
		}
		_, err = writeForms(cfg, unposted, seed, os.Stdout)
		return err
	},
}

func init() {
	formCmd.Flags().Bool("seed", false, "create the form input from the entry form when it does not exist")

	rootCmd.AddCommand(formCmd)
}
