package main

import (
	"os"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run scrape, reconcile, and form in sequence",
	Long: `Pipeline scrapes both catalogs, reconciles them, and refreshes the entry
form and form input. It stops before posting so the form input can be
reviewed; run post once the datatypes are filled in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetBool("seed")
		return runPipeline(cmd.Context(), cfg, seed, logger(cmd.Context()), os.Stdout)
	},
}

func init() {
	pipelineCmd.Flags().Bool("seed", false, "create the form input from the entry form when it does not exist")

	rootCmd.AddCommand(pipelineCmd)
}
