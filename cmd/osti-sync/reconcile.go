package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/catalog"
	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/internal/metrics"
	"github.com/pdiddy/osti-sync/pkg/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Find DataSpace datasets that OSTI does not have",
	Long: `Reconcile compares the saved DataSpace and OSTI snapshots and writes the
DataSpace items with no OSTI record to the upload snapshot.

With the handle strategy (the default) each OSTI DOI is followed to its
DataSpace handle; resolutions are cached in the redirect file so reruns only
touch new DOIs. The title strategy compares titles instead. OSTI records that
match nothing are listed as anomalies and never stop the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if m, _ := cmd.Flags().GetString("match"); m != "" {
			cfg.Match = types.MatchStrategyName(m)
		}
		log := logger(cmd.Context())

		external, err := catalog.LoadExternal(cfg.Paths.InData(cfg.Paths.OSTIScrape))
		if err != nil {
			return err
		}
		internal, err := catalog.LoadInternal(cfg.Paths.InData(cfg.Paths.DSpaceScrape))
		if err != nil {
			return err
		}

		hc := httputil.NewClient(nil, cfg.HTTP, log)
		res, err := reconcileRecords(cmd.Context(), cfg, hc, internal, external, log, os.Stdout)
		if err != nil {
			return err
		}

		run := metrics.NewRun()
		run.InternalRecords.Set(float64(len(internal)))
		run.ExternalRecords.Set(float64(len(external)))
		run.UnpostedRecords.Set(float64(len(res.Unposted)))
		run.Anomalies.Set(float64(len(res.Anomalies)))
		return writeMetrics(cfg, run, log)
	},
}

func init() {
	reconcileCmd.Flags().String("match", "", "match strategy: handle or title (default from config)")

	rootCmd.AddCommand(reconcileCmd)
}
