package main

import (
	"os"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// serialJob wraps run so that a call made while an earlier call is still
// running is skipped rather than started alongside it.
func serialJob(run func(), l cron.Logger) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(l)).Then(cron.FuncJob(run))
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on a cron schedule",
	Long: `Watch runs scrape, reconcile, and form on a cron schedule until it is
interrupted. A failed run is logged and the next scheduled run proceeds.
A run that comes due while the previous one is still going is skipped.
The config file is reread before every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, _ := cmd.Flags().GetString("schedule")
		now, _ := cmd.Flags().GetBool("now")
		ctx := cmd.Context()
		log := logger(ctx)

		run := func() {
			cfg, err := loadConfig()
			if err != nil {
				log.Error().Err(err).Msg("loading config")
				return
			}
			if err := runPipeline(ctx, cfg, false, log, os.Stdout); err != nil {
				log.Error().Err(err).Msg("scheduled run failed")
			}
		}

		cl := cronLogger{log: log}
		job := serialJob(run, cl)
		c := cron.New(cron.WithLogger(cl))
		if _, err := c.AddJob(schedule, job); err != nil {
			return err
		}
		log.Info().Str("schedule", schedule).Msg("watching")
		c.Start()
		if now {
			go job.Run()
		}

		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("watch stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().String("schedule", "0 6 * * 1", "cron schedule (minute hour day month weekday)")
	watchCmd.Flags().Bool("now", false, "run once immediately before waiting for the schedule")

	rootCmd.AddCommand(watchCmd)
}
