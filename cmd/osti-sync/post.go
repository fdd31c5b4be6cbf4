// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/catalog"
	"github.com/pdiddy/osti-sync/internal/form"
	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/internal/ledger"
	"github.com/pdiddy/osti-sync/internal/metrics"
	"github.com/pdiddy/osti-sync/internal/submission"
	"github.com/pdiddy/osti-sync/pkg/types"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Build the OSTI payload from the form input and submit it",
	Long: `Post joins the form input with the unposted DataSpace items, validates every
row, and submits the resulting records to OSTI E-Link. Validation problems
are reported for the whole batch and nothing is sent until all of them are
fixed.

Modes:
  dry-run  build and validate, answer with a synthetic response (no network)
  test     submit to the E-Link test endpoint
  prod     submit to the E-Link production endpoint

The response is written to the response directory, printed as a table, and
recorded in the submission ledger.`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().String("mode", string(submission.ModeDryRun), "submission mode: dry-run, test, or prod")
	postCmd.Flags().Bool("canned", false, "in dry-run mode, answer with the fixed two-record sample response")

	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := submission.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	canned, _ := cmd.Flags().GetBool("canned")
	if canned && mode != submission.ModeDryRun {
		return fmt.Errorf("--canned only applies to dry-run mode")
	}
	log := logger(cmd.Context()).With().Str("mode", string(mode)).Logger()
	ctx := cmd.Context()

	records, err := catalog.LoadInternal(cfg.Paths.InData(cfg.Paths.ToUpload))
	if err != nil {
		return err
	}
	entries, err := form.ReadFile(cfg.Paths.FormInput)
	if err != nil {
		return err
	}
	if ids := submission.PlaceholderRows(entries, cfg.Submission.DefaultDatatype); len(ids) > 0 {
		log.Warn().Ints("dspace_ids", ids).Str("datatype", cfg.Submission.DefaultDatatype).
			Msg("rows still carry the default datatype; check them before posting to prod")
	}

	payload, err := submission.NewBuilder(cfg.Submission).Build(records, entries)
	if err != nil {
		return fmt.Errorf("form input is not ready to post:\n%w", err)
	}
	payloadPath := cfg.Paths.InData(cfg.Paths.Payload)
	if err := jsonfile.Write(payloadPath, payload); err != nil {
		return err
	}
	if len(payload) == 0 {
		fmt.Println("Nothing to post.")
		return nil
	}
	fmt.Printf("%d record(s) written to %s\n", len(payload), payloadPath)

	var creds types.Credentials
	if mode.NeedsCredentials() {
		if creds, err = credStore.Credentials(string(mode)); err != nil {
			return err
		}
	}

	client, err := submission.NewClient(mode, cfg.OSTI, &http.Client{Timeout: cfg.HTTP.Timeout}, cfg.HTTP.MaxRetries, log)
	if err != nil {
		return err
	}
	if canned {
		client = &submission.StubClient{Response: submission.CannedResponse()}
	}

	resp, err := client.Submit(ctx, payload, creds)
	if err != nil {
		return err
	}

	now := time.Now()
	failures := submission.Report(os.Stdout, resp)
	if err := submission.PrintTable(os.Stdout, resp); err != nil {
		return err
	}
	path, err := submission.WriteResponse(cfg.Paths.ResponseDir, mode, resp, now)
	if err != nil {
		return err
	}
	fmt.Printf("Response saved to %s\n", path)
	submission.Summarize(os.Stdout, mode, resp, path)

	if err := recordPost(cmd, cfg, mode, resp, now); err != nil {
		log.Warn().Err(err).Msg("could not record submission in ledger")
	}

	run := metrics.NewRun()
	run.UnpostedRecords.Set(float64(len(records)))
	run.ObserveResponse(resp)
	if err := writeMetrics(cfg, run, log); err != nil {
		return err
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d record(s) failed submission", len(failures), len(resp.Records))
	}
	return nil
}

func recordPost(cmd *cobra.Command, cfg types.Config, mode submission.Mode, resp *types.SubmissionResponse, at time.Time) error {
	store, err := ledger.Open(cfg.Paths.InData(cfg.Paths.Ledger))
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.RecordResponse(cmd.Context(), string(mode), resp, at)
	return err
}
