package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/pdiddy/osti-sync/internal/catalog"
	"github.com/pdiddy/osti-sync/internal/form"
	"github.com/pdiddy/osti-sync/internal/funding"
	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/internal/ledger"
	"github.com/pdiddy/osti-sync/internal/metrics"
	"github.com/pdiddy/osti-sync/internal/reconcile"
	"github.com/pdiddy/osti-sync/internal/resolve"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// scrapeOSTI fetches the OSTI listing and writes the snapshot.
func scrapeOSTI(ctx context.Context, cfg types.Config, hc *httputil.Client, w io.Writer) ([]types.ExternalRecord, error) {
	c := &catalog.OSTIClient{HTTP: hc, Cfg: cfg.OSTI}
	recs, err := c.FetchAll(ctx, w)
	if err != nil {
		return nil, err
	}
	path := cfg.Paths.InData(cfg.Paths.OSTIScrape)
	if err := catalog.SaveSnapshot(path, recs); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "%d OSTI records saved to %s\n", len(recs), path)
	return recs, nil
}

// scrapeDSpace fetches every configured collection and writes the snapshot.
func scrapeDSpace(ctx context.Context, cfg types.Config, hc *httputil.Client, w io.Writer) ([]types.CatalogRecord, error) {
	c := &catalog.DSpaceClient{HTTP: hc, Cfg: cfg.DSpace}
	recs, err := c.FetchAll(ctx, w)
	if err != nil {
		return nil, err
	}
	path := cfg.Paths.InData(cfg.Paths.DSpaceScrape)
	if err := catalog.SaveSnapshot(path, recs); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "%d DataSpace items saved to %s\n", len(recs), path)
	return recs, nil
}

// reconcileRecords finds the unposted internal records, writes them to the
// upload snapshot, prints anomalies, and mirrors the redirect cache into the
// ledger when the handle strategy ran.
func reconcileRecords(ctx context.Context, cfg types.Config, hc *httputil.Client, internal []types.CatalogRecord, external []types.ExternalRecord, log zerolog.Logger, w io.Writer) (reconcile.Result, error) {
	cachePath := cfg.Paths.InData(cfg.Paths.Redirects)

	var r *resolve.Resolver
	if cfg.Match != types.MatchByTitle {
		cache, err := resolve.LoadCache(cachePath)
		if err != nil {
			return reconcile.Result{}, err
		}
		r = resolve.NewResolver(resolve.HTTPRedirector{Client: hc}, cache, cfg.Resolver, log)
	}
	flush := func(c *resolve.Cache) error { return c.Save(cachePath) }

	strategy, err := reconcile.NewStrategy(cfg.Match, r, flush)
	if err != nil {
		return reconcile.Result{}, err
	}
	res, err := strategy.FindUnposted(ctx, internal, external)
	if err != nil {
		return reconcile.Result{}, err
	}

	uploadPath := cfg.Paths.InData(cfg.Paths.ToUpload)
	if err := catalog.SaveSnapshot(uploadPath, res.Unposted); err != nil {
		return reconcile.Result{}, err
	}
	fmt.Fprintf(w, "%d of %d DataSpace items are not in OSTI (strategy %s), saved to %s\n",
		len(res.Unposted), len(internal), strategy.Name(), uploadPath)

	if len(res.Anomalies) > 0 {
		fmt.Fprintf(w, "%d OSTI record(s) have no DataSpace match:\n", len(res.Anomalies))
		if err := printAnomalies(w, res.Anomalies); err != nil {
			return res, err
		}
	}

	if r != nil {
		if err := mirrorRedirects(ctx, cfg, r.Cache()); err != nil {
			log.Warn().Err(err).Msg("could not mirror redirect cache into ledger")
		}
	}
	return res, nil
}

func printAnomalies(w io.Writer, anomalies []types.Anomaly) error {
	table := tablewriter.NewTable(w)
	table.Header("OSTI ID", "DOI", "Title", "Reason")
	for _, a := range anomalies {
		if err := table.Append(a.Record.OSTIID, a.Record.DOI, a.Record.Title, a.Reason); err != nil {
			return err
		}
	}
	return table.Render()
}

func mirrorRedirects(ctx context.Context, cfg types.Config, cache *resolve.Cache) error {
	store, err := ledger.Open(cfg.Paths.InData(cfg.Paths.Ledger))
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.SyncRedirects(ctx, cache.Entries())
	return err
}

// writeForms regenerates the entry form from the unposted records and syncs
// the hand-edited form input against it. With seed set, a missing form input
// is created from the entry form.
func writeForms(cfg types.Config, unposted []types.CatalogRecord, seed bool, w io.Writer) (reconcile.SyncSummary, error) {
	ex, err := funding.New(cfg.Funding)
	if err != nil {
		return reconcile.SyncSummary{}, err
	}
	rows := form.Generate(unposted, ex, cfg.Submission)
	if err := form.WriteFile(cfg.Paths.EntryForm, rows); err != nil {
		return reconcile.SyncSummary{}, err
	}
	fmt.Fprintf(w, "Entry form with %d row(s) written to %s\n", len(rows), cfg.Paths.EntryForm)
	form.PrintRows(w, rows)

	if seed {
		if _, err := os.Stat(cfg.Paths.FormInput); os.IsNotExist(err) {
			seeded, _ := reconcile.SyncEntries(nil, rows, cfg.Submission.DefaultDatatype)
			if err := form.WriteFile(cfg.Paths.FormInput, seeded); err != nil {
				return reconcile.SyncSummary{}, err
			}
			fmt.Fprintf(w, "Seeded %s from the entry form\n", cfg.Paths.FormInput)
		}
	}
	return form.UpdateFormInput(cfg.Paths.EntryForm, cfg.Paths.FormInput, cfg.Submission.DefaultDatatype, w)
}

// runPipeline scrapes both catalogs, reconciles them, and refreshes the forms.
func runPipeline(ctx context.Context, cfg types.Config, seed bool, log zerolog.Logger, w io.Writer) error {
	run := metrics.NewRun()
	hc := httputil.NewClient(nil, cfg.HTTP, log)

	external, err := scrapeOSTI(ctx, cfg, hc, w)
	if err != nil {
		return err
	}
	internal, err := scrapeDSpace(ctx, cfg, hc, w)
	if err != nil {
		return err
	}
	run.ExternalRecords.Set(float64(len(external)))
	run.InternalRecords.Set(float64(len(internal)))

	res, err := reconcileRecords(ctx, cfg, hc, internal, external, log, w)
	if err != nil {
		return err
	}
	run.UnpostedRecords.Set(float64(len(res.Unposted)))
	run.Anomalies.Set(float64(len(res.Anomalies)))

	sum, err := writeForms(cfg, res.Unposted, seed, w)
	if err != nil {
		return err
	}
	log.Info().
		Int("unposted", len(res.Unposted)).
		Int("anomalies", len(res.Anomalies)).
		Int("added", len(sum.Added)).
		Int("dropped", len(sum.Dropped)).
		Msg("pipeline complete")

	return writeMetrics(cfg, run, log)
}

func writeMetrics(cfg types.Config, run *metrics.Run, log zerolog.Logger) error {
	path := cfg.Paths.InData(cfg.Paths.MetricsFile)
	if err := run.WriteFile(path, time.Now()); err != nil {
		return err
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("metrics written")
	}
	return nil
}
