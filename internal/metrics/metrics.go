// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records per-run gauges and writes them in the Prometheus
// text exposition format for a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/osti-sync/pkg/types"
)

// Run holds the gauges for one invocation on a private registry.
type Run struct {
	Registry *prometheus.Registry

	InternalRecords prometheus.Gauge
	ExternalRecords prometheus.Gauge
	UnpostedRecords prometheus.Gauge
	Anomalies       prometheus.Gauge
	Submissions     *prometheus.GaugeVec
	LastRun         prometheus.Gauge
}

// NewRun registers the gauges on a fresh registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		Registry: reg,
		InternalRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "osti_sync_internal_records",
			Help: "DataSpace items fetched from the community",
		}),
		ExternalRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "osti_sync_external_records",
			Help: "Records listed by OSTI for the site",
		}),
		UnpostedRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "osti_sync_unposted_records",
			Help: "DataSpace items with no OSTI record",
		}),
		Anomalies: f.NewGauge(prometheus.GaugeOpts{
			Name: "osti_sync_anomalies",
			Help: "OSTI records that could not be matched to DataSpace",
		}),
		Submissions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "osti_sync_submissions",
			Help: "Submission response records by status",
		}, []string{"status"}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "osti_sync_last_run_timestamp_seconds",
			Help: "Unix time the run finished",
		}),
	}
}

// ObserveResponse counts the response records by status.
func (r *Run) ObserveResponse(resp *types.SubmissionResponse) {
	if resp == nil {
		return
	}
	for _, rec := range resp.Records {
		r.Submissions.WithLabelValues(rec.Status).Inc()
	}
}

// WriteFile stamps the run time and writes the registry to path. An empty
// path is a no-op.
func (r *Run) WriteFile(path string, now time.Time) error {
	if path == "" {
		return nil
	}
	r.LastRun.Set(float64(now.Unix()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
