package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SnapshotRate returns a timeseries panel showing processed snapshots per
// minute.
func SnapshotRate() *timeseries.PanelBuilder {
	return lineChart("Snapshots / min", "Followed-book snapshots processed per minute", 8).
		WithTarget(PromQuery(`bw:snapshots:rate5m * 60`, "snapshots/min", "A"))
}

// ChangeEventRate returns a timeseries panel showing detected price changes
// per minute.
func ChangeEventRate() *timeseries.PanelBuilder {
	return lineChart("Price Changes / min", "Price transitions detected per minute", 8).
		WithTarget(PromQuery(`bw:change_events:rate5m * 60`, "changes/min", "A")).
		WithTarget(PromQuery(
			`sum(rate(`+Sel("bw_duplicate_events_total")+`[5m])) * 60`,
			"duplicates/min", "B",
		))
}

// SnapshotDuration returns a timeseries panel showing the p95 time spent
// detecting changes in one snapshot.
func SnapshotDuration() *timeseries.PanelBuilder {
	return lineChart("Snapshot Duration (p95)", "95th percentile change detection time per snapshot", 8).
		WithTarget(PromQuery(quantile("0.95", "bw_snapshot_duration_seconds_bucket"), "p95", "A")).
		Unit("s")
}

// WatchErrors returns a timeseries panel showing subscription errors and
// skipped records.
func WatchErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Watch Errors").
		Description("Ended subscriptions and records skipped by validation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(increase(`+Sel("bw_subscription_errors_total")+`[5m]))`,
			"subscription errors", "A",
		)).
		WithTarget(PromQuery(
			`sum(increase(`+Sel("bw_malformed_records_total")+`[5m]))`,
			"malformed records", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}

// StorePolls returns a timeseries panel showing SQL store polls by result.
func StorePolls() *timeseries.PanelBuilder {
	return lineChart("Store Polls", "Collection polls per second by result (SQL backends)", TSWidth).
		WithTarget(PromQuery(
			`sum by (result) (rate(`+Sel("bw_store_polls_total")+`[5m]))`,
			"{{result}}", "A",
		)).
		Tooltip(MultiTooltip())
}
