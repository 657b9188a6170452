package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate returns a timeseries panel showing the HTTP request rate.
func RequestRate() *timeseries.PanelBuilder {
	return lineChart("Request Rate", "HTTP requests per second", TSWidth).
		WithTarget(PromQuery(`bw:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip())
}

// LatencyPercentiles returns a timeseries panel showing p50, p95 and p99
// HTTP request latencies.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return lineChart("Latency Percentiles", "HTTP request duration percentiles", TSWidth).
		WithTarget(PromQuery(quantile("0.50", "bw_http_request_duration_seconds_bucket"), "p50", "A")).
		WithTarget(PromQuery(quantile("0.95", "bw_http_request_duration_seconds_bucket"), "p95", "B")).
		WithTarget(PromQuery(quantile("0.99", "bw_http_request_duration_seconds_bucket"), "p99", "C")).
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip())
}

// ErrorRate returns a timeseries panel showing the HTTP 5xx error rate as a
// percentage.
func ErrorRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Error Rate %").
		Description("HTTP 5xx error rate as percentage of total requests").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`bw:http_errors:rate5m / bw:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// StatusRate returns a timeseries panel showing request rate per route and
// status.
func StatusRate() *timeseries.PanelBuilder {
	return lineChart("Requests by Route", "Requests per second by route and status", TSWidth).
		WithTarget(PromQuery(
			`sum by (path, status) (rate(`+Sel("bw_http_requests_total")+`[5m]))`,
			"{{path}} {{status}}", "A",
		)).
		Unit("reqps").
		Tooltip(MultiTooltip())
}

func quantile(q, bucket string) string {
	return `histogram_quantile(` + q + `, sum(rate(` + Sel(bucket) + `[5m])) by (le))`
}

func lineChart(title, description string, span uint32) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(span).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
