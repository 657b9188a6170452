package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// NotificationsRate returns a timeseries panel showing scheduled and
// suppressed notifications.
func NotificationsRate() *timeseries.PanelBuilder {
	return lineChart("Notifications", "Notifications scheduled and suppressed per minute", TSWidth).
		WithTarget(PromQuery(`bw:notifications_scheduled:rate5m * 60`, "scheduled/min", "A")).
		WithTarget(PromQuery(
			`sum(rate(`+Sel("bw_notifications_suppressed_total")+`[5m])) * 60`,
			"suppressed/min", "B",
		)).
		Tooltip(MultiTooltip())
}

// NotificationFailures returns a timeseries panel showing failed deliveries.
func NotificationFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notification Failures").
		Description("Failed notification deliveries in the last 5 minutes").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(
			`sum(increase(`+Sel("bw_notification_failures_total")+`[5m]))`,
			"failures", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleBars)
}

// DeliveryDuration returns a timeseries panel showing p95 delivery latency.
func DeliveryDuration() *timeseries.PanelBuilder {
	return lineChart("Delivery Duration (p95)", "95th percentile notification delivery time", 6).
		WithTarget(PromQuery(quantile("0.95", "bw_notification_duration_seconds_bucket"), "p95", "A")).
		Unit("s")
}
