package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "bookwatch-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "bookwatch-recording",
					Rules: []Rule{
						{
							Record: "bw:http_requests:rate5m",
							Expr:   `sum(rate(bw_http_requests_total{job="bookwatch"}[5m]))`,
						},
						{
							Record: "bw:http_errors:rate5m",
							Expr:   `sum(rate(bw_http_requests_total{job="bookwatch",status=~"5.."}[5m]))`,
						},
						{
							Record: "bw:snapshots:rate5m",
							Expr:   `sum(rate(bw_snapshots_total{job="bookwatch"}[5m]))`,
						},
						{
							Record: "bw:change_events:rate5m",
							Expr:   `sum(rate(bw_change_events_total{job="bookwatch"}[5m]))`,
						},
						{
							Record: "bw:notifications_scheduled:rate5m",
							Expr:   `sum(rate(bw_notifications_scheduled_total{job="bookwatch"}[5m]))`,
						},
						{
							Record: "bw:notification_failures:rate5m",
							Expr:   `sum(rate(bw_notification_failures_total{job="bookwatch"}[5m]))`,
						},
					},
				},
			},
		},
	}
}
