package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// bookwatch operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "bookwatch-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "bookwatch-alerts",
					Rules: []Rule{
						{
							Alert: "BookwatchDown",
							Expr:  `absent(up{job="bookwatch"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Bookwatch is down",
								"description": "The bookwatch job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "BookwatchReadinessDown",
							Expr:  `bw_readyz_up{job="bookwatch"} == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Bookwatch readiness check is failing",
								"description": "The document store has been unreachable for more than 2 minutes.",
							},
						},
						{
							Alert: "BookwatchHighErrorRate",
							Expr:  `bw:http_errors:rate5m / bw:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on Bookwatch",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "BookwatchSubscriptionErrors",
							Expr:  `increase(bw_subscription_errors_total{job="bookwatch"}[10m]) > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Watch subscriptions are ending with errors",
								"description": "Followed-book subscriptions have been failing for more than 5 minutes. Affected users stop receiving price notifications.",
							},
						},
						{
							Alert: "BookwatchStorePollErrors",
							Expr:  `increase(bw_store_polls_total{job="bookwatch",result="error"}[5m]) > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "SQL store polls are failing",
								"description": "Collection polls against the SQL document store have been erroring for more than 5 minutes.",
							},
						},
						{
							Alert: "BookwatchNotificationFailures",
							Expr:  `bw:notification_failures:rate5m > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more price notifications (Discord or Telegram) have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
