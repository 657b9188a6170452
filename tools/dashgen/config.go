package main

import "errors"

// KnownMetrics is the set of metric names exported by bookwatch plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"bw_http_request_duration_seconds": true,
	"bw_http_requests_total":           true,

	// Health metrics.
	"bw_healthz_up": true,
	"bw_readyz_up":  true,

	// Watch metrics.
	"bw_snapshots_total":           true,
	"bw_malformed_records_total":   true,
	"bw_change_events_total":       true,
	"bw_subscription_errors_total": true,
	"bw_active_sessions":           true,
	"bw_snapshot_duration_seconds": true,

	// Notification metrics.
	"bw_feed_entries_total":             true,
	"bw_duplicate_events_total":         true,
	"bw_notifications_scheduled_total":  true,
	"bw_notifications_suppressed_total": true,
	"bw_notification_failures_total":    true,
	"bw_notification_duration_seconds":  true,

	// Store metrics.
	"bw_store_polls_total": true,

	// Recording rules.
	"bw:http_requests:rate5m":           true,
	"bw:http_errors:rate5m":             true,
	"bw:snapshots:rate5m":               true,
	"bw:change_events:rate5m":           true,
	"bw:notifications_scheduled:rate5m": true,
	"bw:notification_failures:rate5m":   true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
