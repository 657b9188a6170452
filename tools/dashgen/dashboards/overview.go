// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/bookwatch/tools/dashgen/panels"
)

// UID is the stable Grafana identifier of the overview dashboard.
const UID = "bookwatch-overview"

// BuildOverview constructs the Bookwatch Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Bookwatch Overview").
		Uid(UID).
		Tags([]string{"bookwatch"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.ActiveSessionsStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.StatusRate()))

	// Row 3: Watch sessions.
	b.WithRow(dashboard.NewRowBuilder("Watch").
		WithPanel(panels.SnapshotRate()).
		WithPanel(panels.ChangeEventRate()).
		WithPanel(panels.SnapshotDuration()).
		WithPanel(panels.WatchErrors()).
		WithPanel(panels.StorePolls()))

	// Row 4: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationsRate()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.DeliveryDuration()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
