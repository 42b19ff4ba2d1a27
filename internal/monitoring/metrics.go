package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the lifecycle engine
var (
	ServerStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ezhost_server_status",
			Help: "Server status (0=offline, 1=starting, 2=online, 3=stopping, 4=restarting)",
		},
		[]string{"server_id", "server_name"},
	)

	ManagedServers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ezhost_managed_servers",
			Help: "Total number of managed server records",
		},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezhost_lifecycle_transitions_total",
			Help: "Lifecycle transitions by target status",
		},
		[]string{"to"},
	)

	LaunchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezhost_launch_failures_total",
			Help: "Failed script launches by cause (timeout, process, exited, init)",
		},
		[]string{"cause"},
	)

	RCONCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezhost_rcon_commands_total",
			Help: "RCON commands sent, by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	RCONCommandDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ezhost_rcon_command_duration_seconds",
			Help:    "RCON command round-trip duration",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// statusValues maps lifecycle states onto the gauge scale.
var statusValues = map[string]float64{
	"Offline":    0,
	"Starting":   1,
	"Online":     2,
	"Stopping":   3,
	"Restarting": 4,
}

// RecordStatus updates the per-server status gauge.
func RecordStatus(serverID, serverName, status string) {
	ServerStatus.WithLabelValues(serverID, serverName).Set(statusValues[status])
}

// DropServer removes a deleted server's gauge series.
func DropServer(serverID, serverName string) {
	ServerStatus.DeleteLabelValues(serverID, serverName)
}
