// Package flags contains the runtime flags of the remote client stats
// reporting.
package flags

import (
	"github.com/prysmaticlabs/epoch-engine/monitoring/clientstats"
	"github.com/urfave/cli/v2"
)

var (
	// MonitoringEndpointFlag defines the remote endpoint where collected metrics are sent.
	MonitoringEndpointFlag = &cli.StringFlag{
		Name:  "monitoring-endpoint",
		Usage: "Full URL of the remote endpoint where client stats are sent. Reporting is off when empty.",
	}
	// MonitoringIntervalFlag defines the frequency of reporting.
	MonitoringIntervalFlag = &cli.DurationFlag{
		Name:  "monitoring-interval",
		Usage: "Interval between two client stats reports, eg 62s or 2m.",
		Value: clientstats.DefaultInterval,
	}
	// MonitoringInitialDelayFlag defines the delay before the first report.
	MonitoringInitialDelayFlag = &cli.DurationFlag{
		Name:  "monitoring-initial-delay",
		Usage: "Delay before the first client stats report.",
		Value: clientstats.DefaultInitialDelay,
	}
	// MonitoringRequestTimeoutFlag bounds each report request.
	MonitoringRequestTimeoutFlag = &cli.DurationFlag{
		Name:  "monitoring-request-timeout",
		Usage: "Timeout of a single client stats report request.",
		Value: clientstats.DefaultRequestTimeout,
	}
	// CollectSystemStatsFlag adds host statistics to every report.
	CollectSystemStatsFlag = &cli.BoolFlag{
		Name:  "monitoring-collect-system-stats",
		Usage: "Send host statistics along with the process statistics.",
		Value: true,
	}
)

// ConfigFromContext builds the client stats config from the flags. The
// metrics URL is the local prometheus endpoint to scrape.
func ConfigFromContext(cliCtx *cli.Context, metricsURL string) *clientstats.Config {
	cfg := clientstats.DefaultConfig(cliCtx.String(MonitoringEndpointFlag.Name), metricsURL)
	cfg.Interval = cliCtx.Duration(MonitoringIntervalFlag.Name)
	cfg.InitialDelay = cliCtx.Duration(MonitoringInitialDelayFlag.Name)
	cfg.RequestTimeout = cliCtx.Duration(MonitoringRequestTimeoutFlag.Name)
	cfg.CollectSystemStats = cliCtx.Bool(CollectSystemStatsFlag.Name)
	return cfg
}
