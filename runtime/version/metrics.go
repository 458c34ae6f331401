package version

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var buildInfo = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "epochengine_version",
	ConstLabels: prometheus.Labels{
		"version":   gitTag,
		"commit":    gitCommit,
		"buildDate": buildDateUnix},
})

func init() {
	buildInfo.Set(float64(1))
}
