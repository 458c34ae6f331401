package clientstats

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cpuCores = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_cpu_cores",
		Help: "Number of logical CPUs usable by the process.",
	})
	clientStatsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientstats_updates_total",
		Help: "Number of client stats documents sent to the monitoring endpoint, by outcome.",
	}, []string{"outcome"})
)

func init() {
	cpuCores.Set(float64(runtime.NumCPU()))
}
