package tracing

import (
	"errors"

	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "tracing")

// Setup creates and initializes a new tracing configuration. The returned
// function flushes and unregisters the exporter; it is a no-op when tracing
// is disabled.
func Setup(name, nodeName, endpoint string, sampleFraction float64, enable bool) (func(), error) {
	if !enable {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
		return func() {}, nil
	}

	if name == "" {
		return nil, errors.New("tracing service name cannot be empty")
	}
	if sampleFraction < 0 || sampleFraction > 1 {
		return nil, errors.New("tracing sample fraction must be within [0, 1]")
	}

	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(sampleFraction)})

	log.Infof("Starting Jaeger exporter endpoint at address = %s", endpoint)
	exporter, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: endpoint,
		Process: jaeger.Process{
			ServiceName: name,
			Tags: []jaeger.Tag{
				jaeger.StringTag("process_name", nodeName),
				jaeger.StringTag("version", version.Version()),
			},
		},
		BufferMaxCount: 10000,
		OnError: func(err error) {
			log.WithError(err).Error("Could not process span")
		},
	})
	if err != nil {
		return nil, err
	}
	trace.RegisterExporter(exporter)

	return func() {
		exporter.Flush()
		trace.UnregisterExporter(exporter)
	}, nil
}
