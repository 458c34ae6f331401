package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opencensus.io/trace"
)

func TestAnnotateError(t *testing.T) {
	_, span := trace.StartSpan(context.Background(), "test", trace.WithSampler(trace.AlwaysSample()))
	defer span.End()
	AnnotateError(span, nil)
	AnnotateError(span, errors.New("failed"))
}
