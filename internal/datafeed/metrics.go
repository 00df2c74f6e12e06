package datafeed

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type feedMetricsCollection struct {
	fetchCount        metric.Int64Counter
	fetchFailureCount metric.Int64Counter
	broadcastCount    metric.Int64Counter
	staleResultCount  metric.Int64Counter
}

var metrics feedMetricsCollection

func init() {
	const name = "beacon/datafeed"
	meter := otel.Meter(name)

	fetchCount, err := meter.Int64Counter(
		"datafeed/fetch_count",
		metric.WithDescription("Total number of fetches started"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch count metric: %w", err))
	}

	fetchFailureCount, err := meter.Int64Counter(
		"datafeed/fetch_failure_count",
		metric.WithDescription("Total number of failed fetches"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create fetch failure count metric: %w", err))
	}

	broadcastCount, err := meter.Int64Counter(
		"datafeed/broadcast_count",
		metric.WithDescription("Total number of successful updates broadcast to listeners"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create broadcast count metric: %w", err))
	}

	staleResultCount, err := meter.Int64Counter(
		"datafeed/stale_result_count",
		metric.WithDescription("Total number of fetch results discarded because a newer fetch superseded them"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create stale result count metric: %w", err))
	}

	metrics = feedMetricsCollection{
		fetchCount:        fetchCount,
		fetchFailureCount: fetchFailureCount,
		broadcastCount:    broadcastCount,
		staleResultCount:  staleResultCount,
	}
}

func (f *Feed[T]) metricAttributes() metric.MeasurementOption {
	name := f.name
	if name == "" {
		name = "<unnamed>"
	}
	return metric.WithAttributes(attribute.String("feed", name))
}
