package addresswatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// metrics groups the watcher's OTEL instruments. Every measurement carries
// the network attribute so one dashboard can split watchers apart.
type metrics struct {
	network       attribute.KeyValue
	sightings     metric.Int64Counter
	conversions   metric.Int64Counter
	notifications metric.Int64Counter
}

func newMetrics(meter metric.Meter, network string) *metrics {
	return &metrics{
		network:       attribute.String("network", network),
		sightings:     int64Counter(meter, "hosewatch.sightings", "Transaction sightings by lifecycle stage.", "{sighting}"),
		conversions:   int64Counter(meter, "hosewatch.conversions", "Fiat conversions by outcome.", "{conversion}"),
		notifications: int64Counter(meter, "hosewatch.notifications", "Notification dispatches by outcome.", "{notification}"),
	}
}

// int64Counter creates a counter, falling back to a no-op instrument when the
// provider rejects it.
func int64Counter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return counter
}

func (m *metrics) recordSighting(ctx context.Context, stage Stage) {
	m.sightings.Add(ctx, 1, metric.WithAttributes(m.network, attribute.String("stage", stage.String())))
}

func (m *metrics) recordConversion(ctx context.Context, ok bool) {
	m.conversions.Add(ctx, 1, metric.WithAttributes(m.network, outcome(ok, "success", "failure")))
}

func (m *metrics) recordNotification(ctx context.Context, ok bool) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(m.network, outcome(ok, "delivered", "failed")))
}

func outcome(ok bool, success, failure string) attribute.KeyValue {
	if ok {
		return attribute.String("outcome", success)
	}
	return attribute.String("outcome", failure)
}
