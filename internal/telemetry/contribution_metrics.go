package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// Contribution submit metrics
	submitCounter  metric.Int64Counter
	submitDuration metric.Float64Histogram

	// Realtime session metrics
	liveSessions      metric.Int64UpDownCounter
	slowConsumerDrops metric.Int64Counter
	broadcastEvents   metric.Int64Counter
)

// InitContributionMetrics initializes contribution and realtime metrics
func InitContributionMetrics() error {
	meter := otel.Meter("collab.contribution")

	var err error

	submitCounter, err = meter.Int64Counter(
		"contribution.submit.count",
		metric.WithDescription("Number of contribution submits by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	submitDuration, err = meter.Float64Histogram(
		"contribution.submit.duration",
		metric.WithDescription("Duration of contribution submits, commit and broadcast enqueue included"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	liveSessions, err = meter.Int64UpDownCounter(
		"realtime.sessions",
		metric.WithDescription("Open realtime sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	slowConsumerDrops, err = meter.Int64Counter(
		"realtime.slow_consumer.disconnects",
		metric.WithDescription("Sessions disconnected because their outbound queue overflowed"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	broadcastEvents, err = meter.Int64Counter(
		"realtime.broadcast.events",
		metric.WithDescription("Events fanned out to rooms"),
		metric.WithUnit("{event}"),
	)
	return err
}

// RecordSubmit records one submit. outcome is "added", "removed", "noop" or an error kind.
func RecordSubmit(ctx context.Context, canvasType, outcome string, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("canvas_type", canvasType),
		attribute.String("outcome", outcome),
	)
	if submitCounter != nil {
		submitCounter.Add(ctx, 1, attrs)
	}
	if submitDuration != nil {
		submitDuration.Record(ctx, durationMs, attrs)
	}
}

func SessionOpened(ctx context.Context) {
	if liveSessions != nil {
		liveSessions.Add(ctx, 1)
	}
}

func SessionClosed(ctx context.Context) {
	if liveSessions != nil {
		liveSessions.Add(ctx, -1)
	}
}

func RecordSlowConsumer(ctx context.Context) {
	if slowConsumerDrops != nil {
		slowConsumerDrops.Add(ctx, 1)
	}
}

func RecordBroadcast(ctx context.Context, kind string) {
	if broadcastEvents != nil {
		broadcastEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
