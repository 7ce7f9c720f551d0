package telemetry

import (
	"strings"
	"time"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	exporterDialTimeout    = 5 * time.Second
	defaultMetricsInterval = 15 * time.Second
)

func enabled(cfg *config.Config) bool {
	return cfg.Telemetry.Enabled && cfg.Telemetry.OtlpEndpoint != ""
}

// newResource describes this process to the collector. Traces and metrics
// share it so both can be filtered by relay mode and enabled sinks.
func newResource(cfg *config.Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.App.Name),
		semconv.ServiceVersion(version.Version),
		semconv.DeploymentEnvironment(cfg.App.Env),
		attribute.String("collab.realtime.relay", cfg.Realtime.Relay),
		attribute.Bool("collab.events.enabled", cfg.RabbitMQ.Enabled),
		attribute.Bool("collab.export.publish.enabled", cfg.S3.Enabled),
	)
}

// collectorTarget returns the collector's host:port and whether to dial it
// without TLS. An http:// or https:// scheme on the endpoint overrides
// telemetry.insecure.
func collectorTarget(cfg *config.Config) (endpoint string, insecure bool) {
	ep := cfg.Telemetry.OtlpEndpoint
	switch {
	case strings.HasPrefix(ep, "https://"):
		return strings.TrimPrefix(ep, "https://"), false
	case strings.HasPrefix(ep, "http://"):
		return strings.TrimPrefix(ep, "http://"), true
	}
	return ep, cfg.Telemetry.Insecure
}

func metricsInterval(cfg *config.Config) time.Duration {
	if cfg.Telemetry.MetricsIntervalSec <= 0 {
		return defaultMetricsInterval
	}
	return time.Duration(cfg.Telemetry.MetricsIntervalSec) * time.Second
}
