package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlpmetrichttp "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitMetrics initializes the metrics system with the given configuration
func InitMetrics(ctx context.Context, cfg MetricsConfig) error {
	if err := InitProvider(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	if err := createInstruments(); err != nil {
		return fmt.Errorf("failed to initialize instruments: %w", err)
	}

	if cfg.EnablePrometheus {
		if err := StartPrometheusServer(ctx, cfg.Port); err != nil {
			return fmt.Errorf("failed to start Prometheus server: %w", err)
		}
	}

	if err := RegisterCallbacks(); err != nil {
		return fmt.Errorf("failed to register callbacks: %w", err)
	}

	return nil
}

func sanitizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}

func InitProvider(ctx context.Context, cfg MetricsConfig) error {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		attribute.String("instance", cfg.Alias),
		attribute.String("job", fmt.Sprintf("eth-sim/%s", cfg.Chain)),
	)

	var opts []sdkmetric.Option
	opts = append(opts, sdkmetric.WithResource(res))

	if cfg.EnablePrometheus {
		promExporter, err := prometheus.New(
			prometheus.WithoutScopeInfo(),
		)
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(promExporter))
	}

	if cfg.EnableOTLP {
		options := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(sanitizeEndpoint(cfg.OTLPEndpoint)),
		}

		if cfg.OTLPInsecure {
			options = append(options, otlpmetrichttp.WithInsecure())
		}

		otlpExporter, err := otlpmetrichttp.New(ctx, options...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		reader := sdkmetric.NewPeriodicReader(
			otlpExporter,
			sdkmetric.WithInterval(5*time.Second),
		)
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	provider := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(provider)

	meter = otel.Meter(
		"eth-sim",
		metric.WithInstrumentationVersion("0.1.0"),
	)

	metricsMutex.Lock()
	commonLabels = []attribute.KeyValue{attribute.String("chain", cfg.Chain)}
	metricsMutex.Unlock()

	return nil
}
