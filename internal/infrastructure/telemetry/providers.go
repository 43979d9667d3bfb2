// Package telemetry wires OpenTelemetry tracing, metrics and logs, Pyroscope
// profiling and GORM instrumentation for the invoicing server.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	serviceVersion       = "1.0.0"
	defaultExportPeriod  = 60 * time.Second
	providerShutdownWait = 10 * time.Second
)

// Providers bundles the OpenTelemetry SDK providers for one process.
// With telemetry disabled every field stays nil and the global no-op
// providers remain in effect.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
	Logs   *sdklog.LoggerProvider

	config config.TelemetryConfig
	logger *zap.Logger
}

// Setup builds exporters and providers from cfg and installs them globally.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Providers{config: cfg, logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	if p.Tracer, err = newTracerProvider(ctx, cfg, res); err != nil {
		return nil, err
	}
	otel.SetTracerProvider(p.Tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if p.Meter, err = newMeterProvider(ctx, cfg, res); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	otel.SetMeterProvider(p.Meter)

	if p.Logs, err = newLoggerProvider(ctx, cfg, res); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		_ = p.Meter.Shutdown(ctx)
		return nil, err
	}
	global.SetLoggerProvider(p.Logs)

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.String("service_name", cfg.ServiceName),
	)
	return p, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SamplingRatio)),
	), nil
}

// Sampler maps a ratio onto a parent-based sampler. Ratios at or above 1 sample everything.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newMeterProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(defaultExportPeriod))),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

// Enabled reports whether real exporters are installed.
func (p *Providers) Enabled() bool {
	return p != nil && p.Tracer != nil
}

// MeterFor returns a named meter, falling back to the global provider.
func (p *Providers) MeterFor(name string, opts ...metric.MeterOption) metric.Meter {
	if p == nil || p.Meter == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.Meter.Meter(name, opts...)
}

// TracerFor returns a named tracer, falling back to the global provider.
func (p *Providers) TracerFor(name string, opts ...trace.TracerOption) trace.Tracer {
	if p == nil || p.Tracer == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.Tracer.Tracer(name, opts...)
}

// EnableSpanProfiles links CPU profiles to spans. Call it after the profiler started.
func (p *Providers) EnableSpanProfiles() {
	if p == nil || p.Tracer == nil {
		return
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(p.Tracer))
	p.logger.Info("Span profiles enabled")
}

// Shutdown flushes and stops every provider, collecting all failures.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, providerShutdownWait)
	defer cancel()

	var result *multierror.Error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("meter provider: %w", err))
		}
	}
	if p.Logs != nil {
		if err := p.Logs.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("logger provider: %w", err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		p.logger.Error("Telemetry shutdown finished with errors", zap.Error(err))
		return err
	}
	p.logger.Info("Telemetry shutdown complete")
	return nil
}
