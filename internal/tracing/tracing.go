// Package tracing provides distributed tracing capabilities using OpenTelemetry
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName = "mcp-github-server"

	tracerName = "github.com/developer-mesh/mcp-github-server"

	// Attribute keys
	AttrRPCMethod    = "rpc.method"
	AttrRPCSystem    = "rpc.system"
	AttrRequestID    = "request.id"
	AttrConnectionID = "connection.id"
	AttrTransport    = "transport"
	AttrErrorCode    = "error.code"
)

// Config holds tracing configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // host:port of an OTLP gRPC collector
	OTLPInsecure   bool
	SamplingRate   float64 // 0.0 to 1.0
	ExportTimeout  time.Duration
	ZipkinEndpoint string // takes priority over OTLP when set
}

// DefaultConfig returns default tracing configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "production",
		OTLPInsecure:   true,
		SamplingRate:   1.0,
		ExportTimeout:  30 * time.Second,
	}
}

// TracerProvider manages OpenTelemetry tracing. A nil *TracerProvider
// starts no spans.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   *Config
}

// NewTracerProvider creates a tracer provider exporting to the configured
// backend. When tracing is disabled spans are no-ops.
func NewTracerProvider(config *Config) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &TracerProvider{
			tracer: noop.NewTracerProvider().Tracer(tracerName),
			config: config,
		}, nil
	}

	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)
	if config.ZipkinEndpoint != "" {
		spanExporter, err = zipkin.New(config.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create Zipkin exporter: %w", err)
		}
	} else if config.OTLPEndpoint != "" {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
			otlptracegrpc.WithTimeout(config.ExportTimeout),
		}
		if config.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		spanExporter, err = otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	}

	tp, err := newProvider(config, spanExporter, true)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// NewTracerProviderWithExporter creates an enabled provider that exports
// synchronously to exporter without touching global state.
func NewTracerProviderWithExporter(config *Config, exporter sdktrace.SpanExporter) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.Enabled = true
	return newProvider(&cfg, exporter, false)
}

func newProvider(config *Config, exporter sdktrace.SpanExporter, batch bool) (*TracerProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case config.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	}
	if exporter != nil {
		if batch {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		} else {
			opts = append(opts, sdktrace.WithSyncer(exporter))
		}
	}

	provider := sdktrace.NewTracerProvider(opts...)
	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(tracerName),
		config:   config,
	}, nil
}

// Shutdown flushes and stops the exporter
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// IsEnabled returns whether tracing is enabled
func (tp *TracerProvider) IsEnabled() bool {
	return tp != nil && tp.config.Enabled
}

// StartSpan starts a new span with the given name and options
func (tp *TracerProvider) StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !tp.IsEnabled() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tp.tracer.Start(ctx, spanName, opts...)
}

// StartRequestSpan starts the server span for one dispatched method. The
// span name embeds method, so callers pass a name from a bounded set.
// connectionID is recorded only when set.
func (tp *TracerProvider) StartRequestSpan(ctx context.Context, method, requestID, transport, connectionID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRPCSystem, "mcp-github"),
		attribute.String(AttrRPCMethod, method),
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrTransport, transport),
	}
	if connectionID != "" {
		attrs = append(attrs, attribute.String(AttrConnectionID, connectionID))
	}
	return tp.StartSpan(ctx, "rpc."+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records the outcome of a request and ends its span
func EndSpan(span trace.Span, errCode string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorCode, errCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
