// Package observability provides tracing and component logging for
// Seriate. Logging builds on the shared zap logger; tracing sets up an
// OpenTelemetry tracer provider with a stdout exporter, which the CLI
// enables with --trace.
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seriate-io/seriate/pkg/logger"
)

var (
	tracer   trace.Tracer
	initOnce sync.Once
)

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	SamplingRate   float64
}

// InitTracing sets up the global tracer provider with a stdout span
// exporter. The returned shutdown function flushes pending spans.
func InitTracing(config TracingConfig) (func(context.Context) error, error) {
	var err error
	shutdown := func(context.Context) error { return nil }

	initOnce.Do(func() {
		var exporter sdktrace.SpanExporter
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			err = fmt.Errorf("failed to create stdout exporter: %w", err)
			return
		}

		var sampler sdktrace.Sampler
		switch {
		case config.SamplingRate <= 0:
			sampler = sdktrace.NeverSample()
		case config.SamplingRate >= 1.0:
			sampler = sdktrace.AlwaysSample()
		default:
			sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
		}

		res := sdkresource.NewSchemaless()
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler),
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		tracer = tp.Tracer(config.ServiceName)
		shutdown = tp.Shutdown
	})

	return shutdown, err
}

// GetTracer returns the global tracer. Before InitTracing it returns a
// no-op tracer.
func GetTracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer("seriate")
	}
	return tracer
}

// StructuredLogger provides component-scoped structured logging with
// tracing integration.
type StructuredLogger struct {
	logger    *zap.Logger
	component string
}

// NewStructuredLogger creates a structured logger for a component.
func NewStructuredLogger(component string) *StructuredLogger {
	return &StructuredLogger{
		logger:    logger.Get().With(zap.String("component", component)),
		component: component,
	}
}

// WithContext adds tracing context to log fields.
func (sl *StructuredLogger) WithContext(ctx context.Context) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return sl.logger
	}
	return sl.logger.With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}

// WithOperation returns a logger bound to a named operation, tracking
// its start time for duration reporting.
func (sl *StructuredLogger) WithOperation(operation string) *OperationLogger {
	return &OperationLogger{
		logger:    sl.logger.With(zap.String("operation", operation)),
		operation: operation,
		startTime: time.Now(),
	}
}

// Debug logs a debug message.
func (sl *StructuredLogger) Debug(msg string, fields ...zap.Field) {
	sl.logger.Debug(msg, fields...)
}

// Info logs an info message.
func (sl *StructuredLogger) Info(msg string, fields ...zap.Field) {
	sl.logger.Info(msg, fields...)
}

// Warn logs a warning message.
func (sl *StructuredLogger) Warn(msg string, fields ...zap.Field) {
	sl.logger.Warn(msg, fields...)
}

// Error logs an error message.
func (sl *StructuredLogger) Error(msg string, fields ...zap.Field) {
	sl.logger.Error(msg, fields...)
}

// OperationLogger logs within the scope of a single operation.
type OperationLogger struct {
	logger    *zap.Logger
	operation string
	startTime time.Time
}

// Complete logs the operation's completion with its duration.
func (ol *OperationLogger) Complete(fields ...zap.Field) {
	fields = append(fields, zap.Duration("duration", time.Since(ol.startTime)))
	ol.logger.Info("operation completed", fields...)
}

// Fail logs the operation's failure with its duration and error.
func (ol *OperationLogger) Fail(err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Duration("duration", time.Since(ol.startTime)),
		zap.Error(err))
	ol.logger.Error("operation failed", fields...)
}
