// Package tracing wires OpenTelemetry with a stdout (or file) exporter and offers
// small helpers for the spans the console and documents API open.
package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "approval-console"

var (
	providerOnce sync.Once
	provider     *sdktrace.TracerProvider
	providerErr  error
	// output is the trace file opened by Init, closed on Shutdown.
	output *os.File
)

// Init installs a global tracer provider exporting to outputFile, or os.Stdout when
// outputFile is empty. Only the first call has an effect. Until Init is called every
// span is a no-op.
func Init(serviceName, serviceVersion, outputFile string) error {
	var (
		w io.Writer = os.Stdout
		f *os.File
	)
	if outputFile != "" {
		var err error
		if f, err = os.Create(outputFile); err != nil {
			return err
		}
		w = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		closeFile(f)
		return err
	}
	installed, err := install(serviceName, serviceVersion, exporter)
	if !installed {
		closeFile(f)
		return err
	}
	output = f
	return nil
}

// InitWithExporter installs a global tracer provider backed by exporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	_, err := install(serviceName, serviceVersion, exporter)
	return err
}

// install reports whether this call's exporter became the global one.
func install(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (bool, error) {
	installed := false
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		installed = true
	})
	return installed, providerErr
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// Shutdown flushes and stops the provider installed by Init, if any.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	closeFile(output)
	output = nil
	return err
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// StartSpan starts a child span of whatever span ctx carries.
func StartSpan(ctx context.Context, name string, kind trace.SpanKind) (context.Context, *Span) {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, name, trace.WithSpanKind(kind))
	return ctx, &Span{span: span}
}

// SetAttributes attaches string attributes to the span.
func (s *Span) SetAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	s.span.SetAttributes(kv...)
	return s
}

// SetHTTPStatus records the response code; 4xx and 5xx mark the span as failed.
func (s *Span) SetHTTPStatus(code int) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int("http.status_code", code))
	switch {
	case code >= 500:
		s.span.SetStatus(codes.Error, "server error")
	case code >= 400:
		s.span.SetStatus(codes.Error, "client error")
	}
}

// End records err (if any) and ends the span.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}
