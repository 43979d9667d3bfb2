package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans
const TracerName = "invoicing-backend"

// Application span attributes
const (
	AttrDocumentID     = attribute.Key("document_id")
	AttrDocumentNumber = attribute.Key("document_number")
	AttrInvoiceID      = attribute.Key("invoice_id")
	AttrPaymentID      = attribute.Key("payment_id")
	AttrAmount         = attribute.Key("amount")
)

// ServiceSpan traces one application operation such as "quote.convert".
// It reads from the global tracer provider, so it is a no-op until Setup installs one.
type ServiceSpan struct {
	span trace.Span
}

// StartServiceSpan starts the span "<service>.<operation>"; callers must End it
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, *ServiceSpan) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, &ServiceSpan{span: span}
}

// Fail records err on the span and returns it unchanged
func (s *ServiceSpan) Fail(err error) error {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Succeed marks the span OK and attaches result attributes
func (s *ServiceSpan) Succeed(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
	s.span.SetStatus(codes.Ok, "")
}

// End finishes the span
func (s *ServiceSpan) End() {
	s.span.End()
}

// TraceID is the hex trace ID of the active span, "" without one
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
