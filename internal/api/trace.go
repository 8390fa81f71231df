package api

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"lebem.uz/storefront/internal/observability"
)

type clientSpanKey struct{}

// tracing opens one client span per backend request and closes it from the
// response or error hook. The span is remembered under clientSpanKey so the
// error hook never ends a span this client did not start.
type tracing struct {
	provider trace.TracerProvider
}

func (t tracing) tracer(ctx context.Context) trace.Tracer {
	if t.provider != nil {
		return t.provider.Tracer(observability.InstrumentationName)
	}
	return observability.Tracer(ctx)
}

func (t tracing) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, span := t.tracer(req.Context()).Start(req.Context(), "api "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("api.path", req.URL),
		),
	)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	req.SetContext(context.WithValue(ctx, clientSpanKey{}, span))
	return nil
}

func (tracing) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span, ok := res.Request.Context().Value(clientSpanKey{}).(trace.Span)
	if !ok {
		return nil
	}
	defer span.End()
	span.SetAttributes(
		attribute.String("url.full", res.Request.URL),
		attribute.Int("http.response.status_code", res.StatusCode()),
	)
	if res.StatusCode() >= http.StatusBadRequest {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func (tracing) onError(req *resty.Request, err error) {
	span, ok := req.Context().Value(clientSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("url.full", req.URL))
	observability.EndSpan(span, err)
}
