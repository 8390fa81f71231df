package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func TestStartSpanFollowsParentProvider(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")

	childCtx, child := StartSpan(ctx, "load page", attribute.String("page", "home"))
	require.Equal(t, parent.SpanContext().TraceID().String(), TraceID(childCtx))
	EndSpan(child, nil)
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, "load page", ended[0].Name())
	require.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
	require.Equal(t, InstrumentationName, ended[0].InstrumentationScope().Name)
	require.Contains(t, ended[0].Attributes(), attribute.String("page", "home"))
	require.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestEndSpanRecordsError(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, span := StartSpan(ctx, "fetch")
	EndSpan(span, errors.New("upstream down"))
	parent.End()

	failed := sr.Ended()[0]
	require.Equal(t, codes.Error, failed.Status().Code)
	require.Equal(t, "upstream down", failed.Status().Description)
	require.Len(t, failed.Events(), 1)
	require.Equal(t, "exception", failed.Events()[0].Name)
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	require.Empty(t, TraceID(context.Background()))
}

func TestNewTracerProviderWithoutEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "", "")
	require.NoError(t, err)
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	require.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestNewTracerProviderWithEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "storefront-test", "http://127.0.0.1:4318")
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}
