package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), NoopTracer(), "workflow.execute", attribute.String(WorkflowIDKey, "wf-1"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())

	SetError(span, errors.New("boom"), attribute.String(StepIDKey, "s1"))
}

func TestSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanRecorder(recorder))

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "workflow.step",
		attribute.String(StepIDKey, "notify"),
	)
	SetError(span, errors.New("connection refused"), attribute.String(ActionKey, "webhook"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	recorded := spans[0]
	assert.Equal(t, "workflow.step", recorded.Name())
	assert.Equal(t, codes.Error, recorded.Status().Code)
	assert.Equal(t, "connection refused", recorded.Status().Description)

	require.Len(t, recorded.Events(), 1)
	assert.Contains(t, recorded.Events()[0].Attributes, attribute.String(ErrorTypeKey, "*errors.errorString"))
	assert.Contains(t, recorded.Events()[0].Attributes, attribute.String(ActionKey, "webhook"))
}
