package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestStartUsecaseSpan_NoParentReturnsContext(t *testing.T) {
	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.LiveScoreService.Run", attribute.String("sport", "soccer"))
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
}

func TestStartUsecaseSpan_ParentTraceKept(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a},
		SpanID:     trace.SpanID{0x0b},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	got, span := startUsecaseSpan(ctx, "usecase.PipelineService.HandleSeriesMatches")
	defer span.End()

	assert.Equal(t, parent.TraceID(), trace.SpanContextFromContext(got).TraceID())
}

func TestFailSpan_PassesErrorThrough(t *testing.T) {
	_, span := startUsecaseSpan(context.Background(), "usecase.LiveScoreService.Trigger")
	cause := errors.New("queue down")

	assert.Same(t, cause, failSpan(span, cause))
	assert.NoError(t, failSpan(span, nil))
}
