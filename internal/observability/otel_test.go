package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("api-key=abc, ,broken, x = y ")
	if len(got) != 2 || got["api-key"] != "abc" || got["x"] != "y" {
		t.Fatalf("headers: %v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input must yield nil")
	}
}

func TestSpanHelpersRecordErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "pathgen.plan")
	EndSpan(span, errors.New("malformed"))

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("spans: want=1 got=%d", len(ended))
	}
	if ended[0].Name() != "pathgen.plan" || ended[0].Status().Code != codes.Error {
		t.Fatalf("span: name=%s status=%v", ended[0].Name(), ended[0].Status())
	}
}
