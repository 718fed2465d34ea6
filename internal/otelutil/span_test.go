package otelutil

import (
	"context"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetSpanStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	for _, tc := range []struct {
		name string
		err  error
		code codes.Code
		kind string
	}{
		{name: "ok", code: codes.Ok},
		{name: "canceled", err: errors.Wrap(context.Canceled, "adding device"), code: codes.Error, kind: "canceled"},
		{name: "not found", err: errors.Wrap(errdefs.ErrNotFound, "endpoint eth0"), code: codes.Error, kind: "not_found"},
		{name: "invalid", err: errors.Wrap(errdefs.ErrInvalidArgument, "model"), code: codes.Error, kind: "invalid_argument"},
		{name: "other", err: errors.New("boom"), code: codes.Error, kind: "unknown"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, span := StartSpan(context.Background(), tc.name)
			SetSpanStatus(span, tc.err)
			span.End()

			ended := recorder.Ended()
			got := ended[len(ended)-1]
			if got.Name() != tc.name {
				t.Fatalf("expected span %q, got %q", tc.name, got.Name())
			}
			if got.Status().Code != tc.code {
				t.Fatalf("expected status %v, got %v", tc.code, got.Status().Code)
			}
			var kind string
			for _, a := range got.Attributes() {
				if a.Key == errorKindKey {
					kind = a.Value.AsString()
				}
			}
			if kind != tc.kind {
				t.Fatalf("expected error kind %q, got %q", tc.kind, kind)
			}
		})
	}
}
