package tracing

import (
	"context"
	"testing"

	"jee-solver/config"
	"jee-solver/pkg/logger"
)

func TestClampRatio(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0.25: 0.25, 3: 1}
	for in, want := range cases {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInitDisabledReturnsNoopShutdown(t *testing.T) {
	stop := Init(context.Background(), logger.Nop(), config.OtelConfig{Enabled: false}, "test")
	if stop == nil {
		t.Fatalf("expected shutdown func")
	}
	if err := stop(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if Tracer() == nil {
		t.Fatalf("expected tracer")
	}
}
