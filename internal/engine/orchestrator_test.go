package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func identityRegistry() *TransformerRegistry {
	registry := NewTransformerRegistry()
	for id := range DefaultLayerSpecs() {
		registry.Register(id, Transformers{
			Textual: func(ctx context.Context, code string) (string, error) { return code, nil },
		})
	}
	return registry
}

func TestOrchestratorDefaultLayersOnEmptyRequest(t *testing.T) {
	orch := NewOrchestrator(identityRegistry(), nil, 0, nil)
	res, err := orch.Execute(context.Background(), "const x = 1;", nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []LayerID
	for _, lo := range res.PerLayer {
		got = append(got, lo.LayerID)
	}
	if !equalLayerIDs(got, DefaultRequestedLayers) {
		t.Fatalf("executed = %v, want %v", got, DefaultRequestedLayers)
	}
}

func TestOrchestratorRejectsUnknownLayer(t *testing.T) {
	orch := NewOrchestrator(identityRegistry(), nil, 0, nil)
	_, err := orch.Execute(context.Background(), "x", []LayerID{LayerID(42)}, Options{})
	if err == nil {
		t.Fatalf("expected an error for an unknown layer id")
	}
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Category != CategoryInvalidRequest {
		t.Fatalf("expected CategoryInvalidRequest, got %v", err)
	}
}

func TestOrchestratorCriticalFailureAbortsLoop(t *testing.T) {
	registry := NewTransformerRegistry()
	// Layer 1 is critical and has no transformer registered, so Get fails.
	registry.Register(LayerPatterns, Transformers{
		Textual: func(ctx context.Context, code string) (string, error) { return code, nil },
	})
	orch := NewOrchestrator(registry, nil, 0, nil)

	res, err := orch.Execute(context.Background(), "x", []LayerID{LayerConfiguration, LayerPatterns}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected success=false after a critical layer failure")
	}
	if len(res.PerLayer) != 1 {
		t.Fatalf("expected the loop to abort after the first (critical) failure, got %+v", res.PerLayer)
	}
}

func TestOrchestratorMetricsAndReset(t *testing.T) {
	orch := NewOrchestrator(identityRegistry(), nil, 0, nil)
	_, _ = orch.Execute(context.Background(), "const x = 1;", []LayerID{LayerConfiguration}, Options{})
	_, _ = orch.Execute(context.Background(), "const y = 2;", []LayerID{LayerConfiguration}, Options{})

	m := orch.Metrics()
	if m.TotalExecutions != 2 {
		t.Fatalf("TotalExecutions = %d, want 2", m.TotalExecutions)
	}
	if m.SuccessRate != 1.0 {
		t.Fatalf("SuccessRate = %v, want 1.0", m.SuccessRate)
	}

	orch.Reset()
	m = orch.Metrics()
	if m.TotalExecutions != 0 {
		t.Fatalf("expected metrics reset, got %+v", m)
	}
}

func TestOrchestratorExecuteBatchIsIndependentPerInput(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := NewOrchestrator(identityRegistry(), nil, 0, nil)
	inputs := []string{"const a = 1;", "const b = 2;", "const c = 3;"}

	results, err := orch.ExecuteBatch(context.Background(), inputs, []LayerID{LayerConfiguration}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("results len = %d, want %d", len(results), len(inputs))
	}
	for i, res := range results {
		if res.FinalCode != inputs[i] {
			t.Fatalf("result[%d].FinalCode = %q, want %q", i, res.FinalCode, inputs[i])
		}
	}
}

func TestComputeChangeCount(t *testing.T) {
	cases := []struct {
		before, after string
		want          int
	}{
		{"a\nb\nc", "a\nb\nc", 0},
		{"a\nb", "a\nb\nc", 2}, // +1 line delta, +1 mismatched trailing line
		{"a\nb\nc", "a\nx\nc", 1},
	}
	for _, tc := range cases {
		if got := computeChangeCount(tc.before, tc.after); got != tc.want {
			t.Fatalf("computeChangeCount(%q, %q) = %d, want %d", tc.before, tc.after, got, tc.want)
		}
	}
}
