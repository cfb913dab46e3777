package engine

import (
	"strings"
	"testing"
)

func TestReporterRenderIncludesStatusAndSummary(t *testing.T) {
	r := NewReporter()
	result := OrchestrationResult{
		Success:   true,
		ElapsedMs: 12,
		PerLayer: []LayerOutcome{
			{LayerID: LayerConfiguration, Outcome: OutcomeAccepted, ChangeCount: 2},
			{LayerID: LayerPatterns, Outcome: OutcomeFailed, ErrorCategory: FailureParsing, ErrorMessage: "boom"},
		},
		Summary: Summary{TotalLayers: 2, Successful: 1, Failed: 1},
	}

	out := r.Render(result)
	if !strings.Contains(out, "OK") {
		t.Fatalf("expected status OK in output: %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected failure message in output: %s", out)
	}
	if !strings.Contains(out, "1/2 successful") {
		t.Fatalf("expected summary line in output: %s", out)
	}
}

func TestReporterRenderCacheHitIsTerse(t *testing.T) {
	r := NewReporter()
	out := r.Render(OrchestrationResult{Success: true, CacheHit: true})
	if strings.Contains(out, "summary:") {
		t.Fatalf("expected no per-layer summary on a cache hit: %s", out)
	}
}

func TestReporterRenderRecommendation(t *testing.T) {
	r := NewReporter()
	out := r.RenderRecommendation(Recommendation{
		Layers: []LayerID{LayerConfiguration, LayerPatterns}, Confidence: 0.75,
		Impact: "2 issue(s)", Reasoning: []string{"layer 2: entities found"},
	})
	if !strings.Contains(out, "0.75") || !strings.Contains(out, "entities found") {
		t.Fatalf("unexpected render: %s", out)
	}
}
