package engine

import (
	"fmt"
	"strings"
)

// Reporter renders an OrchestrationResult into a short, human-readable
// digest, the kind an operator would scan in a CI log.
type Reporter struct{}

// NewReporter builds a Reporter. It holds no state.
func NewReporter() *Reporter { return &Reporter{} }

// Render produces a multi-line human-readable summary of result.
func (r *Reporter) Render(result OrchestrationResult) string {
	var b strings.Builder

	status := "FAILED"
	if result.Success {
		status = "OK"
	}
	fmt.Fprintf(&b, "orchestration: %s (cache_hit=%v, elapsed=%dms)\n", status, result.CacheHit, result.ElapsedMs)

	if result.CacheHit {
		return b.String()
	}

	for _, lo := range result.PerLayer {
		fmt.Fprintf(&b, "  layer %d (%s): %s", lo.LayerID, lo.LayerID, lo.Outcome)
		switch lo.Outcome {
		case OutcomeAccepted:
			fmt.Fprintf(&b, " changes=%d", lo.ChangeCount)
			if len(lo.Improvements) > 0 {
				fmt.Fprintf(&b, " improvements=%v", lo.Improvements)
			}
		case OutcomeFailed:
			fmt.Fprintf(&b, " category=%s message=%q", lo.ErrorCategory, lo.ErrorMessage)
			if len(lo.Suggestions) > 0 {
				fmt.Fprintf(&b, " suggestions=%v", lo.Suggestions)
			}
		}
		b.WriteByte('\n')
	}

	s := result.Summary
	fmt.Fprintf(&b, "summary: %d/%d successful, %d failed, %d reverted, %d skipped, %d total changes\n",
		s.Successful, s.TotalLayers, s.Failed, s.Reverted, s.Skipped, s.TotalChanges)

	if result.Recommendation != nil {
		fmt.Fprintf(&b, "recommendation: layers=%v confidence=%.2f impact=%q\n",
			result.Recommendation.Layers, result.Recommendation.Confidence, result.Recommendation.Impact)
	}

	return b.String()
}

// RenderRecommendation renders a standalone Recommendation (the output
// of Orchestrator.Analyse, which carries no OrchestrationResult).
func (r *Reporter) RenderRecommendation(rec Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "recommended layers: %v (confidence=%.2f)\n", rec.Layers, rec.Confidence)
	fmt.Fprintf(&b, "impact: %s\n", rec.Impact)
	for _, reason := range rec.Reasoning {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}
	return b.String()
}
