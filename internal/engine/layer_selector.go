package engine

import "fmt"

// LayerSelector maps detected evidence to a minimal, dependency-closed
// ordered layer list with a confidence score.
type LayerSelector struct {
	specs    map[LayerID]LayerSpec
	detector *IssueDetector
}

// NewLayerSelector builds a selector over specs and detector.
func NewLayerSelector(specs map[LayerID]LayerSpec, detector *IssueDetector) *LayerSelector {
	return &LayerSelector{specs: specs, detector: detector}
}

// Recommend turns detected issues into a layer recommendation:
//  1. union all detected issues' layers
//  2. always include L1 if any layer is included
//  3. order ascending, close under dependencies
//  4. confidence = 0.6 + 0.3*(high/total), clamped to [0, 0.9]; 0 issues -> 0.5
//  5. emit human-readable reasoning strings keyed by the issues that
//     drove each inclusion
func (s *LayerSelector) Recommend(code string) Recommendation {
	issues := s.detector.Detect(code)

	if len(issues) == 0 {
		return Recommendation{
			Layers:     nil,
			Evidence:   nil,
			Confidence: 0.5,
			Impact:     "no fixable issues detected",
		}
	}

	want := make(map[LayerID]struct{})
	for _, iss := range issues {
		want[iss.Layer] = struct{}{}
	}
	want[LayerConfiguration] = struct{}{}

	requested := make([]LayerID, 0, len(want))
	for id := range want {
		requested = append(requested, id)
	}

	closed, _, err := CloseDependencies(s.specs, requested)
	if err != nil {
		// Every id here came from the fixed fingerprint catalogue or
		// LayerConfiguration, so this is unreachable in practice; fail
		// closed to an empty, low-confidence recommendation rather than
		// propagating an internal inconsistency to the caller of analyse.
		return Recommendation{Confidence: 0.5, Impact: "selection error: " + err.Error()}
	}

	var high, total int
	reasoning := make([]string, 0, len(issues))
	for _, iss := range issues {
		total++
		if iss.Severity == SeverityHigh {
			high++
		}
		reasoning = append(reasoning, fmt.Sprintf(
			"layer %d (%s): %s (%dx, severity=%s)",
			iss.Layer, iss.Layer, iss.Description, iss.Occurrences, iss.Severity))
	}

	confidence := 0.6 + 0.3*(float64(high)/float64(total))
	if confidence > 0.9 {
		confidence = 0.9
	}
	if confidence < 0 {
		confidence = 0
	}

	return Recommendation{
		Layers:     closed,
		Evidence:   issues,
		Confidence: confidence,
		Impact:     fmt.Sprintf("%d issue(s) across %d layer(s)", total, len(closed)),
		Reasoning:  reasoning,
	}
}
