package engine

import (
	"context"
	"errors"
)

// ErrorClassifier maps a transformer exception to one of the closed
// failure categories, each carrying a human message, a remediation
// hint, recovery options, a severity, and whether it is recoverable.
type ErrorClassifier struct{}

// NewErrorClassifier builds a classifier. It holds no state; classification
// is a pure function of the error.
func NewErrorClassifier() *ErrorClassifier { return &ErrorClassifier{} }

// Classify inspects err and returns its Classification. The orchestrator
// may attempt a single recovery per layer based on the result; it must
// not recurse into recovery on a second failure.
func (c *ErrorClassifier) Classify(err error) Classification {
	if err == nil {
		return Classification{Category: FailureUnknown, Severity: SeverityLow, Recoverable: false}
	}

	var ee *EngineError
	if errors.As(err, &ee) {
		switch ee.Category {
		case CategoryTimeout:
			return Classification{
				Category: FailureTimeout, Message: "layer exceeded its deadline",
				Hint: "retry with a longer deadline or reduce the input scope",
				Recovery: []RecoveryStrategy{RecoveryRetryWithLongerDeadline, RecoveryReduceScope},
				Severity: SeverityMedium, Recoverable: true,
			}
		case CategoryParsing:
			return Classification{
				Category: FailureParsing, Message: "structural parse path failed",
				Hint: "fall back to the textual transformer for this layer",
				Recovery: []RecoveryStrategy{RecoveryFallbackToTextual},
				Severity: SeverityLow, Recoverable: true,
			}
		case CategorySyntax:
			return Classification{
				Category: FailureSyntax, Message: "source is not syntactically valid",
				Hint: "fix the pre-existing syntax error before retrying this layer",
				Severity: SeverityHigh, Recoverable: false,
			}
		case CategoryCancelled:
			return Classification{
				Category: FailureUnknown, Message: "execution was cancelled",
				Hint: "retry the call; cancellation is caller-driven",
				Recovery: []RecoveryStrategy{RecoveryRetryAfterDelay},
				Severity: SeverityLow, Recoverable: true,
			}
		case CategoryInternal:
			return Classification{
				Category: FailureUnknown, Message: "internal invariant violation",
				Hint: "this indicates an engine bug, not a transform issue",
				Severity: SeverityHigh, Recoverable: false,
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{
			Category: FailureTimeout, Message: "layer exceeded its deadline",
			Hint:     "retry with a longer deadline",
			Recovery: []RecoveryStrategy{RecoveryRetryWithLongerDeadline},
			Severity: SeverityMedium, Recoverable: true,
		}
	}

	// Unclassified transformer errors fall through to a conservative,
	// non-recoverable Unknown classification. Classify never yields
	// Filesystem, Memory or Network, nor the per-layer categories; those
	// per-layer categories come only from ClassifyForLayer. The engine
	// never inspects transformer-internal error strings.
	return Classification{
		Category: FailureUnknown, Message: err.Error(),
		Hint:     "inspect the transformer's error for more detail",
		Severity: SeverityMedium, Recoverable: false,
	}
}

// layerFailureCategories keys the per-layer failure category an
// otherwise-unclassifiable transformer error is attributed to.
var layerFailureCategories = map[LayerID]FailureCategory{
	LayerConfiguration:     FailureConfigFormat,
	LayerPatterns:          FailurePatternReplace,
	LayerComponents:        FailureMarkupTransform,
	LayerHydration:         FailureBrowserAPIGuard,
	LayerFrameworkSpecific: FailureFrameworkSpecific,
	LayerTesting:           FailureTesting,
}

// ClassifyForLayer classifies err like Classify, but attributes an
// Unknown-category failure to the layer whose transformer raised it, so
// a bare error from the Patterns transformer reports as PatternReplace
// rather than Unknown.
func (c *ErrorClassifier) ClassifyForLayer(err error, layer LayerID) Classification {
	cl := c.Classify(err)
	if cl.Category != FailureUnknown {
		return cl
	}
	var ee *EngineError
	if errors.As(err, &ee) && (ee.Category == CategoryCancelled || ee.Category == CategoryInternal) {
		return cl
	}
	if errors.Is(err, context.Canceled) {
		return cl
	}
	if cat, ok := layerFailureCategories[layer]; ok {
		cl.Category = cat
		cl.Recovery = append(cl.Recovery, RecoverySkipProblematicPatterns)
	}
	return cl
}
