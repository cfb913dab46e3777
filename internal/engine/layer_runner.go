package engine

import (
	"context"
	"time"
)

// RunResult is LayerRunner's output for one layer attempt.
type RunResult struct {
	Code           string
	UsedFallback   bool // true iff StructuralPreferred fell back to Textual
	FallbackReason string
}

// LayerRunner invokes a single layer's transformer with its preferred
// strategy and deadline.
type LayerRunner struct {
	parser Parser
}

// NewLayerRunner builds a runner that validates the structural path's
// output with parser.
func NewLayerRunner(parser Parser) *LayerRunner {
	return &LayerRunner{parser: parser}
}

type runOutcome struct {
	code string
	err  error
}

// runWithDeadline runs fn under ctx, enforcing deadline, and translates
// context cancellation/timeout into the closed error categories.
// Cancellation is cooperative: fn is expected to observe ctx itself;
// this helper additionally races the result against ctx.Done() so a
// misbehaving transformer cannot hang the caller past the deadline.
func runWithDeadline(ctx context.Context, deadline time.Duration, fn TransformFunc, code string) (string, error) {
	if fn == nil {
		return "", &EngineError{Category: CategoryInternal, Message: "nil transformer"}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	ch := make(chan runOutcome, 1)
	go func() {
		out, err := fn(runCtx, code)
		ch <- runOutcome{code: out, err: err}
	}()

	select {
	case <-runCtx.Done():
		if runCtx.Err() == context.DeadlineExceeded {
			return "", &EngineError{Category: CategoryTimeout, Message: "layer exceeded its deadline", Cause: runCtx.Err()}
		}
		return "", &EngineError{Category: CategoryCancelled, Message: "execution cancelled", Cause: runCtx.Err()}
	case r := <-ch:
		return r.code, r.err
	}
}

// Run attempts the layer's transform against code using transformers,
// honoring the layer's deadline, or deadlineOverride when positive.
func (r *LayerRunner) Run(ctx context.Context, spec LayerSpec, transformers Transformers, code string, deadlineOverride time.Duration) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, &EngineError{Category: CategoryCancelled, Message: "cancelled before layer start", Cause: err}
	}

	deadline := spec.Deadline
	if deadlineOverride > 0 {
		deadline = deadlineOverride
	}

	if spec.Strategy == Textual {
		out, err := runWithDeadline(ctx, deadline, transformers.Textual, code)
		if err != nil {
			return RunResult{}, err
		}
		return RunResult{Code: out}, nil
	}

	// StructuralPreferred: attempt structural, fall back to textual on
	// any failure of the parse/transform/reparse chain. A fallback is a
	// recoverable event, not an error.
	structuralResult, structuralErr := r.attemptStructural(ctx, deadline, transformers, code)
	if structuralErr == nil {
		return RunResult{Code: structuralResult}, nil
	}

	if err := ctx.Err(); err != nil {
		return RunResult{}, &EngineError{Category: CategoryCancelled, Message: "cancelled between structural and textual fallback", Cause: err}
	}

	out, err := runWithDeadline(ctx, deadline, transformers.Textual, code)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Code: out, UsedFallback: true, FallbackReason: structuralErr.Error()}, nil
}

// attemptStructural runs the structural path: parse, transform,
// reparse. Any failing step returns a non-nil error describing why the
// caller should fall back to the textual transformer.
func (r *LayerRunner) attemptStructural(ctx context.Context, deadline time.Duration, transformers Transformers, code string) (string, error) {
	if transformers.Structural == nil {
		return "", &EngineError{Category: CategoryParsing, Message: "no structural transformer registered"}
	}
	if r.parser == nil {
		return "", &EngineError{Category: CategoryParsing, Message: "no parser configured"}
	}

	if before, err := r.parser.Parse(ctx, code); err != nil || !before.OK {
		return "", &EngineError{Category: CategoryParsing, Message: "source does not parse structurally"}
	}

	next, err := runWithDeadline(ctx, deadline, transformers.Structural, code)
	if err != nil {
		return "", &EngineError{Category: CategoryParsing, Message: "structural transform failed", Cause: err}
	}

	after, err := r.parser.Parse(ctx, next)
	if err != nil || !after.OK {
		return "", &EngineError{Category: CategoryParsing, Message: "structural transform result does not reparse"}
	}

	return next, nil
}
