package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"layerforge/internal/logging"
)

// DefaultRequestedLayers is the fallback when the requested set is
// empty and smart selection is disabled.
var DefaultRequestedLayers = []LayerID{LayerConfiguration, LayerPatterns, LayerComponents, LayerHydration}

// Orchestrator drives the per-layer loop: pre-check skip, run, validate,
// accept-or-revert, record state, classify errors.
type Orchestrator struct {
	specs      map[LayerID]LayerSpec
	registry   *TransformerRegistry
	parser     Parser
	detector   *IssueDetector
	selector   *LayerSelector
	validator  *SyntaxValidator
	corruption *CorruptionDetector
	integrity  *IntegrityChecker
	runner     *LayerRunner
	classifier *ErrorClassifier
	cache      *Cache
	log        *logging.Logger

	mu              sync.Mutex
	totalExecutions int64
	successCount    int64
	totalElapsedMs  int64
	cacheHits       int64
	cacheMisses     int64
}

// NewOrchestrator wires the engine's components together. registry and
// parser are the only required inputs; cacheSize <= 0 uses DefaultCacheSize.
func NewOrchestrator(registry *TransformerRegistry, parser Parser, cacheSize int, log *logging.Logger) *Orchestrator {
	specs := DefaultLayerSpecs()
	detector := NewIssueDetector(nil)
	return &Orchestrator{
		specs:      specs,
		registry:   registry,
		parser:     parser,
		detector:   detector,
		selector:   NewLayerSelector(specs, detector),
		validator:  NewSyntaxValidator(parser),
		corruption: NewCorruptionDetector(nil),
		integrity:  NewIntegrityChecker(nil),
		runner:     NewLayerRunner(parser),
		classifier: NewErrorClassifier(),
		cache:      NewCache(cacheSize),
		log:        log,
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.log == nil {
		return
	}
	o.log.Debug(format, args...)
}

// Execute resolves the layer set, consults the cache, then runs each
// retained layer sequentially over source with validation gating.
func (o *Orchestrator) Execute(ctx context.Context, source string, requestedLayers []LayerID, options Options) (OrchestrationResult, error) {
	start := time.Now()

	chosen, recommendation, err := o.resolveLayers(source, requestedLayers, options)
	if err != nil {
		// InvalidRequest surfaces immediately; no Pipeline is started.
		return OrchestrationResult{}, err
	}

	if options.GlobalDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.GlobalDeadline)
		defer cancel()
	}

	preSkip := o.computePreSkip(source, chosen, options)

	o.logf("executing layers %v over %d bytes", chosen, len(source))

	key := NewCacheKey(hashCode(source), chosen)
	if options.UseCache {
		// The stored source is compared as well, so a hash collision is a miss.
		if entry, ok := o.cache.Get(key); ok && entry.Metadata["source"] == source {
			o.logf("cache hit for %s [%s]", key.SourceHash, key.LayerSet)
			o.recordExecution(time.Since(start), true, true)
			return OrchestrationResult{
				Success:   true,
				FinalCode: entry.Value,
				CacheHit:  true,
				ElapsedMs: time.Since(start).Milliseconds(),
			}, nil
		}
		o.mu.Lock()
		o.cacheMisses++
		o.mu.Unlock()
	}

	pipeline := NewPipeline(source)
	current := source
	// currentValidity tracks the syntax verdict for `current`; it only
	// changes when current does, so each layer costs at most one extra
	// parse (of its candidate output).
	currentValidity := o.validator.Validate(ctx, source)
	var perLayer []LayerOutcome
	success := true
	abortedOnCritical := false

	for _, id := range chosen {
		if ctx.Err() != nil {
			success = false
			break
		}

		spec := o.specs[id]
		stepStart := time.Now()

		if preSkip[id] {
			pipeline.Append(&id, Outcome{Kind: OutcomeSkipped, SkipReason: "no fingerprint detected for this layer"}, current, time.Since(stepStart))
			perLayer = append(perLayer, LayerOutcome{LayerID: id, Outcome: OutcomeSkipped, DurationMs: time.Since(stepStart).Milliseconds()})
			continue
		}

		transformers, regErr := o.registry.Get(id)
		if regErr != nil {
			duration := time.Since(stepStart)
			outcome := Outcome{Kind: OutcomeFailed, ErrorCategory: FailureUnknown, ErrorMessage: regErr.Error(), Suggestions: []string{"register a transformer for this layer before calling Execute"}}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			if spec.Critical {
				success = false
				abortedOnCritical = true
				break
			}
			continue
		}

		runResult, runErr := o.runner.Run(ctx, spec, transformers, current, options.DeadlinePerLayerOverride)
		duration := time.Since(stepStart)

		if runErr != nil {
			classification := o.classifier.ClassifyForLayer(runErr, id)
			outcome := Outcome{
				Kind: OutcomeFailed, ErrorCategory: classification.Category,
				ErrorMessage: classification.Message, Suggestions: recoverySuggestions(classification),
			}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			if spec.Critical {
				success = false
				abortedOnCritical = true
				break
			}
			continue
		}

		next := runResult.Code

		if next == current {
			// No change. A pre-existing syntax error is surfaced on the
			// layer's outcome rather than silently carried forward, but it
			// does not revert what never parsed to begin with.
			var outcome Outcome
			if currentValidity.Valid {
				outcome = Outcome{Kind: OutcomeAccepted, UsedTextualFallback: runResult.UsedFallback}
			} else {
				outcome = Outcome{
					Kind:          OutcomeSkipped,
					SkipReason:    "no changes; source has a pre-existing syntax error",
					ErrorCategory: FailureSyntax,
					ErrorMessage:  "source is not syntactically valid: " + currentValidity.Message,
					Suggestions:   []string{"fix the pre-existing syntax error before retrying this layer"},
				}
			}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			continue
		}

		afterValidity := o.validator.Validate(ctx, next)
		if !afterValidity.Valid {
			outcome := Outcome{Kind: OutcomeReverted, RevertReason: "syntax invalid after transform: " + afterValidity.Message}
			if !currentValidity.Valid {
				outcome.RevertReason = "transform did not repair a pre-existing syntax error"
				outcome.ErrorCategory = FailureSyntax
				outcome.ErrorMessage = "source is not syntactically valid: " + currentValidity.Message
			}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			continue
		}

		if corruption := o.corruption.Check(current, next); corruption.Detected {
			outcome := Outcome{Kind: OutcomeReverted, RevertReason: "corruption pattern detected: " + corruption.Pattern}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			continue
		}

		if integrity := o.integrity.Check(current, next); integrity.MustRevert {
			outcome := Outcome{Kind: OutcomeReverted, RevertReason: fmt.Sprintf("critical imports lost: %v", integrity.LostIdentifiers)}
			pipeline.Append(&id, outcome, current, duration)
			perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
			continue
		}

		outcome := Outcome{
			Kind: OutcomeAccepted, Changes: computeChangeCount(current, next),
			Improvements: o.improvementsFor(id, current, next), UsedTextualFallback: runResult.UsedFallback,
		}
		pipeline.Append(&id, outcome, next, duration)
		perLayer = append(perLayer, toLayerOutcome(id, outcome, duration))
		current = next
		currentValidity = afterValidity
	}

	// A run that ends with the artifact still unparseable did not succeed,
	// even when every individual layer completed without a hard failure.
	if abortedOnCritical || !currentValidity.Valid {
		success = false
	}

	finalCode := pipeline.CurrentCode()
	elapsed := time.Since(start)
	o.logf("finished in %dms: success=%v, %d per-layer outcomes", elapsed.Milliseconds(), success, len(perLayer))

	hasAccepted, hasFailed := summarizeOutcomes(pipeline)
	if options.UseCache && hasAccepted && !hasFailed {
		o.cache.Insert(key, finalCode, map[string]any{"source": source})
	}

	o.recordExecution(elapsed, success, false)

	return OrchestrationResult{
		Success:        success,
		FinalCode:      finalCode,
		CacheHit:       false,
		ElapsedMs:      elapsed.Milliseconds(),
		PerLayer:       perLayer,
		Summary:        toSummary(pipeline.Summary()),
		Recommendation: recommendation,
		Pipeline:       pipeline,
	}, nil
}

// resolveLayers dedupes and dependency-closes the requested set, with
// smart selection substituted in when the request is empty.
func (o *Orchestrator) resolveLayers(source string, requested []LayerID, options Options) ([]LayerID, *Recommendation, error) {
	if len(requested) == 0 {
		if options.SmartSelection {
			rec := o.selector.Recommend(source)
			return rec.Layers, &rec, nil
		}
		closed, _, err := CloseDependencies(o.specs, DefaultRequestedLayers)
		return closed, nil, err
	}

	deduped := DedupLayers(requested)
	closed, _, err := CloseDependencies(o.specs, deduped)
	if err != nil {
		return nil, nil, err
	}
	return closed, nil, nil
}

// computePreSkip marks layers whose fingerprints are absent from source.
// Layer 1 is never pre-skipped when any layer is retained.
func (o *Orchestrator) computePreSkip(source string, chosen []LayerID, options Options) map[LayerID]bool {
	preSkip := make(map[LayerID]bool, len(chosen))
	if !options.SkipUnnecessary || len(chosen) == 0 {
		return preSkip
	}
	for _, id := range chosen {
		if id == LayerConfiguration {
			continue
		}
		if !o.detector.HasFingerprint(source, id) {
			preSkip[id] = true
		}
	}
	return preSkip
}

// improvementsFor derives human-readable improvement notes from the
// fingerprint delta for layer, reusing IssueDetector's catalogue rather
// than inventing a separate vocabulary.
func (o *Orchestrator) improvementsFor(layer LayerID, before, after string) []string {
	var improvements []string
	for _, fp := range DefaultFingerprints() {
		if fp.layer != layer {
			continue
		}
		beforeCount := fp.occurrences(before)
		afterCount := fp.occurrences(after)
		if afterCount < beforeCount {
			improvements = append(improvements, fmt.Sprintf("%s: %d -> %d", fp.kind, beforeCount, afterCount))
		}
	}
	return improvements
}

// Analyse reports which layers would be recommended for source without
// executing anything.
func (o *Orchestrator) Analyse(source string) Recommendation {
	return o.selector.Recommend(source)
}

// ExecuteBatch invokes Execute per input, in parallel across
// independent inputs. Inputs remain independent: each gets
// its own Pipeline and `current` text; only the Cache and metrics are shared.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, inputs []string, requestedLayers []LayerID, options Options) ([]OrchestrationResult, error) {
	results := make([]OrchestrationResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range inputs {
		i, src := i, src
		g.Go(func() error {
			res, err := o.Execute(gctx, src, requestedLayers, options)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Metrics reports cumulative counters across this Orchestrator's lifetime.
func (o *Orchestrator) Metrics() Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := Metrics{
		CacheHits:       o.cacheHits,
		CacheMisses:     o.cacheMisses,
		TotalExecutions: o.totalExecutions,
	}
	if o.totalExecutions > 0 {
		m.AverageElapsedMs = float64(o.totalElapsedMs) / float64(o.totalExecutions)
		m.SuccessRate = float64(o.successCount) / float64(o.totalExecutions)
	}
	return m
}

// Reset empties the Cache and zeroes the metrics counters.
func (o *Orchestrator) Reset() {
	o.cache.Reset()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.totalExecutions = 0
	o.successCount = 0
	o.totalElapsedMs = 0
	o.cacheHits = 0
	o.cacheMisses = 0
}

func (o *Orchestrator) recordExecution(elapsed time.Duration, success, cacheHit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.totalExecutions++
	o.totalElapsedMs += elapsed.Milliseconds()
	if success {
		o.successCount++
	}
	if cacheHit {
		o.cacheHits++
	}
}

func toLayerOutcome(id LayerID, outcome Outcome, duration time.Duration) LayerOutcome {
	return LayerOutcome{
		LayerID: id, Outcome: outcome.Kind, DurationMs: duration.Milliseconds(),
		ChangeCount: outcome.Changes, Improvements: outcome.Improvements,
		ErrorCategory: outcome.ErrorCategory, ErrorMessage: outcome.ErrorMessage,
		Suggestions: outcome.Suggestions,
	}
}

func toSummary(s PipelineSummary) Summary {
	return Summary{
		TotalLayers:  s.Steps - 1, // exclude the synthetic Initial state
		Successful:   s.Accepted,
		Failed:       s.Failed,
		Reverted:     s.Reverted,
		Skipped:      s.Skipped,
		TotalChanges: s.TotalChanges,
	}
}

func summarizeOutcomes(p *Pipeline) (hasAccepted, hasFailed bool) {
	for _, s := range p.States() {
		switch s.Outcome.Kind {
		case OutcomeAccepted:
			hasAccepted = true
		case OutcomeFailed:
			hasFailed = true
		}
	}
	return
}

// computeChangeCount is the reporting-only change metric:
// |line-count delta| + mismatched-line-count.
func computeChangeCount(before, after string) int {
	beforeLines := splitLines(before)
	afterLines := splitLines(after)

	deltaLines := len(afterLines) - len(beforeLines)
	if deltaLines < 0 {
		deltaLines = -deltaLines
	}

	mismatched := 0
	n := len(beforeLines)
	if len(afterLines) < n {
		n = len(afterLines)
	}
	for i := 0; i < n; i++ {
		if beforeLines[i] != afterLines[i] {
			mismatched++
		}
	}
	mismatched += absInt(len(beforeLines) - n)
	mismatched += absInt(len(afterLines) - n)

	return deltaLines + mismatched
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func recoverySuggestions(c Classification) []string {
	out := make([]string, 0, len(c.Recovery)+1)
	if c.Hint != "" {
		out = append(out, c.Hint)
	}
	for _, r := range c.Recovery {
		out = append(out, string(r))
	}
	return out
}
