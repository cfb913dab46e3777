package engine

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LargeSourceThreshold is the size above which a Pipeline stops
// retaining full code per state and keeps only the hash plus the
// state's line count.
const LargeSourceThreshold = 1 << 20 // 1 MiB

// Pipeline is the append-only history of states for one orchestration
// call. It is a value owned by a single Execute call and is never
// shared across calls.
type Pipeline struct {
	states    []PipelineState
	threshold int
}

// NewPipeline creates a Pipeline seeded with the Initial state over
// source.
func NewPipeline(source string) *Pipeline {
	p := &Pipeline{threshold: LargeSourceThreshold}
	p.append(PipelineState{
		Step:      0,
		Layer:     nil,
		Outcome:   Outcome{Kind: OutcomeInitial},
		Timestamp: time.Time{},
	}, source)
	return p
}

// append records state, filling in Code/CodeHash/LineCount per the
// large-source policy.
func (p *Pipeline) append(state PipelineState, code string) {
	state.CodeHash = hashCode(code)
	state.LineCount = countLines(code)
	if len(code) <= p.threshold {
		state.Code = code
	}
	p.states = append(p.states, state)
}

// Append is the public entry point used by the orchestrator to record a
// step's outcome. code is the pipeline's new "current" text only for
// Accepted/Initial/Rolledback outcomes; for Reverted/Failed/Skipped it is
// whatever the pipeline's current code already was (the caller must not
// advance `current` for those outcomes — see CurrentCode's invariant).
func (p *Pipeline) Append(layer *LayerID, outcome Outcome, code string, duration time.Duration) {
	p.append(PipelineState{
		Step:      len(p.states),
		Layer:     layer,
		Outcome:   outcome,
		Duration:  duration,
		Timestamp: time.Time{},
	}, code)
}

// CurrentCode returns the pipeline's current text: always the code of
// the latest Initial/Accepted/Rolledback state. Reverted and Failed
// candidates are never exposed as current.
func (p *Pipeline) CurrentCode() string {
	for i := len(p.states) - 1; i >= 0; i-- {
		s := p.states[i]
		switch s.Outcome.Kind {
		case OutcomeInitial, OutcomeAccepted, OutcomeRolledback:
			return s.Code
		}
	}
	return ""
}

// Len returns the number of recorded states.
func (p *Pipeline) Len() int { return len(p.states) }

// States returns a copy of the recorded states, in order.
func (p *Pipeline) States() []PipelineState {
	out := make([]PipelineState, len(p.states))
	copy(out, p.states)
	return out
}

// RollbackTo appends a new Rolledback state whose code equals the code
// of an earlier Initial/Accepted/Rolledback state at step target, and
// returns that code. It is an error to roll back to a step that was not
// itself a code-bearing state, or whose code was dropped by the
// large-source policy.
func (p *Pipeline) RollbackTo(target int) (string, error) {
	if target < 0 || target >= len(p.states) {
		return "", &EngineError{Category: CategoryInvalidRequest, Message: "rollback target out of range"}
	}
	targetState := p.states[target]
	switch targetState.Outcome.Kind {
	case OutcomeInitial, OutcomeAccepted, OutcomeRolledback:
	default:
		return "", &EngineError{Category: CategoryInvalidRequest, Message: "rollback target is not a code-bearing state"}
	}
	if targetState.Code == "" && targetState.LineCount > 0 {
		return "", &EngineError{Category: CategoryInternal, Message: "rollback target's code was not retained (large-source policy)"}
	}

	p.append(PipelineState{
		Step:    len(p.states),
		Layer:   targetState.Layer,
		Outcome: Outcome{Kind: OutcomeRolledback, RollbackTarget: target},
	}, targetState.Code)
	return targetState.Code, nil
}

// DiffLine is one added or removed line in a Pipeline.Diff report.
type DiffLine struct {
	LineNum int
	Content string
	Added   bool
	Removed bool
}

// Diff computes a line-level diff between two recorded steps.
func (p *Pipeline) Diff(stepA, stepB int) ([]DiffLine, error) {
	if stepA < 0 || stepA >= len(p.states) || stepB < 0 || stepB >= len(p.states) {
		return nil, &EngineError{Category: CategoryInvalidRequest, Message: "diff step out of range"}
	}
	a, b := p.states[stepA], p.states[stepB]
	if a.Code == "" && a.LineCount > 0 {
		return nil, &EngineError{Category: CategoryInternal, Message: "step code not retained (large-source policy)"}
	}
	if b.Code == "" && b.LineCount > 0 {
		return nil, &EngineError{Category: CategoryInternal, Message: "step code not retained (large-source policy)"}
	}

	dmp := diffmatchpatch.New()
	charsA, charsB, lineArray := dmp.DiffLinesToChars(a.Code, b.Code)
	diffs := dmp.DiffMain(charsA, charsB, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	lineNum := 0
	for _, d := range diffs {
		for _, text := range splitNonEmptyLines(d.Text) {
			lineNum++
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{LineNum: lineNum, Content: text, Added: true})
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{LineNum: lineNum, Content: text, Removed: true})
			}
		}
	}
	return lines, nil
}

// PipelineSummary is Pipeline.Summary()'s output.
type PipelineSummary struct {
	Steps        int
	Accepted     int
	Reverted     int
	Failed       int
	Skipped      int
	Rolledback   int
	TotalChanges int
}

// Summary aggregates outcome counts across the whole pipeline.
func (p *Pipeline) Summary() PipelineSummary {
	var s PipelineSummary
	s.Steps = len(p.states)
	for _, st := range p.states {
		switch st.Outcome.Kind {
		case OutcomeAccepted:
			s.Accepted++
			s.TotalChanges += st.Outcome.Changes
		case OutcomeReverted:
			s.Reverted++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeRolledback:
			s.Rolledback++
		}
	}
	return s
}

// ExportedState is a structured, code-free view of one PipelineState
// for observability.
type ExportedState struct {
	Step      int
	Layer     *LayerID
	CodeHash  string
	LineCount int
	Outcome   OutcomeKind
	Duration  time.Duration
}

// Export returns the pipeline's history without raw code, safe to log or
// ship to an observability sink.
func (p *Pipeline) Export() []ExportedState {
	out := make([]ExportedState, len(p.states))
	for i, s := range p.states {
		out[i] = ExportedState{
			Step: s.Step, Layer: s.Layer, CodeHash: s.CodeHash,
			LineCount: s.LineCount, Outcome: s.Outcome.Kind, Duration: s.Duration,
		}
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func splitNonEmptyLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
