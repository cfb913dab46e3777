package engine

import "regexp"

// CorruptionPattern is one named, "present after, absent before" bad
// shape: patterns are only flagged when they appear in `after` and did
// not already appear in `before`, so pre-existing corruption introduced
// upstream of this layer never triggers a false revert.
type CorruptionPattern struct {
	Name string
	Re   *regexp.Regexp
}

// DefaultCorruptionPatterns is the closed-but-extensible set of known
// bad shapes a transform can introduce.
func DefaultCorruptionPatterns() []CorruptionPattern {
	return []CorruptionPattern{
		{
			Name: "doubled_handler_wrapper",
			// attribute={(args) => () => ...}
			Re: regexp.MustCompile(`\w+=\{\([^()]*\)\s*=>\s*\(\)\s*=>`),
		},
		{
			Name: "unbalanced_attribute_parens",
			// An attribute value contains a '(' with no ')' between it and
			// the closing JSX brace.
			Re: regexp.MustCompile(`=\{[^{}]*\([^{}()]*\}`),
		},
		{
			Name: "doubled_import_opener",
			// Two consecutive "import {" openers with no closing "}" between.
			Re: regexp.MustCompile(`import\s*\{[^}]*import\s*\{`),
		},
	}
}

// CorruptionReport is CorruptionDetector's verdict.
type CorruptionReport struct {
	Detected bool
	Pattern  string
}

// CorruptionDetector is a pattern-based heuristic checker. It is only
// meaningful when before != after.
type CorruptionDetector struct {
	patterns []CorruptionPattern
}

// NewCorruptionDetector builds a detector over patterns, defaulting to
// DefaultCorruptionPatterns when patterns is nil.
func NewCorruptionDetector(patterns []CorruptionPattern) *CorruptionDetector {
	if patterns == nil {
		patterns = DefaultCorruptionPatterns()
	}
	return &CorruptionDetector{patterns: patterns}
}

// Check reports the first pattern present in after but absent from
// before. Identical before/after never matches.
func (d *CorruptionDetector) Check(before, after string) CorruptionReport {
	if before == after {
		return CorruptionReport{}
	}
	for _, p := range d.patterns {
		if p.Re.MatchString(after) && !p.Re.MatchString(before) {
			return CorruptionReport{Detected: true, Pattern: p.Name}
		}
	}
	return CorruptionReport{}
}
