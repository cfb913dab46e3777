package engine

import "context"

// ParseResult is the outcome of attempting to parse a candidate text.
type ParseResult struct {
	OK      bool
	Message string
	// Tree is an opaque handle to the parsed syntax tree, if any. Only
	// StructuralPreferred layers need it; SyntaxValidator only inspects OK.
	Tree any
}

// Parser is the consumed parsing interface: permissive over modules,
// inline markup (JSX/TSX) and type annotations, tolerant of non-strict
// top-level placement. internal/syntaxtree implements it over
// tree-sitter grammars.
type Parser interface {
	Parse(ctx context.Context, code string) (ParseResult, error)
}

// SyntaxValidator answers "is this still a valid program?".
type SyntaxValidator struct {
	parser Parser
}

// NewSyntaxValidator builds a validator over the given Parser.
func NewSyntaxValidator(parser Parser) *SyntaxValidator {
	return &SyntaxValidator{parser: parser}
}

// ValidationOutcome is SyntaxValidator's verdict for one text.
type ValidationOutcome struct {
	Valid   bool
	Message string
}

// Validate parses code and reports whether it is a valid program.
func (v *SyntaxValidator) Validate(ctx context.Context, code string) ValidationOutcome {
	if v.parser == nil {
		// No parser configured: cannot assert invalidity, so assume valid.
		return ValidationOutcome{Valid: true}
	}
	res, err := v.parser.Parse(ctx, code)
	if err != nil {
		return ValidationOutcome{Valid: false, Message: err.Error()}
	}
	return ValidationOutcome{Valid: res.OK, Message: res.Message}
}

// MustRevert implements the delta rule: if before was valid and after
// is invalid, the caller must revert. If before was already invalid,
// the validator reports the same failure and the orchestrator proceeds
// without reverting what never parsed to begin with.
func (v *SyntaxValidator) MustRevert(before, after ValidationOutcome) bool {
	return before.Valid && !after.Valid
}
