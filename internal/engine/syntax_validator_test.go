package engine

import (
	"context"
	"testing"
)

type stubParser struct {
	results map[string]ParseResult
}

func (p *stubParser) Parse(ctx context.Context, code string) (ParseResult, error) {
	if res, ok := p.results[code]; ok {
		return res, nil
	}
	return ParseResult{OK: true}, nil
}

func TestSyntaxValidatorNilParserAssumesValid(t *testing.T) {
	v := NewSyntaxValidator(nil)
	res := v.Validate(context.Background(), "anything")
	if !res.Valid {
		t.Fatalf("expected a nil parser to assume validity")
	}
}

func TestSyntaxValidatorMustRevertOnValidToInvalidTransition(t *testing.T) {
	v := NewSyntaxValidator(nil)
	before := ValidationOutcome{Valid: true}
	after := ValidationOutcome{Valid: false}
	if !v.MustRevert(before, after) {
		t.Fatalf("expected MustRevert=true for valid->invalid")
	}
}

func TestSyntaxValidatorNoRevertWhenAlreadyInvalid(t *testing.T) {
	v := NewSyntaxValidator(nil)
	before := ValidationOutcome{Valid: false}
	after := ValidationOutcome{Valid: false}
	if v.MustRevert(before, after) {
		t.Fatalf("expected MustRevert=false when before was already invalid")
	}
}

func TestSyntaxValidatorUsesParser(t *testing.T) {
	parser := &stubParser{results: map[string]ParseResult{
		"broken": {OK: false, Message: "unexpected token"},
	}}
	v := NewSyntaxValidator(parser)

	res := v.Validate(context.Background(), "broken")
	if res.Valid {
		t.Fatalf("expected invalid result from stub parser")
	}
	if res.Message != "unexpected token" {
		t.Fatalf("Message = %q, want %q", res.Message, "unexpected token")
	}
}
