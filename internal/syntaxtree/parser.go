// Package syntaxtree implements engine.Parser over tree-sitter
// grammars: a bare parse-and-validate check plus dialect fallback for
// input whose exact grammar (plain JS vs TS vs TSX) is not declared.
package syntaxtree

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"layerforge/internal/engine"
)

// Dialect selects which grammar a Parser instance parses with.
type Dialect int

const (
	DialectJavaScript Dialect = iota
	DialectTypeScript
	DialectTSX
)

func (d Dialect) grammar() *sitter.Language {
	switch d {
	case DialectTypeScript:
		return typescript.GetLanguage()
	case DialectTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parser wraps a single tree-sitter *sitter.Parser bound to one
// grammar. tree-sitter parsers are not safe for concurrent use, so each
// call to Parse serializes on mu rather than allocating a fresh
// *sitter.Parser per call.
type Parser struct {
	mu      sync.Mutex
	dialect Dialect
	sp      *sitter.Parser
}

// New builds a Parser for dialect.
func New(dialect Dialect) *Parser {
	sp := sitter.NewParser()
	sp.SetLanguage(dialect.grammar())
	return &Parser{dialect: dialect, sp: sp}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sp.Close()
}

// Parse implements engine.Parser. It reports OK=false (not an error)
// for code that is merely syntactically invalid, reserving the error
// return for parser-internal failures (a nil tree, a cancelled
// context). A tree-sitter parse tolerates far more shapes than it
// rejects, so error-node detection is confined to genuine structural
// breakage, not stylistic edge cases.
func (p *Parser) Parse(ctx context.Context, code string) (engine.ParseResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := p.sp.ParseCtx(ctx, nil, []byte(code))
	if err != nil {
		return engine.ParseResult{}, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	if tree == nil {
		return engine.ParseResult{}, fmt.Errorf("tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return engine.ParseResult{OK: false, Message: "empty parse tree"}, nil
	}

	if !root.HasError() {
		return engine.ParseResult{OK: true}, nil
	}

	badNode := firstErrorNode(root)
	msg := "syntax error"
	if badNode != nil {
		msg = fmt.Sprintf("syntax error near byte %d: %q", badNode.StartByte(), snippet(code, badNode))
	}
	return engine.ParseResult{OK: false, Message: msg}, nil
}

// firstErrorNode walks the tree depth-first and returns the first ERROR
// or missing node encountered, for a human-readable diagnostic.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(code string, n *sitter.Node) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if start < 0 || end > len(code) || start > end {
		return ""
	}
	const maxLen = 40
	s := code[start:end]
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// MultiParser tries each dialect in turn and succeeds on the first one
// that parses without a structural error, for input whose exact dialect
// (plain JS vs TS vs TSX) is not declared up front.
type MultiParser struct {
	parsers []*Parser
}

// NewMultiParser builds a MultiParser over dialects in the given order,
// defaulting to JavaScript, TypeScript, TSX.
func NewMultiParser(dialects ...Dialect) *MultiParser {
	if len(dialects) == 0 {
		dialects = []Dialect{DialectJavaScript, DialectTypeScript, DialectTSX}
	}
	mp := &MultiParser{}
	for _, d := range dialects {
		mp.parsers = append(mp.parsers, New(d))
	}
	return mp
}

// Close releases every underlying parser.
func (mp *MultiParser) Close() {
	for _, p := range mp.parsers {
		p.Close()
	}
}

// Parse returns the first dialect's result that parses OK, or the last
// dialect's result if none do (so the caller still gets a diagnostic
// message rather than silence).
func (mp *MultiParser) Parse(ctx context.Context, code string) (engine.ParseResult, error) {
	var last engine.ParseResult
	for i, p := range mp.parsers {
		res, err := p.Parse(ctx, code)
		if err != nil {
			return engine.ParseResult{}, err
		}
		if res.OK {
			return res, nil
		}
		last = res
		if i == len(mp.parsers)-1 {
			return last, nil
		}
	}
	return last, nil
}
