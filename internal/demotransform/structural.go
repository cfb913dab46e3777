package demotransform

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// The structural transformers below are the tree-based counterparts of
// the regex rules in demotransform.go: they parse the source with the
// TSX grammar (a superset that also accepts plain JS/TS input), locate
// the rewrite sites by walking the syntax tree, and splice edits in by
// byte offset. They are deliberately conservative: a site the walker
// cannot fully resolve (a destructured map parameter, a statement-block
// arrow body) is left untouched rather than guessed at.

var browserGlobals = map[string]struct{}{
	"window": {}, "document": {}, "localStorage": {}, "sessionStorage": {}, "navigator": {},
}

// spliceEdit is one pending insertion at a byte offset of the source.
type spliceEdit struct {
	pos  int
	text string
}

// applyEdits splices edits into src, highest offset first so earlier
// positions stay valid.
func applyEdits(src []byte, edits []spliceEdit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].pos > edits[j].pos })
	for _, e := range edits {
		if e.pos < 0 || e.pos > len(src) {
			continue
		}
		out := make([]byte, 0, len(src)+len(e.text))
		out = append(out, src[:e.pos]...)
		out = append(out, e.text...)
		out = append(out, src[e.pos:]...)
		src = out
	}
	return string(src)
}

func parseTSX(ctx context.Context, src []byte) (*sitter.Tree, *sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		parser.Close()
		return nil, nil, err
	}
	if tree == nil {
		parser.Close()
		return nil, nil, fmt.Errorf("tree-sitter returned no tree")
	}
	return tree, parser, nil
}

func walkTree(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			walkTree(c, visit)
		}
	}
}

// ComponentsStructural is the tree-based form of the key-injection rule:
// it finds `.map` callbacks whose arrow body is a JSX element with no
// `key` attribute and inserts `key={<param>.id}` after the tag name.
func ComponentsStructural(ctx context.Context, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := []byte(code)
	tree, parser, err := parseTSX(ctx, src)
	if err != nil {
		return "", err
	}
	defer parser.Close()
	defer tree.Close()

	var edits []spliceEdit
	walkTree(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "call_expression" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "member_expression" {
			return
		}
		prop := fn.ChildByFieldName("property")
		if prop == nil || prop.Content(src) != "map" {
			return
		}
		args := n.ChildByFieldName("arguments")
		if args == nil {
			return
		}
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg == nil || arg.Type() != "arrow_function" {
				continue
			}
			param := arrowParamIdentifier(arg, src)
			if param == "" {
				continue
			}
			opening := keylessJSXOpener(arg, src)
			if opening == nil {
				continue
			}
			name := opening.ChildByFieldName("name")
			if name == nil {
				continue
			}
			edits = append(edits, spliceEdit{pos: int(name.EndByte()), text: fmt.Sprintf(" key={%s.id}", param)})
		}
	})

	if len(edits) == 0 {
		return code, nil
	}
	return applyEdits(src, edits), nil
}

// arrowParamIdentifier returns the arrow function's single plain
// identifier parameter, or "" when the parameter list is anything else.
func arrowParamIdentifier(arrow *sitter.Node, src []byte) string {
	if p := arrow.ChildByFieldName("parameter"); p != nil && p.Type() == "identifier" {
		return p.Content(src)
	}
	params := arrow.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() != 1 {
		return ""
	}
	p := params.NamedChild(0)
	if p == nil || p.Type() != "identifier" {
		return ""
	}
	return p.Content(src)
}

// keylessJSXOpener returns the opening element of the arrow's JSX body
// when that element carries no key attribute yet, unwrapping any
// surrounding parentheses first.
func keylessJSXOpener(arrow *sitter.Node, src []byte) *sitter.Node {
	body := arrow.ChildByFieldName("body")
	for body != nil && body.Type() == "parenthesized_expression" {
		body = body.NamedChild(0)
	}
	if body == nil {
		return nil
	}

	var opening *sitter.Node
	switch body.Type() {
	case "jsx_self_closing_element":
		opening = body
	case "jsx_element":
		for i := 0; i < int(body.ChildCount()); i++ {
			if c := body.Child(i); c != nil && c.Type() == "jsx_opening_element" {
				opening = c
				break
			}
		}
	}
	if opening == nil {
		return nil
	}

	for i := 0; i < int(opening.NamedChildCount()); i++ {
		attr := opening.NamedChild(i)
		if attr == nil || attr.Type() != "jsx_attribute" {
			continue
		}
		if name := attr.NamedChild(0); name != nil && name.Content(src) == "key" {
			return nil
		}
	}
	return opening
}

// HydrationStructural is the tree-based form of the browser-global
// guard rule: it finds variable declarators whose initializer is rooted
// at a browser-only global and wraps the initializer in a
// `typeof window !== "undefined"` ternary.
func HydrationStructural(ctx context.Context, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := []byte(code)
	tree, parser, err := parseTSX(ctx, src)
	if err != nil {
		return "", err
	}
	defer parser.Close()
	defer tree.Close()

	var edits []spliceEdit
	walkTree(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "variable_declarator" {
			return
		}
		value := n.ChildByFieldName("value")
		if value == nil {
			return
		}
		// An already-guarded initializer is a ternary, which stops the
		// leftmost descent before reaching an identifier, so re-running
		// is a no-op.
		base := leftmostBase(value)
		if base == nil || base.Type() != "identifier" {
			return
		}
		if _, ok := browserGlobals[base.Content(src)]; !ok {
			return
		}
		edits = append(edits,
			spliceEdit{pos: int(value.StartByte()), text: `typeof window !== "undefined" ? `},
			spliceEdit{pos: int(value.EndByte()), text: " : undefined"},
		)
	})

	if len(edits) == 0 {
		return code, nil
	}
	return applyEdits(src, edits), nil
}

// leftmostBase descends member/call/subscript chains to the expression
// the whole chain hangs off, e.g. `localStorage` in
// `localStorage.getItem("k").trim()`.
func leftmostBase(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "member_expression", "subscript_expression":
			n = n.ChildByFieldName("object")
		case "call_expression":
			n = n.ChildByFieldName("function")
		default:
			return n
		}
	}
	return nil
}
