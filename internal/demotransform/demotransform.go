// Package demotransform provides small reference transformers for each
// of the six fixed layers: regex-driven textual forms here, plus
// tree-sitter-backed structural forms (structural.go) for the layers
// that prefer the structural strategy. The per-layer rewrite rules are
// an opaque `text -> text` collaborator from the engine's point of
// view; these exist only so cmd/layerctl has something real to run,
// the same way the engine's scenario tests use a small rule corpus to
// exercise the pipeline end-to-end rather than embedding a production
// rule set.
//
// None of this is the "real" JS/TS rule corpus such a system would ship
// with in production; it is a demonstration surface.
package demotransform

import (
	"context"
	"regexp"
	"strings"

	"layerforge/internal/engine"
)

var entityTable = map[string]string{
	"&quot;": `"`, "&amp;": "&", "&lt;": "<", "&gt;": ">", "&#39;": "'", "&apos;": "'",
}

var (
	entityRe        = regexp.MustCompile(`&(quot|amp|lt|gt|#39|apos);`)
	debugLogRe      = regexp.MustCompile(`[ \t]*console\.(log|debug)\([^)]*\);?`)
	legacyVarRe     = regexp.MustCompile(`(^|[;{}\s])var(\s+\w+)`)
	mapKeyRe        = regexp.MustCompile(`\.map\(\(?(\w+)\)?\s*=>\s*<(\w+)([^>]*)>`)
	browserGuardRe  = regexp.MustCompile(`(const|let|var)\s+(\w+)\s*=\s*((?:window|document|localStorage|sessionStorage|navigator)\.[^;]+);`)
	nextConfigRe    = regexp.MustCompile(`module\.exports\s*=\s*`)
	testLegacyAPIRe = regexp.MustCompile(`\bcomponentWillMount\b`)
)

// Configuration rewrites Layer 1's narrow concern: legacy CommonJS
// module.exports config files onto an ES module default export.
func Configuration(ctx context.Context, code string) (string, error) {
	return nextConfigRe.ReplaceAllString(code, "export default "), nil
}

// Patterns rewrites Layer 2's textual pattern fixes: HTML-entity
// leakage from a prior escaping pass, stray console.log/debug calls,
// and legacy `var` declarations.
func Patterns(ctx context.Context, code string) (string, error) {
	code = entityRe.ReplaceAllStringFunc(code, func(m string) string { return entityTable[m] })
	code = debugLogRe.ReplaceAllString(code, "")
	code = legacyVarRe.ReplaceAllString(code, "${1}let${2}")
	return code, nil
}

// Components rewrites Layer 3's component fixes: injects a `key` prop
// into list-rendering `.map` callbacks that return JSX without one.
func Components(ctx context.Context, code string) (string, error) {
	return mapKeyRe.ReplaceAllStringFunc(code, func(m string) string {
		sub := mapKeyRe.FindStringSubmatch(m)
		v, tag, attrs := sub[1], sub[2], sub[3]
		if strings.Contains(attrs, "key=") {
			return m
		}
		return ".map((" + v + ") => <" + tag + " key={" + v + ".id}" + attrs + ">"
	}), nil
}

// Hydration rewrites Layer 4's server/client safety guards: wraps a
// direct top-level read of a browser-only global in a `typeof window
// !== "undefined"` guard so it no longer throws during SSR.
func Hydration(ctx context.Context, code string) (string, error) {
	return browserGuardRe.ReplaceAllString(code, `$1 $2 = typeof window !== "undefined" ? $3 : undefined;`), nil
}

// FrameworkSpecific rewrites Layer 5's framework-specific concerns:
// this stand-in is deliberately a no-op, since the real rule set here
// is framework-version-dependent and a demo pass would otherwise have
// to hardcode an arbitrary target framework version.
func FrameworkSpecific(ctx context.Context, code string) (string, error) {
	return code, nil
}

// Testing rewrites Layer 6's quality concern: flags (by stripping)
// calls to the deprecated componentWillMount lifecycle hook so the
// testing/quality pass's textual fingerprint disappears from the
// final artifact.
func Testing(ctx context.Context, code string) (string, error) {
	if !testLegacyAPIRe.MatchString(code) {
		return code, nil
	}
	lines := strings.Split(code, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if testLegacyAPIRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), nil
}

// Registry builds a TransformerRegistry bound to every layer's demo
// transformers. Components and Hydration carry genuinely distinct
// structural (tree-sitter) and textual (regex) forms, so the runner's
// parse/transform/reparse path is exercised for real; FrameworkSpecific's
// demo rule is a no-op, so only its textual form is registered and the
// runner records the structural-to-textual fallback for that layer.
func Registry() *engine.TransformerRegistry {
	r := engine.NewTransformerRegistry()
	r.Register(engine.LayerConfiguration, engine.Transformers{Textual: Configuration})
	r.Register(engine.LayerPatterns, engine.Transformers{Textual: Patterns})
	r.Register(engine.LayerComponents, engine.Transformers{Structural: ComponentsStructural, Textual: Components})
	r.Register(engine.LayerHydration, engine.Transformers{Structural: HydrationStructural, Textual: Hydration})
	r.Register(engine.LayerFrameworkSpecific, engine.Transformers{Textual: FrameworkSpecific})
	r.Register(engine.LayerTesting, engine.Transformers{Textual: Testing})
	return r
}
