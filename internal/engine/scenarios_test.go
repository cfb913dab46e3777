package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layerforge/internal/demotransform"
	"layerforge/internal/engine"
	"layerforge/internal/syntaxtree"
)

// These scenario tests exercise the orchestration engine end-to-end,
// using the same demo transformers cmd/layerctl runs against real
// input — small, regex-driven stand-ins for a production per-layer
// rule corpus, which stays external to the engine.

func newScenarioOrchestrator(t *testing.T) *engine.Orchestrator {
	t.Helper()
	parser := syntaxtree.New(syntaxtree.DialectJavaScript)
	t.Cleanup(parser.Close)
	return engine.NewOrchestrator(demotransform.Registry(), parser, 0, nil)
}

func TestScenarioS1Entities(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `const m = &quot;Hi&quot;; console.log(m); var x = 1;`

	res, err := orch.Execute(context.Background(), source, []engine.LayerID{engine.LayerPatterns}, engine.Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.FinalCode, `"Hi"`)
	assert.NotContains(t, res.FinalCode, "&quot;")

	var executed []engine.LayerID
	for _, lo := range res.PerLayer {
		executed = append(executed, lo.LayerID)
	}
	assert.Equal(t, []engine.LayerID{engine.LayerConfiguration, engine.LayerPatterns}, executed)
}

func TestScenarioS2MissingKey(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `function L({items}){return (<ul>{items.map(i => <li>{i.name}</li>)}</ul>);}`

	res, err := orch.Execute(context.Background(), source, []engine.LayerID{engine.LayerComponents}, engine.Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, strings.Count(res.FinalCode, "key="))
	assert.Contains(t, res.FinalCode, "<li key={i.id}>")

	var executed []engine.LayerID
	for _, lo := range res.PerLayer {
		executed = append(executed, lo.LayerID)
	}
	assert.Equal(t, []engine.LayerID{engine.LayerConfiguration, engine.LayerPatterns, engine.LayerComponents}, executed)
}

func TestScenarioS3Guard(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `const v = localStorage.getItem("k");`

	res, err := orch.Execute(context.Background(), source, []engine.LayerID{engine.LayerHydration}, engine.Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.FinalCode, "typeof window")

	var executed []engine.LayerID
	for _, lo := range res.PerLayer {
		executed = append(executed, lo.LayerID)
	}
	assert.Equal(t, []engine.LayerID{
		engine.LayerConfiguration, engine.LayerPatterns, engine.LayerComponents, engine.LayerHydration,
	}, executed)
}

func TestScenarioS4Malformed(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `function broken( { return <div>;`

	res, err := orch.Execute(context.Background(), source, []engine.LayerID{
		engine.LayerConfiguration, engine.LayerPatterns, engine.LayerComponents, engine.LayerHydration,
	}, engine.Options{})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, source, res.FinalCode)
	require.Len(t, res.PerLayer, 4)
	for _, lo := range res.PerLayer {
		assert.NotEqual(t, engine.OutcomeAccepted, lo.Outcome)
		assert.Equal(t, engine.FailureSyntax, lo.ErrorCategory)
		assert.NotEmpty(t, lo.ErrorMessage)
	}
}

func TestScenarioS5Cache(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `const m = &quot;Hi&quot;; console.log(m); var x = 1;`
	opts := engine.Options{UseCache: true}

	first, err := orch.Execute(context.Background(), source, []engine.LayerID{engine.LayerPatterns}, opts)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := orch.Execute(context.Background(), source, []engine.LayerID{engine.LayerPatterns}, opts)
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Empty(t, second.PerLayer)
	assert.Equal(t, first.FinalCode, second.FinalCode)
}

func TestScenarioS6Recommendation(t *testing.T) {
	orch := newScenarioOrchestrator(t)
	source := `const m = &quot;Hi&quot;; console.log(m); var x = 1;`

	rec := orch.Analyse(source)

	assert.Equal(t, []engine.LayerID{engine.LayerConfiguration, engine.LayerPatterns}, rec.Layers)
	assert.GreaterOrEqual(t, rec.Confidence, 0.6)

	found := false
	for _, iss := range rec.Evidence {
		if iss.Layer == engine.LayerPatterns && strings.Contains(iss.Description, "entit") {
			found = true
		}
	}
	assert.True(t, found, "expected evidence mentioning entities for layer 2, got %+v", rec.Evidence)
}
