// Package regression provides a lightweight, optional YAML-defined
// regression battery: a suite of (source, requested layers, expectation)
// cases replayed through an engine.Orchestrator.
package regression

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"layerforge/internal/engine"
)

// Battery is a collection of regression cases.
type Battery struct {
	Version int    `yaml:"version"`
	Cases   []Case `yaml:"cases"`
}

// Case is one (source, layers, expectation) regression scenario.
type Case struct {
	ID              string   `yaml:"id"`
	Source          string   `yaml:"source"`
	Layers          []int    `yaml:"layers,omitempty"`
	SmartSelection  bool     `yaml:"smart_selection,omitempty"`
	ExpectSuccess   bool     `yaml:"expect_success"`
	ExpectContains  []string `yaml:"expect_contains,omitempty"`
	ExpectNotContain []string `yaml:"expect_not_contain,omitempty"`
	TimeoutSec      int      `yaml:"timeout_sec,omitempty"`
}

// Result captures one case's execution outcome.
type Result struct {
	CaseID     string
	Success    bool
	Mismatches []string
	DurationMs int64
}

// LoadBattery reads a YAML battery file from disk.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse battery YAML: %w", err)
	}
	return &b, nil
}

// RunBattery executes every case in order against orch, using options as
// the base configuration (each case's SmartSelection and Layers override
// it per-case). It does not fail-fast: all cases run so the full set of
// regressions is visible in one pass.
func RunBattery(ctx context.Context, orch *engine.Orchestrator, b *Battery, options engine.Options) []Result {
	if b == nil || len(b.Cases) == 0 {
		return nil
	}

	results := make([]Result, 0, len(b.Cases))
	for _, c := range b.Cases {
		results = append(results, runCase(ctx, orch, c, options))
	}
	return results
}

func runCase(ctx context.Context, orch *engine.Orchestrator, c Case, options engine.Options) Result {
	start := time.Now()

	caseCtx := ctx
	if c.TimeoutSec > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, time.Duration(c.TimeoutSec)*time.Second)
		defer cancel()
	}

	caseOptions := options
	caseOptions.SmartSelection = c.SmartSelection

	layers := make([]engine.LayerID, 0, len(c.Layers))
	for _, n := range c.Layers {
		layers = append(layers, engine.LayerID(n))
	}

	res, err := orch.Execute(caseCtx, c.Source, layers, caseOptions)
	result := Result{CaseID: c.ID, DurationMs: time.Since(start).Milliseconds()}

	if err != nil {
		result.Success = c.ExpectSuccess == false
		if !result.Success {
			result.Mismatches = append(result.Mismatches, fmt.Sprintf("unexpected error: %v", err))
		}
		return result
	}

	result.Success = true
	if res.Success != c.ExpectSuccess {
		result.Success = false
		result.Mismatches = append(result.Mismatches, fmt.Sprintf("expected success=%v, got %v", c.ExpectSuccess, res.Success))
	}
	for _, want := range c.ExpectContains {
		if !strings.Contains(res.FinalCode, want) {
			result.Success = false
			result.Mismatches = append(result.Mismatches, fmt.Sprintf("expected final code to contain %q", want))
		}
	}
	for _, unwanted := range c.ExpectNotContain {
		if strings.Contains(res.FinalCode, unwanted) {
			result.Success = false
			result.Mismatches = append(result.Mismatches, fmt.Sprintf("expected final code to not contain %q", unwanted))
		}
	}

	return result
}

// DefaultBatteryPath returns the canonical battery path for a workspace.
func DefaultBatteryPath(workspace string) string {
	return workspace + "/regression/battery.yaml"
}
