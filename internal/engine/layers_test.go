package engine

import "testing"

func TestCloseDependenciesAutoAddsChain(t *testing.T) {
	specs := DefaultLayerSpecs()
	closed, autoAdded, err := CloseDependencies(specs, []LayerID{LayerComponents})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []LayerID{LayerConfiguration, LayerPatterns, LayerComponents}
	if !equalLayerIDs(closed, want) {
		t.Fatalf("closed = %v, want %v", closed, want)
	}
	if !equalLayerIDs(autoAdded, []LayerID{LayerConfiguration, LayerPatterns}) {
		t.Fatalf("autoAdded = %v", autoAdded)
	}
}

func TestCloseDependenciesRejectsUnknownID(t *testing.T) {
	specs := DefaultLayerSpecs()
	_, _, err := CloseDependencies(specs, []LayerID{LayerID(99)})
	if err == nil {
		t.Fatalf("expected an error for an unknown layer id")
	}
}

func TestCloseDependenciesIsStrictlyIncreasing(t *testing.T) {
	specs := DefaultLayerSpecs()
	closed, _, err := CloseDependencies(specs, []LayerID{LayerTesting})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(closed); i++ {
		if closed[i] <= closed[i-1] {
			t.Fatalf("closed set not strictly increasing: %v", closed)
		}
	}
	if len(closed) != 6 {
		t.Fatalf("expected all 6 layers, got %v", closed)
	}
}

func TestDedupLayersSortsAndDedupes(t *testing.T) {
	out := DedupLayers([]LayerID{LayerTesting, LayerConfiguration, LayerTesting, LayerPatterns})
	want := []LayerID{LayerConfiguration, LayerPatterns, LayerTesting}
	if !equalLayerIDs(out, want) {
		t.Fatalf("DedupLayers = %v, want %v", out, want)
	}
}

func equalLayerIDs(a, b []LayerID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
