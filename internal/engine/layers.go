package engine

import (
	"sort"
	"time"
)

const defaultLayerDeadline = 30 * time.Second

// DefaultLayerSpecs returns the fixed six-layer catalogue.
// Dependencies form the documented chain 2->{1}, 3->{1,2}, 4->{1,2,3},
// 5->{1..4}, 6->{1..5} and are transitively closed and acyclic by
// construction.
func DefaultLayerSpecs() map[LayerID]LayerSpec {
	dep := func(ids ...LayerID) map[LayerID]struct{} {
		m := make(map[LayerID]struct{}, len(ids))
		for _, id := range ids {
			m[id] = struct{}{}
		}
		return m
	}

	return map[LayerID]LayerSpec{
		LayerConfiguration: {
			ID: LayerConfiguration, Name: "Configuration", Strategy: Textual,
			Critical: true, Deadline: defaultLayerDeadline,
			Dependencies: dep(),
		},
		LayerPatterns: {
			ID: LayerPatterns, Name: "Patterns", Strategy: Textual,
			Critical: false, Deadline: defaultLayerDeadline,
			Dependencies: dep(LayerConfiguration),
		},
		LayerComponents: {
			ID: LayerComponents, Name: "Components", Strategy: StructuralPreferred,
			Critical: false, Deadline: defaultLayerDeadline,
			Dependencies: dep(LayerConfiguration, LayerPatterns),
		},
		LayerHydration: {
			ID: LayerHydration, Name: "Hydration", Strategy: StructuralPreferred,
			Critical: false, Deadline: defaultLayerDeadline,
			Dependencies: dep(LayerConfiguration, LayerPatterns, LayerComponents),
		},
		LayerFrameworkSpecific: {
			ID: LayerFrameworkSpecific, Name: "Framework-Specific", Strategy: StructuralPreferred,
			Critical: false, Deadline: defaultLayerDeadline,
			Dependencies: dep(LayerConfiguration, LayerPatterns, LayerComponents, LayerHydration),
		},
		LayerTesting: {
			ID: LayerTesting, Name: "Testing/Quality", Strategy: Textual,
			Critical: false, Deadline: defaultLayerDeadline,
			Dependencies: dep(LayerConfiguration, LayerPatterns, LayerComponents, LayerHydration, LayerFrameworkSpecific),
		},
	}
}

// CloseDependencies returns the smallest superset of requested that is
// closed under each layer's Dependencies, sorted ascending by LayerID.
// It also reports which ids were auto-added (not present in requested).
func CloseDependencies(specs map[LayerID]LayerSpec, requested []LayerID) (closed []LayerID, autoAdded []LayerID, err error) {
	want := make(map[LayerID]struct{}, len(requested))
	for _, id := range requested {
		if !id.Valid() {
			return nil, nil, &EngineError{Category: CategoryInvalidRequest, Message: "unknown layer id"}
		}
		want[id] = struct{}{}
	}

	original := make(map[LayerID]struct{}, len(want))
	for id := range want {
		original[id] = struct{}{}
	}

	// Fixed point: repeatedly add dependencies until stable. The chain
	// depth is bounded by 6, so this always terminates quickly.
	changed := true
	for changed {
		changed = false
		for id := range want {
			spec, ok := specs[id]
			if !ok {
				return nil, nil, &EngineError{Category: CategoryInvalidRequest, Message: "unknown layer id"}
			}
			for dep := range spec.Dependencies {
				if _, present := want[dep]; !present {
					want[dep] = struct{}{}
					changed = true
				}
			}
		}
	}

	for id := range want {
		closed = append(closed, id)
		if _, wasRequested := original[id]; !wasRequested {
			autoAdded = append(autoAdded, id)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i] < closed[j] })
	sort.Slice(autoAdded, func(i, j int) bool { return autoAdded[i] < autoAdded[j] })
	return closed, autoAdded, nil
}

// DedupLayers removes duplicate ids, preserving the lowest-to-highest order.
func DedupLayers(ids []LayerID) []LayerID {
	seen := make(map[LayerID]struct{}, len(ids))
	out := make([]LayerID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
