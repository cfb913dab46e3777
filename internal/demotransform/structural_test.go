package demotransform

import (
	"context"
	"strings"
	"testing"
)

func TestComponentsStructuralInjectsKey(t *testing.T) {
	source := `function L({items}){return (<ul>{items.map(i => <li>{i.name}</li>)}</ul>);}`

	out, err := ComponentsStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<li key={i.id}>") {
		t.Fatalf("expected an injected key attribute, got %q", out)
	}
	if strings.Count(out, "key=") != 1 {
		t.Fatalf("expected exactly one key attribute, got %q", out)
	}
}

func TestComponentsStructuralLeavesKeyedElements(t *testing.T) {
	source := `const rows = items.map((i) => <li key={i.id}>{i.name}</li>);`

	out, err := ComponentsStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != source {
		t.Fatalf("expected already-keyed element to be untouched, got %q", out)
	}
}

func TestComponentsStructuralSkipsDestructuredParam(t *testing.T) {
	// No plain identifier to synthesize a key expression from.
	source := `const rows = items.map(({id}) => <li>{id}</li>);`

	out, err := ComponentsStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != source {
		t.Fatalf("expected destructured-parameter callback to be untouched, got %q", out)
	}
}

func TestHydrationStructuralWrapsBrowserGlobal(t *testing.T) {
	source := `const v = localStorage.getItem("k");`

	out, err := HydrationStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `const v = typeof window !== "undefined" ? localStorage.getItem("k") : undefined;`
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestHydrationStructuralIsIdempotent(t *testing.T) {
	source := `const v = localStorage.getItem("k");`

	once, err := HydrationStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := HydrationStructural(context.Background(), once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if twice != once {
		t.Fatalf("expected a second pass to be a no-op, got %q then %q", once, twice)
	}
}

func TestHydrationStructuralIgnoresOrdinaryIdentifiers(t *testing.T) {
	source := `const v = store.getItem("k");`

	out, err := HydrationStructural(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != source {
		t.Fatalf("expected non-browser base identifier to be untouched, got %q", out)
	}
}
