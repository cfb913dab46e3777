package engine

import "testing"

func TestCorruptionDetectorFlagsNewDoubledWrapper(t *testing.T) {
	d := NewCorruptionDetector(nil)
	before := `<button onClick={doThing}>Go</button>`
	after := `<button onClick={(e) => () => doThing(e)}>Go</button>`

	report := d.Check(before, after)
	if !report.Detected || report.Pattern != "doubled_handler_wrapper" {
		t.Fatalf("expected doubled_handler_wrapper, got %+v", report)
	}
}

func TestCorruptionDetectorIgnoresPreexistingPattern(t *testing.T) {
	d := NewCorruptionDetector(nil)
	code := `<button onClick={(e) => () => doThing(e)}>Go</button>`

	report := d.Check(code, code+" ")
	if report.Detected {
		t.Fatalf("expected no detection for a pattern already present before the transform, got %+v", report)
	}
}

func TestCorruptionDetectorNoOpOnIdenticalText(t *testing.T) {
	d := NewCorruptionDetector(nil)
	code := `<button onClick={(e) => () => doThing(e)}>Go</button>`
	report := d.Check(code, code)
	if report.Detected {
		t.Fatalf("expected Check to never fire when before == after")
	}
}
