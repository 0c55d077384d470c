package pattern

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func mustNew(t *testing.T, beats, stepsPerBeat int) *Pattern {
	t.Helper()
	p, err := New(beats, stepsPerBeat)
	if err != nil {
		t.Fatalf("New(%d, %d) error: %v", beats, stepsPerBeat, err)
	}
	return p
}

// Scenario 5 from spec.md §8: a note added with an overlapping range
// supersedes the old one in place.
func TestAddNoteReplacesOverlap(t *testing.T) {
	p := mustNew(t, 4, 4)

	if err := p.AddNote(0, 60, 100, 2.0, 0); err != nil {
		t.Fatalf("AddNote(0): %v", err)
	}
	if err := p.AddNote(1, 60, 80, 1.0, 0); err != nil {
		t.Fatalf("AddNote(1): %v", err)
	}

	events := p.Events()
	var matches int
	for _, ev := range events {
		if ev.Command == CommandNoteOn && ev.Value1Start == 60 {
			matches++
			if ev.Position != 1 || ev.Value2Start != 80 || ev.Duration != 1.0 {
				t.Errorf("surviving note = %+v, want position=1 velocity=80 duration=1.0", ev)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one note-on at value1=60, got %d", matches)
	}
}

// Scenario 6 from spec.md §8: undo/redo/undoAll/redoAll over a sequence
// of snapshot + edit pairs.
func TestUndoRedoSequence(t *testing.T) {
	p := mustNew(t, 4, 4)
	p.ResetSnapshots()

	p.SaveSnapshot()
	if err := p.AddNote(0, 60, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}
	p.SaveSnapshot()
	if err := p.AddNote(4, 62, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}
	p.SaveSnapshot()

	hasNote := func(note int) bool {
		for _, ev := range p.Events() {
			if ev.Command == CommandNoteOn && ev.Value1Start == note {
				return true
			}
		}
		return false
	}

	if !hasNote(60) || !hasNote(62) {
		t.Fatalf("expected both notes present before undo")
	}

	if err := p.Undo(); err != nil {
		t.Fatalf("first undo: %v", err)
	}
	if !hasNote(60) || hasNote(62) {
		t.Fatalf("after first undo: expected only note 60")
	}

	if err := p.Undo(); err != nil {
		t.Fatalf("second undo: %v", err)
	}
	if hasNote(60) || hasNote(62) {
		t.Fatalf("after second undo: expected empty pattern")
	}

	if err := p.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if !hasNote(60) || hasNote(62) {
		t.Fatalf("after redo: expected only note 60")
	}

	p.RedoAll()
	if !hasNote(60) || !hasNote(62) {
		t.Fatalf("after redoAll: expected both notes present")
	}
}

func TestAddNoteRejectsOutOfRange(t *testing.T) {
	p := mustNew(t, 1, 4) // 4 steps total

	if err := p.AddNote(4, 60, 100, 1.0, 0); err == nil {
		t.Errorf("AddNote at step 4 (== step count) should be rejected")
	}
	if err := p.AddNote(0, 128, 100, 1.0, 0); err == nil {
		t.Errorf("AddNote with note 128 should be rejected")
	}
	if err := p.AddNote(0, 60, 128, 1.0, 0); err == nil {
		t.Errorf("AddNote with velocity 128 should be rejected")
	}
	if len(p.Events()) != 0 {
		t.Errorf("rejected AddNote calls must not mutate the pattern")
	}
}

func TestTransposeAbortsWholeOperationOnOverflow(t *testing.T) {
	p := mustNew(t, 1, 4)
	if err := p.AddNote(0, 120, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNote(1, 10, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}

	if err := p.Transpose(10); err == nil {
		t.Fatalf("Transpose(10) should fail: note 120 would exceed 127")
	}

	v, _ := p.GetNoteVelocity(1, 10)
	if v != 100 {
		t.Errorf("Transpose should not have mutated any note on abort, note at step1 velocity=%d", v)
	}
}

func TestSetBeatsInPatternTruncatesPrefix(t *testing.T) {
	p := mustNew(t, 4, 4) // 16 steps
	if err := p.AddNote(0, 60, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNote(10, 62, 100, 1.0, 0); err != nil {
		t.Fatal(err)
	}

	if err := p.SetBeatsInPattern(2); err != nil { // 8 steps
		t.Fatal(err)
	}

	events := p.Events()
	if len(events) != 1 || events[0].Value1Start != 60 {
		t.Errorf("SetBeatsInPattern(2) left %+v, want only the note at step 0", events)
	}
}

func TestSetStepsPerBeatRejectsInvalid(t *testing.T) {
	p := mustNew(t, 4, 4)
	if err := p.SetStepsPerBeat(5); err == nil {
		t.Errorf("SetStepsPerBeat(5) should be rejected, 5 is not in {1,2,3,4,6,8,12,24}")
	}
}

// Property: transpose by +n then -n round-trips when headroom allows it
// (spec.md §8's round-trip law).
func TestTransposeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		beats := rapid.IntRange(1, 4).Draw(rt, "beats")
		p := mustNewRapid(rt, beats, 4)

		n := rapid.IntRange(1, 10).Draw(rt, "shift")
		notes := rapid.SliceOfDistinct(rapid.IntRange(n, 127-n), func(v int) int { return v }).Draw(rt, "notes")

		for i, note := range notes {
			step := i % p.StepCount()
			if err := p.AddNote(step, note, 100, 1.0, 0); err != nil {
				rt.Fatalf("setup AddNote: %v", err)
			}
		}

		before := p.Events()

		if err := p.Transpose(n); err != nil {
			rt.Fatalf("Transpose(+%d): %v", n, err)
		}
		if err := p.Transpose(-n); err != nil {
			rt.Fatalf("Transpose(-%d): %v", n, err)
		}

		after := p.Events()
		if len(before) != len(after) {
			rt.Fatalf("event count changed: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				rt.Fatalf("event %d changed across +n/-n round trip: %+v -> %+v", i, before[i], after[i])
			}
		}
	})
}

func mustNewRapid(rt *rapid.T, beats, stepsPerBeat int) *Pattern {
	p, err := New(beats, stepsPerBeat)
	if err != nil {
		rt.Fatalf("New(%d,%d): %v", beats, stepsPerBeat, err)
	}
	return p
}

// Property: events remain sorted by position after arbitrary AddNote
// sequences.
func TestAddNoteKeepsSortedOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := mustNewRapid(rt, 8, 4) // 32 steps
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			step := rapid.IntRange(0, p.StepCount()-1).Draw(rt, "step")
			note := rapid.IntRange(0, 127).Draw(rt, "note")
			vel := rapid.IntRange(0, 127).Draw(rt, "vel")
			dur := rapid.Float64Range(0.1, 4).Draw(rt, "dur")
			if err := p.AddNote(step, note, vel, dur, 0); err != nil {
				rt.Fatalf("AddNote: %v", err)
			}
		}
		events := p.Events()
		if !sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Position < events[j].Position }) {
			rt.Fatalf("events not sorted by position: %+v", events)
		}
	})
}
