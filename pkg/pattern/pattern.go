package pattern

import (
	"fmt"
	"math"
)

// validStepsPerBeat enumerates the admissible steps-per-beat grid values,
// per spec.md §3.2.
var validStepsPerBeat = map[int]bool{
	1: true, 2: true, 3: true, 4: true,
	6: true, 8: true, 12: true, 24: true,
}

// noLastStep is the sentinel LastStep returns for an empty pattern.
const noLastStep = -1

// Pattern is an ordered sequence of StepEvents plus the pattern-wide
// musical parameters spec.md §3.2 lists, and an undo/redo snapshot stack
// over the event list (P4). Events stay sorted by Position non-decreasing
// (P1) across every edit in this file.
type Pattern struct {
	Beats        int
	StepsPerBeat int
	Scale        int
	Tonic        int
	RefNote      int
	QuantizeNotes bool
	SwingDiv     int
	SwingAmount  float64
	HumanTime    float64
	HumanVelocity float64
	PlayChance   float64
	Zoom         float64

	events []StepEvent

	// programChanges holds one program-change slot per step, independent
	// of the note/CC event list (recovered from pattern.cpp's
	// getProgramChange/addProgramChange - spec.md's distillation folds
	// this silently into "command" but the original keeps it separate).
	programChanges map[int]int

	snapshots []snapshot
	cursor    int
}

type snapshot struct {
	events         []StepEvent
	programChanges map[int]int
}

// New creates an empty pattern with beats*stepsPerBeat steps. stepsPerBeat
// must be one of the admissible grid values.
func New(beats, stepsPerBeat int) (*Pattern, error) {
	if beats < 1 {
		return nil, fmt.Errorf("%w: beats %d < 1", ErrBadArgument, beats)
	}
	if !validStepsPerBeat[stepsPerBeat] {
		return nil, fmt.Errorf("%w: steps-per-beat %d not in {1,2,3,4,6,8,12,24}", ErrBadArgument, stepsPerBeat)
	}
	p := &Pattern{
		Beats:          beats,
		StepsPerBeat:   stepsPerBeat,
		RefNote:        60,
		SwingDiv:       2,
		Zoom:           1,
		programChanges: make(map[int]int),
	}
	p.ResetSnapshots()
	return p, nil
}

// StepCount returns beats * steps-per-beat (P3).
func (p *Pattern) StepCount() int { return p.Beats * p.StepsPerBeat }

// LengthInClocks returns beats * PPQN, per spec.md §6.
func (p *Pattern) LengthInClocks() int { return p.Beats * PPQN }

// ClocksPerStep returns PPQN / steps-per-beat, or 1 if steps-per-beat is
// out of its admissible range (spec.md §4.7).
func (p *Pattern) ClocksPerStep() int {
	if !validStepsPerBeat[p.StepsPerBeat] {
		return 1
	}
	v := PPQN / p.StepsPerBeat
	if v <= 0 {
		return 1
	}
	return v
}

// Events returns a copy of the event list in position order; callers may
// not mutate the pattern through it.
func (p *Pattern) Events() []StepEvent {
	out := make([]StepEvent, len(p.events))
	copy(out, p.events)
	return out
}

// LastStep returns the highest occupied step position across notes, CCs
// and program changes, or noLastStep if the pattern is empty (ported from
// pattern.cpp's getLastStep).
func (p *Pattern) LastStep() int {
	last := noLastStep
	if n := len(p.events); n > 0 {
		last = p.events[n-1].Position
	}
	for step := range p.programChanges {
		if step > last {
			last = step
		}
	}
	return last
}

// insertSorted inserts ev at the first position whose Position > ev.Position,
// preserving the relative order of ties (P1, and the AddNote insertion rule
// in spec.md §4.7).
func (p *Pattern) insertSorted(ev StepEvent) {
	i := 0
	for i < len(p.events) && p.events[i].Position <= ev.Position {
		i++
	}
	p.events = append(p.events, StepEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// AddNote adds (or replaces, per P2) a note-on event. Any existing note-on
// at the same value1 (note) whose temporal range overlaps the new one is
// deleted; the first such deletion's stutter settings are transferred to
// the new event.
func (p *Pattern) AddNote(step, note, velocity int, duration, offset float64) error {
	if step < 0 || step >= p.StepCount() {
		return fmt.Errorf("%w: step %d out of [0,%d)", ErrBadArgument, step, p.StepCount())
	}
	if note < 0 || note > 127 {
		return fmt.Errorf("%w: note %d out of [0,127]", ErrBadArgument, note)
	}
	if velocity < 0 || velocity > 127 {
		return fmt.Errorf("%w: velocity %d out of [0,127]", ErrBadArgument, velocity)
	}
	if duration < MinNoteDuration {
		duration = MinNoteDuration
	}
	offset = clampFloat(offset, MinStepOffset, MaxStepOffset)

	stutterCount, stutterDur := 0, 1
	kept := p.events[:0:0]
	transferred := false
	for _, ev := range p.events {
		if ev.Command == CommandNoteOn && ev.Value1Start == note && ev.overlaps(step, duration) {
			if !transferred {
				stutterCount, stutterDur = ev.StutterCount, ev.StutterDur
				transferred = true
			}
			continue
		}
		kept = append(kept, ev)
	}
	p.events = kept

	p.insertSorted(StepEvent{
		Position:     step,
		Command:      CommandNoteOn,
		Value1Start:  note,
		Value1End:    note,
		Value2Start:  velocity,
		Value2End:    velocity,
		Duration:     duration,
		Offset:       offset,
		StutterCount: stutterCount,
		StutterDur:   stutterDur,
		PlayChance:   MaxPlayChance,
	})
	return nil
}

// RemoveNote erases the first note-on event at (step, note), if any.
func (p *Pattern) RemoveNote(step, note int) {
	for i, ev := range p.events {
		if ev.Command == CommandNoteOn && ev.Position == step && ev.Value1Start == note {
			p.events = append(p.events[:i], p.events[i+1:]...)
			return
		}
	}
}

// GetNoteVelocity returns the velocity of the note-on at (step, note), if
// present.
func (p *Pattern) GetNoteVelocity(step, note int) (int, bool) {
	for _, ev := range p.events {
		if ev.Command == CommandNoteOn && ev.Position == step && ev.Value1Start == note {
			return ev.Value2Start, true
		}
	}
	return 0, false
}

// GetNoteDuration returns the duration (in fractional steps) of the
// note-on at (step, note), if present.
func (p *Pattern) GetNoteDuration(step, note int) (float64, bool) {
	for _, ev := range p.events {
		if ev.Command == CommandNoteOn && ev.Position == step && ev.Value1Start == note {
			return ev.Duration, true
		}
	}
	return 0, false
}

// Transpose shifts every note-on's pitch by n semitones. If any resulting
// pitch would fall outside [0,127] the whole operation aborts with no
// mutation; spec.md §4.7/§9 call out and then explicitly drop the
// original's dead "delete out-of-range notes" branch, since this precheck
// already makes it unreachable.
func (p *Pattern) Transpose(n int) error {
	for _, ev := range p.events {
		if ev.Command != CommandNoteOn {
			continue
		}
		shifted := ev.Value1Start + n
		if shifted < 0 || shifted > 127 {
			return fmt.Errorf("%w: transpose by %d would move note %d out of [0,127]", ErrBadArgument, n, ev.Value1Start)
		}
	}
	for i := range p.events {
		if p.events[i].Command == CommandNoteOn {
			p.events[i].Value1Start += n
			p.events[i].Value1End += n
		}
	}
	return nil
}

// ChangeVelocityAll applies an additive delta to every note-on's velocity,
// clamped to [1,127].
func (p *Pattern) ChangeVelocityAll(delta int) {
	for i := range p.events {
		if p.events[i].Command == CommandNoteOn {
			p.events[i].Value2Start = clampInt(p.events[i].Value2Start+delta, MinNoteVelocity, MaxNoteVelocity)
			p.events[i].Value2End = clampInt(p.events[i].Value2End+delta, MinNoteVelocity, MaxNoteVelocity)
		}
	}
}

// ChangeDurationAll applies an additive delta (in steps) to every
// note-on's duration, clamped to a minimum of 0.1 step.
func (p *Pattern) ChangeDurationAll(delta float64) {
	for i := range p.events {
		if p.events[i].Command == CommandNoteOn {
			p.events[i].Duration = math.Max(MinNoteDuration, p.events[i].Duration+delta)
		}
	}
}

// ChangeStutterCountAll applies an additive delta to every note-on's
// stutter count, clamped to [0, MaxStutterCount].
func (p *Pattern) ChangeStutterCountAll(delta int) {
	for i := range p.events {
		if p.events[i].Command == CommandNoteOn {
			p.events[i].StutterCount = clampInt(p.events[i].StutterCount+delta, 0, MaxStutterCount)
		}
	}
}

// ChangeStutterDurAll applies an additive delta to every note-on's stutter
// duration (in clock ticks), clamped to [1, MaxStutterDur].
func (p *Pattern) ChangeStutterDurAll(delta int) {
	for i := range p.events {
		if p.events[i].Command == CommandNoteOn {
			p.events[i].StutterDur = clampInt(p.events[i].StutterDur+delta, MinStutterDur, MaxStutterDur)
		}
	}
}

// SetStepsPerBeat rescales every event's position and duration by
// k/current-steps-per-beat and adopts k, rejecting any k outside the
// admissible grid.
func (p *Pattern) SetStepsPerBeat(k int) error {
	if !validStepsPerBeat[k] {
		return fmt.Errorf("%w: steps-per-beat %d not in {1,2,3,4,6,8,12,24}", ErrBadArgument, k)
	}
	if k == p.StepsPerBeat {
		return nil
	}
	ratio := float64(k) / float64(p.StepsPerBeat)
	for i := range p.events {
		p.events[i].Position = int(math.Round(float64(p.events[i].Position) * ratio))
		p.events[i].Duration *= ratio
	}
	rescaled := make(map[int]int, len(p.programChanges))
	for step, prog := range p.programChanges {
		rescaled[int(math.Round(float64(step)*ratio))] = prog
	}
	p.programChanges = rescaled
	p.StepsPerBeat = k
	p.resort()
	return nil
}

// resort restores position order after a bulk rescale that could disturb
// it (equal ratios preserve order, but guard it explicitly for clarity).
func (p *Pattern) resort() {
	for i := 1; i < len(p.events); i++ {
		ev := p.events[i]
		j := i - 1
		for j >= 0 && p.events[j].Position > ev.Position {
			p.events[j+1] = p.events[j]
			j--
		}
		p.events[j+1] = ev
	}
}

// SetBeatsInPattern truncates the event list at the first event whose
// position >= b*steps-per-beat (a prefix operation, since the list is kept
// ordered), and adopts b.
func (p *Pattern) SetBeatsInPattern(b int) error {
	if b < 1 {
		return fmt.Errorf("%w: beats %d < 1", ErrBadArgument, b)
	}
	p.Beats = b
	cutoff := b * p.StepsPerBeat
	cut := len(p.events)
	for i, ev := range p.events {
		if ev.Position >= cutoff {
			cut = i
			break
		}
	}
	p.events = p.events[:cut]
	for step := range p.programChanges {
		if step >= cutoff {
			delete(p.programChanges, step)
		}
	}
	return nil
}

// SetProgramChange records a program-change value at step, independent of
// the note/CC event list.
func (p *Pattern) SetProgramChange(step, program int) error {
	if step < 0 || step >= p.StepCount() {
		return fmt.Errorf("%w: step %d out of [0,%d)", ErrBadArgument, step, p.StepCount())
	}
	if program < 0 || program > 127 {
		return fmt.Errorf("%w: program %d out of [0,127]", ErrBadArgument, program)
	}
	p.programChanges[step] = program
	return nil
}

// ProgramChangeAt returns the program-change value set at step, if any.
func (p *Pattern) ProgramChangeAt(step int) (int, bool) {
	v, ok := p.programChanges[step]
	return v, ok
}

// ClearProgramChange removes any program-change value set at step.
func (p *Pattern) ClearProgramChange(step int) {
	delete(p.programChanges, step)
}

// --- snapshot / undo / redo (P4) ---

func (p *Pattern) snapshotEvents() []StepEvent {
	out := make([]StepEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Pattern) snapshotProgramChanges() map[int]int {
	out := make(map[int]int, len(p.programChanges))
	for k, v := range p.programChanges {
		out[k] = v
	}
	return out
}

// SaveSnapshot copies the current event list and program-change map,
// truncates any snapshots strictly after the cursor, pushes the new copy,
// and points the cursor at it (P4).
func (p *Pattern) SaveSnapshot() {
	p.snapshots = append(p.snapshots[:p.cursor+1], snapshot{
		events:         p.snapshotEvents(),
		programChanges: p.snapshotProgramChanges(),
	})
	p.cursor = len(p.snapshots) - 1
}

func (p *Pattern) restore(idx int) {
	s := p.snapshots[idx]
	p.events = make([]StepEvent, len(s.events))
	copy(p.events, s.events)
	p.programChanges = make(map[int]int, len(s.programChanges))
	for k, v := range s.programChanges {
		p.programChanges[k] = v
	}
}

// Undo moves the cursor back one snapshot and restores it, if possible.
func (p *Pattern) Undo() error {
	if p.cursor == 0 {
		return ErrNoSnapshot
	}
	p.cursor--
	p.restore(p.cursor)
	return nil
}

// Redo moves the cursor forward one snapshot and restores it, if possible.
func (p *Pattern) Redo() error {
	if p.cursor >= len(p.snapshots)-1 {
		return ErrNoSnapshot
	}
	p.cursor++
	p.restore(p.cursor)
	return nil
}

// UndoAll jumps to the first snapshot.
func (p *Pattern) UndoAll() {
	p.cursor = 0
	p.restore(p.cursor)
}

// RedoAll jumps to the last snapshot.
func (p *Pattern) RedoAll() {
	p.cursor = len(p.snapshots) - 1
	p.restore(p.cursor)
}

// ResetSnapshots clears the snapshot stack and saves the current state as
// its only entry.
func (p *Pattern) ResetSnapshots() {
	p.snapshots = []snapshot{{
		events:         p.snapshotEvents(),
		programChanges: p.snapshotProgramChanges(),
	}}
	p.cursor = 0
}
