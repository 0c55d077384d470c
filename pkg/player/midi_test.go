package player

import (
	"testing"

	"github.com/aldertree/strataplay/pkg/audiograph"
	"github.com/aldertree/strataplay/pkg/types"
)

func newIdlePlayer() *Player {
	p := newPlayer(0, 48000)
	p.fileState.Store(int32(types.FileOpen))
	p.framesTotal.Store(1000)
	return p
}

func TestRouteMidiNoteOnTriggersTranspose(t *testing.T) {
	p := newIdlePlayer()
	p.playPos.Store(500)

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusNoteOn, 72, 100}}})

	if p.PitchShift() != 60-72 {
		t.Errorf("PitchShift = %d, want %d", p.PitchShift(), 60-72)
	}
	if p.PlayPosFrames() != 0 {
		t.Errorf("PlayPosFrames = %d, want 0 (note-on seeks to start)", p.PlayPosFrames())
	}
	if p.ReadState() != types.ReadSeeking {
		t.Errorf("ReadState = %v, want SEEKING", p.ReadState())
	}
	if p.PlayState() != types.PlayStarting {
		t.Errorf("PlayState = %v, want STARTING", p.PlayState())
	}
	if p.LastNote() != 72 {
		t.Errorf("LastNote = %d, want 72", p.LastNote())
	}
}

func TestRouteMidiNoteOnVelocityZeroActsAsNoteOff(t *testing.T) {
	p := newIdlePlayer()
	p.lastNote.Store(72)
	p.pitchShift.Store(-12)

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusNoteOn, 72, 0}}})

	if p.PlayState() != types.PlayStopping {
		t.Errorf("PlayState = %v, want STOPPING", p.PlayState())
	}
	if p.PitchShift() != 0 {
		t.Errorf("PitchShift = %d, want 0 after note-off", p.PitchShift())
	}
	if p.LastNote() != noteNone {
		t.Errorf("LastNote = %d, want noteNone", p.LastNote())
	}
}

func TestRouteMidiNoteOffIgnoredForOtherNote(t *testing.T) {
	p := newIdlePlayer()
	p.lastNote.Store(72)
	p.playState.Store(int32(types.PlayPlaying))

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusNoteOff, 40, 0}}})

	if p.PlayState() != types.PlayPlaying {
		t.Errorf("PlayState = %v, want unchanged PLAYING", p.PlayState())
	}
	if p.LastNote() != 72 {
		t.Errorf("LastNote = %d, want unchanged 72", p.LastNote())
	}
}

func TestRouteMidiPitchBend(t *testing.T) {
	p := newIdlePlayer()
	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusPitchBend, 0x00, 0x40}}})
	if p.PitchBend() != 8192 {
		t.Errorf("PitchBend = %d, want 8192 (center)", p.PitchBend())
	}
}

func TestRouteMidiCCIgnoredWhenRoutingDisabled(t *testing.T) {
	p := newIdlePlayer()
	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccGain, 50}}})
	if p.Gain() != 1.0 {
		t.Errorf("Gain = %v, want unchanged 1.0 when CC routing is disabled", p.Gain())
	}
}

func TestHandleCCGain(t *testing.T) {
	p := newIdlePlayer()
	p.EnableCCRouting(true)
	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccGain, 50}}})
	want := 50.0 / 100.0
	if g := p.Gain(); g != want {
		t.Errorf("Gain = %v, want %v", g, want)
	}
}

func TestHandleCCJumpToPosition(t *testing.T) {
	p := newIdlePlayer()
	p.EnableCCRouting(true)
	p.framesTotal.Store(1000)

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccJumpToPosition, 127}}})

	if p.ReadState() != types.ReadSeeking {
		t.Errorf("ReadState = %v, want SEEKING", p.ReadState())
	}
	if p.PlayPosFrames() != 1000 {
		t.Errorf("PlayPosFrames = %d, want 1000 for CC value 127", p.PlayPosFrames())
	}
}

func TestHandleCCTransportTogglesPlayState(t *testing.T) {
	p := newIdlePlayer()
	p.EnableCCRouting(true)
	p.playState.Store(int32(types.PlayStopped))

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccTransport, 127}}})
	if p.PlayState() != types.PlayStarting {
		t.Errorf("PlayState after toggle-from-stopped = %v, want STARTING", p.PlayState())
	}

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccTransport, 127}}})
	if p.PlayState() != types.PlayStopping {
		t.Errorf("PlayState after toggle-from-starting = %v, want STOPPING", p.PlayState())
	}
}

func TestHandleCCTransportIgnoresValuesBelowThreshold(t *testing.T) {
	p := newIdlePlayer()
	p.EnableCCRouting(true)
	p.playState.Store(int32(types.PlayStopped))

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccTransport, 10}}})
	if p.PlayState() != types.PlayStopped {
		t.Errorf("PlayState = %v, want unchanged STOPPED for a sub-threshold value", p.PlayState())
	}
}

func TestHandleCCLoopToggle(t *testing.T) {
	p := newIdlePlayer()
	p.EnableCCRouting(true)

	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccLoop, 127}}})
	if !p.Loop() {
		t.Errorf("Loop = false, want true after toggle")
	}
	p.routeMidi([]audiograph.MidiEvent{{Data: []byte{statusCC, ccLoop, 127}}})
	if p.Loop() {
		t.Errorf("Loop = true, want false after second toggle")
	}
}
