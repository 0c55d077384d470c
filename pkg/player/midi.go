package player

import (
	"github.com/aldertree/strataplay/pkg/audiograph"
	"github.com/aldertree/strataplay/pkg/types"
)

// MIDI status/CC constants used by the routing rules in spec.md §4.6.
const (
	statusNoteOff   = 0x80
	statusNoteOn    = 0x90
	statusPitchBend = 0xE0
	statusCC        = 0xB0

	ccJumpToPosition = 1
	ccGain           = 7
	ccTransport      = 68
	ccLoop           = 69

	ccToggleThreshold = 63
)

// EnableCCRouting gates whether CC events beyond pitch-bend/note are
// interpreted (spec.md §4.6: "when MIDI CC routing is enabled"). The gate
// is a single atomic word: only the control surface writes it, the
// callback only reads it, and it carries no ordering invariant with any
// other field.
func (p *Player) EnableCCRouting(enabled bool) {
	if enabled {
		p.ccRouting.Store(1)
	} else {
		p.ccRouting.Store(0)
	}
}

func (p *Player) ccRoutingEnabled() bool { return p.ccRouting.Load() != 0 }

// routeMidi processes this period's MIDI events in timestamp order,
// mutating the restricted set of player state spec.md §4.6 allows the
// realtime callback to touch: play_state, pitch_shift, pitch_bend,
// last_note, play_pos_frames, read_state, gain, loop.
func (p *Player) routeMidi(events []audiograph.MidiEvent) {
	for _, ev := range events {
		if len(ev.Data) == 0 {
			continue
		}
		status := ev.Data[0] & 0xF0

		switch status {
		case statusNoteOff:
			if len(ev.Data) >= 2 && int32(ev.Data[1]) == p.lastNote.Load() {
				p.stopForNote()
			}
		case statusNoteOn:
			if len(ev.Data) < 3 {
				continue
			}
			note := ev.Data[1]
			velocity := ev.Data[2]
			if velocity == 0 {
				if int32(note) == p.lastNote.Load() {
					p.stopForNote()
				}
				continue
			}
			p.triggerNote(note)
		case statusPitchBend:
			if len(ev.Data) < 3 {
				continue
			}
			lsb, msb := int32(ev.Data[1]), int32(ev.Data[2])
			p.pitchBend.Store(lsb + 128*msb)
		case statusCC:
			if len(ev.Data) < 3 || !p.ccRoutingEnabled() {
				continue
			}
			p.handleCC(ev.Data[1], ev.Data[2])
		}
	}
}

// triggerNote implements the note-on rule of spec.md §4.6: stop current
// playback, one-shot transpose by distance from middle C, seek to 0,
// start, record last_note.
func (p *Player) triggerNote(note byte) {
	p.playState.Store(int32(types.PlayStopping))
	p.pitchShift.Store(60 - int32(note))
	p.playPos.Store(0)
	p.readState.Store(int32(types.ReadSeeking))
	p.playState.Store(int32(types.PlayStarting))
	p.lastNote.Store(int32(note))
}

func (p *Player) stopForNote() {
	p.playState.Store(int32(types.PlayStopping))
	p.pitchShift.Store(0)
	p.lastNote.Store(noteNone)
}

// handleCC implements the four routed controllers of spec.md §4.6.
func (p *Player) handleCC(controller, value byte) {
	switch controller {
	case ccJumpToPosition:
		total := p.framesTotal.Load()
		target := int64(float64(value) / 127.0 * float64(total))
		p.playPos.Store(target)
		p.readState.Store(int32(types.ReadSeeking))
	case ccGain:
		p.setGain(clampGain(float64(value) / 100.0))
	case ccTransport:
		if int(value) >= ccToggleThreshold {
			if p.PlayState() == types.PlayPlaying || p.PlayState() == types.PlayStarting {
				p.playState.Store(int32(types.PlayStopping))
			} else {
				p.playState.Store(int32(types.PlayStarting))
			}
		}
	case ccLoop:
		if int(value) >= ccToggleThreshold {
			p.loop.Store(!p.loop.Load())
		}
	}
}
