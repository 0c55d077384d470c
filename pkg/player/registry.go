package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/aldertree/strataplay/pkg/audiograph"
	"github.com/aldertree/strataplay/pkg/types"
)

// Host is the Player Registry of spec.md §2/§4.3: it owns up to slotCount
// player slots, allocating and freeing them, and is the entry point a
// caller outside this package uses: its operations take integer handles
// (spec.md §9's "stable integer handle API for foreign bindings"). Player
// additionally hands out the underlying *Player for its read-only getters.
type Host struct {
	mu      sync.Mutex
	factory audiograph.Factory
	slots   []*Player // nil entry = free slot
}

// NewHost creates a registry with slotCount player slots, each driven by
// clients the given audiograph.Factory registers.
func NewHost(factory audiograph.Factory, slotCount int) *Host {
	return &Host{factory: factory, slots: make([]*Player, slotCount)}
}

// Create reserves a free slot, registers an audio-graph client with two
// output streams and one MIDI input stream, installs the process and
// sample-rate callbacks, and activates the client (spec.md §4.3 create()).
func (h *Host) Create() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, s := range h.slots {
		if s == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, types.ErrNoFreeSlot
	}

	client, err := h.factory.RegisterClient(fmt.Sprintf("player%d", idx))
	if err != nil {
		return 0, fmt.Errorf("create player %d: %w", idx, err)
	}

	outA, err := client.RegisterOutputStream("out_a")
	if err != nil {
		return 0, fmt.Errorf("create player %d: register bus A: %w", idx, err)
	}
	outB, err := client.RegisterOutputStream("out_b")
	if err != nil {
		return 0, fmt.Errorf("create player %d: register bus B: %w", idx, err)
	}
	midiIn, err := client.RegisterMidiInputStream("midi_in")
	if err != nil {
		return 0, fmt.Errorf("create player %d: register midi in: %w", idx, err)
	}

	p := newPlayer(idx, client.SampleRate())
	p.client = client
	p.outA = outA
	p.outB = outB
	p.midiIn = midiIn

	client.SetProcessCallback(p.audioCallback)
	client.SetSampleRateCallback(func(rate int) { p.outputSampleRate = rate })

	if err := client.Activate(); err != nil {
		return 0, fmt.Errorf("create player %d: activate: %w", idx, err)
	}

	h.slots[idx] = p
	return idx, nil
}

// Remove stops and unloads the player at handle, closes its audio-graph
// client, and frees the slot. Per spec.md §9's resolution of the
// "remove_player triggers library-wide shutdown" design note, this does
// not run any process-wide shutdown even when it frees the last slot.
func (h *Host) Remove(handle int) error {
	h.mu.Lock()
	p, err := h.getLocked(handle)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.slots[handle] = nil
	h.mu.Unlock()

	p.unload()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (h *Host) getLocked(handle int) (*Player, error) {
	if handle < 0 || handle >= len(h.slots) || h.slots[handle] == nil {
		return nil, types.ErrBadHandle
	}
	return h.slots[handle], nil
}

func (h *Host) get(handle int) (*Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.getLocked(handle)
}

// Load opens path on the player at handle, spawning its decoder thread.
// notifier (if non-nil) is invoked from the decoder thread whenever an
// observable parameter crosses a change threshold (spec.md §4.3).
func (h *Host) Load(ctx context.Context, handle int, path string, notifier types.Notifier, notifyCtx any) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.load(ctx, path, notifier, notifyCtx)
}

// Unload implements spec.md §4.3's unload().
func (h *Host) Unload(handle int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.unload()
}

// Start implements spec.md §4.3's start().
func (h *Host) Start(handle int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.start()
}

// Stop implements spec.md §4.3's stop().
func (h *Host) Stop(handle int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.stop()
}

// SetPosition implements spec.md §4.3's set_position().
func (h *Host) SetPosition(handle int, seconds float64) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setPosition(seconds)
}

// GetPosition implements spec.md §4.3's get_position(). Per spec.md §7's
// "bad handle" rule this returns the neutral value 0 on an unknown
// handle rather than propagating the error through a second return value
// callers might ignore at a foreign-binding boundary; Go callers that
// care can call Player(handle) directly.
func (h *Host) GetPosition(handle int) float64 {
	p, err := h.get(handle)
	if err != nil {
		return 0
	}
	return p.GetPosition()
}

// SetGain implements spec.md §4.3's set_gain().
func (h *Host) SetGain(handle int, gain float64) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.SetGain(gain)
}

// SetLoop implements spec.md §4.3's set_loop().
func (h *Host) SetLoop(handle int, loop bool) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setLoop(loop)
}

// SetTrackA implements spec.md §4.3's set_track_a().
func (h *Host) SetTrackA(handle, track int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setTrackA(track)
}

// SetTrackB implements spec.md §4.3's set_track_b().
func (h *Host) SetTrackB(handle, track int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setTrackB(track)
}

// SetSrcQuality implements spec.md §4.3's set_src_quality().
func (h *Host) SetSrcQuality(handle int, q types.SrcQuality) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setSrcQuality(q)
}

// SetBufferSize implements spec.md §4.3's set_buffer_size().
func (h *Host) SetBufferSize(handle, frames int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setBufferSize(frames)
}

// SetBufferCount implements spec.md §4.3's set_buffer_count().
func (h *Host) SetBufferCount(handle, count int) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setBufferCount(count)
}

// SetPitchShift exposes the semitone offset directly (see control.go's
// setPitchShift doc).
func (h *Host) SetPitchShift(handle int, semitones int32) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	return p.setPitchShift(semitones)
}

// EnableCCRouting implements spec.md §4.6's "when MIDI CC routing is
// enabled" gate.
func (h *Host) EnableCCRouting(handle int, enabled bool) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	p.EnableCCRouting(enabled)
	return nil
}

// Player returns the underlying *Player at handle, for callers that need
// direct access to read-only getters (FileState, PlayState, and so on)
// beyond what the Host wrapper exposes.
func (h *Host) Player(handle int) (*Player, error) {
	return h.get(handle)
}

// PostMidi feeds a MIDI event to the player at handle's input stream, for
// backends (like portaudiograph) that have no hardware MIDI input and
// need an explicit injection point.
func (h *Host) PostMidi(handle int, ev audiograph.MidiEvent) error {
	p, err := h.get(handle)
	if err != nil {
		return err
	}
	if poster, ok := p.midiIn.(interface {
		Post(audiograph.MidiEvent)
	}); ok {
		poster.Post(ev)
	}
	return nil
}
