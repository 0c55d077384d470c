package player

import (
	"context"
	"fmt"

	"github.com/aldertree/strataplay/pkg/types"
)

// load implements spec.md §4.3's load(): unload any previous file, install
// the notifier before spawning the decoder (resolving the open question in
// spec.md §9 about notifier-before-spawn), then wait for the decoder's
// one-shot opening signal instead of polling file_state in a loop.
func (p *Player) load(ctx context.Context, fileName string, notifier types.Notifier, notifyCtx any) error {
	p.unload()

	p.notifier = notifier
	p.notifyCtx = notifyCtx
	p.lastNotify = notifyCache{}
	p.fileName = fileName
	p.fileState.Store(int32(types.FileOpening))
	p.openedCh = make(chan struct{})
	p.decoderDone = make(chan struct{})

	go p.runDecoder()

	select {
	case <-p.openedCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	if p.FileState() != types.FileOpen {
		return fmt.Errorf("%w: %s", types.ErrOpenFailed, fileName)
	}
	return nil
}

// unload implements spec.md §4.3's unload(): stop playback, flip
// file_state to CLOSED (the decoder's cancellation signal, per §5), and
// join the decoder thread.
func (p *Player) unload() error {
	p.stop()
	if p.FileState() == types.FileClosed {
		return nil
	}
	p.fileState.Store(int32(types.FileClosed))
	if p.decoderDone != nil {
		<-p.decoderDone
	}
	p.notifier = nil
	return nil
}

// start implements spec.md §4.3's start(): only valid when OPEN and not
// already PLAYING.
func (p *Player) start() error {
	if p.FileState() != types.FileOpen {
		return types.ErrBadState
	}
	if p.PlayState() == types.PlayPlaying || p.PlayState() == types.PlayStarting {
		return nil
	}
	p.playState.Store(int32(types.PlayStarting))
	return nil
}

// stop implements spec.md §4.3's stop(): any non-STOPPED state
// transitions to STOPPING; the audio callback completes the soft-mute and
// lands on STOPPED.
func (p *Player) stop() error {
	if p.PlayState() != types.PlayStopped {
		p.playState.Store(int32(types.PlayStopping))
	}
	return nil
}

// setPosition implements spec.md §4.3's set_position(): clamp to
// duration, convert to output-rate frames, and re-arm the SEEKING
// handshake. The decoder performs the actual ring reset on observing
// read_state == SEEKING (spec.md §4.2 step 1); resetting here too is
// harmless idempotent duplication of the same zero-stores.
func (p *Player) setPosition(seconds float64) error {
	if p.FileState() != types.FileOpen {
		return types.ErrBadState
	}
	if seconds < 0 {
		seconds = 0
	}
	frames := int64(p.SrcRatio() * seconds * float64(p.fileSampleRate))
	total := p.framesTotal.Load()
	if total > 0 && frames >= total {
		frames = total - 1
	}
	if frames < 0 {
		frames = 0
	}
	p.playPos.Store(frames)
	if p.ringA != nil {
		p.ringA.Reset()
	}
	if p.ringB != nil {
		p.ringB.Reset()
	}
	p.readState.Store(int32(types.ReadSeeking))
	return nil
}

// SetGain implements spec.md §3.1/§4.3's gain setter, clamped to [0, 2].
func (p *Player) SetGain(gain float64) error {
	p.setGain(clampGain(gain))
	return nil
}

// setLoop implements spec.md §4.3's set_loop().
func (p *Player) setLoop(loop bool) error {
	p.loop.Store(loop)
	return nil
}

// setTrackA/B implement spec.md §4.3/§4.5's track-selection setters.
// Changing routing re-arms the SEEKING handshake so freshly enqueued
// samples reflect the new demux rule (ported from player.c's
// set_track_a/set_track_b).
func (p *Player) setTrackA(track int) error {
	p.trackA.Store(int32(track))
	return p.reseekInPlace()
}

func (p *Player) setTrackB(track int) error {
	p.trackB.Store(int32(track))
	return p.reseekInPlace()
}

func (p *Player) reseekInPlace() error {
	if p.FileState() != types.FileOpen {
		return nil
	}
	if p.ringA != nil {
		p.ringA.Reset()
	}
	if p.ringB != nil {
		p.ringB.Reset()
	}
	p.readState.Store(int32(types.ReadSeeking))
	return nil
}

// setSrcQuality implements spec.md §4.3's set_src_quality(). Recorded for
// Player.src_quality bookkeeping only: every SrcQuality level currently
// maps to the same soxr.HighQ recipe (the only one github.com/zaf/resample
// confirms in the retrieval pack, per DESIGN.md), so there is no
// in-flight resampler state to reset here.
func (p *Player) setSrcQuality(q types.SrcQuality) error {
	p.srcQuality.Store(int32(q))
	return nil
}

// setBufferSize / setBufferCount implement spec.md §4.3's buffer sizing
// setters: mutable only while CLOSED (§3.1).
func (p *Player) setBufferSize(frames int) error {
	if p.FileState() != types.FileClosed {
		return types.ErrBadState
	}
	if frames <= 0 {
		return types.ErrBadArgument
	}
	p.mu.Lock()
	p.bufferSize = frames
	p.mu.Unlock()
	return nil
}

func (p *Player) setBufferCount(count int) error {
	if p.FileState() != types.FileClosed {
		return types.ErrBadState
	}
	if count < 2 {
		return types.ErrBadArgument
	}
	p.mu.Lock()
	p.bufferCount = count
	p.mu.Unlock()
	return nil
}

// setPitchShift exposes the semitone offset directly, in addition to the
// one-shot transpose MIDI note-on applies (spec.md §4.6); useful for a
// sequencer layer driving playback pitch without synthesizing MIDI.
func (p *Player) setPitchShift(semitones int32) error {
	p.pitchShift.Store(semitones)
	return nil
}
