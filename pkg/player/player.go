// Package player implements the streaming audio-file player pipeline: a
// non-realtime decoder thread filling a lock-free ring buffer pair that a
// realtime audio callback drains, coordinated through the seek/loop/stop
// state machine spec.md §3.1/§4 describes. Grounded on the teacher's
// internal/fileplayer (SPSC ring + realtime callback discipline) and on
// the original C engine (zynaudioplayer/player.c) for the exact state
// transitions and thresholds.
package player

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/aldertree/strataplay/pkg/audiograph"
	"github.com/aldertree/strataplay/pkg/decoders"
	"github.com/aldertree/strataplay/pkg/resampler"
	"github.com/aldertree/strataplay/pkg/ringbuffer"
	"github.com/aldertree/strataplay/pkg/types"
)

const (
	bytesPerSample = 4 // float32 samples on the ring buffers

	defaultBufferSize  = 4096
	defaultBufferCount = 4

	// noteNone marks "no note currently held" for lastNote/pitch state.
	noteNone = -1
)

// Player is one open (or openable) slot in a Host. All fields a
// realtime caller touches are atomics or plain scalars that are
// documented single-word per spec.md §5; nothing here locks from the
// audio callback.
type Player struct {
	handle int

	fileState atomic.Int32 // types.FileState
	readState atomic.Int32 // types.ReadState
	playState atomic.Int32 // types.PlayState

	loop       atomic.Bool
	gainBits   atomic.Uint64 // math.Float64bits(gain)
	trackA     atomic.Int32  // -1 = sum even channels
	trackB     atomic.Int32  // -1 = sum odd channels
	srcQuality atomic.Int32  // types.SrcQuality
	ccRouting  atomic.Int32  // 0/1, gates MIDI CC routing (spec.md §4.6)

	// buffer_size / buffer_count are mutable only while CLOSED (§3.1); the
	// control surface serializes its own calls, so a mutex here is
	// sufficient without needing realtime-safe atomics.
	mu          sync.Mutex
	bufferSize  int
	bufferCount int

	srcRatioBits atomic.Uint64 // math.Float64bits(src_ratio), output/file rate
	playPos      atomic.Int64  // play_pos_frames, output-rate frames
	framesTotal  atomic.Int64

	pitchShift atomic.Int32
	pitchBend  atomic.Int32 // 14-bit value, center 8192
	lastNote   atomic.Int32 // noteNone when not held

	ringA *ringbuffer.RingBuffer
	ringB *ringbuffer.RingBuffer

	notifier   types.Notifier
	notifyCtx  any
	lastNotify notifyCache

	client audiograph.Client
	outA   audiograph.OutputStream
	outB   audiograph.OutputStream
	midiIn audiograph.MidiInputStream

	// Realtime-callback scratch space. Owned exclusively by the audio
	// callback; grown lazily the first time a period asks for more frames
	// than the current capacity holds, then reused on every subsequent
	// call so steady-state operation never allocates (spec.md §5).
	scratchA []byte
	scratchB []byte

	outputSampleRate int

	// Decoder-thread-owned state: touched only by the goroutine started by
	// load() between spawn and the moment file_state flips to CLOSED.
	fileName       string
	decoder        types.AudioDecoder
	channels       int
	fileSampleRate int
	resampler      *resampler.Resampler
	unusedIn       []byte

	openedCh    chan struct{}
	decoderDone chan struct{}
}

type notifyCache struct {
	playState PlayState
	position  float64
	gain      float64
	loop      bool
	trackA    int32
	trackB    int32
	quality   types.SrcQuality
}

// PlayState is an alias kept for readability at call sites outside this
// package; it is exactly types.PlayState.
type PlayState = types.PlayState

func newPlayer(handle int, outputSampleRate int) *Player {
	p := &Player{
		handle:           handle,
		bufferSize:       defaultBufferSize,
		bufferCount:      defaultBufferCount,
		outputSampleRate: outputSampleRate,
	}
	p.fileState.Store(int32(types.FileClosed))
	p.readState.Store(int32(types.ReadIdle))
	p.playState.Store(int32(types.PlayStopped))
	p.trackA.Store(-1)
	p.trackB.Store(-1)
	p.lastNote.Store(noteNone)
	p.setGain(1.0)
	p.srcRatioBits.Store(math.Float64bits(1.0))
	return p
}

// Handle returns this player's stable slot id.
func (p *Player) Handle() int { return p.handle }

func (p *Player) FileState() types.FileState { return types.FileState(p.fileState.Load()) }
func (p *Player) ReadState() types.ReadState { return types.ReadState(p.readState.Load()) }
func (p *Player) PlayState() types.PlayState { return types.PlayState(p.playState.Load()) }

func (p *Player) Gain() float64 { return math.Float64frombits(p.gainBits.Load()) }
func (p *Player) setGain(g float64) {
	p.gainBits.Store(math.Float64bits(g))
}

func (p *Player) SrcRatio() float64 { return math.Float64frombits(p.srcRatioBits.Load()) }

func (p *Player) Loop() bool { return p.loop.Load() }

func (p *Player) TrackA() int { return int(p.trackA.Load()) }
func (p *Player) TrackB() int { return int(p.trackB.Load()) }

func (p *Player) SrcQuality() types.SrcQuality { return types.SrcQuality(p.srcQuality.Load()) }

func (p *Player) PlayPosFrames() int64 { return p.playPos.Load() }
func (p *Player) FramesTotal() int64   { return p.framesTotal.Load() }

func (p *Player) PitchShift() int32 { return p.pitchShift.Load() }
func (p *Player) PitchBend() int32  { return p.pitchBend.Load() }
func (p *Player) LastNote() int32   { return p.lastNote.Load() }

// BufferSize and BufferCount report the decoder chunk size / ring
// multiplier currently configured.
func (p *Player) BufferSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufferSize
}

func (p *Player) BufferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufferCount
}

// GetPosition returns the current playhead in seconds, per spec.md §4.3:
// play_pos_frames / output_samplerate / src_ratio_effective.
func (p *Player) GetPosition() float64 {
	ratio := p.effectiveSrcRatio()
	if ratio == 0 || p.outputSampleRate == 0 {
		return 0
	}
	return float64(p.playPos.Load()) / float64(p.outputSampleRate) / ratio
}

func (p *Player) effectiveSrcRatio() float64 {
	pitch := p.pitchShift.Load()
	return p.SrcRatio() * math.Pow(resampler.SemitoneRatio, float64(pitch))
}

// notify invokes the notifier for kind with value, if one is installed.
// The threshold checks live in maybeNotifyAll, its only caller. Only ever
// called from the decoder thread, never from the realtime callback.
func (p *Player) notify(kind types.NotifyKind, value float64) {
	if p.notifier == nil {
		return
	}
	p.notifier(p.notifyCtx, kind, value)
}

func (p *Player) maybeNotifyAll() {
	if p.notifier == nil {
		return
	}

	ps := p.PlayState()
	if ps != p.lastNotify.playState {
		p.lastNotify.playState = ps
		p.notify(types.NotifyTransport, float64(ps))
	}

	pos := p.GetPosition()
	if math.Abs(pos-p.lastNotify.position) >= 0.1 {
		p.lastNotify.position = pos
		p.notify(types.NotifyPosition, pos)
	}

	gain := p.Gain()
	if math.Abs(gain-p.lastNotify.gain) >= 0.01 {
		p.lastNotify.gain = gain
		p.notify(types.NotifyGain, gain)
	}

	loop := p.Loop()
	if loop != p.lastNotify.loop {
		p.lastNotify.loop = loop
		v := 0.0
		if loop {
			v = 1.0
		}
		p.notify(types.NotifyLoop, v)
	}

	trackA := p.trackA.Load()
	if trackA != p.lastNotify.trackA {
		p.lastNotify.trackA = trackA
		p.notify(types.NotifyTrackA, float64(trackA))
	}

	trackB := p.trackB.Load()
	if trackB != p.lastNotify.trackB {
		p.lastNotify.trackB = trackB
		p.notify(types.NotifyTrackB, float64(trackB))
	}

	quality := p.SrcQuality()
	if quality != p.lastNotify.quality {
		p.lastNotify.quality = quality
		p.notify(types.NotifyQuality, float64(quality))
	}
}

// ringCapacityBytes reports the size in bytes of each ring: room for the
// configured buffer_size * buffer_count float32 samples.
func (p *Player) ringCapacityBytes() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(p.bufferSize) * uint64(p.bufferCount) * bytesPerSample
}

// openDecoder opens fileName, probes its format, and returns a ready
// decoder plus its reported channel count and sample rate. Kept separate
// from the decoder-thread loop so load() failures are straightforward to
// test.
func openDecoder(fileName string) (types.AudioDecoder, int, int, error) {
	dec, err := decoders.NewDecoder(fileName)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", types.ErrOpenFailed, err)
	}
	rate, channels, _ := dec.GetFormat()
	if channels <= 0 {
		dec.Close()
		return nil, 0, 0, fmt.Errorf("%w: file reports zero channels", types.ErrOpenFailed)
	}
	return dec, channels, rate, nil
}

func clampGain(g float64) float64 {
	if g < 0 {
		return 0
	}
	if g > 2 {
		return 2
	}
	return g
}

// logDecoderEvent is a tiny indirection so decoder/notifier code logs consistently;
// kept free of realtime callers per spec.md §5.
func logDecoderEvent(handle int, msg string, args ...any) {
	slog.Debug(msg, append([]any{"handle", handle}, args...)...)
}
