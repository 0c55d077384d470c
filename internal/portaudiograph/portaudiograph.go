// Package portaudiograph is the default audiograph.Client backend, adapted
// from this module's original single-file PortAudio callback player
// (internal/fileplayer in the teacher tree): one portaudio.PaStream per
// client, running the realtime process callback on PortAudio's own C
// thread rather than a goroutine.
//
// PortAudio has no notion of named ports the way JACK does, so bus A/B here
// are simply channel 0/1 of one interleaved stereo stream, and the MIDI
// input stream has no hardware backing - callers feed it via Post. The
// jack build tag (internal/jackgraph) gets real ports and real MIDI input
// instead.
package portaudiograph

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/aldertree/strataplay/pkg/audiograph"
)

// Factory creates PortAudio-backed clients against one fixed output device.
type Factory struct {
	DeviceIndex     int
	FramesPerBuffer int
	SampleRate      int
}

// NewFactory builds a Factory for the given device and buffering parameters.
func NewFactory(deviceIndex, framesPerBuffer, sampleRate int) *Factory {
	return &Factory{
		DeviceIndex:     deviceIndex,
		FramesPerBuffer: framesPerBuffer,
		SampleRate:      sampleRate,
	}
}

func (f *Factory) RegisterClient(name string) (audiograph.Client, error) {
	return &client{
		name:            name,
		deviceIndex:     f.DeviceIndex,
		framesPerBuffer: f.FramesPerBuffer,
		sampleRate:      f.SampleRate,
	}, nil
}

type outputStream struct{ name string }

func (s *outputStream) Name() string { return s.name }

// midiInputStream is fed out-of-band via Post; the process callback drains
// it each period. Post takes a lock, so it must only be called from
// non-realtime code (the control surface's MIDI ingestion path), never
// from inside a ProcessCallback.
type midiInputStream struct {
	name string
	mu   sync.Mutex
	held []audiograph.MidiEvent
}

func (s *midiInputStream) Name() string { return s.name }

func (s *midiInputStream) Post(ev audiograph.MidiEvent) {
	s.mu.Lock()
	s.held = append(s.held, ev)
	s.mu.Unlock()
}

func (s *midiInputStream) drain(scratch []audiograph.MidiEvent) []audiograph.MidiEvent {
	s.mu.Lock()
	scratch = append(scratch[:0], s.held...)
	s.held = s.held[:0]
	s.mu.Unlock()
	return scratch
}

type client struct {
	name            string
	deviceIndex     int
	framesPerBuffer int
	sampleRate      int

	outA, outB *outputStream
	midiIn     *midiInputStream

	processCB    audiograph.ProcessCallback
	sampleRateCB audiograph.SampleRateCallback

	stream *portaudio.PaStream

	scratchA, scratchB []float32
	scratchMidi        []audiograph.MidiEvent

	mu     sync.Mutex
	active bool
}

func (c *client) RegisterOutputStream(name string) (audiograph.OutputStream, error) {
	s := &outputStream{name: name}
	if c.outA == nil {
		c.outA = s
	} else if c.outB == nil {
		c.outB = s
	} else {
		return nil, fmt.Errorf("portaudiograph: client %q already has two output streams", c.name)
	}
	return s, nil
}

func (c *client) RegisterMidiInputStream(name string) (audiograph.MidiInputStream, error) {
	if c.midiIn != nil {
		return nil, fmt.Errorf("portaudiograph: client %q already has a MIDI input stream", c.name)
	}
	c.midiIn = &midiInputStream{name: name}
	return c.midiIn, nil
}

// Post feeds a MIDI event to this client's registered input stream; it is
// the escape hatch an external MIDI source (out of scope for this module,
// per spec.md §1/§6) uses to reach the player.
func (c *client) Post(ev audiograph.MidiEvent) {
	if c.midiIn != nil {
		c.midiIn.Post(ev)
	}
}

func (c *client) SetProcessCallback(fn audiograph.ProcessCallback) { c.processCB = fn }
func (c *client) SetSampleRateCallback(fn audiograph.SampleRateCallback) {
	c.sampleRateCB = fn
}

func (c *client) SampleRate() int { return c.sampleRate }

func (c *client) Activate() error {
	if c.outA == nil || c.outB == nil {
		return fmt.Errorf("portaudiograph: client %q must register both output streams before Activate", c.name)
	}
	if c.processCB == nil {
		return fmt.Errorf("portaudiograph: client %q has no process callback", c.name)
	}

	c.scratchA = make([]float32, c.framesPerBuffer)
	c.scratchB = make([]float32, c.framesPerBuffer)
	c.scratchMidi = make([]audiograph.MidiEvent, 0, 16)

	c.stream = &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  c.deviceIndex,
			ChannelCount: 2,
			SampleFormat: portaudio.SampleFmtFloat32,
		},
		SampleRate: float64(c.sampleRate),
	}

	if err := c.stream.OpenCallback(c.framesPerBuffer, c.audioCallback); err != nil {
		return fmt.Errorf("portaudiograph: open stream for client %q: %w", c.name, err)
	}
	if err := c.stream.StartStream(); err != nil {
		return fmt.Errorf("portaudiograph: start stream for client %q: %w", c.name, err)
	}

	if c.sampleRateCB != nil {
		c.sampleRateCB(c.sampleRate)
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = false
	c.mu.Unlock()

	if c.stream == nil {
		return nil
	}
	if err := c.stream.StopStream(); err != nil {
		slog.Warn("portaudiograph: stop stream failed", "client", c.name, "error", err)
	}
	if err := c.stream.CloseCallback(); err != nil {
		slog.Warn("portaudiograph: close stream failed", "client", c.name, "error", err)
	}
	c.stream = nil
	return nil
}

// audioCallback runs on PortAudio's own C thread, never on a goroutine the
// Go scheduler moves. The per-period scratch buffers above are
// preallocated in Activate. MIDI draining is not lock-free: it takes the
// input stream's mutex, which Post also takes, and copies the held events
// into the scratch slice, which grows when more events arrive in one
// period than its preallocated capacity holds.
func (c *client) audioCallback(
	_, output []byte,
	frameCount uint,
	_ *portaudio.StreamCallbackTimeInfo,
	_ portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	n := int(frameCount)
	if n > len(c.scratchA) {
		n = len(c.scratchA)
	}

	var midi []audiograph.MidiEvent
	if c.midiIn != nil {
		midi = c.midiIn.drain(c.scratchMidi)
	}

	c.processCB(n, c.scratchA[:n], c.scratchB[:n], midi)

	for i := 0; i < n; i++ {
		base := i * 8 // 2 channels * 4 bytes/float32
		putFloat32LE(output[base:base+4], c.scratchA[i])
		putFloat32LE(output[base+4:base+8], c.scratchB[i])
	}

	needed := int(frameCount) * 8
	if n*8 < needed {
		clear(output[n*8 : needed])
	}

	return portaudio.Continue
}

func putFloat32LE(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
