// Package audiograph declares the external collaborator spec.md §6 calls
// the "audio-graph client": the thing a Player registers itself with to get
// a process callback invoked at the graph's period and a place to publish
// output samples and receive MIDI. The core player logic in pkg/player
// depends only on these interfaces; concrete backends live in
// internal/portaudiograph (default) and internal/jackgraph (build tag
// "jack", grounded on the pack's JACK bindings).
package audiograph

// MidiEvent is a single timestamped MIDI message observed within one
// process period. Timestamp is a frame offset within the period, used to
// keep events processed in order; the player core does not interpret it
// beyond ordering.
type MidiEvent struct {
	Timestamp uint32
	Data      []byte
}

// ProcessCallback is invoked once per process period. framesCount is the
// number of output-rate frames to produce; outA/outB are the per-period
// output buffers for bus A and B (pre-sized to framesCount, owned by the
// caller — the callback must not retain them past return); midiIn is the
// MIDI events queued for this period, already in timestamp order.
//
// Implementations of this type run at realtime priority: no allocation, no
// blocking, no locks, matching spec.md §4.4/§5.
type ProcessCallback func(framesCount int, outA, outB []float32, midiIn []MidiEvent)

// SampleRateCallback is invoked whenever the graph's sample rate changes.
type SampleRateCallback func(sampleRate int)

// OutputStream is a registered audio output port/bus.
type OutputStream interface {
	Name() string
}

// MidiInputStream is a registered MIDI input port.
type MidiInputStream interface {
	Name() string
}

// Client is one player's registration with the audio graph: two output
// streams (bus A, bus B) and one MIDI input stream, a process callback and
// an optional sample-rate callback, matching spec.md §6 exactly.
type Client interface {
	// RegisterOutputStream creates one named output port. Call twice, once
	// for bus A and once for bus B.
	RegisterOutputStream(name string) (OutputStream, error)

	// RegisterMidiInputStream creates one named MIDI input port.
	RegisterMidiInputStream(name string) (MidiInputStream, error)

	// SetProcessCallback installs the realtime callback invoked per period.
	SetProcessCallback(fn ProcessCallback)

	// SetSampleRateCallback installs the sample-rate-change callback.
	SetSampleRateCallback(fn SampleRateCallback)

	// Activate starts the client processing. Must be called after the
	// streams and callbacks above are registered.
	Activate() error

	// Close deactivates and releases this client's streams. Idempotent.
	Close() error

	// SampleRate returns the graph's current sample rate.
	SampleRate() int
}

// Factory constructs a new, not-yet-activated Client named clientName. Each
// Player owns exactly one Client for its lifetime (spec.md §4.3 create()).
type Factory interface {
	RegisterClient(clientName string) (Client, error)
}
