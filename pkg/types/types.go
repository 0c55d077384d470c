package types

import (
	"errors"
	"time"
)

// AudioDecoder is the common interface for all audio decoders (MP3, FLAC, WAV,
// Ogg Vorbis, Opus).
// All decoders must implement these methods to provide a consistent API
// for decoding audio files into raw PCM samples.
type AudioDecoder interface {
	// Open opens an audio file for decoding
	Open(fileName string) error

	// Close closes the decoder and releases resources
	Close() error

	// GetFormat returns the audio format information
	// Returns: sample rate (Hz), channels (1=mono, 2=stereo), bits per sample (8/16/24/32)
	GetFormat() (rate, channels, bitsPerSample int)

	// DecodeSamples decodes audio samples into the provided buffer
	// Parameters:
	//   samples: number of samples to decode (not bytes!)
	//   audio: buffer to write decoded audio data
	// Returns: number of samples actually decoded, error if decoding failed
	// Note: Buffer must be large enough: samples * channels * (bitsPerSample/8) bytes
	DecodeSamples(samples int, audio []byte) (int, error)

	// TotalFrames returns the decoder's best estimate of total decodable
	// frames, or -1 if the format offers no way to know in advance.
	TotalFrames() int64

	// Seek repositions decoding to start at the given frame index. Formats
	// without native seek support may implement this by reopening the file
	// and discarding frames up to frameIndex; callers only invoke Seek from
	// non-realtime code, so that cost is acceptable.
	Seek(frameIndex int64) error
}

// PlaybackStatus holds unified playback information for audio players.
// This struct provides real-time metrics for monitoring audio playback.
type PlaybackStatus struct {
	FileName        string        // Name of the currently playing file
	SampleRate      int           // Audio sample rate in Hz (e.g., 44100, 48000)
	Channels        int           // Number of audio channels (1=mono, 2=stereo)
	BitsPerSample   int           // Bit depth (8, 16, 24, or 32)
	FramesPerBuffer int           // PortAudio frames per buffer (if applicable)
	PlayedSamples   uint64        // Samples actually sent to audio output (played)
	BufferedSamples uint64        // Samples decoded but not yet played (in-flight)
	ElapsedTime     time.Duration // Wall-clock time since playback started
}

// PlaybackMonitor is an interface for types that can report playback status.
// Implementing this interface allows consistent status monitoring across
// different player implementations.
type PlaybackMonitor interface {
	GetPlaybackStatus() PlaybackStatus
}

// Common ringbuffer errors used by both byte-based and frame-based ringbuffers.
// These errors enable consistent error handling and comparison using errors.Is().
var (
	// ErrInsufficientSpace indicates the ringbuffer doesn't have enough space for the write operation
	ErrInsufficientSpace = errors.New("insufficient space in ringbuffer")

	// ErrInsufficientData indicates the ringbuffer doesn't have enough data for the read operation
	ErrInsufficientData = errors.New("insufficient data in ringbuffer")
)

// Control-surface error kinds used by the player package (pkg/pattern
// declares its own sentinels).
// These name the error *kind*, not a type per handle/argument - callers
// compare with errors.Is.
var (
	// ErrBadHandle is returned for any operation on an unknown/freed slot.
	ErrBadHandle = errors.New("unknown player handle")

	// ErrBadState is returned when an operation requires the player to be
	// open (or closed) and it is not.
	ErrBadState = errors.New("player not in required state")

	// ErrBadArgument is returned when a caller-supplied value is out of its
	// documented range; the call is rejected with no mutation.
	ErrBadArgument = errors.New("argument out of range")

	// ErrNoFreeSlot is returned by a registry create() when it is already
	// at capacity.
	ErrNoFreeSlot = errors.New("no free player slot")

	// ErrOpenFailed is returned when a file cannot be opened or reports no
	// channels.
	ErrOpenFailed = errors.New("failed to open audio file")
)

// FileState is the lifecycle state of a player's backing file, owned
// jointly by the control surface (CLOSED -> OPENING) and the decoder
// thread (OPENING -> OPEN, OPEN -> CLOSED cleanup).
type FileState int32

const (
	FileClosed FileState = iota
	FileOpening
	FileOpen
)

func (s FileState) String() string {
	switch s {
	case FileClosed:
		return "CLOSED"
	case FileOpening:
		return "OPENING"
	case FileOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// ReadState is the decoder-side read/seek state.
type ReadState int32

const (
	ReadIdle ReadState = iota
	ReadSeeking
	ReadLoading
	ReadLooping
)

func (s ReadState) String() string {
	switch s {
	case ReadIdle:
		return "IDLE"
	case ReadSeeking:
		return "SEEKING"
	case ReadLoading:
		return "LOADING"
	case ReadLooping:
		return "LOOPING"
	default:
		return "UNKNOWN"
	}
}

// PlayState is the transport state driven by the control surface and the
// realtime audio callback.
type PlayState int32

const (
	PlayStopped PlayState = iota
	PlayStarting
	PlayPlaying
	PlayStopping
)

func (s PlayState) String() string {
	switch s {
	case PlayStopped:
		return "STOPPED"
	case PlayStarting:
		return "STARTING"
	case PlayPlaying:
		return "PLAYING"
	case PlayStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// SrcQuality selects a resampler quality/speed tradeoff, mirroring the
// quality enum a libsamplerate-style resampler exposes.
type SrcQuality int

const (
	SrcQualityBest SrcQuality = iota
	SrcQualityMedium
	SrcQualityFastest
	SrcQualityZeroOrderHold
	SrcQualityLinear
)

// NotifyKind enumerates the observable parameters the notifier callback
// reports a crossed-threshold change for.
type NotifyKind int

const (
	NotifyAll NotifyKind = iota
	NotifyTransport
	NotifyPosition
	NotifyGain
	NotifyLoop
	NotifyTrackA
	NotifyTrackB
	NotifyQuality
	NotifyDebug
)

// Notifier is invoked from the decoder thread (never from the realtime
// audio callback) whenever an observable player parameter crosses a
// change threshold. ctx is an opaque value supplied by the caller of
// Load, round-tripped unchanged.
type Notifier func(ctx any, kind NotifyKind, value float64)
