// Package resampler adapts github.com/zaf/resample (a libsoxr binding,
// already used by the teacher's cmd/transform.go for offline sample-rate
// conversion) into the block-oriented process(ratio, in, out) shape
// spec.md §6 describes for the decoder thread's resampler collaborator.
//
// zaf/resample exposes a push (io.Writer) model rather than a
// process-and-report-counts model, so Resampler buffers soxr's output
// internally and Process drains whatever became available from the bytes
// just written - the two models are equivalent for a decoder thread that
// only ever moves forward through its input.
package resampler

import (
	"bytes"
	"fmt"

	soxr "github.com/zaf/resample"

	"github.com/aldertree/strataplay/pkg/types"
)

// Resampler wraps one soxr conversion stream for one decoder thread.
// Not safe for concurrent use; the decoder thread that owns it is the only
// caller, matching spec.md §4.2's "the thread owns ... resampler state".
type Resampler struct {
	channels  int
	fromRate  float64
	toRate    float64
	ratio     float64
	quality   types.SrcQuality
	out       bytes.Buffer
	stream    *soxr.Resampler
	bytesOut  int64
	bytesIn   int64
}

// New creates a resampler converting fromRate -> toRate for the given
// channel count. quality is recorded for Player.src_quality bookkeeping;
// github.com/zaf/resample only grounds one concrete quality recipe
// (soxr.HighQ) in the retrieval pack, so every SrcQuality level maps to it
// here rather than guessing at unconfirmed constant names.
func New(fromRate, toRate float64, channels int, quality types.SrcQuality) (*Resampler, error) {
	r := &Resampler{channels: channels, fromRate: fromRate, toRate: toRate, ratio: toRate / fromRate, quality: quality}
	stream, err := soxr.New(&r.out, fromRate, toRate, channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("resampler: new: %w", err)
	}
	r.stream = stream
	return r, nil
}

// Process feeds one block of interleaved 16-bit PCM input and returns
// whatever resampled output soxr has produced so far. end_of_input from
// spec.md §6 corresponds to calling Close once the decoder has no more
// input for this stream (e.g. on SEEKING/LOOPING/unload), which flushes
// soxr's internal history.
func (r *Resampler) Process(in []byte) (out []byte, err error) {
	if len(in) > 0 {
		n, werr := r.stream.Write(in)
		r.bytesIn += int64(n)
		if werr != nil {
			return nil, fmt.Errorf("resampler: process: %w", werr)
		}
	}
	produced := r.out.Bytes()
	r.bytesOut += int64(len(produced))
	out = make([]byte, len(produced))
	copy(out, produced)
	r.out.Reset()
	return out, nil
}

// Reset discards buffered state and opens a fresh soxr stream at the same
// ratio. The decoder thread calls Retarget instead on SEEKING/LOOPING, so
// that the fresh stream also picks up the current pitch shift.
func (r *Resampler) Reset() error {
	return r.rebuild(r.ratio)
}

// Retarget discards buffered state and opens a fresh soxr stream
// converting at the given output/input ratio instead of the ratio it was
// built with, driving the actual soxr conversion from an updated
// src_ratio (e.g. after a pitch_shift change). fromRate never moves - the
// file's sample rate is fixed for the life of the decoder - only the
// ratio (and the toRate it implies) is recomputed, per the formula
// recovered from player.c: effective_ratio = src_ratio *
// pow(SemitoneRatio, pitch_shift).
func (r *Resampler) Retarget(ratio float64) error {
	return r.rebuild(ratio)
}

func (r *Resampler) rebuild(ratio float64) error {
	toRate := r.fromRate * ratio
	if r.stream != nil {
		r.stream.Close()
	}
	r.out.Reset()
	stream, err := soxr.New(&r.out, r.fromRate, toRate, r.channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return fmt.Errorf("resampler: rebuild: %w", err)
	}
	r.stream = stream
	r.toRate = toRate
	r.ratio = ratio
	r.bytesIn = 0
	r.bytesOut = 0
	return nil
}

// Close flushes and releases the underlying soxr stream.
func (r *Resampler) Close() error {
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	return err
}

// Ratio returns the stream's current output/input conversion ratio - the
// plain src_ratio after New, or the effective (pitch-shift-folded-in)
// ratio after a Retarget call. Tracked as its own field rather than
// recomputed from toRate/fromRate so repeated calls with an unchanged
// ratio compare equal bit-for-bit, instead of drifting by a rounding ULP
// and triggering a spurious rebuild every block.
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// SemitoneRatio is the equal-tempered semitone frequency ratio
// (2^(1/12)), recovered from player.c's pitch-shift-to-resample-ratio
// formula (spec.md SUPPLEMENTED FEATURES):
// effective_ratio = src_ratio * pow(SemitoneRatio, pitch_shift).
const SemitoneRatio = 1.059463094359
