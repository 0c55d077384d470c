// Package ogg wraps jfreymuth/oggvorbis to decode Ogg Vorbis files into the
// same interleaved-PCM shape the other pkg/decoders packages produce.
package ogg

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// Decoder wraps an oggvorbis.Reader. Implements types.AudioDecoder.
type Decoder struct {
	file     *os.File
	reader   *oggvorbis.Reader
	rate     int
	channels int
	fileName string
	scratch  []float32
}

// NewDecoder creates a new Ogg Vorbis decoder. Output is always 16-bit PCM,
// matching the other decoders in this package regardless of the source's
// internal float representation.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open ogg file: %w", err)
	}

	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to read ogg vorbis stream: %w", err)
	}

	d.file = file
	d.reader = reader
	d.rate = reader.SampleRate()
	d.channels = reader.Channels()
	d.fileName = fileName
	return nil
}

func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		d.reader = nil
		return err
	}
	return nil
}

func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, 16
}

// DecodeSamples decodes up to 'samples' interleaved frames as 16-bit
// little-endian PCM, converting from oggvorbis' native float32 samples.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	need := samples * d.channels
	if cap(d.scratch) < need {
		d.scratch = make([]float32, need)
	}
	buf := d.scratch[:need]

	n, err := d.reader.Read(buf)
	if n == 0 {
		return 0, err
	}

	frames := n / d.channels
	for i := 0; i < frames*d.channels; i++ {
		v := buf[i]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		sample := int16(v * 32767)
		offset := i * 2
		if offset+2 > len(audio) {
			break
		}
		audio[offset] = byte(sample & 0xFF)
		audio[offset+1] = byte((sample >> 8) & 0xFF)
	}

	if err != nil && frames > 0 {
		// A partial final read still returns the samples it decoded; the
		// error (typically io.EOF) is surfaced on the next call instead.
		return frames, nil
	}
	return frames, err
}

// TotalFrames reports unknown: oggvorbis.Reader doesn't expose a sample
// count without a full scan of the stream.
func (d *Decoder) TotalFrames() int64 {
	return -1
}

// Seek reopens the stream and discards frames up to frameIndex, since
// Vorbis has no byte-accurate frame offset without its own seek tables.
func (d *Decoder) Seek(frameIndex int64) error {
	if frameIndex < 0 {
		frameIndex = 0
	}
	fileName := d.fileName
	if err := d.Close(); err != nil {
		return fmt.Errorf("seek: closing previous handle: %w", err)
	}
	if err := d.Open(fileName); err != nil {
		return fmt.Errorf("seek: reopening: %w", err)
	}

	const scratchFrames = 4096
	scratch := make([]byte, scratchFrames*d.channels*2)
	remaining := frameIndex
	for remaining > 0 {
		want := remaining
		if want > scratchFrames {
			want = scratchFrames
		}
		n, err := d.DecodeSamples(int(want), scratch)
		if n == 0 || err != nil {
			break
		}
		remaining -= int64(n)
	}
	return nil
}
