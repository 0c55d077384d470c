// Package opus wraps github.com/drgolem/go-opus, following the same
// decoder-construction pattern as this module's FLAC wrapper (both are
// published by drgolem and share the same NewXxxDecoder / Open / GetFormat
// / DecodeSamples / Close / Delete shape).
package opus

import (
	"fmt"

	goopus "github.com/drgolem/go-opus/opus"
)

// Decoder wraps goopus.OpusDecoder. Implements types.AudioDecoder.
type Decoder struct {
	decoder  *goopus.OpusDecoder
	rate     int
	channels int
	bps      int
	fileName string
}

// NewDecoder creates a new Opus decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	decoder, err := goopus.NewOpusDecoder(16)
	if err != nil {
		return fmt.Errorf("failed to create opus decoder: %w", err)
	}

	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	rate, channels, bps := decoder.GetFormat()

	d.decoder = decoder
	d.rate = rate
	d.channels = channels
	d.bps = bps
	d.fileName = fileName
	return nil
}

func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, d.bps
}

func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	return d.decoder.DecodeSamples(samples, audio)
}

// TotalFrames reports unknown: Opus streams carry no reliable up-front
// sample count through this binding.
func (d *Decoder) TotalFrames() int64 {
	return -1
}

// Seek reopens the stream and discards frames up to frameIndex.
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
	bytesPerFrame := d.channels * d.bps / 8
	if bytesPerFrame == 0 {
		return nil
	}
	scratch := make([]byte, scratchFrames*bytesPerFrame)
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
