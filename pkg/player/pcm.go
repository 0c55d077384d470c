package player

import (
	"encoding/binary"
	"math"
)

// rawToInt16LE converts frames*channels raw PCM samples at the decoder's
// native bit depth into interleaved little-endian int16 samples, the
// fixed format github.com/zaf/resample's soxr binding is wired for
// (pkg/resampler.New pins soxr.I16). Depths above 16 bits are scaled down
// rather than dithered: this is a streaming playback engine, not a
// mastering tool, and spec.md's resampler contract only asks for a block
// in, block out shape.
func rawToInt16LE(raw []byte, frames, channels, bps int) []byte {
	bytesPerSample := bps / 8
	if bytesPerSample <= 0 {
		return nil
	}
	n := frames * channels
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		off := i * bytesPerSample
		if off+bytesPerSample > len(raw) {
			break
		}
		var v int32
		switch bps {
		case 8:
			v = (int32(raw[off]) - 128) << 8
		case 16:
			v = int32(int16(binary.LittleEndian.Uint16(raw[off : off+2])))
		case 24:
			u := int32(raw[off]) | int32(raw[off+1])<<8 | int32(raw[off+2])<<16
			if u&0x800000 != 0 {
				u |= ^0xFFFFFF
			}
			v = u >> 8
		case 32:
			v = int32(binary.LittleEndian.Uint32(raw[off:off+4])) >> 16
		default:
			continue
		}
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(v)))
	}
	return out
}

// int16LEToFloat32 converts interleaved little-endian int16 PCM into
// interleaved float32 samples in [-1, 1).
func int16LEToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// float32ToBytesLE packs one float32 sample slice into little-endian
// bytes for writing onto a ring buffer.
func float32ToBytesLE(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		putFloat32LE(out[i*bytesPerSample:], s)
	}
	return out
}

func putFloat32LE(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
