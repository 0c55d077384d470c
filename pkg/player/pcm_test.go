package player

import (
	"encoding/binary"
	"testing"
)

func TestRawToInt16LEPassesThrough16Bit(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw[0:2], uint16(int16(1234)))
	binary.LittleEndian.PutUint16(raw[2:4], uint16(int16(-5678)))

	out := rawToInt16LE(raw, 2, 1, 16)
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	if v := int16(binary.LittleEndian.Uint16(out[0:2])); v != 1234 {
		t.Errorf("sample 0 = %d, want 1234", v)
	}
	if v := int16(binary.LittleEndian.Uint16(out[2:4])); v != -5678 {
		t.Errorf("sample 1 = %d, want -5678", v)
	}
}

func TestRawToInt16LEScales8Bit(t *testing.T) {
	// 8-bit PCM is unsigned, centered on 128.
	raw := []byte{128, 255, 0}
	out := rawToInt16LE(raw, 3, 1, 8)
	want := []int16{0, 127 << 8, -128 << 8}
	for i, w := range want {
		if v := int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2])); v != w {
			t.Errorf("sample %d = %d, want %d", i, v, w)
		}
	}
}

func TestInt16LEToFloat32RoundTrip(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw[0:2], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(raw[2:4], uint16(int16(-16384)))

	out := int16LEToFloat32(raw)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0] != 0.5 {
		t.Errorf("out[0] = %v, want 0.5", out[0])
	}
	if out[1] != -0.5 {
		t.Errorf("out[1] = %v, want -0.5", out[1])
	}
}

func TestFloat32ToBytesLERoundTrip(t *testing.T) {
	samples := []float32{0.25, -0.75, 1.0}
	raw := float32ToBytesLE(samples)
	if len(raw) != len(samples)*4 {
		t.Fatalf("len(raw) = %d, want %d", len(raw), len(samples)*4)
	}
	back := make([]float32, len(samples))
	bytesToFloat32Into(raw, back)
	for i, s := range samples {
		if back[i] != s {
			t.Errorf("sample %d round-tripped to %v, want %v", i, back[i], s)
		}
	}
}
