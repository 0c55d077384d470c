package player

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aldertree/strataplay/pkg/types"
)

// writeMonoWAV writes a minimal canonical-header 16-bit PCM mono WAV file
// with frames samples, all equal to value, usable by pkg/decoders/wav
// without any third-party dependency on the test side.
func writeMonoWAV(t *testing.T, path string, sampleRate, frames int, value int16) {
	t.Helper()
	const channels = 1
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := frames * blockAlign

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, 'R', 'I', 'F', 'F')
	buf = appendUint32(buf, uint32(36+dataSize))
	buf = append(buf, 'W', 'A', 'V', 'E')
	buf = append(buf, 'f', 'm', 't', ' ')
	buf = appendUint32(buf, 16)
	buf = appendUint16(buf, 1) // PCM
	buf = appendUint16(buf, channels)
	buf = appendUint32(buf, uint32(sampleRate))
	buf = appendUint32(buf, uint32(byteRate))
	buf = appendUint16(buf, uint16(blockAlign))
	buf = appendUint16(buf, bitsPerSample)
	buf = append(buf, 'd', 'a', 't', 'a')
	buf = appendUint32(buf, uint32(dataSize))

	sample := make([]byte, 2)
	binary.LittleEndian.PutUint16(sample, uint16(value))
	for i := 0; i < frames; i++ {
		buf = append(buf, sample...)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
}

func appendUint32(b []byte, v uint32) []byte {
	tmp := make([]byte, 4)
	binary.LittleEndian.PutUint32(tmp, v)
	return append(b, tmp...)
}

func appendUint16(b []byte, v uint16) []byte {
	tmp := make([]byte, 2)
	binary.LittleEndian.PutUint16(tmp, v)
	return append(b, tmp...)
}

// Scenario 1 (spec.md §8), simplified to same-rate passthrough: a player
// loaded with a same-rate mono file produces gain-scaled, demuxed samples
// once started, and stop() soft-mutes within one process period.
func TestPlayerLoadStartProducesAudio(t *testing.T) {
	const sampleRate = 8000
	const frames = 4096 // == default buffer_size, so the first block is a full read
	const value int16 = 16000

	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeMonoWAV(t, path, sampleRate, frames, value)

	factory := &fakeFactory{sampleRate: sampleRate}
	host := NewHost(factory, 4)

	handle, err := host.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := host.Load(context.Background(), handle, path, nil, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, err := host.Player(handle)
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.FileState() != types.FileOpen {
		t.Fatalf("FileState = %v, want OPEN", p.FileState())
	}

	// Wait for the decoder goroutine to fill the ring with its first block.
	deadline := time.Now().Add(2 * time.Second)
	for p.ringA.AvailableRead() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for decoder to produce samples")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := host.Start(handle); err != nil {
		t.Fatalf("Start: %v", err)
	}

	client := factory.clients[0]
	const n = 256
	outA := make([]float32, n)
	outB := make([]float32, n)

	client.processCB(n, outA, outB, nil)

	if p.PlayState() != types.PlayPlaying {
		t.Fatalf("PlayState = %v, want PLAYING", p.PlayState())
	}

	want := float32(value) / 32768.0 / 2.0 // mono demux halves, gain defaults to 1
	for i, got := range outA {
		if diff := got - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("outA[%d] = %v, want ~%v", i, got, want)
		}
	}
	for i := range outA {
		if outA[i] != outB[i] {
			t.Fatalf("mono demux should produce identical A/B buses, A[%d]=%v B[%d]=%v", i, outA[i], i, outB[i])
		}
	}

	if got := p.PlayPosFrames(); got != n {
		t.Fatalf("PlayPosFrames = %d, want %d", got, n)
	}

	if err := host.Stop(handle); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	client.processCB(n, outA, outB, nil)

	if p.PlayState() != types.PlayStopped {
		t.Fatalf("PlayState after stop's process period = %v, want STOPPED", p.PlayState())
	}
	if outA[0] == 0 {
		t.Errorf("first sample of the soft-mute ramp should not already be zero")
	}
	if outA[n-1] >= outA[0] {
		t.Errorf("soft-mute ramp should fade down across the period: outA[0]=%v outA[n-1]=%v", outA[0], outA[n-1])
	}

	if err := host.Remove(handle); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestBadHandleReturnsNeutralValues(t *testing.T) {
	host := NewHost(&fakeFactory{sampleRate: 48000}, 2)

	if err := host.Start(99); err != types.ErrBadHandle {
		t.Errorf("Start(unknown) error = %v, want ErrBadHandle", err)
	}
	if pos := host.GetPosition(99); pos != 0 {
		t.Errorf("GetPosition(unknown) = %v, want 0", pos)
	}
}

func TestCreateFailsWhenNoFreeSlot(t *testing.T) {
	host := NewHost(&fakeFactory{sampleRate: 48000}, 1)
	if _, err := host.Create(); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := host.Create(); err != types.ErrNoFreeSlot {
		t.Errorf("second Create error = %v, want ErrNoFreeSlot", err)
	}
}

func TestSetBufferSizeRejectedWhileOpen(t *testing.T) {
	const sampleRate = 8000
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeMonoWAV(t, path, sampleRate, 4096, 1000)

	host := NewHost(&fakeFactory{sampleRate: sampleRate}, 1)
	handle, _ := host.Create()
	if err := host.Load(context.Background(), handle, path, nil, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := host.SetBufferSize(handle, 1024); err != types.ErrBadState {
		t.Errorf("SetBufferSize while OPEN error = %v, want ErrBadState", err)
	}

	if err := host.Unload(handle); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if err := host.SetBufferSize(handle, 1024); err != nil {
		t.Errorf("SetBufferSize while CLOSED should succeed, got %v", err)
	}
}
