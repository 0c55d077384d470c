package player

import (
	"math"

	"github.com/aldertree/strataplay/pkg/audiograph"
	"github.com/aldertree/strataplay/pkg/types"
)

// audioCallback implements spec.md §4.4: drain the ring buffers, apply
// gain and soft-mute, advance the playhead, and route MIDI - all without
// allocating, blocking, or calling into the decoder's file APIs (§5).
// outA/outB are pre-sized to nFrames and owned by the caller.
func (p *Player) audioCallback(nFrames int, outA, outB []float32, midiIn []audiograph.MidiEvent) {
	if p.FileState() != types.FileOpen {
		zero(outA)
		zero(outB)
		return
	}

	if p.PlayState() == types.PlayStarting && p.ReadState() != types.ReadSeeking {
		p.playState.Store(int32(types.PlayPlaying))
	}

	ps := p.PlayState()
	produced := 0
	if ps == types.PlayPlaying || ps == types.PlayStopping {
		produced = p.drainRings(outA, outB, nFrames)
	}

	gain := float32(p.Gain())
	for i := 0; i < produced; i++ {
		outA[i] *= gain
		outB[i] *= gain
	}

	p.advancePlayPos(int64(produced))

	naturalEOF := ps == types.PlayPlaying && p.ReadState() == types.ReadIdle && p.ringA.AvailableRead() == 0
	if ps == types.PlayStopping || naturalEOF {
		softMuteRamp(outA[:produced])
		softMuteRamp(outB[:produced])
		p.playState.Store(int32(types.PlayStopped))
		if naturalEOF {
			p.playPos.Store(0)
			p.readState.Store(int32(types.ReadSeeking))
		}
	}

	if produced < len(outA) {
		zero(outA[produced:])
	}
	if produced < len(outB) {
		zero(outB[produced:])
	}

	p.routeMidi(midiIn)
}

// drainRings reads up to nFrames*bytesPerSample bytes from ring A, then
// the exact same byte count from ring B, preserving I1 (both buses always
// carry the same number of samples).
func (p *Player) drainRings(outA, outB []float32, nFrames int) int {
	wantBytes := nFrames * bytesPerSample
	growScratch(&p.scratchA, wantBytes)
	growScratch(&p.scratchB, wantBytes)
	rawA := p.scratchA[:wantBytes]
	nA, _ := p.ringA.Read(rawA)
	if nA == 0 {
		return 0
	}
	rawB := p.scratchB[:nA]
	nB, _ := p.ringB.Read(rawB)

	n := nA
	if nB < n {
		n = nB
	}
	framesOut := n / bytesPerSample

	bytesToFloat32Into(rawA[:framesOut*bytesPerSample], outA)
	bytesToFloat32Into(rawB[:framesOut*bytesPerSample], outB)
	return framesOut
}

// growScratch ensures *buf has at least n bytes of capacity, reallocating
// only when the period size grows past what was previously seen (e.g. the
// first period, or a backend that changes its block size). Steady-state
// periods of constant size never reach the allocation path.
func growScratch(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
		return
	}
	*buf = (*buf)[:n]
}

// bytesToFloat32Into decodes little-endian float32 samples already stored
// on the ring (the decoder writes them via float32ToBytesLE) into dst.
func bytesToFloat32Into(raw []byte, dst []float32) {
	n := len(raw) / bytesPerSample
	for i := 0; i < n; i++ {
		dst[i] = readFloat32LE(raw[i*bytesPerSample:])
	}
}

func readFloat32LE(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}

// advancePlayPos advances play_pos_frames by the samples just produced,
// wrapping modulo frames_total (spec.md §4.4 step 6). Only the audio
// callback mutates this during playback; the control surface only writes
// it under the SEEKING handshake (spec.md §5).
func (p *Player) advancePlayPos(n int64) {
	if n == 0 {
		return
	}
	total := p.framesTotal.Load()
	pos := p.playPos.Load() + n
	if total > 0 {
		pos %= total
	}
	p.playPos.Store(pos)
}

// softMuteRamp applies the linear 1->0 fade across the produced samples
// for the final playing period (spec.md §4.4 step 7, exact formula
// recovered from player.c: 1.0 - offset/count).
func softMuteRamp(samples []float32) {
	n := len(samples)
	if n == 0 {
		return
	}
	for i := range samples {
		gain := 1.0 - float32(i)/float32(n)
		samples[i] *= gain
	}
}

func zero(s []float32) {
	for i := range s {
		s[i] = 0
	}
}
