package player

import (
	"math"
	"time"

	"github.com/aldertree/strataplay/pkg/resampler"
	"github.com/aldertree/strataplay/pkg/ringbuffer"
	"github.com/aldertree/strataplay/pkg/types"
)

// decoderSleep is the backpressure/poll interval spec.md §4.2 and §5 call
// out as "~10 ms"; unload() cannot stall longer than one of these.
const decoderSleep = 10 * time.Millisecond

// runDecoder is the decoder thread body, spawned as a goroutine by
// load() and owning the file handle, the resampler, and the ring buffers'
// write cursors for its entire lifetime (spec.md §4.2, I3, I4). It exits
// when the control surface sets fileState to FileClosed.
func (p *Player) runDecoder() {
	defer close(p.decoderDone)

	dec, channels, fileRate, err := openDecoder(p.fileName)
	if err != nil {
		logDecoderEvent(p.handle, "decoder open failed", "file", p.fileName, "error", err)
		p.fileState.Store(int32(types.FileClosed))
		close(p.openedCh)
		return
	}

	p.decoder = dec
	p.channels = channels
	p.fileSampleRate = fileRate

	ratio := float64(p.outputSampleRate) / float64(fileRate)
	p.srcRatioBits.Store(math.Float64bits(ratio))

	total := dec.TotalFrames()
	if total < 0 {
		total = math.MaxInt64 / 2
	}
	p.framesTotal.Store(int64(float64(total) * ratio))

	capBytes := p.ringCapacityBytes()
	p.ringA = ringbuffer.New(capBytes)
	p.ringB = ringbuffer.New(capBytes)

	p.readState.Store(int32(types.ReadLoading))
	p.fileState.Store(int32(types.FileOpen))
	close(p.openedCh)

	logDecoderEvent(p.handle, "decoder started", "file", p.fileName, "channels", channels, "file_rate", fileRate, "ratio", ratio)

	for p.FileState() == types.FileOpen {
		p.serviceReadState()

		if p.ReadState() == types.ReadLoading {
			if !p.decodeOneBlock() {
				// file_state flipped to CLOSED mid-wait; loop condition
				// will exit on the next check.
				continue
			}
		}

		time.Sleep(decoderSleep)
		p.maybeNotifyAll()
	}

	p.closeDecoderResources()
}

// serviceReadState handles the SEEKING/LOOPING prologue steps of spec.md
// §4.2's main loop (steps 1-2), transitioning into LOADING.
func (p *Player) serviceReadState() {
	switch p.ReadState() {
	case types.ReadSeeking:
		p.ringA.Reset()
		p.ringB.Reset()
		target := int64(float64(p.playPos.Load()) / p.effectiveSrcRatio())
		if err := p.decoder.Seek(target); err != nil {
			logDecoderEvent(p.handle, "seek failed", "target_frame", target, "error", err)
		}
		p.resetResampler()
		p.unusedIn = p.unusedIn[:0]
		p.readState.Store(int32(types.ReadLoading))
	case types.ReadLooping:
		if err := p.decoder.Seek(0); err != nil {
			logDecoderEvent(p.handle, "loop seek failed", "error", err)
		}
		p.resetResampler()
		p.readState.Store(int32(types.ReadLoading))
	}
}

// resetResampler gives the decoder thread a clean resampler history on
// SEEKING/LOOPING and re-pins the soxr conversion ratio to the current
// pitch_shift, exactly as player.c's file_thread_fn recomputes
// srcData.src_ratio on every seek (spec.md SUPPLEMENTED FEATURES).
func (p *Player) resetResampler() {
	if p.resampler == nil {
		return
	}
	if err := p.resampler.Retarget(p.effectiveSrcRatio()); err != nil {
		logDecoderEvent(p.handle, "resampler reset failed", "error", err)
	}
}

// decodeOneBlock performs one iteration of spec.md §4.2 step 3: read,
// (maybe) resample, demux, wait for ring space, and write both rings.
// Returns false if it bailed out because the player was unloaded mid-wait.
func (p *Player) decodeOneBlock() bool {
	bufferSize := p.BufferSize()
	channels := p.channels
	if channels <= 0 {
		p.readState.Store(int32(types.ReadIdle))
		return true
	}

	wantFrames := bufferSize / channels
	if wantFrames <= 0 {
		wantFrames = 1
	}

	_, _, bps := p.decoder.GetFormat()
	raw := make([]byte, wantFrames*channels*(bps/8))
	n, err := p.decoder.DecodeSamples(wantFrames, raw)
	if err != nil && n == 0 {
		logDecoderEvent(p.handle, "decode read error", "error", err)
	}

	int16Bytes := rawToInt16LE(raw, n, channels, bps)

	resampled, err := p.resampleBlock(int16Bytes)
	if err != nil {
		logDecoderEvent(p.handle, "resampler failure, dropping block", "error", err)
		resampled = nil
	}

	floatInterleaved := int16LEToFloat32(resampled)
	busA, busB := demuxBlock(floatInterleaved, channels, p.TrackA(), p.TrackB())

	if len(busA) > 0 {
		if !p.waitForRingSpace(uint64(len(busA) * bytesPerSample)) {
			return false
		}
		// Bus B is written first so bus A can never outrace it (I1),
		// preserved literally from the original decoder's fill order.
		p.ringB.Write(float32ToBytesLE(busB))
		p.ringA.Write(float32ToBytesLE(busA))
	}

	if n < wantFrames {
		if p.Loop() {
			p.readState.Store(int32(types.ReadLooping))
		} else {
			p.readState.Store(int32(types.ReadIdle))
		}
	}
	return true
}

// resampleBlock runs the configured resampler unless the effective ratio
// is exactly 1 (spec.md §4.2 step 3b), in which case it passes the block
// through untouched. The resampler is created lazily on first use so a
// same-rate, no-pitch-shift player never touches the soxr binding, and its
// conversion ratio always tracks effectiveSrcRatio() (base src_ratio times
// the pitch_shift semitone factor) rather than the bare output/file rate,
// so a note-on transpose (spec.md §4.6) and setPitchShift actually retune
// the audio instead of only the reported position.
func (p *Player) resampleBlock(in []byte) ([]byte, error) {
	ratio := p.effectiveSrcRatio()
	if ratio == 1 {
		return in, nil
	}
	if p.resampler == nil {
		r, err := resampler.New(float64(p.fileSampleRate), float64(p.fileSampleRate)*ratio, p.channels, p.SrcQuality())
		if err != nil {
			return nil, err
		}
		p.resampler = r
	} else if p.resampler.Ratio() != ratio {
		if err := p.resampler.Retarget(ratio); err != nil {
			return nil, err
		}
	}
	return p.resampler.Process(in)
}

// waitForRingSpace blocks (sleeping, never spinning hot) until both rings
// have room for n bytes, emitting periodic notifications per spec.md §4.2
// step 3e. Returns false if fileState flips to CLOSED while waiting.
func (p *Player) waitForRingSpace(n uint64) bool {
	for p.ringA.AvailableWrite() < n || p.ringB.AvailableWrite() < n {
		if p.FileState() != types.FileOpen {
			return false
		}
		time.Sleep(decoderSleep)
		p.maybeNotifyAll()
	}
	return true
}

func (p *Player) closeDecoderResources() {
	if p.decoder != nil {
		if err := p.decoder.Close(); err != nil {
			logDecoderEvent(p.handle, "decoder close failed", "error", err)
		}
		p.decoder = nil
	}
	if p.resampler != nil {
		p.resampler.Close()
		p.resampler = nil
	}
	p.fileName = ""
	logDecoderEvent(p.handle, "decoder stopped")
}
