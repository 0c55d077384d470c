package player

// demuxFrame implements the channel de-multiplexing rule of spec.md §4.5
// for one decoded (and already resampled) frame of C interleaved
// channels. trackA/trackB are the configured routing (-1 meaning "sum the
// even/odd channels").
func demuxFrame(frame []float32, trackA, trackB int) (a, b float32) {
	c := len(frame)
	switch {
	case c == 0:
		return 0, 0
	case c == 1:
		a = frame[0] / 2
		b = frame[0] / 2
		return a, b
	}

	if trackA >= 0 && trackA < c {
		a = frame[trackA]
	} else {
		a = sumStride(frame, 0)
	}
	if trackB >= 0 && trackB < c {
		b = frame[trackB]
	} else {
		b = sumStride(frame, 1)
	}
	return a, b
}

// sumStride averages every channel starting at start, stepping by 2
// (even channels for start=0, odd for start=1), matching the
// "sum over even/odd-indexed channels / (C/2)" rule in spec.md §4.5.
func sumStride(frame []float32, start int) float32 {
	var sum float32
	var count int
	for i := start; i < len(frame); i += 2 {
		sum += frame[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

// demuxBlock demultiplexes a full interleaved float32 block (frameCount *
// channels samples) into two mono buses.
func demuxBlock(interleaved []float32, channels, trackA, trackB int) (busA, busB []float32) {
	if channels <= 0 {
		return nil, nil
	}
	frameCount := len(interleaved) / channels
	busA = make([]float32, frameCount)
	busB = make([]float32, frameCount)
	frame := make([]float32, channels)
	for f := 0; f < frameCount; f++ {
		copy(frame, interleaved[f*channels:(f+1)*channels])
		busA[f], busB[f] = demuxFrame(frame, trackA, trackB)
	}
	return busA, busB
}
