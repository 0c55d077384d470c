package player

import "testing"

func TestDemuxFrameMono(t *testing.T) {
	a, b := demuxFrame([]float32{1.0}, -1, -1)
	if a != 0.5 || b != 0.5 {
		t.Errorf("mono demux = (%v, %v), want (0.5, 0.5)", a, b)
	}
}

func TestDemuxFrameExplicitTracks(t *testing.T) {
	frame := []float32{0.1, 0.2, 0.3, 0.4}
	a, b := demuxFrame(frame, 2, 1)
	if a != 0.3 || b != 0.2 {
		t.Errorf("explicit-track demux = (%v, %v), want (0.3, 0.2)", a, b)
	}
}

func TestDemuxFrameSumEvenOdd(t *testing.T) {
	frame := []float32{1.0, 2.0, 3.0, 4.0} // 4 channels, -1/-1 routing
	a, b := demuxFrame(frame, -1, -1)
	wantA := float32((1.0 + 3.0) / 2) // even channels 0,2
	wantB := float32((2.0 + 4.0) / 2) // odd channels 1,3
	if a != wantA || b != wantB {
		t.Errorf("sum demux = (%v, %v), want (%v, %v)", a, b, wantA, wantB)
	}
}

func TestDemuxBlockFrameCount(t *testing.T) {
	// 3 stereo frames, interleaved L/R.
	interleaved := []float32{1, 2, 3, 4, 5, 6}
	busA, busB := demuxBlock(interleaved, 2, 0, 1)
	if len(busA) != 3 || len(busB) != 3 {
		t.Fatalf("demuxBlock produced (%d, %d) frames, want (3, 3)", len(busA), len(busB))
	}
	wantA := []float32{1, 3, 5}
	wantB := []float32{2, 4, 6}
	for i := range wantA {
		if busA[i] != wantA[i] || busB[i] != wantB[i] {
			t.Errorf("frame %d = (%v, %v), want (%v, %v)", i, busA[i], busB[i], wantA[i], wantB[i])
		}
	}
}
