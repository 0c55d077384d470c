package resampler

import (
	"testing"

	"github.com/aldertree/strataplay/pkg/types"
)

func TestRatio(t *testing.T) {
	r, err := New(22050, 44100, 1, types.SrcQualityBest)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer r.Close()

	if got := r.Ratio(); got != 2.0 {
		t.Errorf("Ratio() = %v, want 2.0", got)
	}
}

func TestResetPreservesRates(t *testing.T) {
	r, err := New(48000, 48000, 2, types.SrcQualityFastest)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer r.Close()

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if got := r.Ratio(); got != 1.0 {
		t.Errorf("Ratio() after Reset() = %v, want 1.0", got)
	}
}
