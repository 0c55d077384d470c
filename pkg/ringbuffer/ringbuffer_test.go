package ringbuffer

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestNewRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		requested uint64
		want      uint64
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{1024, 1024},
		{1025, 2048},
	}

	for _, c := range cases {
		rb := New(c.requested)
		if rb.Size() != c.want {
			t.Errorf("New(%d).Size() = %d, want %d", c.requested, rb.Size(), c.want)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	rb := New(16)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	n, err := rb.Write(data)
	if err != nil || n != len(data) {
		t.Fatalf("Write() = (%d, %v), want (%d, nil)", n, err, len(data))
	}

	out := make([]byte, len(data))
	n, err = rb.Read(out)
	if err != nil || n != len(data) {
		t.Fatalf("Read() = (%d, %v), want (%d, nil)", n, err, len(data))
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("Read()[%d] = %d, want %d", i, out[i], data[i])
		}
	}
}

func TestWriteRejectsWhenFull(t *testing.T) {
	rb := New(8)
	if _, err := rb.Write(make([]byte, 8)); err != nil {
		t.Fatalf("first write should fit exactly: %v", err)
	}
	_, err := rb.Write([]byte{1})
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("Write() on full buffer = %v, want ErrInsufficientSpace", err)
	}
}

func TestReadOnEmptyReturnsInsufficientData(t *testing.T) {
	rb := New(8)
	_, err := rb.Read(make([]byte, 1))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Read() on empty buffer = %v, want ErrInsufficientData", err)
	}
}

func TestResetClearsPositions(t *testing.T) {
	rb := New(8)
	rb.Write([]byte{1, 2, 3})
	rb.Reset()
	if rb.AvailableRead() != 0 {
		t.Fatalf("AvailableRead() after Reset() = %d, want 0", rb.AvailableRead())
	}
	if rb.AvailableWrite() != rb.Size() {
		t.Fatalf("AvailableWrite() after Reset() = %d, want %d", rb.AvailableWrite(), rb.Size())
	}
}

func TestWrapAroundPreservesOrder(t *testing.T) {
	rb := New(8)
	// Prime the cursors near a wrap boundary.
	rb.Write([]byte{0, 0, 0, 0, 0, 0})
	rb.Read(make([]byte, 6))

	payload := []byte{10, 20, 30, 40, 50}
	if _, err := rb.Write(payload); err != nil {
		t.Fatalf("Write() across wrap: %v", err)
	}
	out := make([]byte, len(payload))
	if _, err := rb.Read(out); err != nil {
		t.Fatalf("Read() across wrap: %v", err)
	}
	for i := range payload {
		if out[i] != payload[i] {
			t.Fatalf("wrap-around byte %d = %d, want %d", i, out[i], payload[i])
		}
	}
}

// TestReadSpaceWriteSpaceParity checks the spec §8 invariant that a ring
// buffer's write_space and read_space always sum to its capacity, for any
// sequence of writes and reads a producer/consumer pair could issue.
func TestReadSpaceWriteSpaceParity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.SampledFrom([]uint64{8, 16, 32, 64}).Draw(rt, "capacity")
		rb := New(capacity)

		steps := rapid.SliceOfN(rapid.IntRange(-16, 16), 0, 40).Draw(rt, "steps")
		for _, s := range steps {
			if s >= 0 {
				rb.Write(make([]byte, s))
			} else {
				rb.Read(make([]byte, -s))
			}
			if rb.AvailableRead()+rb.AvailableWrite() != rb.Size() {
				rt.Fatalf("read_space(%d) + write_space(%d) != size(%d)",
					rb.AvailableRead(), rb.AvailableWrite(), rb.Size())
			}
		}
	})
}
