package trx24

import (
	"bytes"
	"testing"
)

func fill(rb *ringBuffer, data []byte) int {
	n := 0
	for _, b := range data {
		if !rb.Put(b) {
			break
		}
		n++
	}
	return n
}

func drain(rb *ringBuffer) []byte {
	var out []byte
	for {
		b, ok := rb.Get()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func seq(start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(start + i)
	}
	return out
}

func TestRingBufferFIFO(t *testing.T) {
	rb := newRingBuffer(DefaultBufferSize)
	in := []byte("hello world")
	if n := fill(rb, in); n != len(in) {
		t.Fatalf("Put accepted %d bytes, want %d", n, len(in))
	}
	if rb.Used() != len(in) {
		t.Errorf("Used() = %d, want %d", rb.Used(), len(in))
	}
	if out := drain(rb); !bytes.Equal(out, in) {
		t.Errorf("Expected %q, got %q", in, out)
	}
	if _, ok := rb.Get(); ok {
		t.Error("Get on empty buffer returned data")
	}
}

func TestRingBufferCapacity(t *testing.T) {
	rb := newRingBuffer(DefaultBufferSize)
	in := seq(0, DefaultBufferSize-1)
	if n := fill(rb, in); n != DefaultBufferSize-1 {
		t.Fatalf("Put accepted %d bytes, want %d", n, DefaultBufferSize-1)
	}
	if rb.Put(0xFF) {
		t.Error("Put on full buffer succeeded")
	}
	if rb.Used() != DefaultBufferSize-1 {
		t.Errorf("Used() = %d, want %d", rb.Used(), DefaultBufferSize-1)
	}
	if out := drain(rb); !bytes.Equal(out, in) {
		t.Errorf("Full buffer corrupted: got %X", out)
	}
}

func TestRingBufferWraparound(t *testing.T) {
	rb := newRingBuffer(DefaultBufferSize)

	first := seq(0, 100)
	fill(rb, first)
	if out := drain(rb); !bytes.Equal(out, first) {
		t.Fatalf("First batch mismatch: %X", out)
	}

	second := seq(100, 50)
	if n := fill(rb, second); n != 50 {
		t.Fatalf("Put accepted %d bytes across the boundary, want 50", n)
	}
	if rb.Used() != 50 {
		t.Errorf("Used() = %d, want 50", rb.Used())
	}
	if out := drain(rb); !bytes.Equal(out, second) {
		t.Errorf("Wrapped batch mismatch: got %X", out)
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := newRingBuffer(8)
	rb.Clear()
	if rb.Used() != 0 {
		t.Errorf("Used() after Clear on empty = %d", rb.Used())
	}

	fill(rb, seq(1, 5))
	rb.Get()
	rb.Clear()
	if rb.Used() != 0 {
		t.Errorf("Used() after Clear = %d", rb.Used())
	}
	if _, ok := rb.Get(); ok {
		t.Error("Get after Clear returned data")
	}
}

func TestRingBufferConcurrent(t *testing.T) {
	rb := newRingBuffer(16)
	in := seq(0, 250)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, b := range in {
			for !rb.Put(b) {
			}
		}
	}()

	out := make([]byte, 0, len(in))
	for len(out) < len(in) {
		if b, ok := rb.Get(); ok {
			out = append(out, b)
		}
	}
	<-done

	if !bytes.Equal(out, in) {
		t.Errorf("Concurrent transfer reordered or lost bytes")
	}
}
