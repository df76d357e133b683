package trx24

import "sync/atomic"

// DefaultBufferSize is the receive ring capacity. One slot is reserved to
// tell full from empty, so it holds DefaultBufferSize-1 bytes.
const DefaultBufferSize = 127

// ringBuffer is a single-producer single-consumer byte queue.
//
// Only the producer (the receive-end interrupt) stores head and only the
// consumer stores tail. Each cursor is published with a single atomic store
// after the slot it covers has been written or read, so neither side can
// observe a half-updated cursor.
type ringBuffer struct {
	buf  []byte
	head atomic.Uint32 // next write slot
	tail atomic.Uint32 // next read slot
}

func newRingBuffer(size int) *ringBuffer {
	if size < 2 {
		size = 2
	}
	return &ringBuffer{buf: make([]byte, size)}
}

// Size returns the number of slots, including the reserved one.
func (rb *ringBuffer) Size() int {
	return len(rb.buf)
}

// Used returns how many bytes are waiting to be read.
func (rb *ringBuffer) Used() int {
	c := uint32(len(rb.buf))
	return int((c + rb.head.Load() - rb.tail.Load()) % c)
}

// Put stores a byte. It returns false without touching the buffer when full.
func (rb *ringBuffer) Put(b byte) bool {
	c := uint32(len(rb.buf))
	h := rb.head.Load()
	next := (h + 1) % c
	if next == rb.tail.Load() {
		return false
	}
	rb.buf[h] = b
	rb.head.Store(next)
	return true
}

// Get pops the oldest byte. It returns (0, false) when empty.
func (rb *ringBuffer) Get() (byte, bool) {
	t := rb.tail.Load()
	if t == rb.head.Load() {
		return 0, false
	}
	b := rb.buf[t]
	rb.tail.Store((t + 1) % uint32(len(rb.buf)))
	return b, true
}

// Clear discards everything. A Put running concurrently may be lost.
func (rb *ringBuffer) Clear() {
	rb.head.Store(0)
	rb.tail.Store(0)
	for i := range rb.buf {
		rb.buf[i] = 0
	}
}
