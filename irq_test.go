package trx24

import (
	"bytes"
	"testing"
	"time"
)

func TestIRQLatchDoesNotBlockWhileBusHeld(t *testing.T) {
	b, conn, _, _ := newTestSPIBus(t)
	dev := &Device{bus: b, log: &nopLogger{}, rx: newRingBuffer(16)}

	handled := make(chan struct{}, 1)
	latch := newIRQLatch(func() {
		dev.ServiceInterrupt()
		handled <- struct{}{}
	})
	defer latch.stop()

	// The application is in the middle of a transaction.
	b.mu.Lock()

	signalled := make(chan struct{})
	go func() {
		latch.signal()
		close(signalled)
	}()
	select {
	case <-signalled:
	case <-time.After(100 * time.Millisecond):
		b.mu.Unlock()
		t.Fatal("signal blocked on the bus held by the application")
	}

	select {
	case <-handled:
		b.mu.Unlock()
		t.Fatal("Handler ran while the bus was held")
	case <-time.After(20 * time.Millisecond):
	}

	b.mu.Unlock()
	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("Handler did not run after the bus was released")
	}

	// The deferred handler read IRQ_STATUS.
	if !bytes.HasPrefix(conn.tx, []byte{_SPI_REG_READ | _IRQ_STATUS}) {
		t.Errorf("Expected IRQ_STATUS read, got TX trace %X", conn.tx)
	}
}

func TestIRQLatchCoalesces(t *testing.T) {
	release := make(chan struct{})
	runs := make(chan struct{}, 8)
	latch := newIRQLatch(func() {
		<-release
		runs <- struct{}{}
	})
	defer latch.stop()

	// One run blocks in the handler, the rest collapse into one pending.
	for i := 0; i < 5; i++ {
		latch.signal()
	}
	close(release)

	time.Sleep(50 * time.Millisecond)
	if n := len(runs); n < 1 || n > 2 {
		t.Errorf("Expected 1 or 2 handler runs for 5 signals, got %d", n)
	}
}

func TestIRQLatchStop(t *testing.T) {
	calls := make(chan struct{}, 4)
	latch := newIRQLatch(func() { calls <- struct{}{} })

	latch.signal()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("Handler did not run")
	}

	latch.stop()
	// The handler goroutine may still pick up a signal racing with stop,
	// but signal itself must never block afterwards.
	for i := 0; i < 3; i++ {
		latch.signal()
	}
}
