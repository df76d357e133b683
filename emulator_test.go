package trx24

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendFCS(t *testing.T) {
	// CRC-16/KERMIT check value is 0x2189, transmitted low byte first.
	got := AppendFCS([]byte("123456789"))
	want := append([]byte("123456789"), 0x89, 0x21)
	if !bytes.Equal(got, want) {
		t.Errorf("Expected %X, got %X", want, got)
	}
	if !fcsValid(got, len(got)) {
		t.Error("fcsValid rejected a frame built by AppendFCS")
	}

	got[0] ^= 0x01
	if fcsValid(got, len(got)) {
		t.Error("fcsValid accepted a corrupted frame")
	}
	if fcsValid([]byte{0x00}, 1) {
		t.Error("fcsValid accepted a frame shorter than the trailer")
	}
}

func TestEmulatorIgnoresReceiveWhenNotListening(t *testing.T) {
	emu := NewEmulator()
	if emu.Receive([]byte("x")) {
		t.Error("Receive succeeded before the transceiver was initialized")
	}

	r := newRigWith(t, emu, RadioConfig{Channel: 11})
	if err := r.dev.transition(StateOff); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if emu.Receive([]byte("x")) {
		t.Error("Receive succeeded while TRX_OFF")
	}
	if r.dev.Available() != 0 {
		t.Errorf("Expected no buffered bytes, got %d", r.dev.Available())
	}
}

func TestEmulatorRun(t *testing.T) {
	emu := NewEmulator()
	emu.Loopback = true
	r := newRigWith(t, emu, RadioConfig{Channel: 20})

	// Strobe before the ticker starts so the loopback finds the radio
	// listening again.
	if err := r.dev.SendString("ping"); err != nil {
		t.Fatalf("SendString failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		emu.Run(ctx, time.Millisecond)
		close(done)
	}()

	rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
	defer rcancel()
	buf := make([]byte, 16)
	n, err := r.dev.ReadContext(rctx, buf)
	if err != nil {
		t.Fatalf("ReadContext failed: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("Expected %q, got %q", "ping", buf[:n])
	}

	cancel()
	<-done
}

func TestReadContextCancel(t *testing.T) {
	r := newRig(t, RadioConfig{Channel: 11})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	n, err := r.dev.ReadContext(ctx, make([]byte, 8))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 bytes, got %d", n)
	}
}

func TestServiceInterruptMasked(t *testing.T) {
	r := newRig(t, RadioConfig{Channel: 11})

	if r.emu.IRQMask() != irqEnabled {
		t.Fatalf("Expected IRQ_MASK 0x%02X, got 0x%02X", irqEnabled, r.emu.IRQMask())
	}

	// With nothing pending a spurious edge must not touch the buffer.
	r.dev.ServiceInterrupt()
	if r.dev.Available() != 0 {
		t.Errorf("Spurious interrupt buffered %d bytes", r.dev.Available())
	}
}

func TestEmulatorRunNonPositiveInterval(t *testing.T) {
	emu := NewEmulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		emu.Run(ctx, 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
