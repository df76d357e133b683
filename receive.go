package trx24

import (
	"context"
	"time"
)

// --- Interrupt handlers ---
//
// The handlers run in interrupt context: on a microcontroller from the
// vector, on a host from the IRQ pin's watch goroutine. They never change the
// operating state, and the receive-end handler is the only writer of the
// ring buffer's head.

// ServiceInterrupt reads and clears IRQ_STATUS and runs the handler for each
// pending source, RX start first.
func (d *Device) ServiceInterrupt() {
	status, err := d.bus.ReadRegister(_IRQ_STATUS)
	if err != nil {
		logFailure(d.log, "read IRQ_STATUS", err)
		return
	}
	if status&IRQRxStart != 0 {
		d.RxStartInterrupt()
	}
	if status&IRQRxEnd != 0 {
		d.RxEndInterrupt()
	}
	if status&IRQTxEnd != 0 {
		d.TxEndInterrupt()
	}
}

// RxStartInterrupt samples the signal strength and lights the RX LED.
func (d *Device) RxStartInterrupt() {
	d.setLED(d.config.RxLED, High)
	v, err := d.bus.ReadRegister(_PHY_RSSI)
	if err != nil {
		logFailure(d.log, "read PHY_RSSI", err)
		return
	}
	d.rssi.Store(uint32(v))
}

// RxEndInterrupt queues the payload of a frame whose FCS checked out.
// Frames with a bad FCS are dropped. When the ring fills up, the rest of the
// frame is dropped. Both cases are only visible through Stats.
func (d *Device) RxEndInterrupt() {
	defer d.setLED(d.config.RxLED, Low)

	v, err := d.bus.ReadRegister(_PHY_RSSI)
	if err != nil {
		logFailure(d.log, "read PHY_RSSI", err)
		return
	}
	if v&_RX_CRC_VALID == 0 {
		d.stats.crcErrors.Add(1)
		return
	}

	phr, n, err := d.bus.ReadFrame(d.frame[:])
	if err != nil {
		logFailure(d.log, "read frame buffer", err)
		return
	}
	length := int(phr)
	if n < length {
		length = n
	}
	length -= TrailerSize

	k := 0
	for ; k < length; k++ {
		if !d.rx.Put(d.frame[k]) {
			break
		}
	}
	if k < length {
		d.stats.overflows.Add(1)
		d.stats.droppedBytes.Add(uint32(length - k))
	}
	d.stats.framesReceived.Add(1)
}

// TxEndInterrupt clears the TX LED once the frame has left the air.
func (d *Device) TxEndInterrupt() {
	d.setLED(d.config.TxLED, Low)
}

// --- Consumer API ---

// Available returns the number of received bytes waiting to be read.
func (d *Device) Available() int {
	return d.rx.Used()
}

// ReadOne pops the oldest received byte. The second result is false when
// nothing is buffered.
func (d *Device) ReadOne() (byte, bool) {
	return d.rx.Get()
}

// ReadMany pops up to max bytes into p and returns how many were copied.
// It stops early when the buffer runs dry and never blocks.
func (d *Device) ReadMany(p []byte, max int) int {
	if max > len(p) {
		max = len(p)
	}
	count := 0
	for count < max {
		b, ok := d.rx.Get()
		if !ok {
			break
		}
		p[count] = b
		count++
	}
	return count
}

// Flush discards all buffered received bytes. Bytes a concurrent RX end
// interrupt is queuing may be lost.
func (d *Device) Flush() {
	d.rx.Clear()
}

// ReadContext waits until at least one byte is buffered or ctx is done, then
// reads like ReadMany.
func (d *Device) ReadContext(ctx context.Context, p []byte) (int, error) {
	for {
		if n := d.ReadMany(p, len(p)); n > 0 || len(p) == 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		// Use Sleep instead of time.NewTimer/time.After to avoid heap allocation overhead
		time.Sleep(5 * time.Millisecond)
	}
}
